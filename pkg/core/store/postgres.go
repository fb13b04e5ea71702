package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// ErrNotFound marks a lookup whose id does not exist.
var ErrNotFound = eris.New("record not found")

// PostgresStore persists records as JSONB rows. Every table shares the
// schema:
//
//	CREATE TABLE IF NOT EXISTS <table> (
//	  id TEXT PRIMARY KEY,
//	  data JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	);
//
// Schema management lives in migrations, not here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool. The caller owns the
// pool's lifecycle.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPool builds a pgx connection pool from a database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, eris.New("database URL not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect")
	}
	return pool, nil
}

func (s *PostgresStore) Select(ctx context.Context, table string, filters Filters) ([]Record, error) {
	query := `SELECT data FROM ` + pgx.Identifier{table}.Sanitize() +
		` WHERE data @> $1 ORDER BY created_at`
	filterJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal filters")
	}

	rows, err := s.pool.Query(ctx, query, filterJSON)
	if err != nil {
		return nil, eris.Wrapf(err, "store: select from %s", table)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "store: scan %s row", table)
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, eris.Wrapf(err, "store: decode %s row", table)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: iterate %s rows", table)
	}
	return records, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, record Record) (Record, error) {
	stored := cloneRecord(record)
	id, ok := stored["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["id"] = id
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal %s record", table)
	}

	query := `INSERT INTO ` + pgx.Identifier{table}.Sanitize() +
		` (id, data, created_at, updated_at) VALUES ($1, $2, $3, $3)`
	if _, err := s.pool.Exec(ctx, query, id, data, time.Now()); err != nil {
		return nil, eris.Wrapf(err, "store: insert into %s", table)
	}
	return stored, nil
}

func (s *PostgresStore) Update(ctx context.Context, table string, id string, patch Record) (Record, error) {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal patch")
	}

	query := `UPDATE ` + pgx.Identifier{table}.Sanitize() +
		` SET data = data || $2, updated_at = $3 WHERE id = $1 RETURNING data`
	var data []byte
	err = s.pool.QueryRow(ctx, query, id, patchJSON, time.Now()).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, eris.Wrapf(ErrNotFound, "store: %s/%s", table, id)
		}
		return nil, eris.Wrapf(err, "store: update %s/%s", table, id)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, eris.Wrapf(err, "store: decode updated %s row", table)
	}
	return record, nil
}

func cloneRecord(record Record) Record {
	clone := make(Record, len(record))
	for k, v := range record {
		clone[k] = v
	}
	return clone
}
