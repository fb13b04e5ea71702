package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// MemoryStore is the in-memory Store used by tests and the demo binary.
// Records are deep-copied on the way in and out, so callers cannot mutate
// stored state through aliases.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	rows  map[string]Record
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memoryTable)}
}

func (s *MemoryStore) table(name string) *memoryTable {
	t, ok := s.tables[name]
	if !ok {
		t = &memoryTable{rows: make(map[string]Record)}
		s.tables[name] = t
	}
	return t
}

func (s *MemoryStore) Select(_ context.Context, table string, filters Filters) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	matches := []Record{}
	for _, id := range t.order {
		row := t.rows[id]
		if recordMatches(row, filters) {
			copied, err := deepCopy(row)
			if err != nil {
				return nil, err
			}
			matches = append(matches, copied)
		}
	}
	return matches, nil
}

func (s *MemoryStore) Insert(_ context.Context, table string, record Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := deepCopy(record)
	if err != nil {
		return nil, err
	}
	id, ok := stored["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["id"] = id
	}

	t := s.table(table)
	if _, exists := t.rows[id]; exists {
		return nil, eris.Errorf("store: duplicate id %s in %s", id, table)
	}
	t.rows[id] = stored
	t.order = append(t.order, id)

	return deepCopy(stored)
}

func (s *MemoryStore) Update(_ context.Context, table string, id string, patch Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	row, ok := t.rows[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "store: %s/%s", table, id)
	}
	patched, err := deepCopy(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range patched {
		row[k] = v
	}
	return deepCopy(row)
}

// recordMatches mirrors the JSONB containment the Postgres implementation
// relies on, at the top level: every filter key must be present and equal.
func recordMatches(row Record, filters Filters) bool {
	for k, want := range filters {
		got, ok := row[k]
		if !ok {
			return false
		}
		wantJSON, err := json.Marshal(want)
		if err != nil {
			return false
		}
		gotJSON, err := json.Marshal(got)
		if err != nil {
			return false
		}
		if string(wantJSON) != string(gotJSON) {
			return false
		}
	}
	return true
}

// deepCopy round-trips through JSON, which also normalizes values to what
// the Postgres implementation would return (numbers as float64, structs as
// maps).
func deepCopy(record Record) (Record, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, eris.Wrap(err, "store: copy record")
	}
	var copied Record
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, eris.Wrap(err, "store: copy record")
	}
	return copied, nil
}
