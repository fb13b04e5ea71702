// Package store is the persistence layer: a small table/record contract
// with a PostgreSQL (JSONB) implementation for production and an in-memory
// implementation for tests. Collaborators receive a Store explicitly; there
// is no package-level client.
package store

import "context"

// Record is one persisted row's payload. The "id" key is the row identity;
// Insert assigns one when absent.
type Record = map[string]any

// Filters narrows a Select to rows whose payload contains every given
// key/value pair.
type Filters = map[string]any

// Store is the persistence contract the orchestrator and repositories
// depend on.
type Store interface {
	// Select returns the matching records in insertion order. No match is
	// an empty slice, not an error.
	Select(ctx context.Context, table string, filters Filters) ([]Record, error)

	// Insert persists a new record and returns it with its assigned id.
	Insert(ctx context.Context, table string, record Record) (Record, error)

	// Update merges patch into the identified record and returns the
	// merged result. A missing id is ErrNotFound.
	Update(ctx context.Context, table string, id string, patch Record) (Record, error)
}

// Table names used by the valuation pipeline.
const (
	TableProjects         = "projects"
	TableValuationResults = "valuation_results"
	TableApprovalPoints   = "approval_points"
	TableReports          = "reports"
)
