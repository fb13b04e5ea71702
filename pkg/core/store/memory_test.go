package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreInsertAssignsID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	record, err := s.Insert(ctx, TableProjects, Record{"name": "테크밸리 평가"})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if id, _ := record["id"].(string); id == "" {
		t.Error("Insert() did not assign an id")
	}

	explicit, err := s.Insert(ctx, TableProjects, Record{"id": "proj-1", "name": "지정 ID"})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if explicit["id"] != "proj-1" {
		t.Errorf("explicit id not preserved: %v", explicit["id"])
	}

	if _, err := s.Insert(ctx, TableProjects, Record{"id": "proj-1"}); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestMemoryStoreSelectFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, r := range []Record{
		{"id": "r1", "project_id": "proj-1", "method": "dcf"},
		{"id": "r2", "project_id": "proj-1", "method": "relative"},
		{"id": "r3", "project_id": "proj-2", "method": "dcf"},
	} {
		if _, err := s.Insert(ctx, TableValuationResults, r); err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
	}

	records, err := s.Select(ctx, TableValuationResults, Filters{"project_id": "proj-1"})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Insertion order preserved.
	if records[0]["id"] != "r1" || records[1]["id"] != "r2" {
		t.Errorf("order = %v, %v; want r1, r2", records[0]["id"], records[1]["id"])
	}

	one, err := s.Select(ctx, TableValuationResults, Filters{"project_id": "proj-1", "method": "dcf"})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(one) != 1 || one[0]["id"] != "r1" {
		t.Errorf("compound filter returned %v", one)
	}

	none, err := s.Select(ctx, TableValuationResults, Filters{"project_id": "proj-9"})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("no-match returned %d records, want empty slice", len(none))
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Insert(ctx, TableProjects, Record{"id": "proj-1", "status": "requested", "step": 1}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	updated, err := s.Update(ctx, TableProjects, "proj-1", Record{"status": "quote_sent", "step": 2})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated["status"] != "quote_sent" {
		t.Errorf("status = %v, want quote_sent", updated["status"])
	}

	// Unpatched keys survive the merge.
	records, err := s.Select(ctx, TableProjects, Filters{"id": "proj-1"})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if records[0]["status"] != "quote_sent" {
		t.Errorf("persisted status = %v", records[0]["status"])
	}

	if _, err := s.Update(ctx, TableProjects, "missing", Record{"status": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	original := Record{"id": "r1", "nested": map[string]any{"value": 1.0}}
	if _, err := s.Insert(ctx, TableProjects, original); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	// Mutating what the caller holds must not touch stored state.
	original["nested"].(map[string]any)["value"] = 999.0

	records, err := s.Select(ctx, TableProjects, Filters{"id": "r1"})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	nested := records[0]["nested"].(map[string]any)
	if nested["value"] != 1.0 {
		t.Errorf("stored record aliased caller memory: %v", nested["value"])
	}
}
