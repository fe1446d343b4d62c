package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	xerrors "membership-service/internal/pkg/errors"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "things", "t1"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("get of missing document: expected ErrNotFound, got %v", err)
	}

	if err := store.Create(ctx, "things", "t1", map[string]interface{}{"name": "first", "count": 1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Create(ctx, "things", "t1", map[string]interface{}{"name": "dup"}); !errors.Is(err, xerrors.ErrConflict) {
		t.Fatalf("duplicate create: expected ErrConflict, got %v", err)
	}

	if err := store.Update(ctx, "things", "t1", map[string]interface{}{"count": 2}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := store.Update(ctx, "things", "t2", map[string]interface{}{"count": 2}); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("update of missing document: expected ErrNotFound, got %v", err)
	}

	doc, err := store.Get(ctx, "things", "t1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.Data["name"] != "first" {
		t.Errorf("update replaced untouched field: %v", doc.Data["name"])
	}
	if doc.Data["count"] != float64(2) {
		t.Errorf("count = %v, want 2", doc.Data["count"])
	}
}

func TestMemoryStoreQueryFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		id       string
		status   string
		due      time.Time
		archived bool
	}{
		{"r1", "active", cutoff.AddDate(0, 0, -1), false},
		{"r2", "active", cutoff, false}, // boundary, <= must match
		{"r3", "active", cutoff.AddDate(0, 0, 1), false},
		{"r4", "expired", cutoff.AddDate(0, 0, -1), true},
	}
	for _, r := range rows {
		data := map[string]interface{}{"status": r.status, "due": r.due}
		if r.archived {
			data["archived"] = true
		}
		if err := store.Set(ctx, "rows", r.id, data); err != nil {
			t.Fatalf("set %s: %v", r.id, err)
		}
	}

	docs, err := store.Query(ctx, "rows",
		Where("status", OpEqual, "active"),
		Where("due", OpLessOrEqual, cutoff))
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("query matched %d rows, want 2 (boundary inclusive)", len(docs))
	}

	// Absent boolean fields count as false for both == and !=.
	docs, err = store.Query(ctx, "rows", Where("archived", OpNotEqual, true))
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("unarchived query matched %d rows, want 3", len(docs))
	}

	docs, err = store.Query(ctx, "rows")
	if err != nil {
		t.Fatalf("unfiltered query failed: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("unfiltered query matched %d rows, want 4", len(docs))
	}
}

func TestMemoryBatchCommitsInChunks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	batch := store.Batch()
	total := MaxBatchWrites + 1
	for i := 0; i < total; i++ {
		batch.Set("bulk", fmt.Sprintf("doc-%d", i), map[string]interface{}{"n": i})
	}
	if batch.Len() != total {
		t.Fatalf("batch length = %d, want %d", batch.Len(), total)
	}

	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if store.BatchCommits() != 2 {
		t.Fatalf("commit chunks = %d, want 2", store.BatchCommits())
	}

	docs, err := store.Query(ctx, "bulk")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(docs) != total {
		t.Fatalf("persisted %d documents, want %d", len(docs), total)
	}
}

func TestMemoryBatchChunkIsAtomic(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, "rows", "existing", map[string]interface{}{"n": 0}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	batch := store.Batch()
	batch.Create("rows", "fresh", map[string]interface{}{"n": 1})
	batch.Create("rows", "existing", map[string]interface{}{"n": 2})

	if err := batch.Commit(ctx); !errors.Is(err, xerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The conflicting chunk must leave no partial writes behind.
	if _, err := store.Get(ctx, "rows", "fresh"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("failed chunk leaked a write: %v", err)
	}
	doc, err := store.Get(ctx, "rows", "existing")
	if err != nil {
		t.Fatalf("get existing: %v", err)
	}
	if doc.Data["n"] != float64(0) {
		t.Errorf("existing document mutated by failed chunk: %v", doc.Data["n"])
	}
}

func TestMemoryBatchUpdateRequiresDocument(t *testing.T) {
	store := NewMemoryStore()

	batch := store.Batch()
	batch.Update("rows", "missing", map[string]interface{}{"n": 1})

	if err := batch.Commit(context.Background()); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type entity struct {
		ID   string    `json:"id"`
		When time.Time `json:"when"`
		N    int       `json:"n"`
	}

	in := entity{ID: "e1", When: time.Date(2025, 3, 4, 5, 6, 7, 890, time.UTC), N: 42}
	data, err := Encode(&in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var out entity
	if err := Decode(Document{ID: "e1", Data: data}, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.ID != in.ID || out.N != in.N || !out.When.Equal(in.When) {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}
