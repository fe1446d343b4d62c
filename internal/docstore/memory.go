// internal/docstore/memory.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	xerrors "membership-service/internal/pkg/errors"
)

// MemoryStore is a map-backed Store used by tests and local development.
// Values are JSON-normalized on write so documents read back with the same
// loose shapes the Postgres store produces.
type MemoryStore struct {
	mu           sync.RWMutex
	collections  map[string]map[string]map[string]interface{}
	batchCommits int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

// BatchCommits returns how many atomic batch chunks have been committed.
func (s *MemoryStore) BatchCommits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batchCommits
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return Document{}, xerrors.ErrNotFound
	}

	copied, err := normalize(data)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: copied}, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(collection, id, data)
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(collection, id, data)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(collection, id, fields)
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, data := range s.collections[collection] {
		match := true
		for _, f := range filters {
			ok, err := matches(data, f)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if !match {
			continue
		}

		copied, err := normalize(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: copied})
	}

	return docs, nil
}

func (s *MemoryStore) Batch() Batch {
	return &memoryBatch{store: s}
}

// --- unexported write paths, caller must hold the lock ---

func (s *MemoryStore) create(collection, id string, data map[string]interface{}) error {
	if _, ok := s.collections[collection][id]; ok {
		return xerrors.ErrConflict
	}
	return s.set(collection, id, data)
}

func (s *MemoryStore) set(collection, id string, data map[string]interface{}) error {
	copied, err := normalize(data)
	if err != nil {
		return err
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	s.collections[collection][id] = copied
	return nil
}

func (s *MemoryStore) update(collection, id string, fields map[string]interface{}) error {
	existing, ok := s.collections[collection][id]
	if !ok {
		return xerrors.ErrNotFound
	}
	copied, err := normalize(fields)
	if err != nil {
		return err
	}
	for k, v := range copied {
		existing[k] = v
	}
	return nil
}

type memoryBatch struct {
	store *MemoryStore
	ops   []batchOp
}

func (b *memoryBatch) Create(collection, id string, data map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: "create", collection: collection, id: id, data: data})
}

func (b *memoryBatch) Set(collection, id string, data map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, data: data})
}

func (b *memoryBatch) Update(collection, id string, fields map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, data: fields})
}

func (b *memoryBatch) Len() int {
	return len(b.ops)
}

func (b *memoryBatch) Commit(ctx context.Context) error {
	for start := 0; start < len(b.ops); start += MaxBatchWrites {
		end := start + MaxBatchWrites
		if end > len(b.ops) {
			end = len(b.ops)
		}
		if err := b.store.applyChunk(b.ops[start:end]); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

// applyChunk commits one chunk under a single lock hold, all or nothing.
func (s *MemoryStore) applyChunk(ops []batchOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate before mutating so a failing chunk leaves no partial state.
	for _, op := range ops {
		if op.kind == "create" {
			if _, ok := s.collections[op.collection][op.id]; ok {
				return xerrors.ErrConflict
			}
		}
		if op.kind == "update" {
			if _, ok := s.collections[op.collection][op.id]; !ok {
				return xerrors.ErrNotFound
			}
		}
	}

	for _, op := range ops {
		var err error
		switch op.kind {
		case "create", "set":
			err = s.set(op.collection, op.id, op.data)
		case "update":
			err = s.update(op.collection, op.id, op.data)
		}
		if err != nil {
			return err
		}
	}

	s.batchCommits++
	return nil
}

func normalize(data map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document data: %w", err)
	}
	var copied map[string]interface{}
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, fmt.Errorf("failed to normalize document data: %w", err)
	}
	return copied, nil
}

func matches(data map[string]interface{}, f Filter) (bool, error) {
	val := data[f.Field]

	switch want := f.Value.(type) {
	case time.Time:
		str, ok := val.(string)
		if !ok {
			return false, nil
		}
		got, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return false, nil
		}
		switch f.Op {
		case OpEqual:
			return got.Equal(want), nil
		case OpLessOrEqual:
			return !got.After(want), nil
		case OpNotEqual:
			return !got.Equal(want), nil
		}
	case bool:
		got, _ := val.(bool) // absent field reads as false
		switch f.Op {
		case OpEqual:
			return got == want, nil
		case OpNotEqual:
			return got != want, nil
		}
	case string:
		got, ok := val.(string)
		if !ok {
			return f.Op == OpNotEqual, nil
		}
		switch f.Op {
		case OpEqual:
			return got == want, nil
		case OpLessOrEqual:
			return got <= want, nil
		case OpNotEqual:
			return got != want, nil
		}
	case int, int32, int64, float64:
		got, ok := val.(float64)
		if !ok {
			return f.Op == OpNotEqual, nil
		}
		wantF, err := toFloat(want)
		if err != nil {
			return false, err
		}
		switch f.Op {
		case OpEqual:
			return got == wantF, nil
		case OpLessOrEqual:
			return got <= wantF, nil
		case OpNotEqual:
			return got != wantF, nil
		}
	default:
		return false, fmt.Errorf("unsupported filter value type %T", f.Value)
	}

	return false, fmt.Errorf("unsupported filter op %q for value type %T", f.Op, f.Value)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("unsupported numeric type %T", v)
}
