// internal/docstore/docstore.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// MaxBatchWrites is the per-transaction write ceiling of the underlying
// store. Batches beyond this size are chunked into successive atomic
// commits; a single chunk always commits or rolls back as one unit.
const MaxBatchWrites = 500

// Collection names used by this service.
const (
	CollectionMemberships   = "memberships"
	CollectionSubscriptions = "subscriptions"
	CollectionOrders        = "orders"
	CollectionProducts      = "products"
)

// Document is one record of a collection, decoded loosely. Repositories are
// responsible for converting documents into typed entities and failing
// closed on malformed data.
type Document struct {
	ID   string
	Data map[string]interface{}
}

type Op string

const (
	OpEqual       Op = "=="
	OpLessOrEqual Op = "<="
	OpNotEqual    Op = "!="
)

// Filter is a single field predicate of a collection query.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Where builds a query filter.
func Where(field string, op Op, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Store is the document-store gateway: collection-scoped CRUD, filtered
// queries and batched atomic writes. All state of this service lives behind
// this interface.
type Store interface {
	// Get returns a document or xerrors.ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Create inserts a new document; xerrors.ErrConflict if the id exists.
	Create(ctx context.Context, collection, id string, data map[string]interface{}) error

	// Set overwrites a document, creating it if absent.
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error

	// Update merges the given top-level fields into an existing document;
	// xerrors.ErrNotFound if the document is absent.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Query returns all documents of a collection matching every filter.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Batch starts an empty write batch against this store.
	Batch() Batch
}

// Batch accumulates writes and commits them atomically in chunks of at most
// MaxBatchWrites operations. Commit is the final step of every workflow that
// uses it; nothing becomes visible before the first chunk commits.
type Batch interface {
	Create(collection, id string, data map[string]interface{})
	Set(collection, id string, data map[string]interface{})
	Update(collection, id string, fields map[string]interface{})
	Len() int
	Commit(ctx context.Context) error
}

// Encode converts an entity into document data via its JSON representation.
func Encode(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Decode converts document data back into a typed entity. Callers validate
// required fields afterwards and surface xerrors.ErrMalformedRecord.
func Decode(doc Document, v interface{}) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to decode document %q: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %q: %w", doc.ID, err)
	}
	return nil
}
