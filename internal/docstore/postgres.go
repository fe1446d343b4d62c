// internal/docstore/postgres.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	xerrors "membership-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the document gateway with a single JSONB table. Each
// collection is a key range of (collection, id); a batch chunk commits in
// one transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the backing table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, collection, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return Document{}, xerrors.ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, fmt.Errorf("failed to unmarshal document %s/%s: %w", collection, id, err)
	}

	return Document{ID: id, Data: data}, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, data map[string]interface{}) error {
	query := `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	result, err := s.pool.Exec(ctx, query, collection, id, raw)
	if err != nil {
		return fmt.Errorf("failed to create document %s/%s: %w", collection, id, err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrConflict
	}

	return nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	query := `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	if _, err := s.pool.Exec(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}

	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	query := `UPDATE documents SET data = data || $3 WHERE collection = $1 AND id = $2`

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal update for %s/%s: %w", collection, id, err)
	}

	result, err := s.pool.Exec(ctx, query, collection, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	args := []interface{}{collection}
	for _, f := range filters {
		predicate, arg, err := buildPredicate(f, len(args)+1)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(predicate)
		args = append(args, arg)
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}

		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s/%s: %w", collection, id, err)
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection %s: %w", collection, err)
	}

	return docs, nil
}

// buildPredicate renders one filter as a typed JSONB predicate. Booleans
// default to false for absent fields so `isArchived != true` matches
// documents that never carried the flag.
func buildPredicate(f Filter, argPos int) (string, interface{}, error) {
	field := f.Field
	if strings.ContainsAny(field, `'" `) {
		return "", nil, fmt.Errorf("invalid filter field %q", field)
	}

	op, ok := sqlOps[f.Op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
	}

	switch v := f.Value.(type) {
	case time.Time:
		return fmt.Sprintf("(data->>'%s')::timestamptz %s $%d", field, op, argPos), v, nil
	case bool:
		return fmt.Sprintf("COALESCE((data->>'%s')::boolean, false) %s $%d", field, op, argPos), v, nil
	case int, int32, int64, float64:
		return fmt.Sprintf("(data->>'%s')::numeric %s $%d", field, op, argPos), v, nil
	case string:
		return fmt.Sprintf("data->>'%s' %s $%d", field, op, argPos), v, nil
	default:
		return "", nil, fmt.Errorf("unsupported filter value type %T", f.Value)
	}
}

var sqlOps = map[Op]string{
	OpEqual:       "=",
	OpLessOrEqual: "<=",
	OpNotEqual:    "<>",
}

func (s *PostgresStore) Batch() Batch {
	return &postgresBatch{store: s}
}

type batchOp struct {
	kind       string // "create", "set", "update"
	collection string
	id         string
	data       map[string]interface{}
}

type postgresBatch struct {
	store *PostgresStore
	ops   []batchOp
}

func (b *postgresBatch) Create(collection, id string, data map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: "create", collection: collection, id: id, data: data})
}

func (b *postgresBatch) Set(collection, id string, data map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, data: data})
}

func (b *postgresBatch) Update(collection, id string, fields map[string]interface{}) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, data: fields})
}

func (b *postgresBatch) Len() int {
	return len(b.ops)
}

func (b *postgresBatch) Commit(ctx context.Context) error {
	for start := 0; start < len(b.ops); start += MaxBatchWrites {
		end := start + MaxBatchWrites
		if end > len(b.ops) {
			end = len(b.ops)
		}
		if err := b.commitChunk(ctx, b.ops[start:end]); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

func (b *postgresBatch) commitChunk(ctx context.Context, ops []batchOp) error {
	tx, err := b.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, op := range ops {
		raw, err := json.Marshal(op.data)
		if err != nil {
			return fmt.Errorf("failed to marshal batch write %s/%s: %w", op.collection, op.id, err)
		}

		switch op.kind {
		case "create":
			_, err = tx.Exec(ctx,
				`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
				op.collection, op.id, raw)
		case "set":
			_, err = tx.Exec(ctx,
				`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
				 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
				op.collection, op.id, raw)
		case "update":
			_, err = tx.Exec(ctx,
				`UPDATE documents SET data = data || $3 WHERE collection = $1 AND id = $2`,
				op.collection, op.id, raw)
		}
		if err != nil {
			return fmt.Errorf("failed to apply batch write %s/%s: %w", op.collection, op.id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch transaction: %w", err)
	}

	return nil
}
