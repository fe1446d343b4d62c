// internal/repository/order_repo.go
package repository

import (
	"context"
	"fmt"
	"time"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/order"
	xerrors "membership-service/internal/pkg/errors"
)

type OrderRepository struct {
	store docstore.Store
}

func NewOrderRepository(store docstore.Store) *OrderRepository {
	return &OrderRepository{store: store}
}

// FindByID retrieves an order by ID
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionOrders, id)
	if err != nil {
		return nil, err
	}
	return decodeOrder(doc)
}

// FindByPaymentIntent retrieves the order recorded for a payment reference
func (r *OrderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*order.Order, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionOrders,
		docstore.Where("paymentIntentId", docstore.OpEqual, paymentIntentID))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return decodeOrder(docs[0])
}

// ListAll retrieves every order
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionOrders)
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs)
}

// FindCompletedUnarchived retrieves completed orders not yet archived.
// Orders that never carried the isArchived flag count as unarchived.
func (r *OrderRepository) FindCompletedUnarchived(ctx context.Context) ([]order.Order, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionOrders,
		docstore.Where("status", docstore.OpEqual, string(order.StatusCompleted)),
		docstore.Where("isArchived", docstore.OpNotEqual, true))
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs)
}

// MarkCompletedInBatch stages the payment-completion mark of an order.
func (r *OrderRepository) MarkCompletedInBatch(b docstore.Batch, id string, now time.Time) {
	b.Update(docstore.CollectionOrders, id, map[string]interface{}{
		"status":    string(order.StatusCompleted),
		"updatedAt": now,
	})
}

// MarkArchivedInBatch stages the archival flag of an order.
func (r *OrderRepository) MarkArchivedInBatch(b docstore.Batch, id string, now time.Time) {
	b.Update(docstore.CollectionOrders, id, map[string]interface{}{
		"isArchived": true,
		"updatedAt":  now,
	})
}

func decodeOrders(docs []docstore.Document) ([]order.Order, error) {
	orders := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func decodeOrder(doc docstore.Document) (*order.Order, error) {
	var o order.Order
	if err := docstore.Decode(doc, &o); err != nil {
		return nil, fmt.Errorf("%w: order %s: %v", xerrors.ErrMalformedRecord, doc.ID, err)
	}
	if o.ID == "" || o.Status == "" {
		return nil, fmt.Errorf("%w: order %s is missing required fields", xerrors.ErrMalformedRecord, doc.ID)
	}
	return &o, nil
}
