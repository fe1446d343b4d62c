// internal/repository/subscription_repo.go
package repository

import (
	"context"
	"fmt"
	"time"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/subscription"
	xerrors "membership-service/internal/pkg/errors"
)

// SubscriptionRepository owns all reads and writes of the subscription
// ledger. Status and period fields are only ever mutated through its
// methods; rows are never deleted.
type SubscriptionRepository struct {
	store docstore.Store
}

func NewSubscriptionRepository(store docstore.Store) *SubscriptionRepository {
	return &SubscriptionRepository{store: store}
}

// CreateInBatch stages a new subscription row in a write batch.
func (r *SubscriptionRepository) CreateInBatch(b docstore.Batch, sub *subscription.Subscription) error {
	data, err := docstore.Encode(sub)
	if err != nil {
		return err
	}
	b.Create(docstore.CollectionSubscriptions, sub.ID, data)
	return nil
}

// FindByID retrieves a subscription by ID
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionSubscriptions, id)
	if err != nil {
		return nil, err
	}
	return decodeSubscription(doc)
}

// ListByUser retrieves all subscription rows of a user, historical included
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]subscription.Subscription, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionSubscriptions,
		docstore.Where("userId", docstore.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	return decodeSubscriptions(docs)
}

// FindDue retrieves every active subscription whose endDate has passed.
// The boundary is inclusive: endDate == now is due.
func (r *SubscriptionRepository) FindDue(ctx context.Context, now time.Time) ([]subscription.Subscription, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionSubscriptions,
		docstore.Where("status", docstore.OpEqual, string(subscription.StatusActive)),
		docstore.Where("endDate", docstore.OpLessOrEqual, now))
	if err != nil {
		return nil, err
	}
	return decodeSubscriptions(docs)
}

// ExistsForMembership reports whether any subscription references the membership
func (r *SubscriptionRepository) ExistsForMembership(ctx context.Context, membershipID string) (bool, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionSubscriptions,
		docstore.Where("membershipId", docstore.OpEqual, membershipID))
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// ApplyRenewalInBatch stages the period advance of a successful renewal:
// the new period starts where the old one ended, the status stays active.
func (r *SubscriptionRepository) ApplyRenewalInBatch(b docstore.Batch, id string, newStart, newEnd time.Time, renewalCount int, now time.Time) {
	b.Update(docstore.CollectionSubscriptions, id, map[string]interface{}{
		"startDate":    newStart,
		"endDate":      newEnd,
		"renewalCount": renewalCount,
		"status":       string(subscription.StatusActive),
		"updatedAt":    now,
	})
}

// ExpireInBatch stages the terminal expiry transition of a row.
func (r *SubscriptionRepository) ExpireInBatch(b docstore.Batch, id string, now time.Time) {
	b.Update(docstore.CollectionSubscriptions, id, map[string]interface{}{
		"status":    string(subscription.StatusExpired),
		"updatedAt": now,
	})
}

// UpdateStatus transitions a single row's status in place
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status subscription.SubscriptionStatus, now time.Time) error {
	err := r.store.Update(ctx, docstore.CollectionSubscriptions, id, map[string]interface{}{
		"status":    string(status),
		"updatedAt": now,
	})
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	return nil
}

func decodeSubscriptions(docs []docstore.Document) ([]subscription.Subscription, error) {
	subs := make([]subscription.Subscription, 0, len(docs))
	for _, doc := range docs {
		sub, err := decodeSubscription(doc)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

func decodeSubscription(doc docstore.Document) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	if err := docstore.Decode(doc, &sub); err != nil {
		return nil, fmt.Errorf("%w: subscription %s: %v", xerrors.ErrMalformedRecord, doc.ID, err)
	}
	if sub.ID == "" || sub.UserID == "" || sub.MembershipID == "" || sub.Status == "" ||
		sub.StartDate.IsZero() || sub.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: subscription %s is missing required fields", xerrors.ErrMalformedRecord, doc.ID)
	}
	return &sub, nil
}
