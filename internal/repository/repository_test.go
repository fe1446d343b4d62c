package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/subscription"
	xerrors "membership-service/internal/pkg/errors"
)

func putRaw(t *testing.T, store docstore.Store, collection, id string, data map[string]interface{}) {
	t.Helper()
	if err := store.Set(context.Background(), collection, id, data); err != nil {
		t.Fatalf("put %s/%s: %v", collection, id, err)
	}
}

func TestMembershipDecodeFailsClosed(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewMembershipRepository(store)

	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"id": "m1", "duration": 30}},
		{"zero duration", map[string]interface{}{"id": "m1", "name": "Gold", "duration": 0}},
		{"negative duration", map[string]interface{}{"id": "m1", "name": "Gold", "duration": -5}},
		{"wrong field type", map[string]interface{}{"id": "m1", "name": "Gold", "duration": "thirty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			putRaw(t, store, docstore.CollectionMemberships, "m1", tt.data)

			_, err := repo.FindByID(context.Background(), "m1")
			if !errors.Is(err, xerrors.ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestSubscriptionDecodeFailsClosed(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewSubscriptionRepository(store)

	putRaw(t, store, docstore.CollectionSubscriptions, "s1", map[string]interface{}{
		"id":     "s1",
		"userId": "user-1",
		// membershipId, status and period missing
	})

	_, err := repo.FindByID(context.Background(), "s1")
	if !errors.Is(err, xerrors.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestOrderDecodeFailsClosed(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewOrderRepository(store)

	putRaw(t, store, docstore.CollectionOrders, "o1", map[string]interface{}{
		"id": "o1",
		// status missing
	})

	_, err := repo.FindByID(context.Background(), "o1")
	if !errors.Is(err, xerrors.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func seedLedgerRow(t *testing.T, store docstore.Store, id string, status subscription.SubscriptionStatus, endDate time.Time) {
	t.Helper()
	sub := &subscription.Subscription{
		ID:           id,
		UserID:       "user-1",
		MembershipID: "mem-1",
		ProductID:    "prod-1",
		Status:       status,
		StartDate:    endDate.AddDate(0, 0, -30),
		EndDate:      endDate,
		CreatedAt:    endDate.AddDate(0, 0, -30),
		UpdatedAt:    endDate.AddDate(0, 0, -30),
	}
	data, err := docstore.Encode(sub)
	if err != nil {
		t.Fatalf("encode subscription: %v", err)
	}
	putRaw(t, store, docstore.CollectionSubscriptions, id, data)
}

func TestFindDue(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewSubscriptionRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedLedgerRow(t, store, "past", subscription.StatusActive, now.AddDate(0, 0, -1))
	seedLedgerRow(t, store, "boundary", subscription.StatusActive, now)
	seedLedgerRow(t, store, "future", subscription.StatusActive, now.AddDate(0, 0, 1))
	seedLedgerRow(t, store, "cancelled", subscription.StatusCancelled, now.AddDate(0, 0, -1))
	seedLedgerRow(t, store, "expired", subscription.StatusExpired, now.AddDate(0, 0, -1))

	due, err := repo.FindDue(context.Background(), now)
	if err != nil {
		t.Fatalf("find due failed: %v", err)
	}

	ids := map[string]bool{}
	for _, sub := range due {
		ids[sub.ID] = true
	}
	if len(due) != 2 || !ids["past"] || !ids["boundary"] {
		t.Fatalf("due rows = %v, want exactly past and boundary", ids)
	}
}

func TestExistsForMembership(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewSubscriptionRepository(store)

	seedLedgerRow(t, store, "s1", subscription.StatusExpired, time.Now().UTC())

	referenced, err := repo.ExistsForMembership(context.Background(), "mem-1")
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if !referenced {
		t.Error("historical row not counted as a reference")
	}

	unreferenced, err := repo.ExistsForMembership(context.Background(), "mem-other")
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if unreferenced {
		t.Error("unknown membership reported as referenced")
	}
}

func TestFindByPaymentIntent(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewOrderRepository(store)

	putRaw(t, store, docstore.CollectionOrders, "o1", map[string]interface{}{
		"id":              "o1",
		"status":          "processing",
		"paymentIntentId": "pi_123",
	})

	got, err := repo.FindByPaymentIntent(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("find by payment intent failed: %v", err)
	}
	if got.ID != "o1" {
		t.Fatalf("found order %s, want o1", got.ID)
	}

	if _, err := repo.FindByPaymentIntent(context.Background(), "pi_unknown"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
