package renewal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/membership"
	"membership-service/internal/domain/subscription"
	xerrors "membership-service/internal/pkg/errors"
	"membership-service/internal/pkg/lock"
	"membership-service/internal/payment"
	"membership-service/internal/repository"

	"go.uber.org/zap"
)

type chargerStub struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *chargerStub) Charge(ctx context.Context, req payment.ChargeRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *chargerStub) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestService(t *testing.T, charger payment.Charger) (*RenewalService, *docstore.MemoryStore, *repository.SubscriptionRepository, *repository.MembershipRepository) {
	t.Helper()

	store := docstore.NewMemoryStore()
	subRepo := repository.NewSubscriptionRepository(store)
	memRepo := repository.NewMembershipRepository(store)
	svc := NewRenewalService(subRepo, memRepo, store, charger, lock.NewMemoryLocker(), time.Minute, zap.NewNop())
	return svc, store, subRepo, memRepo
}

func putMembership(t *testing.T, store docstore.Store, m *membership.Membership) {
	t.Helper()
	data, err := docstore.Encode(m)
	if err != nil {
		t.Fatalf("encode membership: %v", err)
	}
	if err := store.Set(context.Background(), docstore.CollectionMemberships, m.ID, data); err != nil {
		t.Fatalf("put membership: %v", err)
	}
}

func putSubscription(t *testing.T, store docstore.Store, sub *subscription.Subscription) {
	t.Helper()
	data, err := docstore.Encode(sub)
	if err != nil {
		t.Fatalf("encode subscription: %v", err)
	}
	if err := store.Set(context.Background(), docstore.CollectionSubscriptions, sub.ID, data); err != nil {
		t.Fatalf("put subscription: %v", err)
	}
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func goldMembership() *membership.Membership {
	return &membership.Membership{
		ID:        "mem-gold",
		Name:      "Gold",
		Duration:  30,
		Price:     1999,
		Currency:  "eur",
		IsActive:  true,
		CreatedAt: testNow.AddDate(-1, 0, 0),
		UpdatedAt: testNow.AddDate(-1, 0, 0),
	}
}

func dueSubscription(id string, autoRenew bool) *subscription.Subscription {
	start := testNow.AddDate(0, 0, -31)
	return &subscription.Subscription{
		ID:           id,
		UserID:       "user-1",
		MembershipID: "mem-gold",
		ProductID:    "prod-1",
		OrderID:      "order-1",
		Status:       subscription.StatusActive,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 30),
		AutoRenew:    autoRenew,
		CreatedAt:    start,
		UpdatedAt:    start,
	}
}

func TestSweepRenewsAndExpires(t *testing.T) {
	charger := &chargerStub{}
	svc, store, subRepo, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	renewing := dueSubscription("sub-renew", true)
	lapsing := dueSubscription("sub-lapse", false)
	putSubscription(t, store, renewing)
	putSubscription(t, store, lapsing)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Renewed != 1 || result.Expired != 1 {
		t.Fatalf("expected {renewed:1 expired:1}, got %+v", result)
	}

	got, err := subRepo.FindByID(context.Background(), "sub-renew")
	if err != nil {
		t.Fatalf("find renewed: %v", err)
	}
	if got.Status != subscription.StatusActive {
		t.Errorf("renewed subscription status = %s, want active", got.Status)
	}
	if !got.StartDate.Equal(renewing.EndDate) {
		t.Errorf("renewed startDate = %v, want previous endDate %v", got.StartDate, renewing.EndDate)
	}
	wantEnd := renewing.EndDate.AddDate(0, 0, 30)
	if !got.EndDate.Equal(wantEnd) {
		t.Errorf("renewed endDate = %v, want %v", got.EndDate, wantEnd)
	}
	if got.RenewalCount != 1 {
		t.Errorf("renewalCount = %d, want 1", got.RenewalCount)
	}

	expired, err := subRepo.FindByID(context.Background(), "sub-lapse")
	if err != nil {
		t.Fatalf("find expired: %v", err)
	}
	if expired.Status != subscription.StatusExpired {
		t.Errorf("lapsed subscription status = %s, want expired", expired.Status)
	}
	if !expired.EndDate.Equal(lapsing.EndDate) {
		t.Errorf("expired endDate changed: %v", expired.EndDate)
	}

	if charger.count() != 1 {
		t.Errorf("charge count = %d, want 1", charger.count())
	}
}

func TestSweepExpiresOnChargeFailure(t *testing.T) {
	charger := &chargerStub{err: errors.New("card declined")}
	svc, store, subRepo, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	putSubscription(t, store, dueSubscription("sub-1", true))

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Renewed != 0 || result.Expired != 1 {
		t.Fatalf("expected {renewed:0 expired:1}, got %+v", result)
	}

	got, err := subRepo.FindByID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("find subscription: %v", err)
	}
	if got.Status != subscription.StatusExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}
}

func TestSweepBoundaryIsInclusive(t *testing.T) {
	charger := &chargerStub{}
	svc, store, _, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	sub := dueSubscription("sub-exact", false)
	sub.StartDate = testNow.AddDate(0, 0, -30)
	sub.EndDate = testNow // due at exactly now
	putSubscription(t, store, sub)

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Expired != 1 {
		t.Fatalf("subscription with endDate == now not swept: %+v", result)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	charger := &chargerStub{}
	svc, store, _, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	putSubscription(t, store, dueSubscription("sub-renew", true))
	putSubscription(t, store, dueSubscription("sub-lapse", false))

	if _, err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	second, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if second.Renewed != 0 || second.Expired != 0 {
		t.Fatalf("second sweep not a no-op: %+v", second)
	}
	if charger.count() != 1 {
		t.Errorf("charge count after two sweeps = %d, want 1", charger.count())
	}
}

func TestSweepWithNothingDue(t *testing.T) {
	svc, _, _, _ := newTestService(t, &chargerStub{})
	svc.now = func() time.Time { return testNow }

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Renewed != 0 || result.Expired != 0 {
		t.Fatalf("expected zero counts, got %+v", result)
	}
}

func TestSweepExpiresWhenMembershipMissing(t *testing.T) {
	charger := &chargerStub{}
	svc, store, subRepo, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	// no membership document written
	putSubscription(t, store, dueSubscription("sub-orphan", true))

	result, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Expired != 1 {
		t.Fatalf("orphaned subscription not expired: %+v", result)
	}
	if charger.count() != 0 {
		t.Errorf("charge issued for orphaned subscription")
	}

	got, err := subRepo.FindByID(context.Background(), "sub-orphan")
	if err != nil {
		t.Fatalf("find subscription: %v", err)
	}
	if got.Status != subscription.StatusExpired {
		t.Errorf("status = %s, want expired", got.Status)
	}
}

func TestConcurrentSweepsChargeOnce(t *testing.T) {
	charger := &chargerStub{}
	svc, store, _, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	putSubscription(t, store, dueSubscription("sub-contended", true))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Sweep(context.Background()); err != nil {
				t.Errorf("sweep failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if charger.count() != 1 {
		t.Fatalf("concurrent sweeps issued %d charges, want exactly 1", charger.count())
	}
}

func TestRenewOne(t *testing.T) {
	charger := &chargerStub{}
	svc, store, _, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	sub := dueSubscription("sub-1", false)
	putSubscription(t, store, sub)

	got, err := svc.RenewOne(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if got.Status != subscription.StatusActive {
		t.Errorf("status = %s, want active", got.Status)
	}
	wantEnd := sub.EndDate.AddDate(0, 0, 30)
	if !got.EndDate.Equal(wantEnd) {
		t.Errorf("endDate = %v, want %v", got.EndDate, wantEnd)
	}
	if got.RenewalCount != 1 {
		t.Errorf("renewalCount = %d, want 1", got.RenewalCount)
	}
	if charger.count() != 1 {
		t.Errorf("charge count = %d, want 1", charger.count())
	}
}

func TestRenewOneRejectsNonActive(t *testing.T) {
	svc, store, _, _ := newTestService(t, &chargerStub{})
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	sub := dueSubscription("sub-1", false)
	sub.Status = subscription.StatusExpired
	putSubscription(t, store, sub)

	_, err := svc.RenewOne(context.Background(), "sub-1")
	if !errors.Is(err, xerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRenewOneChargeFailureDoesNotExpire(t *testing.T) {
	charger := &chargerStub{err: errors.New("card declined")}
	svc, store, subRepo, _ := newTestService(t, charger)
	svc.now = func() time.Time { return testNow }

	putMembership(t, store, goldMembership())
	sub := dueSubscription("sub-1", false)
	putSubscription(t, store, sub)

	_, err := svc.RenewOne(context.Background(), "sub-1")
	if !errors.Is(err, xerrors.ErrExternal) {
		t.Fatalf("expected ErrExternal, got %v", err)
	}

	got, err := subRepo.FindByID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("find subscription: %v", err)
	}
	if got.Status != subscription.StatusActive {
		t.Errorf("manual renew failure changed status to %s", got.Status)
	}
	if !got.EndDate.Equal(sub.EndDate) {
		t.Errorf("manual renew failure moved endDate to %v", got.EndDate)
	}
}

func TestRenewOneUnknownSubscription(t *testing.T) {
	svc, _, _, _ := newTestService(t, &chargerStub{})

	_, err := svc.RenewOne(context.Background(), "missing")
	if !errors.Is(err, xerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
