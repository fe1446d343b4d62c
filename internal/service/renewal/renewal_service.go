// internal/service/renewal/renewal_service.go
package renewal

import (
	"context"
	"fmt"
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

// RenewalService sweeps the subscription ledger for due rows and either
// renews or expires them. Every due row is processed under a per-
// subscription advisory lease so overlapping sweeps never issue the same
// renewal charge twice; all resulting writes commit in one batch as the
// final step.
type RenewalService struct {
	subscriptionRepo *repository.SubscriptionRepository
	membershipRepo   *repository.MembershipRepository
	store            docstore.Store
	charger          payment.Charger
	locker           lock.Locker
	lockTTL          time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewRenewalService(
	subscriptionRepo *repository.SubscriptionRepository,
	membershipRepo *repository.MembershipRepository,
	store docstore.Store,
	charger payment.Charger,
	locker lock.Locker,
	lockTTL time.Duration,
	logger *zap.Logger,
) *RenewalService {
	return &RenewalService{
		subscriptionRepo: subscriptionRepo,
		membershipRepo:   membershipRepo,
		store:            store,
		charger:          charger,
		locker:           locker,
		lockTTL:          lockTTL,
		logger:           logger,
		now:              time.Now,
	}
}

// Sweep processes every active subscription whose endDate has passed
// (inclusive boundary). Rows with autoRenew and a successful charge advance
// by one membership duration; everything else expires. Re-running a sweep is
// a no-op for already-processed rows: their endDate has moved past now or
// their status is no longer active.
func (s *RenewalService) Sweep(ctx context.Context) (*subscription.SweepResult, error) {
	now := s.now().UTC()

	due, err := s.subscriptionRepo.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due subscriptions: %w", err)
	}

	result := &subscription.SweepResult{}
	if len(due) == 0 {
		s.logger.Info("renewal sweep found no due subscriptions")
		return result, nil
	}

	batch := s.store.Batch()
	var held []string
	defer func() {
		for _, id := range held {
			if err := s.locker.Release(ctx, lockKey(id)); err != nil {
				s.logger.Warn("failed to release renewal lock", zap.String("subscription_id", id), zap.Error(err))
			}
		}
	}()

	for _, sub := range due {
		acquired, err := s.locker.Acquire(ctx, lockKey(sub.ID), s.lockTTL)
		if err != nil {
			s.logger.Error("failed to acquire renewal lock", zap.String("subscription_id", sub.ID), zap.Error(err))
			continue
		}
		if !acquired {
			// Another sweep holds this row; it will be reprocessed on the
			// next run if that sweep dies before committing.
			continue
		}
		held = append(held, sub.ID)

		// Re-read under the lease: a concurrent sweep may have already
		// renewed or expired this row between query and lock.
		current, err := s.subscriptionRepo.FindByID(ctx, sub.ID)
		if err != nil {
			s.logger.Error("failed to re-read subscription", zap.String("subscription_id", sub.ID), zap.Error(err))
			continue
		}
		if !current.IsDue(now) {
			continue
		}

		if s.renewOrExpire(ctx, batch, current, now) {
			result.Renewed++
		} else {
			result.Expired++
		}
	}

	if batch.Len() > 0 {
		if err := batch.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit renewal sweep: %w", err)
		}
	}

	s.logger.Info("renewal sweep finished",
		zap.Int("due", len(due)),
		zap.Int("renewed", result.Renewed),
		zap.Int("expired", result.Expired),
	)

	return result, nil
}

// renewOrExpire stages the transition of one due row and reports whether it
// was a renewal. A failed or impossible renewal charge expires the row; it
// never propagates as an error.
func (s *RenewalService) renewOrExpire(ctx context.Context, batch docstore.Batch, sub *subscription.Subscription, now time.Time) bool {
	if !sub.AutoRenew {
		s.subscriptionRepo.ExpireInBatch(batch, sub.ID, now)
		return false
	}

	m, err := s.membershipRepo.FindByID(ctx, sub.MembershipID)
	if err != nil {
		s.logger.Warn("membership definition missing, expiring subscription",
			zap.String("subscription_id", sub.ID),
			zap.String("membership_id", sub.MembershipID),
			zap.Error(err),
		)
		s.subscriptionRepo.ExpireInBatch(batch, sub.ID, now)
		return false
	}

	if err := s.charge(ctx, sub, m); err != nil {
		s.logger.Warn("renewal charge failed, expiring subscription",
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
		s.subscriptionRepo.ExpireInBatch(batch, sub.ID, now)
		return false
	}

	newStart := sub.EndDate
	newEnd := newStart.AddDate(0, 0, m.Duration)
	s.subscriptionRepo.ApplyRenewalInBatch(batch, sub.ID, newStart, newEnd, sub.RenewalCount+1, now)
	return true
}

// RenewOne renews a single subscription on demand. Unlike the sweep, a
// failed charge here surfaces as an error instead of expiring the row, so an
// administrator can retry after fixing the payment method.
func (s *RenewalService) RenewOne(ctx context.Context, id string) (*subscription.Subscription, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: subscriptionId is required", xerrors.ErrInvalidInput)
	}

	sub, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != subscription.StatusActive {
		return nil, fmt.Errorf("%w: subscription %s is %s, only active subscriptions renew", xerrors.ErrInvalidState, id, sub.Status)
	}

	acquired, err := s.locker.Acquire(ctx, lockKey(id), s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire renewal lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: renewal already in progress for subscription %s", xerrors.ErrConflict, id)
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey(id)); err != nil {
			s.logger.Warn("failed to release renewal lock", zap.String("subscription_id", id), zap.Error(err))
		}
	}()

	m, err := s.membershipRepo.FindByID(ctx, sub.MembershipID)
	if err != nil {
		return nil, err
	}

	if err := s.charge(ctx, sub, m); err != nil {
		return nil, fmt.Errorf("%w: renewal charge failed: %v", xerrors.ErrExternal, err)
	}

	now := s.now().UTC()
	newStart := sub.EndDate
	newEnd := newStart.AddDate(0, 0, m.Duration)

	batch := s.store.Batch()
	s.subscriptionRepo.ApplyRenewalInBatch(batch, sub.ID, newStart, newEnd, sub.RenewalCount+1, now)
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit renewal: %w", err)
	}

	s.logger.Info("subscription renewed on demand",
		zap.String("subscription_id", id),
		zap.Time("new_end_date", newEnd),
	)

	return s.subscriptionRepo.FindByID(ctx, id)
}

func (s *RenewalService) charge(ctx context.Context, sub *subscription.Subscription, m *membership.Membership) error {
	return s.charger.Charge(ctx, payment.ChargeRequest{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		MembershipID:   m.ID,
		Amount:         m.Price,
		Currency:       m.Currency,
		Description:    fmt.Sprintf("Renewal of membership %s", m.Name),
	})
}

func lockKey(subscriptionID string) string {
	return "renewal:" + subscriptionID
}
