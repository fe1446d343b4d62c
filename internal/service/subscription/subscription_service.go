// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"fmt"
	"time"

	"membership-service/internal/domain/membership"
	"membership-service/internal/domain/subscription"
	xerrors "membership-service/internal/pkg/errors"
	"membership-service/internal/repository"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// LedgerService owns the subscription ledger: it constructs grant rows and
// performs the status transitions callers are allowed to request directly.
// Expiry and renewal transitions live in the renewal sweep, which goes
// through the same repository.
type LedgerService struct {
	subscriptionRepo *repository.SubscriptionRepository
	logger           *zap.Logger
}

func NewLedgerService(subscriptionRepo *repository.SubscriptionRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// NewGrant builds the subscription row for one membership grant. The end
// date is always startDate plus the membership duration in days.
func (s *LedgerService) NewGrant(userID, productID, orderID string, m *membership.Membership, now time.Time) *subscription.Subscription {
	return &subscription.Subscription{
		ID:           ulid.Make().String(),
		UserID:       userID,
		MembershipID: m.ID,
		ProductID:    productID,
		OrderID:      orderID,
		Status:       subscription.StatusActive,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, m.Duration),
		AutoRenew:    false,
		RenewalCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// GetSubscription retrieves a subscription by ID
func (s *LedgerService) GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.subscriptionRepo.FindByID(ctx, id)
}

// ListSubscriptionsForUser retrieves all rows of a user, historical included
func (s *LedgerService) ListSubscriptionsForUser(ctx context.Context, userID string) (*subscription.SubscriptionListResponse, error) {
	subs, err := s.subscriptionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         len(subs),
	}, nil
}

// CancelSubscription transitions an active subscription to cancelled. The
// row is preserved for auditing; cancellation is never a delete.
func (s *LedgerService) CancelSubscription(ctx context.Context, id, reason string) (*subscription.Subscription, error) {
	sub, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Status != subscription.StatusActive {
		return nil, fmt.Errorf("%w: subscription %s is %s, only active subscriptions can be cancelled", xerrors.ErrInvalidState, id, sub.Status)
	}

	now := time.Now().UTC()
	if err := s.subscriptionRepo.UpdateStatus(ctx, id, subscription.StatusCancelled, now); err != nil {
		return nil, err
	}

	s.logger.Info("subscription cancelled",
		zap.String("subscription_id", id),
		zap.String("reason", reason),
	)

	sub.Status = subscription.StatusCancelled
	sub.UpdatedAt = now
	return sub, nil
}
