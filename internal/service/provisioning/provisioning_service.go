// internal/service/provisioning/provisioning_service.go
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/subscription"
	xerrors "membership-service/internal/pkg/errors"
	"membership-service/internal/repository"
	"membership-service/internal/service/catalog"
	ledger "membership-service/internal/service/subscription"

	"go.uber.org/zap"
)

// ProvisioningService grants subscriptions after a completed payment: one
// row per active membership the purchased product unlocks. All grants of a
// payment and the order-completion mark commit in one atomic batch, so a
// partial grant is impossible.
type ProvisioningService struct {
	productRepo      *repository.ProductRepository
	subscriptionRepo *repository.SubscriptionRepository
	orderRepo        *repository.OrderRepository
	catalogService   *catalog.CatalogService
	ledgerService    *ledger.LedgerService
	store            docstore.Store
	logger           *zap.Logger
}

func NewProvisioningService(
	productRepo *repository.ProductRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	orderRepo *repository.OrderRepository,
	catalogService *catalog.CatalogService,
	ledgerService *ledger.LedgerService,
	store docstore.Store,
	logger *zap.Logger,
) *ProvisioningService {
	return &ProvisioningService{
		productRepo:      productRepo,
		subscriptionRepo: subscriptionRepo,
		orderRepo:        orderRepo,
		catalogService:   catalogService,
		ledgerService:    ledgerService,
		store:            store,
		logger:           logger,
	}
}

// Provision grants every membership the product unlocks to the user. A
// product with no membership linkage yields an empty grant list, not an
// error. Repeat purchases stack: each call creates fresh rows.
func (s *ProvisioningService) Provision(ctx context.Context, productID, userID, paymentRef string) ([]subscription.Subscription, error) {
	if productID == "" || userID == "" {
		return nil, fmt.Errorf("%w: productId and userId are required", xerrors.ErrInvalidInput)
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", xerrors.ErrNotFound, productID)
		}
		return nil, err
	}

	memberships, err := s.catalogService.ListMembershipsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	batch := s.store.Batch()

	granted := make([]subscription.Subscription, 0, len(memberships))
	for _, m := range memberships {
		sub := s.ledgerService.NewGrant(userID, productID, paymentRef, &m, now)
		if err := s.subscriptionRepo.CreateInBatch(batch, sub); err != nil {
			return nil, err
		}
		granted = append(granted, *sub)
	}

	// Completing the order is a side effect of the payment, not of the
	// grants: a purchase without membership linkage still completes.
	s.stageOrderCompletion(ctx, batch, paymentRef, now)

	if batch.Len() > 0 {
		if err := batch.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit membership grants: %w", err)
		}
	}

	s.logger.Info("memberships provisioned",
		zap.String("product_id", productID),
		zap.String("user_id", userID),
		zap.String("payment_reference", paymentRef),
		zap.Int("granted", len(granted)),
	)

	return granted, nil
}

func (s *ProvisioningService) stageOrderCompletion(ctx context.Context, batch docstore.Batch, paymentRef string, now time.Time) {
	if paymentRef == "" {
		return
	}

	ord, err := s.orderRepo.FindByPaymentIntent(ctx, paymentRef)
	if err != nil {
		// The checkout collaborator may not have recorded the order yet;
		// grants still commit and the order completes on its own path.
		s.logger.Warn("no order found for payment reference",
			zap.String("payment_reference", paymentRef),
			zap.Error(err),
		)
		return
	}

	s.orderRepo.MarkCompletedInBatch(batch, ord.ID, now)
}
