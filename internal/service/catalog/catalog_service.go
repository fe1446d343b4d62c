// internal/service/catalog/catalog_service.go
package catalog

import (
	"context"
	"fmt"
	"time"

	"membership-service/internal/domain/membership"
	xerrors "membership-service/internal/pkg/errors"
	"membership-service/internal/repository"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// CatalogService is the read side of membership definitions plus the admin
// management operations. Membership duration and product linkage freeze once
// any subscription references the definition.
type CatalogService struct {
	membershipRepo   *repository.MembershipRepository
	subscriptionRepo *repository.SubscriptionRepository
	logger           *zap.Logger
}

func NewCatalogService(
	membershipRepo *repository.MembershipRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		membershipRepo:   membershipRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// GetMembership retrieves a membership definition by ID
func (s *CatalogService) GetMembership(ctx context.Context, id string) (*membership.Membership, error) {
	return s.membershipRepo.FindByID(ctx, id)
}

// ListMemberships retrieves all membership definitions
func (s *CatalogService) ListMemberships(ctx context.Context) ([]membership.Membership, error) {
	return s.membershipRepo.ListAll(ctx)
}

// ListMembershipsForProduct retrieves every active membership the product
// unlocks. An empty result is success: not every product grants a membership.
func (s *CatalogService) ListMembershipsForProduct(ctx context.Context, productID string) ([]membership.Membership, error) {
	return s.membershipRepo.ListActiveForProduct(ctx, productID)
}

// CreateMembership creates a new membership definition (admin)
func (s *CatalogService) CreateMembership(ctx context.Context, req *membership.CreateMembershipRequest) (*membership.Membership, error) {
	if req.Duration < 1 {
		return nil, fmt.Errorf("%w: duration must be at least one day", xerrors.ErrInvalidInput)
	}

	now := time.Now().UTC()
	m := &membership.Membership{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		Currency:    req.Currency,
		Features:    req.Features,
		ProductIDs:  req.ProductIDs,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.membershipRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership created",
		zap.String("membership_id", m.ID),
		zap.String("name", m.Name),
		zap.Int("duration_days", m.Duration),
	)

	return m, nil
}

// UpdateMembership updates a membership definition (admin). Name,
// description and features are always editable; duration and product linkage
// are rejected once subscriptions reference the membership.
func (s *CatalogService) UpdateMembership(ctx context.Context, id string, req *membership.UpdateMembershipRequest) (*membership.Membership, error) {
	m, err := s.membershipRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Duration != nil || req.ProductIDs != nil {
		referenced, err := s.subscriptionRepo.ExistsForMembership(ctx, id)
		if err != nil {
			return nil, err
		}
		if referenced {
			return nil, fmt.Errorf("%w: membership %s is referenced by subscriptions, only name, description and features may change", xerrors.ErrInvalidState, id)
		}
		if req.Duration != nil {
			if *req.Duration < 1 {
				return nil, fmt.Errorf("%w: duration must be at least one day", xerrors.ErrInvalidInput)
			}
			m.Duration = *req.Duration
		}
		if req.ProductIDs != nil {
			m.ProductIDs = req.ProductIDs
		}
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Features != nil {
		m.Features = req.Features
	}
	m.UpdatedAt = time.Now().UTC()

	if err := s.membershipRepo.Save(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership updated", zap.String("membership_id", id))

	return m, nil
}

// SetMembershipActive activates or deactivates a membership definition (admin)
func (s *CatalogService) SetMembershipActive(ctx context.Context, id string, active bool) (*membership.Membership, error) {
	m, err := s.membershipRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.IsActive = active
	m.UpdatedAt = time.Now().UTC()

	if err := s.membershipRepo.Save(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership active flag changed",
		zap.String("membership_id", id),
		zap.Bool("is_active", active),
	)

	return m, nil
}
