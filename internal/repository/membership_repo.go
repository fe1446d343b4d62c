// internal/repository/membership_repo.go
package repository

import (
	"context"
	"fmt"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/membership"
	xerrors "membership-service/internal/pkg/errors"
)

type MembershipRepository struct {
	store docstore.Store
}

func NewMembershipRepository(store docstore.Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

// Create inserts a new membership document
func (r *MembershipRepository) Create(ctx context.Context, m *membership.Membership) error {
	data, err := docstore.Encode(m)
	if err != nil {
		return err
	}
	if err := r.store.Create(ctx, docstore.CollectionMemberships, m.ID, data); err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// Save overwrites an existing membership document
func (r *MembershipRepository) Save(ctx context.Context, m *membership.Membership) error {
	data, err := docstore.Encode(m)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, docstore.CollectionMemberships, m.ID, data); err != nil {
		return fmt.Errorf("failed to save membership: %w", err)
	}
	return nil
}

// FindByID retrieves a membership by ID
func (r *MembershipRepository) FindByID(ctx context.Context, id string) (*membership.Membership, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionMemberships, id)
	if err != nil {
		return nil, err
	}
	return decodeMembership(doc)
}

// ListAll retrieves every membership definition
func (r *MembershipRepository) ListAll(ctx context.Context) ([]membership.Membership, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionMemberships)
	if err != nil {
		return nil, err
	}
	return decodeMemberships(docs)
}

// ListActiveForProduct retrieves every active membership unlocked by the
// given product. Product linkage is an array-contains check, evaluated here
// because the store only filters on scalar fields.
func (r *MembershipRepository) ListActiveForProduct(ctx context.Context, productID string) ([]membership.Membership, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionMemberships,
		docstore.Where("isActive", docstore.OpEqual, true))
	if err != nil {
		return nil, err
	}

	all, err := decodeMemberships(docs)
	if err != nil {
		return nil, err
	}

	var matched []membership.Membership
	for _, m := range all {
		if m.GrantsProduct(productID) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

func decodeMemberships(docs []docstore.Document) ([]membership.Membership, error) {
	memberships := make([]membership.Membership, 0, len(docs))
	for _, doc := range docs {
		m, err := decodeMembership(doc)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	return memberships, nil
}

func decodeMembership(doc docstore.Document) (*membership.Membership, error) {
	var m membership.Membership
	if err := docstore.Decode(doc, &m); err != nil {
		return nil, fmt.Errorf("%w: membership %s: %v", xerrors.ErrMalformedRecord, doc.ID, err)
	}
	if m.ID == "" || m.Name == "" || m.Duration <= 0 {
		return nil, fmt.Errorf("%w: membership %s is missing required fields", xerrors.ErrMalformedRecord, doc.ID)
	}
	return &m, nil
}
