// internal/repository/product_repo.go
package repository

import (
	"context"
	"fmt"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/product"
	xerrors "membership-service/internal/pkg/errors"
)

type ProductRepository struct {
	store docstore.Store
}

func NewProductRepository(store docstore.Store) *ProductRepository {
	return &ProductRepository{store: store}
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionProducts, id)
	if err != nil {
		return nil, err
	}

	var p product.Product
	if err := docstore.Decode(doc, &p); err != nil {
		return nil, fmt.Errorf("%w: product %s: %v", xerrors.ErrMalformedRecord, doc.ID, err)
	}
	if p.ID == "" || p.Name == "" {
		return nil, fmt.Errorf("%w: product %s is missing required fields", xerrors.ErrMalformedRecord, doc.ID)
	}
	return &p, nil
}

// Save overwrites a product document
func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	data, err := docstore.Encode(p)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, docstore.CollectionProducts, p.ID, data); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}
