// Package adapter exposes catalog data to consuming modules through
// their own port interfaces.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"bridge_backend/internal/catalog/repository"
	"bridge_backend/internal/leads/ports"
)

// ProductCatalogAdapter implements the leads ProductCatalog port.
type ProductCatalogAdapter struct {
	repo repository.Repository
}

// NewProductCatalogAdapter creates the adapter over the catalog repository.
func NewProductCatalogAdapter(repo repository.Repository) *ProductCatalogAdapter {
	return &ProductCatalogAdapter{repo: repo}
}

// Compile-time check that the adapter satisfies the leads port.
var _ ports.ProductCatalog = (*ProductCatalogAdapter)(nil)

// GetProduct returns the product fields lead creation depends on.
func (a *ProductCatalogAdapter) GetProduct(ctx context.Context, id uuid.UUID) (ports.ProductInfo, error) {
	detail, err := a.repo.GetProductByID(ctx, id)
	if err != nil {
		return ports.ProductInfo{}, err
	}
	return ports.ProductInfo{
		ID:              detail.ID,
		Name:            detail.Name,
		Slug:            detail.Slug,
		SubCategoryName: detail.SubCategoryName,
		ProviderName:    detail.ProviderName,
		IsActive:        detail.IsActive,
	}, nil
}
