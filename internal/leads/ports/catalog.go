// Package ports defines consumer-driven interfaces for what the leads
// domain needs from other contexts. The owning modules provide adapters;
// leads never imports their internals.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// ProductInfo is the catalog data lead creation needs: the active flag
// for validation, the sub-category name for reference prefixes, and the
// slug for PDF file names.
type ProductInfo struct {
	ID              uuid.UUID
	Name            string
	Slug            string
	SubCategoryName string
	ProviderName    string
	IsActive        bool
}

// ProductCatalog looks up products from the catalog context.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (ProductInfo, error)
}
