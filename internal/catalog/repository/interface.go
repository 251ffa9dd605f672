package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Category represents a top-level product category.
type Category struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Slug         string    `db:"slug"`
	Description  string    `db:"description"`
	IsActive     bool      `db:"is_active"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// SubCategory represents a product line within a category. Its name seeds
// the prefix of lead reference numbers.
type SubCategory struct {
	ID           uuid.UUID `db:"id"`
	CategoryID   uuid.UUID `db:"category_id"`
	Name         string    `db:"name"`
	Slug         string    `db:"slug"`
	Description  string    `db:"description"`
	IsActive     bool      `db:"is_active"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Product represents a sellable insurance product.
type Product struct {
	ID                uuid.UUID       `db:"id"`
	SubCategoryID     uuid.UUID       `db:"sub_category_id"`
	Name              string          `db:"name"`
	Slug              string          `db:"slug"`
	Description       string          `db:"description"`
	ProviderName      string          `db:"provider_name"`
	MinPremium        *float64        `db:"min_premium"`
	MaxPremium        *float64        `db:"max_premium"`
	CommissionPercent *float64        `db:"commission_percent"`
	Features          json.RawMessage `db:"features"`
	IsActive          bool            `db:"is_active"`
	DisplayOrder      int             `db:"display_order"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// ProductDetail bundles a product with its sub-category and category names.
type ProductDetail struct {
	Product
	SubCategoryName string
	SubCategorySlug string
	CategoryName    string
	CategorySlug    string
}

// CreateCategoryParams contains data for creating a category.
type CreateCategoryParams struct {
	Name         string
	Slug         string
	Description  string
	DisplayOrder int
}

// UpdateCategoryParams contains data for updating a category.
type UpdateCategoryParams struct {
	ID           uuid.UUID
	Name         *string
	Description  *string
	IsActive     *bool
	DisplayOrder *int
}

// CreateSubCategoryParams contains data for creating a sub-category.
type CreateSubCategoryParams struct {
	CategoryID   uuid.UUID
	Name         string
	Slug         string
	Description  string
	DisplayOrder int
}

// UpdateSubCategoryParams contains data for updating a sub-category.
type UpdateSubCategoryParams struct {
	ID           uuid.UUID
	Name         *string
	Description  *string
	IsActive     *bool
	DisplayOrder *int
}

// CreateProductParams contains data for creating a product.
type CreateProductParams struct {
	SubCategoryID     uuid.UUID
	Name              string
	Slug              string
	Description       string
	ProviderName      string
	MinPremium        *float64
	MaxPremium        *float64
	CommissionPercent *float64
	Features          json.RawMessage
	DisplayOrder      int
}

// UpdateProductParams contains data for updating a product.
type UpdateProductParams struct {
	ID                uuid.UUID
	Name              *string
	Description       *string
	ProviderName      *string
	MinPremium        *float64
	MaxPremium        *float64
	CommissionPercent *float64
	Features          json.RawMessage
	IsActive          *bool
	DisplayOrder      *int
}

// ListProductsParams defines filters for listing products.
type ListProductsParams struct {
	SubCategorySlug string
	IncludeInactive bool
	Offset          int
	Limit           int
}

// Repository defines catalog storage operations.
type Repository interface {
	CreateCategory(ctx context.Context, params CreateCategoryParams) (Category, error)
	UpdateCategory(ctx context.Context, params UpdateCategoryParams) (Category, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (Category, error)

	CreateSubCategory(ctx context.Context, params CreateSubCategoryParams) (SubCategory, error)
	UpdateSubCategory(ctx context.Context, params UpdateSubCategoryParams) (SubCategory, error)
	ListSubCategories(ctx context.Context, includeInactive bool) ([]SubCategory, error)
	GetSubCategoryByID(ctx context.Context, id uuid.UUID) (SubCategory, error)

	CreateProduct(ctx context.Context, params CreateProductParams) (Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (ProductDetail, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]ProductDetail, int, error)
}
