package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Categories

type CreateCategoryRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Slug         string `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	Description  string `json:"description,omitempty" validate:"omitempty,max=1000"`
	DisplayOrder int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

type UpdateCategoryRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsActive     *bool   `json:"isActive,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

type ListCategoriesRequest struct {
	IncludeInactive bool `form:"includeInactive"`
}

type SubCategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"categoryId"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"isActive"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CategoryResponse struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Slug          string                `json:"slug"`
	Description   string                `json:"description,omitempty"`
	IsActive      bool                  `json:"isActive"`
	DisplayOrder  int                   `json:"displayOrder"`
	SubCategories []SubCategoryResponse `json:"subCategories"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
}

// Sub-categories

type CreateSubCategoryRequest struct {
	CategoryID   uuid.UUID `json:"categoryId" validate:"required"`
	Name         string    `json:"name" validate:"required,min=1,max=100"`
	Slug         string    `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	Description  string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	DisplayOrder int       `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

type UpdateSubCategoryRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsActive     *bool   `json:"isActive,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

// Products

type CreateProductRequest struct {
	SubCategoryID     uuid.UUID       `json:"subCategoryId" validate:"required"`
	Name              string          `json:"name" validate:"required,min=1,max=200"`
	Slug              string          `json:"slug,omitempty" validate:"omitempty,min=1,max=200"`
	Description       string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	ProviderName      string          `json:"providerName,omitempty" validate:"omitempty,max=200"`
	MinPremium        *float64        `json:"minPremium,omitempty" validate:"omitempty,min=0"`
	MaxPremium        *float64        `json:"maxPremium,omitempty" validate:"omitempty,min=0"`
	CommissionPercent *float64        `json:"commissionPercent,omitempty" validate:"omitempty,min=0,max=100"`
	Features          json.RawMessage `json:"features,omitempty"`
	DisplayOrder      int             `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	Name              *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	ProviderName      *string         `json:"providerName,omitempty" validate:"omitempty,max=200"`
	MinPremium        *float64        `json:"minPremium,omitempty" validate:"omitempty,min=0"`
	MaxPremium        *float64        `json:"maxPremium,omitempty" validate:"omitempty,min=0"`
	CommissionPercent *float64        `json:"commissionPercent,omitempty" validate:"omitempty,min=0,max=100"`
	Features          json.RawMessage `json:"features,omitempty"`
	IsActive          *bool           `json:"isActive,omitempty"`
	DisplayOrder      *int            `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

type ListProductsRequest struct {
	SubCategory     string `form:"subCategory" validate:"omitempty,max=200"`
	IncludeInactive bool   `form:"includeInactive"`
	Page            int    `form:"page" validate:"omitempty,min=1"`
	PageSize        int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	SubCategoryID     uuid.UUID       `json:"subCategoryId"`
	SubCategoryName   string          `json:"subCategoryName"`
	SubCategorySlug   string          `json:"subCategorySlug"`
	CategoryName      string          `json:"categoryName"`
	CategorySlug      string          `json:"categorySlug"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	Description       string          `json:"description,omitempty"`
	ProviderName      string          `json:"providerName,omitempty"`
	MinPremium        *float64        `json:"minPremium,omitempty"`
	MaxPremium        *float64        `json:"maxPremium,omitempty"`
	CommissionPercent *float64        `json:"commissionPercent,omitempty"`
	Features          json.RawMessage `json:"features"`
	IsActive          bool            `json:"isActive"`
	DisplayOrder      int             `json:"displayOrder"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type ProductListResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}
