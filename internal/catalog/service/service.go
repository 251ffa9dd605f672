package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"bridge_backend/internal/authz"
	"bridge_backend/internal/catalog/repository"
	"bridge_backend/internal/catalog/transport"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo   repository.Repository
	policy *authz.Policy
	log    *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, policy *authz.Policy, log *logger.Logger) *Service {
	return &Service{repo: repo, policy: policy, log: log}
}

// ListCategories returns categories with their sub-categories nested.
// Inactive entries are only visible to actors allowed to manage the catalog.
func (s *Service) ListCategories(ctx context.Context, actor authz.Actor, req transport.ListCategoriesRequest) (transport.CategoryListResponse, error) {
	includeInactive := req.IncludeInactive
	if includeInactive && !s.policy.Can(actor, authz.ActionCatalogManage, authz.NoResource()) {
		return transport.CategoryListResponse{}, apperr.Forbidden("not allowed to view inactive catalog entries")
	}

	categories, err := s.repo.ListCategories(ctx, includeInactive)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}
	subCategories, err := s.repo.ListSubCategories(ctx, includeInactive)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}

	subsByCategory := make(map[uuid.UUID][]transport.SubCategoryResponse, len(categories))
	for _, sub := range subCategories {
		subsByCategory[sub.CategoryID] = append(subsByCategory[sub.CategoryID], toSubCategoryResponse(sub))
	}

	items := make([]transport.CategoryResponse, len(categories))
	for i, category := range categories {
		items[i] = toCategoryResponse(category, subsByCategory[category.ID])
	}
	return transport.CategoryListResponse{Items: items}, nil
}

// CreateCategory creates a new category.
func (s *Service) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (transport.CategoryResponse, error) {
	slug, err := resolveSlug(req.Slug, req.Name)
	if err != nil {
		return transport.CategoryResponse{}, err
	}

	category, err := s.repo.CreateCategory(ctx, repository.CreateCategoryParams{
		Name:         strings.TrimSpace(req.Name),
		Slug:         slug,
		Description:  strings.TrimSpace(req.Description),
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return transport.CategoryResponse{}, err
	}

	s.log.Info("category created", "id", category.ID, "slug", category.Slug)
	return toCategoryResponse(category, nil), nil
}

// UpdateCategory updates an existing category.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.UpdateCategoryRequest) (transport.CategoryResponse, error) {
	category, err := s.repo.UpdateCategory(ctx, repository.UpdateCategoryParams{
		ID:           id,
		Name:         trimPtr(req.Name),
		Description:  trimPtr(req.Description),
		IsActive:     req.IsActive,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return transport.CategoryResponse{}, err
	}

	s.log.Info("category updated", "id", category.ID, "slug", category.Slug)
	return toCategoryResponse(category, nil), nil
}

// CreateSubCategory creates a sub-category under an existing category.
func (s *Service) CreateSubCategory(ctx context.Context, req transport.CreateSubCategoryRequest) (transport.SubCategoryResponse, error) {
	if _, err := s.repo.GetCategoryByID(ctx, req.CategoryID); err != nil {
		return transport.SubCategoryResponse{}, err
	}
	slug, err := resolveSlug(req.Slug, req.Name)
	if err != nil {
		return transport.SubCategoryResponse{}, err
	}

	subCategory, err := s.repo.CreateSubCategory(ctx, repository.CreateSubCategoryParams{
		CategoryID:   req.CategoryID,
		Name:         strings.TrimSpace(req.Name),
		Slug:         slug,
		Description:  strings.TrimSpace(req.Description),
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return transport.SubCategoryResponse{}, err
	}

	s.log.Info("sub-category created", "id", subCategory.ID, "slug", subCategory.Slug)
	return toSubCategoryResponse(subCategory), nil
}

// UpdateSubCategory updates an existing sub-category.
func (s *Service) UpdateSubCategory(ctx context.Context, id uuid.UUID, req transport.UpdateSubCategoryRequest) (transport.SubCategoryResponse, error) {
	subCategory, err := s.repo.UpdateSubCategory(ctx, repository.UpdateSubCategoryParams{
		ID:           id,
		Name:         trimPtr(req.Name),
		Description:  trimPtr(req.Description),
		IsActive:     req.IsActive,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return transport.SubCategoryResponse{}, err
	}

	s.log.Info("sub-category updated", "id", subCategory.ID, "slug", subCategory.Slug)
	return toSubCategoryResponse(subCategory), nil
}

// GetProduct retrieves a single product with its category context.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (transport.ProductResponse, error) {
	detail, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(detail), nil
}

// ListProducts retrieves products with filters and pagination.
// Inactive entries are only visible to actors allowed to manage the catalog.
func (s *Service) ListProducts(ctx context.Context, actor authz.Actor, req transport.ListProductsRequest) (transport.ProductListResponse, error) {
	if req.IncludeInactive && !s.policy.Can(actor, authz.ActionCatalogManage, authz.NoResource()) {
		return transport.ProductListResponse{}, apperr.Forbidden("not allowed to view inactive catalog entries")
	}

	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
		SubCategorySlug: strings.TrimSpace(req.SubCategory),
		IncludeInactive: req.IncludeInactive,
		Offset:          (page - 1) * pageSize,
		Limit:           pageSize,
	})
	if err != nil {
		return transport.ProductListResponse{}, err
	}

	responses := make([]transport.ProductResponse, len(items))
	for i, item := range items {
		responses[i] = toProductResponse(item)
	}
	totalPages := (total + pageSize - 1) / pageSize
	return transport.ProductListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// CreateProduct creates a new product under an existing sub-category.
func (s *Service) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (transport.ProductResponse, error) {
	if _, err := s.repo.GetSubCategoryByID(ctx, req.SubCategoryID); err != nil {
		return transport.ProductResponse{}, err
	}
	if err := validatePremiumRange(req.MinPremium, req.MaxPremium); err != nil {
		return transport.ProductResponse{}, err
	}
	slug, err := resolveSlug(req.Slug, req.Name)
	if err != nil {
		return transport.ProductResponse{}, err
	}

	product, err := s.repo.CreateProduct(ctx, repository.CreateProductParams{
		SubCategoryID:     req.SubCategoryID,
		Name:              strings.TrimSpace(req.Name),
		Slug:              slug,
		Description:       strings.TrimSpace(req.Description),
		ProviderName:      strings.TrimSpace(req.ProviderName),
		MinPremium:        req.MinPremium,
		MaxPremium:        req.MaxPremium,
		CommissionPercent: req.CommissionPercent,
		Features:          req.Features,
		DisplayOrder:      req.DisplayOrder,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.log.Info("product created", "id", product.ID, "slug", product.Slug)
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct updates an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (transport.ProductResponse, error) {
	if err := validatePremiumRange(req.MinPremium, req.MaxPremium); err != nil {
		return transport.ProductResponse{}, err
	}

	product, err := s.repo.UpdateProduct(ctx, repository.UpdateProductParams{
		ID:                id,
		Name:              trimPtr(req.Name),
		Description:       trimPtr(req.Description),
		ProviderName:      trimPtr(req.ProviderName),
		MinPremium:        req.MinPremium,
		MaxPremium:        req.MaxPremium,
		CommissionPercent: req.CommissionPercent,
		Features:          req.Features,
		IsActive:          req.IsActive,
		DisplayOrder:      req.DisplayOrder,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.log.Info("product updated", "id", product.ID, "slug", product.Slug)
	return s.GetProduct(ctx, product.ID)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(value string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	return strings.Trim(slug, "-")
}

func resolveSlug(explicit, name string) (string, error) {
	source := explicit
	if strings.TrimSpace(source) == "" {
		source = name
	}
	slug := slugify(source)
	if slug == "" {
		return "", apperr.Validation("slug must contain letters or digits")
	}
	return slug, nil
}

func validatePremiumRange(minPremium, maxPremium *float64) error {
	if minPremium != nil && maxPremium != nil && *minPremium > *maxPremium {
		return apperr.Validation("minPremium cannot exceed maxPremium")
	}
	return nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func toSubCategoryResponse(sub repository.SubCategory) transport.SubCategoryResponse {
	return transport.SubCategoryResponse{
		ID:           sub.ID,
		CategoryID:   sub.CategoryID,
		Name:         sub.Name,
		Slug:         sub.Slug,
		Description:  sub.Description,
		IsActive:     sub.IsActive,
		DisplayOrder: sub.DisplayOrder,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
}

func toCategoryResponse(category repository.Category, subs []transport.SubCategoryResponse) transport.CategoryResponse {
	if subs == nil {
		subs = []transport.SubCategoryResponse{}
	}
	return transport.CategoryResponse{
		ID:            category.ID,
		Name:          category.Name,
		Slug:          category.Slug,
		Description:   category.Description,
		IsActive:      category.IsActive,
		DisplayOrder:  category.DisplayOrder,
		SubCategories: subs,
		CreatedAt:     category.CreatedAt,
		UpdatedAt:     category.UpdatedAt,
	}
}

func toProductResponse(detail repository.ProductDetail) transport.ProductResponse {
	features := detail.Features
	if len(features) == 0 {
		features = []byte("{}")
	}
	return transport.ProductResponse{
		ID:                detail.ID,
		SubCategoryID:     detail.SubCategoryID,
		SubCategoryName:   detail.SubCategoryName,
		SubCategorySlug:   detail.SubCategorySlug,
		CategoryName:      detail.CategoryName,
		CategorySlug:      detail.CategorySlug,
		Name:              detail.Name,
		Slug:              detail.Slug,
		Description:       detail.Description,
		ProviderName:      detail.ProviderName,
		MinPremium:        detail.MinPremium,
		MaxPremium:        detail.MaxPremium,
		CommissionPercent: detail.CommissionPercent,
		Features:          features,
		IsActive:          detail.IsActive,
		DisplayOrder:      detail.DisplayOrder,
		CreatedAt:         detail.CreatedAt,
		UpdatedAt:         detail.UpdatedAt,
	}
}
