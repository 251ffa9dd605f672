package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/platform/apperr"
)

const (
	categoryNotFoundMessage    = "category not found"
	subCategoryNotFoundMessage = "sub-category not found"
	productNotFoundMessage     = "product not found"

	uniqueViolation = "23505"
)

const categoryColumns = "id, name, slug, description, is_active, display_order, created_at, updated_at"

const subCategoryColumns = "id, category_id, name, slug, description, is_active, display_order, created_at, updated_at"

const productColumns = "id, sub_category_id, name, slug, description, provider_name, min_premium, max_premium, commission_percent, features, is_active, display_order, created_at, updated_at"

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.DisplayOrder,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func scanSubCategory(row pgx.Row) (SubCategory, error) {
	var sc SubCategory
	err := row.Scan(
		&sc.ID, &sc.CategoryID, &sc.Name, &sc.Slug, &sc.Description, &sc.IsActive,
		&sc.DisplayOrder, &sc.CreatedAt, &sc.UpdatedAt,
	)
	return sc, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SubCategoryID, &p.Name, &p.Slug, &p.Description, &p.ProviderName,
		&p.MinPremium, &p.MaxPremium, &p.CommissionPercent, &p.Features,
		&p.IsActive, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CreateCategory creates a product category.
func (r *Repo) CreateCategory(ctx context.Context, params CreateCategoryParams) (Category, error) {
	query := fmt.Sprintf(`
		INSERT INTO product_categories (name, slug, description, display_order)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, categoryColumns)

	category, err := scanCategory(r.pool.QueryRow(ctx, query,
		params.Name, params.Slug, params.Description, params.DisplayOrder,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, apperr.Conflict("category slug already exists")
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// UpdateCategory updates a product category.
func (r *Repo) UpdateCategory(ctx context.Context, params UpdateCategoryParams) (Category, error) {
	query := fmt.Sprintf(`
		UPDATE product_categories
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active = COALESCE($4, is_active),
			display_order = COALESCE($5, display_order),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, categoryColumns)

	category, err := scanCategory(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Description, params.IsActive, params.DisplayOrder,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// ListCategories lists categories ordered for display.
func (r *Repo) ListCategories(ctx context.Context, includeInactive bool) ([]Category, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM product_categories
		WHERE ($1 OR is_active = TRUE)
		ORDER BY display_order ASC, name ASC`, categoryColumns)

	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, category)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate categories: %w", rows.Err())
	}
	return items, nil
}

// GetCategoryByID retrieves a category by ID.
func (r *Repo) GetCategoryByID(ctx context.Context, id uuid.UUID) (Category, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM product_categories
		WHERE id = $1`, categoryColumns)

	category, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, apperr.NotFound(categoryNotFoundMessage)
		}
		return Category{}, fmt.Errorf("get category by id: %w", err)
	}
	return category, nil
}

// CreateSubCategory creates a sub-category under an existing category.
func (r *Repo) CreateSubCategory(ctx context.Context, params CreateSubCategoryParams) (SubCategory, error) {
	query := fmt.Sprintf(`
		INSERT INTO product_sub_categories (category_id, name, slug, description, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, subCategoryColumns)

	subCategory, err := scanSubCategory(r.pool.QueryRow(ctx, query,
		params.CategoryID, params.Name, params.Slug, params.Description, params.DisplayOrder,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return SubCategory{}, apperr.Conflict("sub-category slug already exists")
		}
		return SubCategory{}, fmt.Errorf("create sub-category: %w", err)
	}
	return subCategory, nil
}

// UpdateSubCategory updates a sub-category.
func (r *Repo) UpdateSubCategory(ctx context.Context, params UpdateSubCategoryParams) (SubCategory, error) {
	query := fmt.Sprintf(`
		UPDATE product_sub_categories
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active = COALESCE($4, is_active),
			display_order = COALESCE($5, display_order),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, subCategoryColumns)

	subCategory, err := scanSubCategory(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Description, params.IsActive, params.DisplayOrder,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SubCategory{}, apperr.NotFound(subCategoryNotFoundMessage)
		}
		return SubCategory{}, fmt.Errorf("update sub-category: %w", err)
	}
	return subCategory, nil
}

// ListSubCategories lists sub-categories across all categories.
func (r *Repo) ListSubCategories(ctx context.Context, includeInactive bool) ([]SubCategory, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM product_sub_categories
		WHERE ($1 OR is_active = TRUE)
		ORDER BY display_order ASC, name ASC`, subCategoryColumns)

	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list sub-categories: %w", err)
	}
	defer rows.Close()

	items := make([]SubCategory, 0)
	for rows.Next() {
		subCategory, err := scanSubCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sub-category: %w", err)
		}
		items = append(items, subCategory)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate sub-categories: %w", rows.Err())
	}
	return items, nil
}

// GetSubCategoryByID retrieves a sub-category by ID.
func (r *Repo) GetSubCategoryByID(ctx context.Context, id uuid.UUID) (SubCategory, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM product_sub_categories
		WHERE id = $1`, subCategoryColumns)

	subCategory, err := scanSubCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SubCategory{}, apperr.NotFound(subCategoryNotFoundMessage)
		}
		return SubCategory{}, fmt.Errorf("get sub-category by id: %w", err)
	}
	return subCategory, nil
}

// CreateProduct creates a product.
func (r *Repo) CreateProduct(ctx context.Context, params CreateProductParams) (Product, error) {
	query := fmt.Sprintf(`
		INSERT INTO products (
			sub_category_id, name, slug, description, provider_name,
			min_premium, max_premium, commission_percent, features, display_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, '{}'::jsonb), $10)
		RETURNING %s`, productColumns)

	product, err := scanProduct(r.pool.QueryRow(ctx, query,
		params.SubCategoryID, params.Name, params.Slug, params.Description, params.ProviderName,
		params.MinPremium, params.MaxPremium, params.CommissionPercent, params.Features, params.DisplayOrder,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, apperr.Conflict("product slug already exists")
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProduct updates a product.
func (r *Repo) UpdateProduct(ctx context.Context, params UpdateProductParams) (Product, error) {
	query := fmt.Sprintf(`
		UPDATE products
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			provider_name = COALESCE($4, provider_name),
			min_premium = COALESCE($5, min_premium),
			max_premium = COALESCE($6, max_premium),
			commission_percent = COALESCE($7, commission_percent),
			features = COALESCE($8, features),
			is_active = COALESCE($9, is_active),
			display_order = COALESCE($10, display_order),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, productColumns)

	product, err := scanProduct(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Description, params.ProviderName,
		params.MinPremium, params.MaxPremium, params.CommissionPercent, params.Features,
		params.IsActive, params.DisplayOrder,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// GetProductByID retrieves a product with its category context.
func (r *Repo) GetProductByID(ctx context.Context, id uuid.UUID) (ProductDetail, error) {
	query := `
		SELECT p.id, p.sub_category_id, p.name, p.slug, p.description, p.provider_name,
			p.min_premium, p.max_premium, p.commission_percent, p.features,
			p.is_active, p.display_order, p.created_at, p.updated_at,
			sc.name, sc.slug, c.name, c.slug
		FROM products p
		JOIN product_sub_categories sc ON sc.id = p.sub_category_id
		JOIN product_categories c ON c.id = sc.category_id
		WHERE p.id = $1`

	var detail ProductDetail
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&detail.ID, &detail.SubCategoryID, &detail.Name, &detail.Slug, &detail.Description,
		&detail.ProviderName, &detail.MinPremium, &detail.MaxPremium, &detail.CommissionPercent,
		&detail.Features, &detail.IsActive, &detail.DisplayOrder, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.SubCategoryName, &detail.SubCategorySlug, &detail.CategoryName, &detail.CategorySlug,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, apperr.NotFound(productNotFoundMessage)
		}
		return ProductDetail{}, fmt.Errorf("get product by id: %w", err)
	}
	return detail, nil
}

// ListProducts lists products with filters and pagination.
func (r *Repo) ListProducts(ctx context.Context, params ListProductsParams) ([]ProductDetail, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if !params.IncludeInactive {
		whereClauses = append(whereClauses, "p.is_active = TRUE", "sc.is_active = TRUE", "c.is_active = TRUE")
	}

	if params.SubCategorySlug != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("sc.slug = $%d", argIdx))
		args = append(args, params.SubCategorySlug)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM products p
		JOIN product_sub_categories sc ON sc.id = p.sub_category_id
		JOIN product_categories c ON c.id = sc.category_id
		WHERE %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT p.id, p.sub_category_id, p.name, p.slug, p.description, p.provider_name,
			p.min_premium, p.max_premium, p.commission_percent, p.features,
			p.is_active, p.display_order, p.created_at, p.updated_at,
			sc.name, sc.slug, c.name, c.slug
		FROM products p
		JOIN product_sub_categories sc ON sc.id = p.sub_category_id
		JOIN product_categories c ON c.id = sc.category_id
		WHERE %s
		ORDER BY p.display_order ASC, p.name ASC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]ProductDetail, 0)
	for rows.Next() {
		var detail ProductDetail
		if err := rows.Scan(
			&detail.ID, &detail.SubCategoryID, &detail.Name, &detail.Slug, &detail.Description,
			&detail.ProviderName, &detail.MinPremium, &detail.MaxPremium, &detail.CommissionPercent,
			&detail.Features, &detail.IsActive, &detail.DisplayOrder, &detail.CreatedAt, &detail.UpdatedAt,
			&detail.SubCategoryName, &detail.SubCategorySlug, &detail.CategoryName, &detail.CategorySlug,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, detail)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", rows.Err())
	}

	return items, total, nil
}
