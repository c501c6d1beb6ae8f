package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	categoryColumns = "id, name, slug, product_count, created_at"
	productColumns  = "id, name, description, price, original_price, stock, image, rating, review_count, status, category_id, created_at, updated_at"
)

type CatalogRepositoryImpl struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func CreateNewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &CatalogRepositoryImpl{db: db}
}

func (r *CatalogRepositoryImpl) conn() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *CatalogRepositoryImpl) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo CatalogRepository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	return handleTrx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &CatalogRepositoryImpl{db: r.db, tx: tx})
	})
}

func (r *CatalogRepositoryImpl) GetCategories(ctx context.Context) (data []domain.Category, err error) {
	data = []domain.Category{}
	err = r.conn().SelectContext(ctx, &data, "SELECT "+categoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetCategories").Msg("")
		return nil, fmt.Errorf("get categories: %w", err)
	}

	return data, nil
}

func (r *CatalogRepositoryImpl) GetCategoryByID(ctx context.Context, id string) (data domain.Category, err error) {
	err = r.conn().GetContext(ctx, &data, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetCategoryByID").Msg("")
		return data, fmt.Errorf("get category: %w", err)
	}

	return
}

func (r *CatalogRepositoryImpl) AddCategory(ctx context.Context, data domain.Category) (res domain.Category, err error) {
	data.CreatedAt = time.Now().UnixMilli()

	_, err = r.conn().NamedExecContext(ctx, "INSERT INTO categories("+categoryColumns+") VALUES (:id, :name, :slug, :product_count, :created_at)", data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddCategory").Msg("")
		if pqErrorCode(err) == pqUniqueViolation {
			return res, errs.ErrDuplicateSlug
		}
		return res, fmt.Errorf("add category: %w", err)
	}

	return data, nil
}

func (r *CatalogRepositoryImpl) UpdateCategory(ctx context.Context, data domain.Category) (err error) {
	res, err := r.conn().NamedExecContext(ctx, "UPDATE categories SET name = :name, slug = :slug WHERE id = :id", data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdateCategory").Msg("")
		if pqErrorCode(err) == pqUniqueViolation {
			return errs.ErrDuplicateSlug
		}
		return fmt.Errorf("update category: %w", err)
	}

	if rowsAffected(res) == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *CatalogRepositoryImpl) DeleteCategory(ctx context.Context, id string) (err error) {
	res, err := r.conn().ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteCategory").Msg("")
		if pqErrorCode(err) == pqForeignKeyViolation {
			return errs.ErrConflict
		}
		return fmt.Errorf("delete category: %w", err)
	}

	if rowsAffected(res) == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *CatalogRepositoryImpl) AdjustCategoryProductCount(ctx context.Context, id string, delta int64) (err error) {
	_, err = r.conn().ExecContext(ctx, "UPDATE categories SET product_count = product_count + $1 WHERE id = $2", delta, id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AdjustCategoryProductCount").Msg("")
		return fmt.Errorf("adjust category product count: %w", err)
	}

	return nil
}

// ReconcileCategoryProductCounts recomputes every denormalized count and
// returns how many categories had drifted.
func (r *CatalogRepositoryImpl) ReconcileCategoryProductCounts(ctx context.Context) (updated int64, err error) {
	res, err := r.conn().ExecContext(ctx, `UPDATE categories c
		SET product_count = counted.total
		FROM (
			SELECT cat.id, COUNT(p.id) AS total
			FROM categories cat
			LEFT JOIN products p ON p.category_id = cat.id
			GROUP BY cat.id
		) counted
		WHERE c.id = counted.id AND c.product_count <> counted.total`)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ReconcileCategoryProductCounts").Msg("")
		return 0, fmt.Errorf("reconcile category counts: %w", err)
	}

	return rowsAffected(res), nil
}

func (r *CatalogRepositoryImpl) GetProducts(ctx context.Context, filter pkgdto.Filter) (data []domain.Product, err error) {
	query := "SELECT " + productColumns + " FROM products WHERE 1=1"

	var args []interface{}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	data = []domain.Product{}
	err = r.conn().SelectContext(ctx, &data, query, args...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProducts").Msg("")
		return nil, fmt.Errorf("get products: %w", err)
	}

	return data, nil
}

func (r *CatalogRepositoryImpl) GetProductByID(ctx context.Context, id string) (data domain.Product, err error) {
	err = r.conn().GetContext(ctx, &data, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductByID").Msg("")
		return data, fmt.Errorf("get product: %w", err)
	}

	return
}

// GetProductByIDForUpdate locks the product row until the surrounding
// transaction ends, so concurrent stock decrements wait for the write that
// follows.
func (r *CatalogRepositoryImpl) GetProductByIDForUpdate(ctx context.Context, id string) (data domain.Product, err error) {
	err = r.conn().GetContext(ctx, &data, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductByIDForUpdate").Msg("")
		return data, fmt.Errorf("get product for update: %w", err)
	}

	return
}

func (r *CatalogRepositoryImpl) CountProducts(ctx context.Context) (count int64, err error) {
	err = r.conn().GetContext(ctx, &count, "SELECT COUNT(id) FROM products")
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CountProducts").Msg("")
		return 0, fmt.Errorf("count products: %w", err)
	}

	return
}

func (r *CatalogRepositoryImpl) AddProduct(ctx context.Context, data domain.Product) (res domain.Product, err error) {
	timestamp := time.Now().UnixMilli()
	data.CreatedAt = timestamp
	data.UpdatedAt = timestamp

	_, err = r.conn().NamedExecContext(ctx, "INSERT INTO products("+productColumns+") VALUES (:id, :name, :description, :price, :original_price, :stock, :image, :rating, :review_count, :status, :category_id, :created_at, :updated_at)", data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddProduct").Msg("")
		if pqErrorCode(err) == pqForeignKeyViolation {
			return res, errs.ErrUnknownCategory
		}
		return res, fmt.Errorf("add product: %w", err)
	}

	return data, nil
}

func (r *CatalogRepositoryImpl) UpdateProduct(ctx context.Context, data domain.Product) (err error) {
	data.UpdatedAt = time.Now().UnixMilli()

	res, err := r.conn().NamedExecContext(ctx, `UPDATE products SET name = :name, description = :description, price = :price,
		original_price = :original_price, stock = :stock, image = :image, rating = :rating, review_count = :review_count,
		status = :status, category_id = :category_id, updated_at = :updated_at WHERE id = :id`, data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdateProduct").Msg("")
		if pqErrorCode(err) == pqForeignKeyViolation {
			return errs.ErrUnknownCategory
		}
		return fmt.Errorf("update product: %w", err)
	}

	if rowsAffected(res) == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *CatalogRepositoryImpl) DeleteProduct(ctx context.Context, id string) (err error) {
	res, err := r.conn().ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteProduct").Msg("")
		return fmt.Errorf("delete product: %w", err)
	}

	if rowsAffected(res) == 0 {
		return errs.ErrNotFound
	}

	return nil
}
