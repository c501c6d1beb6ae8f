package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var maxRating = decimal.NewFromInt(5)

type CatalogServiceImpl struct {
	repo repository.CatalogRepository
}

func CreateNewCatalogService(repo repository.CatalogRepository) CatalogService {
	return &CatalogServiceImpl{repo: repo}
}

func (s *CatalogServiceImpl) GetCategories(ctx context.Context) (res []dto.CategoryResponse, err error) {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return
	}

	res = make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		res = append(res, toCategoryResponse(category))
	}

	return
}

func (s *CatalogServiceImpl) AddCategory(ctx context.Context, req dto.CategoryRequest) (res dto.CategoryResponse, err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return res, fmt.Errorf("error generating category id: %w", err)
	}

	category, err := s.repo.AddCategory(ctx, domain.Category{
		ID:   id.String(),
		Name: strings.TrimSpace(req.Name),
		Slug: normalizeSlug(req.Slug),
	})
	if err != nil {
		return
	}

	return toCategoryResponse(category), nil
}

func (s *CatalogServiceImpl) UpdateCategory(ctx context.Context, req dto.CategoryUpdateRequest) (res dto.CategoryResponse, err error) {
	category, err := s.repo.GetCategoryByID(ctx, req.ID)
	if err != nil {
		return
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		category.Slug = normalizeSlug(*req.Slug)
	}

	err = s.repo.UpdateCategory(ctx, category)
	if err != nil {
		return
	}

	return toCategoryResponse(category), nil
}

// DeleteCategory refuses with errs.ErrConflict while products still reference
// the category.
func (s *CatalogServiceImpl) DeleteCategory(ctx context.Context, id string) (err error) {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *CatalogServiceImpl) ReconcileCategoryCounts(ctx context.Context) (res dto.ReconcileResponse, err error) {
	updated, err := s.repo.ReconcileCategoryProductCounts(ctx)
	if err != nil {
		return
	}

	if updated > 0 {
		log.Ctx(ctx).Warn().Str("component", "ReconcileCategoryCounts").Int64("updated", updated).Msg("category product counts drifted")
	}

	res.Updated = updated
	return
}

func (s *CatalogServiceImpl) GetProducts(ctx context.Context, filter pkgdto.Filter) (res []dto.ProductResponse, err error) {
	if filter.Status != "" && !validProductStatus(filter.Status) {
		return nil, fmt.Errorf("status %q: %w", filter.Status, errs.ErrValidation)
	}

	products, err := s.repo.GetProducts(ctx, filter)
	if err != nil {
		return
	}

	res = make([]dto.ProductResponse, 0, len(products))
	for _, product := range products {
		res = append(res, toProductResponse(product))
	}

	return
}

func (s *CatalogServiceImpl) GetProductByID(ctx context.Context, id string) (res dto.ProductResponse, err error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return
	}

	return toProductResponse(product), nil
}

func (s *CatalogServiceImpl) AddProduct(ctx context.Context, req dto.ProductRequest) (res dto.ProductResponse, err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return res, fmt.Errorf("error generating product id: %w", err)
	}

	product := domain.Product{
		ID:          id.String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
		Rating:      req.Rating,
		ReviewCount: req.ReviewCount,
		Status:      req.Status,
		CategoryID:  req.CategoryID,
	}
	if req.OriginalPrice != nil {
		product.OriginalPrice = decimal.NewNullDecimal(*req.OriginalPrice)
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}

	if err = validateProduct(product); err != nil {
		return
	}

	err = s.repo.HandleTrx(ctx, func(ctx context.Context, repo repository.CatalogRepository) error {
		product, err = repo.AddProduct(ctx, product)
		if err != nil {
			return err
		}

		return repo.AdjustCategoryProductCount(ctx, product.CategoryID, 1)
	})
	if err != nil {
		return
	}

	return toProductResponse(product), nil
}

func (s *CatalogServiceImpl) UpdateProduct(ctx context.Context, req dto.ProductUpdateRequest) (res dto.ProductResponse, err error) {
	if req.ClearOriginalPrice && req.OriginalPrice != nil {
		return res, fmt.Errorf("originalPrice and clearOriginalPrice are exclusive: %w", errs.ErrValidation)
	}

	var product domain.Product

	err = s.repo.HandleTrx(ctx, func(ctx context.Context, repo repository.CatalogRepository) error {
		existing, err := repo.GetProductByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		product = applyProductUpdate(existing, req)
		if err := validateProduct(product); err != nil {
			return err
		}

		if err := repo.UpdateProduct(ctx, product); err != nil {
			return err
		}

		if product.CategoryID == existing.CategoryID {
			return nil
		}

		if err := repo.AdjustCategoryProductCount(ctx, existing.CategoryID, -1); err != nil {
			return err
		}
		return repo.AdjustCategoryProductCount(ctx, product.CategoryID, 1)
	})
	if err != nil {
		return
	}

	product, err = s.repo.GetProductByID(ctx, req.ID)
	if err != nil {
		return
	}

	return toProductResponse(product), nil
}

func (s *CatalogServiceImpl) DeleteProduct(ctx context.Context, id string) (err error) {
	return s.repo.HandleTrx(ctx, func(ctx context.Context, repo repository.CatalogRepository) error {
		product, err := repo.GetProductByID(ctx, id)
		if err != nil {
			return err
		}

		if err := repo.DeleteProduct(ctx, id); err != nil {
			return err
		}

		return repo.AdjustCategoryProductCount(ctx, product.CategoryID, -1)
	})
}

func applyProductUpdate(product domain.Product, req dto.ProductUpdateRequest) domain.Product {
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		product.OriginalPrice = decimal.NewNullDecimal(*req.OriginalPrice)
	}
	if req.ClearOriginalPrice {
		product.OriginalPrice = decimal.NullDecimal{}
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Rating != nil {
		product.Rating = *req.Rating
	}
	if req.ReviewCount != nil {
		product.ReviewCount = *req.ReviewCount
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}

	return product
}

func validateProduct(product domain.Product) error {
	switch {
	case product.Name == "":
		return fmt.Errorf("name is required: %w", errs.ErrValidation)
	case product.Price.IsNegative() || product.Price.GreaterThan(domain.MaxAmount):
		return fmt.Errorf("price must be between 0 and %s: %w", domain.MaxAmount, errs.ErrValidation)
	case product.OriginalPrice.Valid && (product.OriginalPrice.Decimal.IsNegative() || product.OriginalPrice.Decimal.GreaterThan(domain.MaxAmount)):
		return fmt.Errorf("original price must be between 0 and %s: %w", domain.MaxAmount, errs.ErrValidation)
	case product.Stock < 0:
		return fmt.Errorf("stock must not be negative: %w", errs.ErrValidation)
	case product.Rating.IsNegative() || product.Rating.GreaterThan(maxRating):
		return fmt.Errorf("rating must be between 0 and 5: %w", errs.ErrValidation)
	case !validProductStatus(product.Status):
		return fmt.Errorf("status %q: %w", product.Status, errs.ErrValidation)
	}

	return nil
}

func validProductStatus(status string) bool {
	switch status {
	case domain.ProductStatusActive, domain.ProductStatusDraft, domain.ProductStatusArchived:
		return true
	}
	return false
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func toCategoryResponse(category domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		Slug:         category.Slug,
		ProductCount: category.ProductCount,
		CreatedAt:    category.CreatedAt,
	}
}

func toProductResponse(product domain.Product) dto.ProductResponse {
	res := dto.ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Image:       product.Image,
		Rating:      product.Rating,
		ReviewCount: product.ReviewCount,
		Status:      product.Status,
		CategoryID:  product.CategoryID,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if product.OriginalPrice.Valid {
		originalPrice := product.OriginalPrice.Decimal
		res.OriginalPrice = &originalPrice
	}

	return res
}
