package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/app"
	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/database/postgres"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	"github.com/alimikegami/e-commerce/storefront-service/internal/service"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type seedProduct struct {
	request      dto.ProductRequest
	categorySlug string
}

var seedCategories = []dto.CategoryRequest{
	{Name: "Electronics", Slug: "electronics"},
	{Name: "Fashion", Slug: "fashion"},
	{Name: "Accessories", Slug: "accessories"},
	{Name: "Footwear", Slug: "footwear"},
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProducts() []seedProduct {
	original := price("399.99")

	return []seedProduct{
		{categorySlug: "electronics", request: dto.ProductRequest{
			Name:          "Premium Wireless Headphones",
			Description:   "Experience premium sound quality with our wireless headphones. Featuring active noise cancellation, 30-hour battery life, and premium materials for ultimate comfort.",
			Price:         price("299.99"),
			OriginalPrice: &original,
			Stock:         45,
			Image:         "/assets/generated_images/premium_headphones_product_image.png",
			Rating:        price("4.5"),
			ReviewCount:   128,
		}},
		{categorySlug: "electronics", request: dto.ProductRequest{
			Name:        "Gaming Laptop Pro",
			Description: "High-performance gaming laptop with RTX 4070, 32GB RAM, and 1TB SSD. Perfect for gaming and content creation.",
			Price:       price("1299.99"),
			Stock:       12,
			Image:       "/assets/generated_images/gaming_laptop_product_image.png",
			Rating:      price("4.8"),
			ReviewCount: 89,
		}},
		{categorySlug: "fashion", request: dto.ProductRequest{
			Name:        "Luxury Leather Bag",
			Description: "Handcrafted leather bag with premium materials. Perfect for business or casual use.",
			Price:       price("199.99"),
			Stock:       28,
			Image:       "/assets/generated_images/leather_bag_product_image.png",
			Rating:      price("4.6"),
			ReviewCount: 156,
		}},
		{categorySlug: "electronics", request: dto.ProductRequest{
			Name:        "Smartphone X Pro",
			Description: "Latest flagship smartphone with 5G, triple camera system, and all-day battery life.",
			Price:       price("999.99"),
			Stock:       35,
			Image:       "/assets/generated_images/smartphone_product_image.png",
			Rating:      price("4.9"),
			ReviewCount: 234,
		}},
		{categorySlug: "footwear", request: dto.ProductRequest{
			Name:        "Designer Sneakers",
			Description: "Premium sneakers with superior comfort and style. Perfect for everyday wear.",
			Price:       price("159.99"),
			Stock:       52,
			Image:       "/assets/generated_images/sneakers_product_image.png",
			Rating:      price("4.4"),
			ReviewCount: 92,
		}},
		{categorySlug: "accessories", request: dto.ProductRequest{
			Name:        "Wireless Earbuds Pro",
			Description: "True wireless earbuds with active noise cancellation and premium sound quality.",
			Price:       price("179.99"),
			Stock:       68,
			Image:       "/assets/generated_images/premium_headphones_product_image.png",
			Rating:      price("4.7"),
			ReviewCount: 203,
		}},
	}
}

// Running the seed twice leaves the database unchanged.
func main() {
	app.InitLogger()
	ctx := context.Background()

	config := config.CreateNewConfig()
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal().Msg("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	db, err := postgres.GetDBInstance(config.PostgreSQLConfig.DBUsername, config.PostgreSQLConfig.DBPassword, config.PostgreSQLConfig.DBHost, config.PostgreSQLConfig.DBPort, config.PostgreSQLConfig.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	if err := seedAdmin(ctx, repository.CreateNewUserRepository(db), adminEmail, adminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	catalog := service.CreateNewCatalogService(repository.CreateNewCatalogRepository(db))
	if err := seedCatalog(ctx, catalog); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed catalog")
	}

	log.Info().Msg("Database seeding complete")
}

func seedAdmin(ctx context.Context, users repository.UserRepository, email string, password string) error {
	existing, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing.ID != "" {
		log.Info().Str("email", email).Msg("Admin user already exists")
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	_, err = users.AddUser(ctx, domain.User{
		ID:             id.String(),
		Email:          email,
		HashedPassword: hash,
		FirstName:      "Admin",
		LastName:       "User",
		Role:           domain.RoleAdmin,
	})
	if err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("Admin user created")
	return nil
}

func seedCatalog(ctx context.Context, catalog service.CatalogService) error {
	categories, err := catalog.GetCategories(ctx)
	if err != nil {
		return err
	}

	categoryIDs := map[string]string{}
	for _, category := range categories {
		categoryIDs[category.Slug] = category.ID
	}

	for _, req := range seedCategories {
		if _, ok := categoryIDs[req.Slug]; ok {
			continue
		}

		created, err := catalog.AddCategory(ctx, req)
		if errors.Is(err, errs.ErrDuplicateSlug) {
			continue
		}
		if err != nil {
			return err
		}

		categoryIDs[created.Slug] = created.ID
		log.Info().Str("category", created.Name).Msg("Category created")
	}

	products, err := catalog.GetProducts(ctx, pkgdto.Filter{})
	if err != nil {
		return err
	}

	existing := map[string]bool{}
	for _, product := range products {
		existing[product.Name] = true
	}

	for _, seed := range seedProducts() {
		if existing[seed.request.Name] {
			continue
		}

		categoryID, ok := categoryIDs[seed.categorySlug]
		if !ok {
			continue
		}

		seed.request.CategoryID = categoryID
		seed.request.Status = domain.ProductStatusActive
		if _, err := catalog.AddProduct(ctx, seed.request); err != nil {
			return err
		}
		log.Info().Str("product", seed.request.Name).Msg("Product created")
	}

	return nil
}
