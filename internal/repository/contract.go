package repository

import (
	"context"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/shopspring/decimal"
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (res domain.User, err error)
	GetUserByID(ctx context.Context, id string) (res domain.User, err error)
	AddUser(ctx context.Context, data domain.User) (res domain.User, err error)
	GetUsersByRole(ctx context.Context, role domain.Role) (data []domain.User, err error)
	CountUsersByRole(ctx context.Context, role domain.Role) (count int64, err error)
}

type CatalogRepository interface {
	HandleTrx(ctx context.Context, fn func(ctx context.Context, repo CatalogRepository) error) error

	GetCategories(ctx context.Context) (data []domain.Category, err error)
	GetCategoryByID(ctx context.Context, id string) (data domain.Category, err error)
	AddCategory(ctx context.Context, data domain.Category) (res domain.Category, err error)
	UpdateCategory(ctx context.Context, data domain.Category) (err error)
	DeleteCategory(ctx context.Context, id string) (err error)
	AdjustCategoryProductCount(ctx context.Context, id string, delta int64) (err error)
	ReconcileCategoryProductCounts(ctx context.Context) (updated int64, err error)

	GetProducts(ctx context.Context, filter pkgdto.Filter) (data []domain.Product, err error)
	GetProductByID(ctx context.Context, id string) (data domain.Product, err error)
	GetProductByIDForUpdate(ctx context.Context, id string) (data domain.Product, err error)
	CountProducts(ctx context.Context) (count int64, err error)
	AddProduct(ctx context.Context, data domain.Product) (res domain.Product, err error)
	UpdateProduct(ctx context.Context, data domain.Product) (err error)
	DeleteProduct(ctx context.Context, id string) (err error)
}

type OrderRepository interface {
	HandleTrx(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error

	AddOrder(ctx context.Context, data domain.Order) (res domain.Order, err error)
	AddOrderItems(ctx context.Context, data []domain.OrderItem) (err error)
	DecreaseProductStock(ctx context.Context, productID string, quantity int64) (price decimal.Decimal, err error)
	IncreaseProductStock(ctx context.Context, productID string, quantity int64) (err error)
	GetOrderByID(ctx context.Context, id string) (data domain.Order, err error)
	GetOrderByIdempotencyKey(ctx context.Context, userID string, key string, since int64) (data domain.Order, err error)
	GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error)
	GetOrderItems(ctx context.Context, orderID string) (data []domain.OrderItem, err error)
	UpdateOrderStatus(ctx context.Context, id string, from domain.OrderStatus, to domain.OrderStatus) (data domain.Order, err error)
	SumDeliveredRevenue(ctx context.Context) (total decimal.Decimal, err error)
	CountOrders(ctx context.Context) (count int64, err error)
	ClearIdempotencyKeys(ctx context.Context, before int64) (cleared int64, err error)
}
