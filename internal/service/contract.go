package service

import (
	"context"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
)

type UserService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (res dto.AuthResponse, err error)
	Login(ctx context.Context, req dto.LoginRequest) (res dto.AuthResponse, err error)
	GetUserByID(ctx context.Context, id string) (user domain.User, err error)
	GetCustomers(ctx context.Context) (res []dto.UserResponse, err error)
}

type CatalogService interface {
	GetCategories(ctx context.Context) (res []dto.CategoryResponse, err error)
	AddCategory(ctx context.Context, req dto.CategoryRequest) (res dto.CategoryResponse, err error)
	UpdateCategory(ctx context.Context, req dto.CategoryUpdateRequest) (res dto.CategoryResponse, err error)
	DeleteCategory(ctx context.Context, id string) (err error)
	ReconcileCategoryCounts(ctx context.Context) (res dto.ReconcileResponse, err error)

	GetProducts(ctx context.Context, filter pkgdto.Filter) (res []dto.ProductResponse, err error)
	GetProductByID(ctx context.Context, id string) (res dto.ProductResponse, err error)
	AddProduct(ctx context.Context, req dto.ProductRequest) (res dto.ProductResponse, err error)
	UpdateProduct(ctx context.Context, req dto.ProductUpdateRequest) (res dto.ProductResponse, err error)
	DeleteProduct(ctx context.Context, id string) (err error)
}

type OrderService interface {
	AddOrder(ctx context.Context, req dto.OrderRequest) (res dto.OrderResponse, err error)
	GetOrders(ctx context.Context, caller domain.User, filter pkgdto.Filter) (res []dto.OrderResponse, err error)
	GetOrderByID(ctx context.Context, caller domain.User, id string) (res dto.OrderResponse, err error)
	UpdateOrderStatus(ctx context.Context, req dto.OrderStatusRequest) (res dto.OrderResponse, err error)
	PurgeExpiredIdempotencyKeys(ctx context.Context) (cleared int64, err error)
}

type AnalyticsService interface {
	GetAnalytics(ctx context.Context) (res dto.AnalyticsResponse, err error)
}

// EventPublisher is implemented by the kafka producer. A nil publisher
// disables order events.
type EventPublisher interface {
	Publish(ctx context.Context, key string, msg dto.KafkaMessage) error
}

// OrderMailer is implemented by the SMTP mailer. A nil mailer disables
// confirmation mails.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, order dto.OrderResponse) error
}
