package service

import (
	"context"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
)

type AnalyticsServiceImpl struct {
	orders  repository.OrderRepository
	users   repository.UserRepository
	catalog repository.CatalogRepository
}

func CreateAnalyticsService(orders repository.OrderRepository, users repository.UserRepository, catalog repository.CatalogRepository) AnalyticsService {
	return &AnalyticsServiceImpl{orders: orders, users: users, catalog: catalog}
}

// GetAnalytics counts revenue from delivered orders only.
func (s *AnalyticsServiceImpl) GetAnalytics(ctx context.Context) (res dto.AnalyticsResponse, err error) {
	res.TotalRevenue, err = s.orders.SumDeliveredRevenue(ctx)
	if err != nil {
		return
	}

	res.TotalOrders, err = s.orders.CountOrders(ctx)
	if err != nil {
		return
	}

	res.TotalCustomers, err = s.users.CountUsersByRole(ctx, domain.RoleUser)
	if err != nil {
		return
	}

	res.TotalProducts, err = s.catalog.CountProducts(ctx)
	return
}
