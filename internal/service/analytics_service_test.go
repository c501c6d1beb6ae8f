package service

import (
	"context"
	"testing"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository/repotest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAnalyticsCountsDeliveredRevenueOnly(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	store.SeedCategory(domain.Category{ID: "c1", Name: "Electronics", Slug: "electronics", ProductCount: 1})
	store.SeedProduct(domain.Product{ID: "p1", Name: "Headphones", Price: decimal.RequireFromString("299.99"), Stock: 10, Status: domain.ProductStatusActive, CategoryID: "c1"})

	_, err := store.Users().AddUser(ctx, domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser})
	require.NoError(t, err)
	_, err = store.Users().AddUser(ctx, domain.User{ID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	orders := CreateOrderService(store.Orders(), nil, nil, time.Hour)
	delivered, err := orders.AddOrder(ctx, orderRequest("u1", line{"p1", "299.99", 1}))
	require.NoError(t, err)
	_, err = orders.AddOrder(ctx, orderRequest("u1", line{"p1", "299.99", 2}))
	require.NoError(t, err)

	for _, next := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		_, err = orders.UpdateOrderStatus(ctx, dto.OrderStatusRequest{ID: delivered.ID, Status: string(next)})
		require.NoError(t, err)
	}

	svc := CreateAnalyticsService(store.Orders(), store.Users(), store.Catalog())
	res, err := svc.GetAnalytics(ctx)
	require.NoError(t, err)

	assert.True(t, delivered.Total.Equal(res.TotalRevenue), "revenue %s", res.TotalRevenue)
	assert.Equal(t, int64(2), res.TotalOrders)
	assert.Equal(t, int64(1), res.TotalCustomers)
	assert.Equal(t, int64(1), res.TotalProducts)
}
