package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository/repotest"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []dto.KafkaMessage
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, msg dto.KafkaMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []dto.OrderResponse
	err  error
}

func (m *recordingMailer) SendOrderConfirmation(ctx context.Context, order dto.OrderResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, order)
	return m.err
}

type OrderServiceTestSuite struct {
	suite.Suite
	store     *repotest.Store
	publisher *recordingPublisher
	mailer    *recordingMailer
	service   OrderService
	ctx       context.Context
	u1        domain.User
	u2        domain.User
	admin     domain.User
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.store = repotest.NewStore()
	s.publisher = &recordingPublisher{}
	s.mailer = &recordingMailer{}
	s.service = CreateOrderService(s.store.Orders(), s.publisher, s.mailer, 24*time.Hour)
	s.ctx = context.Background()

	s.u1 = domain.User{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser}
	s.u2 = domain.User{ID: "u2", Email: "u2@example.com", Role: domain.RoleUser}
	s.admin = domain.User{ID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}

	s.store.SeedCategory(domain.Category{ID: "c1", Name: "Electronics", Slug: "electronics", ProductCount: 2})
	s.store.SeedProduct(domain.Product{ID: "p1", Name: "Headphones", Price: decimal.RequireFromString("299.99"), Stock: 5, Status: domain.ProductStatusActive, CategoryID: "c1"})
	s.store.SeedProduct(domain.Product{ID: "p2", Name: "Watch", Price: decimal.RequireFromString("399.99"), Stock: 10, Status: domain.ProductStatusActive, CategoryID: "c1"})
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

type line struct {
	productID string
	price     string
	quantity  int64
}

func orderRequest(userID string, lines ...line) dto.OrderRequest {
	subtotal := decimal.Zero
	var items []dto.OrderItemRequest
	for _, l := range lines {
		price := decimal.RequireFromString(l.price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(l.quantity)))
		items = append(items, dto.OrderItemRequest{
			ProductID:   l.productID,
			ProductName: "item " + l.productID,
			Quantity:    l.quantity,
			Price:       price,
		})
	}

	shipping := decimal.RequireFromString("9.99")
	tax := decimal.RequireFromString("5.00")

	return dto.OrderRequest{
		UserID: userID,
		Order: &dto.OrderHeader{
			UserID:    "someone-else",
			Email:     "buyer@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			Address:   "1 Main St",
			City:      "Springfield",
			State:     "IL",
			ZipCode:   "62701",
			Subtotal:  subtotal,
			Shipping:  shipping,
			Tax:       tax,
			Total:     subtotal.Add(shipping).Add(tax),
		},
		Items: items,
	}
}

func (s *OrderServiceTestSuite) stock(productID string) int64 {
	p, ok := s.store.Product(productID)
	s.Require().True(ok)
	return p.Stock
}

func (s *OrderServiceTestSuite) TestLastUnitsGoToFirstBuyer() {
	_, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 3}))
	s.Require().NoError(err)
	s.Equal(int64(2), s.stock("p1"))

	_, err = s.service.AddOrder(s.ctx, orderRequest(s.u2.ID, line{"p1", "299.99", 3}))
	s.ErrorIs(err, errs.ErrInsufficientStock)
	s.Equal(int64(2), s.stock("p1"))
	s.Equal(1, s.store.OrderCount())
}

// The in-memory store runs one transaction at a time, so this covers the
// service flow under concurrent callers. The conditional stock UPDATE that
// guards the database is covered in the repository tests.
func (s *OrderServiceTestSuite) TestConcurrentOrdersNeverOversellInMemoryStore() {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 2}))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, errs.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	s.Equal(2, succeeded)
	s.Equal(int64(1), s.stock("p1"))
}

func (s *OrderServiceTestSuite) TestOrderWithManyItems() {
	res, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID,
		line{"p1", "299.99", 1},
		line{"p2", "399.99", 2},
	))
	s.Require().NoError(err)

	s.Equal(1, s.store.OrderCount())
	s.Equal(2, s.store.ItemCount())
	s.Require().Len(res.Items, 2)
	s.Equal("p1", res.Items[0].ProductID)
	s.Equal("p2", res.Items[1].ProductID)
	s.Equal(int64(4), s.stock("p1"))
	s.Equal(int64(8), s.stock("p2"))
}

func (s *OrderServiceTestSuite) TestOrderIsBoundToCaller() {
	req := orderRequest(s.u1.ID, line{"p1", "299.99", 1})
	created, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(s.u1.ID, created.UserID)
	s.Equal(string(domain.OrderStatusPending), created.Status)
	s.NotEmpty(created.OrderNumber)

	fetched, err := s.service.GetOrderByID(s.ctx, s.u1, created.ID)
	s.Require().NoError(err)
	s.True(req.Order.Total.Equal(fetched.Total))
	s.True(req.Order.Subtotal.Equal(fetched.Subtotal))
	s.Equal("1 Main St", fetched.Address)
	s.Require().Len(fetched.Items, 1)
	s.Equal("item p1", fetched.Items[0].ProductName)
	s.True(decimal.RequireFromString("299.99").Equal(fetched.Items[0].Price))
}

func (s *OrderServiceTestSuite) TestRejectedOrdersLeaveNoTrace() {
	type TestCase struct {
		Name        string
		Request     dto.OrderRequest
		ExpectedErr error
	}

	mismatched := orderRequest(s.u1.ID, line{"p1", "299.99", 1})
	mismatched.Order.Total = mismatched.Order.Total.Add(decimal.NewFromInt(1))

	testCases := []TestCase{
		{
			Name:        "Totals do not add up",
			Request:     mismatched,
			ExpectedErr: errs.ErrInvalidOrderTotals,
		},
		{
			Name:        "Stale client price",
			Request:     orderRequest(s.u1.ID, line{"p1", "199.99", 1}),
			ExpectedErr: errs.ErrPriceMismatch,
		},
		{
			Name:        "Unknown product",
			Request:     orderRequest(s.u1.ID, line{"p1", "299.99", 1}, line{"missing", "1.00", 1}),
			ExpectedErr: errs.ErrNotFound,
		},
		{
			Name:        "Second item out of stock",
			Request:     orderRequest(s.u1.ID, line{"p1", "299.99", 1}, line{"p2", "399.99", 11}),
			ExpectedErr: errs.ErrInsufficientStock,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			_, err := s.service.AddOrder(s.ctx, tc.Request)
			s.ErrorIs(err, tc.ExpectedErr)

			s.Equal(0, s.store.OrderCount())
			s.Equal(0, s.store.ItemCount())
			s.Equal(int64(5), s.stock("p1"))
			s.Equal(int64(10), s.stock("p2"))
		})
	}

	s.Empty(s.publisher.messages)
	s.Empty(s.mailer.sent)
}

func (s *OrderServiceTestSuite) TestItemInsertFailureRollsBack() {
	s.store.FailOn("AddOrderItems", errors.New("disk full"))

	_, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 2}))
	s.Error(err)

	s.Equal(0, s.store.OrderCount())
	s.Equal(int64(5), s.stock("p1"))
}

func (s *OrderServiceTestSuite) TestDuplicateSubmissions() {
	req := orderRequest(s.u1.ID, line{"p1", "299.99", 1})

	_, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)
	_, err = s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(2, s.store.OrderCount())
	s.Equal(int64(3), s.stock("p1"))
}

func (s *OrderServiceTestSuite) TestIdempotencyKeyReplaysOrder() {
	req := orderRequest(s.u1.ID, line{"p1", "299.99", 1})
	req.IdempotencyKey = "checkout-123"

	first, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)
	second, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Len(second.Items, 1)
	s.Equal(1, s.store.OrderCount())
	s.Equal(int64(4), s.stock("p1"))

	// Keys are scoped per user.
	other := orderRequest(s.u2.ID, line{"p1", "299.99", 1})
	other.IdempotencyKey = "checkout-123"
	third, err := s.service.AddOrder(s.ctx, other)
	s.Require().NoError(err)
	s.NotEqual(first.ID, third.ID)
}

func (s *OrderServiceTestSuite) TestExpiredIdempotencyKeyIsReleased() {
	s.service = CreateOrderService(s.store.Orders(), s.publisher, s.mailer, -time.Minute)

	req := orderRequest(s.u1.ID, line{"p1", "299.99", 1})
	req.IdempotencyKey = "checkout-123"

	first, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)
	second, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID)
	s.Equal(2, s.store.OrderCount())
}

func (s *OrderServiceTestSuite) TestSideEffectsAfterCommit() {
	created, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 1}))
	s.Require().NoError(err)

	s.Require().Len(s.publisher.messages, 1)
	s.Equal(dto.EventOrderCreated, s.publisher.messages[0].EventType)
	s.Require().Len(s.mailer.sent, 1)
	s.Equal(created.ID, s.mailer.sent[0].ID)
}

func (s *OrderServiceTestSuite) TestSideEffectFailuresAreNotSurfaced() {
	s.publisher.err = errors.New("broker down")
	s.mailer.err = errors.New("smtp down")

	_, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 1}))
	s.NoError(err)
	s.Equal(1, s.store.OrderCount())
}

func (s *OrderServiceTestSuite) TestNilPublisherAndMailer() {
	svc := CreateOrderService(s.store.Orders(), nil, nil, time.Hour)

	_, err := svc.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 1}))
	s.NoError(err)
}

func (s *OrderServiceTestSuite) TestOrderVisibility() {
	mine, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 1}))
	s.Require().NoError(err)
	_, err = s.service.AddOrder(s.ctx, orderRequest(s.u2.ID, line{"p2", "399.99", 1}))
	s.Require().NoError(err)

	orders, err := s.service.GetOrders(s.ctx, s.u1, pkgdto.Filter{UserID: s.u2.ID})
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(mine.ID, orders[0].ID)

	all, err := s.service.GetOrders(s.ctx, s.admin, pkgdto.Filter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	_, err = s.service.GetOrderByID(s.ctx, s.u2, mine.ID)
	s.ErrorIs(err, errs.ErrForbidden)

	_, err = s.service.GetOrderByID(s.ctx, s.admin, mine.ID)
	s.NoError(err)

	_, err = s.service.GetOrderByID(s.ctx, s.u1, "missing")
	s.ErrorIs(err, errs.ErrNotFound)

	_, err = s.service.GetOrders(s.ctx, s.u1, pkgdto.Filter{Status: "lost"})
	s.ErrorIs(err, errs.ErrInvalidStatus)
}

func (s *OrderServiceTestSuite) TestStatusLifecycle() {
	created, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 1}))
	s.Require().NoError(err)

	for _, next := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		res, err := s.service.UpdateOrderStatus(s.ctx, dto.OrderStatusRequest{ID: created.ID, Status: string(next)})
		s.Require().NoError(err)
		s.Equal(string(next), res.Status)
	}

	_, err = s.service.UpdateOrderStatus(s.ctx, dto.OrderStatusRequest{ID: created.ID, Status: string(domain.OrderStatusCancelled)})
	s.ErrorIs(err, errs.ErrInvalidStatusTransition)

	_, err = s.service.UpdateOrderStatus(s.ctx, dto.OrderStatusRequest{ID: created.ID, Status: "lost"})
	s.ErrorIs(err, errs.ErrInvalidStatus)

	last := s.publisher.messages[len(s.publisher.messages)-1]
	s.Equal(dto.EventOrderStatusUpdated, last.EventType)
	s.Equal(dto.OrderStatusUpdate{ID: created.ID, From: "shipped", To: "delivered"}, last.Data)
}

func (s *OrderServiceTestSuite) TestCancellationRestocks() {
	created, err := s.service.AddOrder(s.ctx, orderRequest(s.u1.ID, line{"p1", "299.99", 3}, line{"p2", "399.99", 4}))
	s.Require().NoError(err)
	s.Equal(int64(2), s.stock("p1"))

	res, err := s.service.UpdateOrderStatus(s.ctx, dto.OrderStatusRequest{ID: created.ID, Status: string(domain.OrderStatusCancelled)})
	s.Require().NoError(err)
	s.Equal(string(domain.OrderStatusCancelled), res.Status)

	s.Equal(int64(5), s.stock("p1"))
	s.Equal(int64(10), s.stock("p2"))

	_, err = s.service.UpdateOrderStatus(s.ctx, dto.OrderStatusRequest{ID: created.ID, Status: string(domain.OrderStatusCancelled)})
	s.ErrorIs(err, errs.ErrInvalidStatusTransition)
	s.Equal(int64(5), s.stock("p1"))
}

func (s *OrderServiceTestSuite) TestPurgeExpiredIdempotencyKeys() {
	req := orderRequest(s.u1.ID, line{"p1", "299.99", 1})
	req.IdempotencyKey = "checkout-123"
	_, err := s.service.AddOrder(s.ctx, req)
	s.Require().NoError(err)

	cleared, err := s.service.PurgeExpiredIdempotencyKeys(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), cleared)

	purger := CreateOrderService(s.store.Orders(), nil, nil, -time.Minute)
	cleared, err = purger.PurgeExpiredIdempotencyKeys(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), cleared)
}
