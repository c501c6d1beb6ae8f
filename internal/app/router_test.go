package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository/repotest"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/response"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testSecret = "test-secret"

type RouterTestSuite struct {
	suite.Suite
	store      *repotest.Store
	server     *echo.Echo
	adminToken string
	userToken  string
}

func (s *RouterTestSuite) SetupTest() {
	s.store = repotest.NewStore()
	conf := &config.Config{
		JWTConfig:         config.JWTConfig{JWTSecret: testSecret, TTL: time.Hour},
		IdempotencyKeyTTL: time.Hour,
	}

	s.server, _ = NewServer(conf, Repositories{
		Users:   s.store.Users(),
		Catalog: s.store.Catalog(),
		Orders:  s.store.Orders(),
	}, nil, nil)

	ctx := context.Background()
	hash, err := utils.HashPassword("admin-password")
	s.Require().NoError(err)
	_, err = s.store.Users().AddUser(ctx, domain.User{ID: "admin", Email: "admin@example.com", HashedPassword: hash, FirstName: "Ada", LastName: "Admin", Role: domain.RoleAdmin})
	s.Require().NoError(err)

	s.adminToken, err = utils.CreateJWTToken("admin", "admin@example.com", string(domain.RoleAdmin), testSecret, time.Hour)
	s.Require().NoError(err)

	var auth dto.AuthResponse
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": "jane@example.com", "password": "secret1", "firstName": "Jane", "lastName": "Doe",
	}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &auth)
	s.userToken = auth.Token

	s.store.SeedCategory(domain.Category{ID: "c1", Name: "Electronics", Slug: "electronics", ProductCount: 1})
	s.store.SeedProduct(domain.Product{ID: "p1", Name: "Headphones", Price: decimal.RequireFromString("299.99"), Stock: 5, Status: domain.ProductStatusActive, CategoryID: "c1"})
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) do(method string, path string, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v))
}

func checkout(quantity int64, price string) map[string]interface{} {
	unit := decimal.RequireFromString(price)
	subtotal := unit.Mul(decimal.NewFromInt(quantity))
	shipping := decimal.RequireFromString("10.00")
	tax := decimal.RequireFromString("2.50")

	return map[string]interface{}{
		"order": map[string]interface{}{
			"userId":    "spoofed",
			"email":     "jane@example.com",
			"firstName": "Jane",
			"lastName":  "Doe",
			"address":   "1 Main St",
			"city":      "Springfield",
			"subtotal":  subtotal.String(),
			"shipping":  shipping.String(),
			"tax":       tax.String(),
			"total":     subtotal.Add(shipping).Add(tax).String(),
		},
		"items": []map[string]interface{}{
			{"productId": "p1", "productName": "Headphones", "quantity": quantity, "price": price},
		},
	}
}

func (s *RouterTestSuite) TestPing() {
	rec := s.do(http.MethodGet, "/api/ping", "", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestAuthEndpoints() {
	type TestCase struct {
		Name           string
		Path           string
		Request        interface{}
		ExpectedStatus int
		AssertResponse func(s *RouterTestSuite, rec *httptest.ResponseRecorder)
	}

	testCases := []TestCase{
		{
			Name:           "Invalid email",
			Path:           "/api/auth/register",
			Request:        map[string]interface{}{"email": "jane", "password": "secret1", "firstName": "J", "lastName": "D"},
			ExpectedStatus: http.StatusBadRequest,
			AssertResponse: func(s *RouterTestSuite, rec *httptest.ResponseRecorder) {
				s.Contains(rec.Body.String(), `"field":"Email"`)
			},
		},
		{
			Name:           "Short password",
			Path:           "/api/auth/register",
			Request:        map[string]interface{}{"email": "john@example.com", "password": "123", "firstName": "J", "lastName": "D"},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "Email taken",
			Path:           "/api/auth/register",
			Request:        map[string]interface{}{"email": "jane@example.com", "password": "secret1", "firstName": "J", "lastName": "D"},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "Malformed body",
			Path:           "/api/auth/login",
			Request:        `{"email":`,
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "Missing password",
			Path:           "/api/auth/login",
			Request:        map[string]interface{}{"email": "jane@example.com"},
			ExpectedStatus: http.StatusBadRequest,
		},
		{
			Name:           "Wrong password",
			Path:           "/api/auth/login",
			Request:        map[string]interface{}{"email": "jane@example.com", "password": "nope12"},
			ExpectedStatus: http.StatusUnauthorized,
			AssertResponse: func(s *RouterTestSuite, rec *httptest.ResponseRecorder) {
				s.NotContains(rec.Body.String(), "token")
			},
		},
		{
			Name:           "Valid login",
			Path:           "/api/auth/login",
			Request:        map[string]interface{}{"email": "admin@example.com", "password": "admin-password"},
			ExpectedStatus: http.StatusOK,
			AssertResponse: func(s *RouterTestSuite, rec *httptest.ResponseRecorder) {
				var auth dto.AuthResponse
				s.decode(rec, &auth)
				s.Equal("admin", auth.User.Role)

				claims, err := utils.ParseJWTToken(auth.Token, testSecret)
				s.Require().NoError(err)
				s.Equal("admin", claims.ID)
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			rec := s.do(http.MethodPost, tc.Path, "", tc.Request, nil)

			s.Equal(tc.ExpectedStatus, rec.Code, rec.Body.String())
			if tc.AssertResponse != nil {
				tc.AssertResponse(s, rec)
			}
		})
	}
}

func (s *RouterTestSuite) TestMe() {
	rec := s.do(http.MethodGet, "/api/auth/me", s.userToken, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var me dto.UserResponse
	s.decode(rec, &me)
	s.Equal("jane@example.com", me.Email)
	s.NotContains(rec.Body.String(), "password")

	rec = s.do(http.MethodGet, "/api/auth/me", "", nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestAdminRoutesRejectCustomers() {
	type TestCase struct {
		Name    string
		Method  string
		Path    string
		Request interface{}
	}

	testCases := []TestCase{
		{Name: "Create category", Method: http.MethodPost, Path: "/api/categories", Request: map[string]interface{}{"name": "Toys", "slug": "toys"}},
		{Name: "Delete category", Method: http.MethodDelete, Path: "/api/categories/c1"},
		{Name: "Reconcile", Method: http.MethodPost, Path: "/api/categories/reconcile"},
		{Name: "Create product", Method: http.MethodPost, Path: "/api/products", Request: map[string]interface{}{"name": "Hat", "price": "1.00", "categoryId": "c1"}},
		{Name: "Update product", Method: http.MethodPatch, Path: "/api/products/p1", Request: map[string]interface{}{"stock": 100}},
		{Name: "Delete product", Method: http.MethodDelete, Path: "/api/products/p1"},
		{Name: "Update order status", Method: http.MethodPatch, Path: "/api/orders/o1/status", Request: map[string]interface{}{"status": "shipped"}},
		{Name: "Customers", Method: http.MethodGet, Path: "/api/customers"},
		{Name: "Analytics", Method: http.MethodGet, Path: "/api/analytics"},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			rec := s.do(tc.Method, tc.Path, s.userToken, tc.Request, nil)
			s.Equal(http.StatusForbidden, rec.Code)

			rec = s.do(tc.Method, tc.Path, "", tc.Request, nil)
			s.Equal(http.StatusUnauthorized, rec.Code)
		})
	}

	product, ok := s.store.Product("p1")
	s.Require().True(ok)
	s.Equal(int64(5), product.Stock)
	_, ok = s.store.Category("c1")
	s.True(ok)

	rec := s.do(http.MethodGet, "/api/categories", "", nil, nil)
	var categories []dto.CategoryResponse
	s.decode(rec, &categories)
	s.Len(categories, 1)
}

func (s *RouterTestSuite) TestAdminCatalogManagement() {
	rec := s.do(http.MethodPost, "/api/categories", s.adminToken, map[string]interface{}{"name": "Footwear", "slug": "footwear"}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var category dto.CategoryResponse
	s.decode(rec, &category)

	rec = s.do(http.MethodPost, "/api/categories", s.adminToken, map[string]interface{}{"name": "Shoes", "slug": "footwear"}, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/products", s.adminToken, map[string]interface{}{
		"name": "Sneakers", "price": "89.99", "originalPrice": "119.99", "stock": 20, "categoryId": category.ID,
	}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var product dto.ProductResponse
	s.decode(rec, &product)
	s.Equal("active", product.Status)

	rec = s.do(http.MethodPost, "/api/products", s.adminToken, map[string]interface{}{"name": "Ghost", "price": "1.00", "categoryId": "missing"}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, "/api/products/"+product.ID, s.adminToken, map[string]interface{}{"stock": 7}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &product)
	s.Equal(int64(7), product.Stock)
	s.Equal("Sneakers", product.Name)

	rec = s.do(http.MethodGet, "/api/products?categoryId="+category.ID, "", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var products []dto.ProductResponse
	s.decode(rec, &products)
	s.Require().Len(products, 1)

	rec = s.do(http.MethodDelete, "/api/categories/"+category.ID, s.adminToken, nil, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodDelete, "/api/products/"+product.ID, s.adminToken, nil, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/products/"+product.ID, "", nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/categories/"+category.ID, s.adminToken, nil, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestPlaceOrder() {
	type TestCase struct {
		Name           string
		Request        interface{}
		Headers        map[string]string
		ExpectedStatus int
	}

	noItems := checkout(1, "299.99")
	noItems["items"] = []map[string]interface{}{}

	zeroQuantity := checkout(1, "299.99")
	zeroQuantity["items"] = []map[string]interface{}{{"productId": "p1", "productName": "Headphones", "quantity": 0, "price": "299.99"}}

	testCases := []TestCase{
		{Name: "Missing order header", Request: map[string]interface{}{"items": checkout(1, "299.99")["items"]}, ExpectedStatus: http.StatusBadRequest},
		{Name: "Empty items", Request: noItems, ExpectedStatus: http.StatusBadRequest},
		{Name: "Zero quantity", Request: zeroQuantity, ExpectedStatus: http.StatusBadRequest},
		{Name: "Quantity above limit", Request: checkout(1000000000, "299.99"), ExpectedStatus: http.StatusBadRequest},
		{Name: "Idempotency key too long", Request: checkout(1, "299.99"), Headers: map[string]string{"Idempotency-Key": strings.Repeat("k", 129)}, ExpectedStatus: http.StatusBadRequest},
		{Name: "Price mismatch", Request: checkout(1, "199.99"), ExpectedStatus: http.StatusConflict},
		{Name: "Not enough stock", Request: checkout(6, "299.99"), ExpectedStatus: http.StatusConflict},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			rec := s.do(http.MethodPost, "/api/orders", s.userToken, tc.Request, tc.Headers)
			s.Equal(tc.ExpectedStatus, rec.Code, rec.Body.String())
		})
	}
	s.Equal(0, s.store.OrderCount())

	headers := map[string]string{"Idempotency-Key": "cart-42"}
	rec := s.do(http.MethodPost, "/api/orders", s.userToken, checkout(3, "299.99"), headers)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created dto.OrderResponse
	s.decode(rec, &created)
	s.NotEqual("spoofed", created.UserID)
	s.Equal("pending", created.Status)
	s.Len(created.Items, 1)

	rec = s.do(http.MethodPost, "/api/orders", s.userToken, checkout(3, "299.99"), headers)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var replayed dto.OrderResponse
	s.decode(rec, &replayed)
	s.Equal(created.ID, replayed.ID)

	product, _ := s.store.Product("p1")
	s.Equal(int64(2), product.Stock)

	rec = s.do(http.MethodGet, "/api/orders/"+created.ID, s.adminToken, nil, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPatch, "/api/orders/"+created.ID+"/status", s.adminToken, map[string]interface{}{"status": "delivered"}, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPatch, "/api/orders/"+created.ID+"/status", s.adminToken, map[string]interface{}{"status": "cancelled"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	product, _ = s.store.Product("p1")
	s.Equal(int64(5), product.Stock)
}

func (s *RouterTestSuite) TestOrderVisibility() {
	rec := s.do(http.MethodPost, "/api/orders", s.userToken, checkout(1, "299.99"), nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created dto.OrderResponse
	s.decode(rec, &created)

	var other dto.AuthResponse
	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": "john@example.com", "password": "secret1", "firstName": "John", "lastName": "Roe",
	}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &other)

	rec = s.do(http.MethodGet, "/api/orders/"+created.ID, other.Token, nil, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/orders/missing", other.Token, nil, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/orders", other.Token, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var orders []dto.OrderResponse
	s.decode(rec, &orders)
	s.Empty(orders)

	rec = s.do(http.MethodGet, "/api/orders?status=pending", s.adminToken, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &orders)
	s.Len(orders, 1)

	rec = s.do(http.MethodGet, "/api/orders?status=lost", s.userToken, nil, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestAdminReports() {
	rec := s.do(http.MethodPost, "/api/orders", s.userToken, checkout(1, "299.99"), nil)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/customers", s.adminToken, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var customers []dto.UserResponse
	s.decode(rec, &customers)
	s.Require().Len(customers, 1)
	s.Equal("jane@example.com", customers[0].Email)

	rec = s.do(http.MethodGet, "/api/analytics", s.adminToken, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var analytics dto.AnalyticsResponse
	s.decode(rec, &analytics)
	s.True(analytics.TotalRevenue.IsZero())
	s.Equal(int64(1), analytics.TotalOrders)
	s.Equal(int64(1), analytics.TotalCustomers)
	s.Equal(int64(1), analytics.TotalProducts)

	rec = s.do(http.MethodPost, "/api/categories/reconcile", s.adminToken, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var reconciled dto.ReconcileResponse
	s.decode(rec, &reconciled)
	s.Equal(int64(0), reconciled.Updated)
}

func (s *RouterTestSuite) TestUnknownErrorsAreMasked() {
	s.store.FailOn("GetUserByEmail", context.DeadlineExceeded)

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]interface{}{"email": "jane@example.com", "password": "secret1"}, nil)
	s.Equal(http.StatusInternalServerError, rec.Code)

	var body response.ErrorResponse
	s.decode(rec, &body)
	s.Equal("Internal server error", body.Error)
}
