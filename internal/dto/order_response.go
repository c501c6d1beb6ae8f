package dto

import "github.com/shopspring/decimal"

type OrderResponse struct {
	ID          string              `json:"id"`
	OrderNumber string              `json:"orderNumber"`
	UserID      string              `json:"userId"`
	Email       string              `json:"email"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Phone       string              `json:"phone"`
	Address     string              `json:"address"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	ZipCode     string              `json:"zipCode"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
	Shipping    decimal.Decimal     `json:"shipping"`
	Tax         decimal.Decimal     `json:"tax"`
	Total       decimal.Decimal     `json:"total"`
	Status      string              `json:"status"`
	CreatedAt   int64               `json:"createdAt"`
	UpdatedAt   int64               `json:"updatedAt"`
	Items       []OrderItemResponse `json:"items,omitempty"`
}

type OrderItemResponse struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"orderId"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductImage string          `json:"productImage"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int64           `json:"quantity"`
}

type AnalyticsResponse struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalOrders    int64           `json:"totalOrders"`
	TotalCustomers int64           `json:"totalCustomers"`
	TotalProducts  int64           `json:"totalProducts"`
}
