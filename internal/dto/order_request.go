package dto

import "github.com/shopspring/decimal"

type OrderRequest struct {
	UserID         string             `json:"-"`
	IdempotencyKey string             `json:"-"`
	Order          *OrderHeader       `json:"order" validate:"required"`
	Items          []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderHeader is the checkout snapshot. A userId sent by the client is
// accepted for compatibility and ignored.
type OrderHeader struct {
	UserID    string          `json:"userId"`
	Email     string          `json:"email" validate:"required,email"`
	FirstName string          `json:"firstName" validate:"required"`
	LastName  string          `json:"lastName" validate:"required"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address" validate:"required"`
	City      string          `json:"city" validate:"required"`
	State     string          `json:"state"`
	ZipCode   string          `json:"zipCode"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

type OrderItemRequest struct {
	ProductID    string          `json:"productId" validate:"required"`
	ProductName  string          `json:"productName" validate:"required"`
	ProductImage string          `json:"productImage"`
	Quantity     int64           `json:"quantity" validate:"required,min=1,max=10000"`
	Price        decimal.Decimal `json:"price"`
}

type OrderStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status" validate:"required"`
}
