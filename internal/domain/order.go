package domain

import (
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// MaxAmount is the largest money value a NUMERIC(10, 2) column holds.
var MaxAmount = decimal.RequireFromString("99999999.99")

func amountInRange(amount decimal.Decimal) bool {
	return !amount.IsNegative() && !amount.GreaterThan(MaxAmount)
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an admin may move an order from s to next.
// Delivered and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             string          `db:"id"`
	OrderNumber    string          `db:"order_number"`
	UserID         string          `db:"user_id"`
	Email          string          `db:"email"`
	FirstName      string          `db:"first_name"`
	LastName       string          `db:"last_name"`
	Phone          string          `db:"phone"`
	Address        string          `db:"address"`
	City           string          `db:"city"`
	State          string          `db:"state"`
	ZipCode        string          `db:"zip_code"`
	Subtotal       decimal.Decimal `db:"subtotal"`
	Shipping       decimal.Decimal `db:"shipping"`
	Tax            decimal.Decimal `db:"tax"`
	Total          decimal.Decimal `db:"total"`
	Status         OrderStatus     `db:"status"`
	IdempotencyKey *string         `db:"idempotency_key"`
	CreatedAt      int64           `db:"created_at"`
	UpdatedAt      int64           `db:"updated_at"`
	Items          []OrderItem     `db:"-"`
}

type OrderItem struct {
	ID           string          `db:"id"`
	OrderID      string          `db:"order_id"`
	ProductID    string          `db:"product_id"`
	ProductName  string          `db:"product_name"`
	ProductImage string          `db:"product_image"`
	Price        decimal.Decimal `db:"price"`
	Quantity     int64           `db:"quantity"`
	CreatedAt    int64           `db:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// TotalsConsistent checks subtotal against the line items and total against
// subtotal + shipping + tax. Every amount must fit between zero and MaxAmount.
func (o Order) TotalsConsistent() bool {
	for _, amount := range []decimal.Decimal{o.Subtotal, o.Shipping, o.Tax, o.Total} {
		if !amountInRange(amount) {
			return false
		}
	}

	lines := decimal.Zero
	for _, item := range o.Items {
		if !amountInRange(item.Price) {
			return false
		}
		lines = lines.Add(item.LineTotal())
	}

	if !lines.Equal(o.Subtotal) {
		return false
	}

	return o.Subtotal.Add(o.Shipping).Add(o.Tax).Equal(o.Total)
}
