package mail

import (
	"bytes"
	"testing"

	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderConfirmation(t *testing.T) {
	order := dto.OrderResponse{
		OrderNumber: "01J0000000000000000000000",
		Email:       "buyer@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Address:     "123 Main St",
		City:        "Springfield",
		Subtotal:    decimal.RequireFromString("599.98"),
		Shipping:    decimal.Zero,
		Tax:         decimal.RequireFromString("48"),
		Total:       decimal.RequireFromString("647.98"),
		CreatedAt:   1718454600000,
		Items: []dto.OrderItemResponse{
			{ProductName: "Premium Wireless Headphones", Quantity: 2, Price: decimal.RequireFromString("299.99")},
		},
	}

	message := BuildOrderConfirmation("shop@example.com", order)

	assert.Equal(t, []string{"buyer@example.com"}, message.GetHeader("To"))
	assert.Equal(t, []string{"Order 01J0000000000000000000000 confirmed"}, message.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := message.WriteTo(&buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "2 x Premium Wireless Headphones @ 299.99")
	assert.Contains(t, buf.String(), "Total: 647.98")
	assert.Contains(t, buf.String(), "15 June 2024, 12:30 UTC")
}
