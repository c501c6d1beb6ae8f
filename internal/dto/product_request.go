package dto

import "github.com/shopspring/decimal"

type CategoryRequest struct {
	ID   string `json:"-"`
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type CategoryUpdateRequest struct {
	ID   string  `json:"-"`
	Name *string `json:"name" validate:"omitempty,min=1"`
	Slug *string `json:"slug" validate:"omitempty,min=1"`
}

type ProductRequest struct {
	Name          string           `json:"name" validate:"required"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Stock         int64            `json:"stock" validate:"min=0"`
	Image         string           `json:"image"`
	Rating        decimal.Decimal  `json:"rating"`
	ReviewCount   int64            `json:"reviewCount" validate:"min=0"`
	Status        string           `json:"status" validate:"omitempty,oneof=active draft archived"`
	CategoryID    string           `json:"categoryId" validate:"required"`
}

// ProductUpdateRequest carries PATCH semantics: nil fields are left unchanged.
// ClearOriginalPrice removes the original price and cannot be combined with
// OriginalPrice.
type ProductUpdateRequest struct {
	ID                 string           `json:"-"`
	Name               *string          `json:"name" validate:"omitempty,min=1"`
	Description        *string          `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"originalPrice"`
	ClearOriginalPrice bool             `json:"clearOriginalPrice"`
	Stock              *int64           `json:"stock" validate:"omitempty,min=0"`
	Image              *string          `json:"image"`
	Rating             *decimal.Decimal `json:"rating"`
	ReviewCount        *int64           `json:"reviewCount" validate:"omitempty,min=0"`
	Status             *string          `json:"status" validate:"omitempty,oneof=active draft archived"`
	CategoryID         *string          `json:"categoryId" validate:"omitempty,min=1"`
}
