package dto

import "github.com/shopspring/decimal"

type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ProductCount int64  `json:"productCount"`
	CreatedAt    int64  `json:"createdAt"`
}

type ProductResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Stock         int64            `json:"stock"`
	Image         string           `json:"image"`
	Rating        decimal.Decimal  `json:"rating"`
	ReviewCount   int64            `json:"reviewCount"`
	Status        string           `json:"status"`
	CategoryID    string           `json:"categoryId"`
	CreatedAt     int64            `json:"createdAt"`
	UpdatedAt     int64            `json:"updatedAt"`
}

type ReconcileResponse struct {
	Updated int64 `json:"updated"`
}
