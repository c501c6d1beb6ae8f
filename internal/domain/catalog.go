package domain

import "github.com/shopspring/decimal"

const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

type Category struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Slug         string `db:"slug"`
	ProductCount int64  `db:"product_count"`
	CreatedAt    int64  `db:"created_at"`
}

type Product struct {
	ID            string              `db:"id"`
	Name          string              `db:"name"`
	Description   string              `db:"description"`
	Price         decimal.Decimal     `db:"price"`
	OriginalPrice decimal.NullDecimal `db:"original_price"`
	Stock         int64               `db:"stock"`
	Image         string              `db:"image"`
	Rating        decimal.Decimal     `db:"rating"`
	ReviewCount   int64               `db:"review_count"`
	Status        string              `db:"status"`
	CategoryID    string              `db:"category_id"`
	CreatedAt     int64               `db:"created_at"`
	UpdatedAt     int64               `db:"updated_at"`
}
