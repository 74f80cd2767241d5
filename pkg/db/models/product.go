package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a seller listing. Prices are exact decimals; the
// storefront never sees Price directly, only DiscountedPrice.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null"`
	CategoryID      *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Name            string          `gorm:"column:name;not null"`
	Description     *string         `gorm:"column:description"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	Tags            pq.StringArray  `gorm:"column:tags;type:text[]"`
	IsFeatured      bool            `gorm:"column:is_featured;not null;default:false"`
	// No gorm default on is_active: a default tag makes GORM drop the
	// column from inserts when the value is false.
	IsActive bool `gorm:"column:is_active;not null"`
	Category        *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

var oneHundred = decimal.NewFromInt(100)

// DiscountedPrice applies the listing discount to the unit price, rounded to
// cents and clamped at zero.
func (p Product) DiscountedPrice() decimal.Decimal {
	if p.DiscountPercent <= 0 {
		return p.Price.Round(2)
	}
	factor := oneHundred.Sub(decimal.NewFromInt(int64(p.DiscountPercent)))
	price := p.Price.Mul(factor).Div(oneHundred).Round(2)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}
