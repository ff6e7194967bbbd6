package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category tags an item for catalog grouping.
type Category string

const (
	CategoryShirt     Category = "S"
	CategorySportWear Category = "SW"
	CategoryOutwear   Category = "OW"
)

// Label is the display badge of an item.
type Label string

const (
	LabelPrimary   Label = "P"
	LabelSecondary Label = "S"
	LabelDanger    Label = "D"
)

// Item represents a catalog entry. Items are read-only from the cart's point of view.
type Item struct {
	ID            string              `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title         string              `json:"title" gorm:"type:varchar(50);not null"`
	Description   string              `json:"description" gorm:"type:varchar(250)"`
	Price         decimal.Decimal     `json:"price" gorm:"type:numeric(10,2);not null"`
	DiscountPrice decimal.NullDecimal `json:"discount_price" gorm:"type:numeric(10,2)"`
	Category      Category            `json:"category,omitempty" gorm:"type:varchar(2)"`
	Label         Label               `json:"label,omitempty" gorm:"type:varchar(2)"`
	Slug          string              `json:"slug" gorm:"uniqueIndex;type:varchar(100);not null"`
	Image         string              `json:"image,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// EffectivePrice is the discount price when one is set, the list price otherwise.
func (i Item) EffectivePrice() decimal.Decimal {
	if i.DiscountPrice.Valid {
		return i.DiscountPrice.Decimal
	}
	return i.Price
}
