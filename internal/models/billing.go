package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentOption is the payment method picked at checkout.
type PaymentOption string

const (
	PaymentOptionStripe PaymentOption = "stripe"
	PaymentOptionPayPal PaymentOption = "paypal"
)

// BillingAddress is created once per checkout attempt and referenced by the order.
type BillingAddress struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	StreetAddress    string    `json:"street_address" gorm:"type:varchar(100);not null"`
	ApartmentAddress string    `json:"apartment_address" gorm:"type:varchar(100)"`
	Country          string    `json:"country" gorm:"type:varchar(2);not null"`
	Zip              string    `json:"zip" gorm:"type:varchar(100);not null"`
	CreatedAt        time.Time `json:"created_at"`
}

// Payment records a captured charge. Amount is in major currency units.
type Payment struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ChargeID  string          `json:"charge_id" gorm:"type:varchar(50);not null"`
	UserID    string          `json:"user_id" gorm:"type:varchar(36);index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Timestamp time.Time       `json:"timestamp"`
}
