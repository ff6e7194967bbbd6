package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one (item, quantity) entry of a user's cart.
// At most one open (ordered=false) line item exists per user and item.
type LineItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_line_items_open,where:ordered = false"`
	ItemID    string    `json:"item_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_line_items_open,where:ordered = false"`
	Item      Item      `json:"item"`
	OrderID   *string   `json:"order_id,omitempty" gorm:"type:varchar(36);index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Ordered   bool      `json:"ordered" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FinalPrice is quantity times the item's effective price.
func (li LineItem) FinalPrice() decimal.Decimal {
	return li.Item.EffectivePrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CheckoutState is derived from the order's flags and references.
type CheckoutState string

const (
	StateCart            CheckoutState = "cart"
	StateAwaitingPayment CheckoutState = "awaiting_payment"
	StatePaid            CheckoutState = "paid"
)

// Order groups a user's line items. A user has at most one open (ordered=false)
// order; once ordered it is never modified again.
type Order struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string          `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_orders_open_user,where:ordered = false"`
	LineItems        []LineItem      `json:"line_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Ordered          bool            `json:"ordered" gorm:"not null"`
	StartDate        time.Time       `json:"start_date"`
	OrderedDate      *time.Time      `json:"ordered_date,omitempty"`
	BillingAddressID *string         `json:"billing_address_id,omitempty" gorm:"type:varchar(36)"`
	BillingAddress   *BillingAddress `json:"billing_address,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	PaymentID        *string         `json:"payment_id,omitempty" gorm:"type:varchar(36)"`
	Payment          *Payment        `json:"payment,omitempty" gorm:"constraint:OnDelete:SET NULL"`
}

// GetTotal sums the final price of every line item. An empty order totals zero.
func (o Order) GetTotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.LineItems {
		total = total.Add(li.FinalPrice())
	}
	return total
}

// LineItemFor returns the order's line item for the given item slug, if any.
func (o Order) LineItemFor(slug string) (*LineItem, bool) {
	for i := range o.LineItems {
		if o.LineItems[i].Item.Slug == slug {
			return &o.LineItems[i], true
		}
	}
	return nil, false
}

func (o Order) CheckoutState() CheckoutState {
	switch {
	case o.Ordered:
		return StatePaid
	case o.BillingAddressID != nil:
		return StateAwaitingPayment
	default:
		return StateCart
	}
}
