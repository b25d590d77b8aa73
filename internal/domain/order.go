package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentMode is how the customer receives the order.
type FulfillmentMode string

const (
	FulfillmentDelivery FulfillmentMode = "delivery"
	FulfillmentPickup   FulfillmentMode = "pickup"
)

// Order is the persisted record of a customer order. It belongs to exactly
// one merchant for its entire lifetime and is never deleted by this
// subsystem; each status transition is a full record update, not an
// append-only log.
type Order struct {
	ID            string
	MerchantID    string
	CustomerName  string
	CustomerPhone string // messaging handle for outbound notifications
	Address       string // empty for pickup orders
	Items         []OrderItem
	Fulfillment   FulfillmentMode
	PaymentMethod string
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	Notes         string
	Origin        string // storefront, phone, in_person, social, ...
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is a line embedded within an order. Name and unit price are
// snapshots taken at order time so later catalog edits never retroactively
// alter a placed order.
type OrderItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  string
	Color     string
	Size      string
}

// Subtotal returns unit price times quantity for the line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsSubtotal sums the line subtotals.
func (o *Order) ItemsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// ShortID returns the display form of the order id: the first eight
// characters, upper-cased.
func (o *Order) ShortID() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// AppendNote appends a free-text note, separated by a newline.
func (o *Order) AppendNote(note string) {
	if note == "" {
		return
	}
	if o.Notes == "" {
		o.Notes = note
		return
	}
	o.Notes = o.Notes + "\n" + note
}
