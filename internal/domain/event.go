package domain

import "github.com/shopspring/decimal"

// EventType distinguishes order fan-out events. Deletes never occur in this
// subsystem, so there is no deleted type.
type EventType string

const (
	EventOrderCreated EventType = "order_created"
	EventOrderUpdated EventType = "order_updated"
)

// OrderEvent is the ephemeral payload pushed over the per-merchant fan-out
// channel. It carries just enough for a dashboard to render a notification
// without a follow-up fetch; it is a hint to re-fetch or merge, not an
// authoritative delta.
type OrderEvent struct {
	Type         EventType       `json:"type"`
	MerchantID   string          `json:"merchant_id"`
	OrderID      string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Status       Status          `json:"status"`
}

// NewOrderEvent builds the fan-out payload for an order.
func NewOrderEvent(t EventType, o *Order) OrderEvent {
	return OrderEvent{
		Type:         t,
		MerchantID:   o.MerchantID,
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Total:        o.Total,
		Status:       o.Status,
	}
}
