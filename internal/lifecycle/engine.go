// Package lifecycle implements the order workflow: creation through the
// delivery gate, the finite-state transition table, customer notification
// dispatch, and fan-out publication.
//
// The guiding policy: correctness of order state is never sacrificed for
// delivery of a notification. A persistence failure aborts before any side
// effect; a notification or fan-out failure after a successful write is
// logged and swallowed.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/delivery"
	"github.com/lumastore/storefront/internal/domain"
	"github.com/lumastore/storefront/internal/fanout"
	"github.com/lumastore/storefront/internal/notify"
	"github.com/lumastore/storefront/internal/store"
)

// Notifier is the outbound customer-notification port. *notify.Dispatcher
// satisfies it.
type Notifier interface {
	Send(ctx context.Context, handle, text string) (notify.Method, error)
}

// Engine drives order creation and status transitions.
type Engine struct {
	orders    store.OrderStore
	merchants store.MerchantStore
	catalog   store.CatalogStore
	validator *delivery.Validator
	notifier  Notifier
	broker    fanout.Broker
	now       func() time.Time
}

// NewEngine wires the engine to its collaborators.
func NewEngine(
	orders store.OrderStore,
	merchants store.MerchantStore,
	catalog store.CatalogStore,
	validator *delivery.Validator,
	notifier Notifier,
	broker fanout.Broker,
) *Engine {
	return &Engine{
		orders:    orders,
		merchants: merchants,
		catalog:   catalog,
		validator: validator,
		notifier:  notifier,
		broker:    broker,
		now:       time.Now,
	}
}

// CreateItem is one requested line, referencing the catalog by product id.
type CreateItem struct {
	ProductID string
	Quantity  int
	Color     string
	Size      string
}

// CreateOrderRequest is the input shared by customer checkout and the
// manual order composer.
type CreateOrderRequest struct {
	MerchantSlug  string
	CustomerName  string
	CustomerPhone string
	Items         []CreateItem
	Fulfillment   domain.FulfillmentMode
	Address       string
	// DistanceKm is an already-known delivery distance, when the storefront
	// computed one client-side.
	DistanceKm    *float64
	PaymentMethod string
	Discount      decimal.Decimal
	Origin        string
	Notes         string
	// Manual marks staff-entered orders (walk-in sales, phone orders).
	Manual bool
	// AsDelivered inserts the order directly in the terminal delivered
	// state, bypassing the transition table at creation time only. Valid
	// only for manual orders.
	AsDelivered bool
}

// Create validates, prices and persists a new order, then publishes the
// created event. Name and unit price are snapshotted from the catalog so
// later edits never retroactively alter the order.
func (e *Engine) Create(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	merchant, err := e.merchants.GetMerchantBySlug(ctx, req.MerchantSlug)
	if err != nil {
		return nil, err
	}

	var distance *float64
	if req.Fulfillment == domain.FulfillmentDelivery {
		res, err := e.validator.Check(ctx, merchant, delivery.Request{
			DistanceKm: req.DistanceKm,
			Address:    req.Address,
		})
		if err != nil {
			return nil, err
		}
		distance = res.DistanceKm
	}

	items, err := e.snapshotItems(ctx, merchant.ID, req.Items)
	if err != nil {
		return nil, err
	}

	now := e.now()
	order := &domain.Order{
		ID:            uuid.NewString(),
		MerchantID:    merchant.ID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		Items:         items,
		Fulfillment:   req.Fulfillment,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount,
		Status:        domain.StatusPending,
		Notes:         req.Notes,
		Origin:        req.Origin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	order.Subtotal = order.ItemsSubtotal()
	if req.Fulfillment == domain.FulfillmentDelivery {
		d := 0.0
		if distance != nil {
			d = *distance
		}
		order.DeliveryFee = delivery.Fee(merchant.Delivery, d, order.Subtotal)
	} else {
		order.DeliveryFee = decimal.Zero
	}
	order.Total = order.Subtotal.Add(order.DeliveryFee).Sub(order.Discount)

	if req.Manual && req.AsDelivered {
		order.Status = domain.StatusDelivered
	}

	if err := e.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	e.publish(ctx, domain.EventOrderCreated, order)
	return order, nil
}

func (e *Engine) snapshotItems(ctx context.Context, merchantID string, reqs []CreateItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, len(reqs))
	for i, r := range reqs {
		if r.Quantity < 1 {
			return nil, fmt.Errorf("item %q: quantity must be at least 1", r.ProductID)
		}
		p, err := e.catalog.GetProduct(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		// Another merchant's catalog entry must not be orderable here.
		if p.MerchantID != merchantID {
			return nil, fmt.Errorf("item %q: %w", r.ProductID, domain.ErrProductNotFound)
		}
		items[i] = domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  r.Quantity,
			ImageURL:  p.ImageURL,
			Color:     r.Color,
			Size:      r.Size,
		}
	}
	return items, nil
}

// Transition moves an order to target, enforcing the transition table.
// override bypasses the table for administrative correction but never the
// enum check. The new status is persisted first; the customer notification
// (skipped for pending) and the fan-out event are best-effort side effects
// that can never fail the transition once persisted.
func (e *Engine) Transition(ctx context.Context, orderID string, target domain.Status, note string, override bool) (*domain.Order, error) {
	if !target.IsValid() {
		return nil, &domain.UnknownStatusError{Status: target}
	}

	order, err := e.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !override && !order.Status.CanTransitionTo(target) {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: target}
	}

	order.Status = target
	order.AppendNote(note)
	order.UpdatedAt = e.now()

	if err := e.orders.UpdateOrderStatus(ctx, order.ID, order.Status, order.Notes, order.UpdatedAt); err != nil {
		return nil, err
	}

	if target != domain.StatusPending {
		e.dispatchNotification(ctx, order, target)
	}
	e.publish(ctx, domain.EventOrderUpdated, order)

	return order, nil
}

func (e *Engine) dispatchNotification(ctx context.Context, order *domain.Order, target domain.Status) {
	merchant, err := e.merchants.GetMerchant(ctx, order.MerchantID)
	if err != nil {
		slog.ErrorContext(ctx, "notification skipped, merchant lookup failed",
			"order_id", order.ID, "merchant_id", order.MerchantID, "error", err)
		return
	}

	text := notify.FormatMessage(order, target, merchant)
	method, err := e.notifier.Send(ctx, order.CustomerPhone, text)
	if err != nil {
		slog.ErrorContext(ctx, "customer notification failed",
			"order_id", order.ID, "status", string(target), "error", err)
		return
	}
	slog.InfoContext(ctx, "customer notified",
		"order_id", order.ID, "status", string(target), "method", string(method))
}

func (e *Engine) publish(ctx context.Context, t domain.EventType, order *domain.Order) {
	if err := e.broker.Publish(ctx, domain.NewOrderEvent(t, order)); err != nil {
		slog.ErrorContext(ctx, "fan-out publish failed",
			"order_id", order.ID, "event", string(t), "error", err)
	}
}
