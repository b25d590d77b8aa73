// Package store defines the persistence ports for the order pipeline.
// The lifecycle engine and HTTP handlers depend on these abstractions, not
// on SQLite directly, so the implementation can be swapped for Postgres or
// an in-memory fake in tests.
package store

import (
	"context"
	"time"

	"github.com/lumastore/storefront/internal/domain"
)

// OrderFilter narrows ListOrders. The zero value lists everything for the
// merchant, newest first.
type OrderFilter struct {
	// OnlyToday restricts to orders created since local midnight. Used by
	// the dashboard's initial load and its polling fallback.
	OnlyToday bool
	// Limit caps the result size; 0 means no cap.
	Limit int
	// Now is the reference clock for OnlyToday; zero means time.Now().
	Now time.Time
}

// OrderStore is the single source of truth for order state.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// UpdateOrderStatus persists a new status and the full notes text.
	// Last write wins; there is no optimistic concurrency token.
	UpdateOrderStatus(ctx context.Context, id string, status domain.Status, notes string, updatedAt time.Time) error
	ListOrders(ctx context.Context, merchantID string, f OrderFilter) ([]*domain.Order, error)
}

// MerchantStore resolves tenants and their delivery settings.
type MerchantStore interface {
	GetMerchant(ctx context.Context, id string) (*domain.Merchant, error)
	GetMerchantBySlug(ctx context.Context, slug string) (*domain.Merchant, error)
	SaveDeliverySettings(ctx context.Context, merchantID string, s domain.DeliverySettings) error
}

// CatalogStore is the read-only product view used to snapshot order lines.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, merchantID string) ([]*domain.Product, error)
}
