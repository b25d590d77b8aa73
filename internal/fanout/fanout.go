// Package fanout implements the per-merchant broadcast of order events to
// connected admin dashboards. Delivery is best-effort: no ordering guarantee
// stronger than arrival order, no replay. Consumers treat events as hints to
// re-fetch or merge, never as an authoritative delta feed.
package fanout

import (
	"context"

	"github.com/lumastore/storefront/internal/domain"
)

// ChannelFor derives the broadcast channel name for a merchant.
func ChannelFor(merchantID string) string {
	return "orders." + merchantID
}

// Subscription is one dashboard's attachment to a merchant channel.
type Subscription interface {
	// Events yields inbound order events until Close. The channel is closed
	// when the subscription ends.
	Events() <-chan domain.OrderEvent
	Close() error
}

// Broker is the fan-out port. Publish never blocks on slow consumers.
type Broker interface {
	Publish(ctx context.Context, ev domain.OrderEvent) error
	// Subscribe attaches to the merchant's channel. It returns only after
	// the subscription is acknowledged by the transport, so callers can
	// bound it with a connect deadline on ctx.
	Subscribe(ctx context.Context, merchantID string) (Subscription, error)
}
