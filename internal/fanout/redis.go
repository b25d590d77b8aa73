package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/lumastore/storefront/internal/domain"
)

// RedisBroker broadcasts order events over redis pub/sub, one channel per
// merchant.
type RedisBroker struct {
	client *redis.Client
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker connects a broker to the redis instance at addr.
func NewRedisBroker(addr string) *RedisBroker {
	return &RedisBroker{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Publish pushes the event to every subscriber of the merchant's channel.
// Subscribers that are not listening simply miss it.
func (b *RedisBroker) Publish(ctx context.Context, ev domain.OrderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("fanout: encode event: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelFor(ev.MerchantID), payload).Err(); err != nil {
		return fmt.Errorf("fanout: publish to %s: %w", ChannelFor(ev.MerchantID), err)
	}
	return nil
}

// Subscribe attaches to the merchant channel and waits for the redis
// subscription acknowledgement before returning, honouring any deadline on
// ctx. The connect deadline of the dashboard client rides on exactly this.
func (b *RedisBroker) Subscribe(ctx context.Context, merchantID string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, ChannelFor(merchantID))

	// Receive blocks until the subscription confirmation arrives (or ctx
	// expires). Without this the caller could not distinguish "connected"
	// from "still trying".
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("fanout: subscribe to %s: %w", ChannelFor(merchantID), err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan domain.OrderEvent, 16),
	}
	go sub.pump()
	return sub, nil
}

// Close releases the underlying redis connection.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan domain.OrderEvent
}

func (s *redisSubscription) Events() <-chan domain.OrderEvent { return s.events }

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}

// pump decodes inbound messages onto the event channel until the pub/sub is
// closed. Undecodable payloads are dropped with a warning; a broadcast
// stream has no way to reject them.
func (s *redisSubscription) pump() {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		var ev domain.OrderEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			slog.Warn("fanout: dropping undecodable event", "channel", msg.Channel, "error", err)
			continue
		}
		s.events <- ev
	}
}
