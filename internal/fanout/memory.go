package fanout

import (
	"context"
	"sync"

	"github.com/lumastore/storefront/internal/domain"
)

// MemoryBroker is an in-process Broker for tests and broker-less single
// binary deployments. Semantics mirror redis pub/sub: no replay, slow
// subscribers drop events rather than block publishers.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string][]*memorySubscription
}

var _ Broker = (*MemoryBroker)(nil)

// NewMemoryBroker builds an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]*memorySubscription)}
}

// Publish delivers the event to every live subscriber of the merchant's
// channel. Full subscriber buffers drop the event, matching the best-effort
// contract.
func (b *MemoryBroker) Publish(ctx context.Context, ev domain.OrderEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs[ev.MerchantID] {
		select {
		case s.events <- ev:
		default:
		}
	}
	return nil
}

// Subscribe attaches to the merchant channel. There is no transport to wait
// on, so acknowledgement is immediate unless ctx is already done.
func (b *MemoryBroker) Subscribe(ctx context.Context, merchantID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &memorySubscription{
		broker:     b,
		merchantID: merchantID,
		events:     make(chan domain.OrderEvent, 16),
	}

	b.mu.Lock()
	b.subs[merchantID] = append(b.subs[merchantID], s)
	b.mu.Unlock()
	return s, nil
}

type memorySubscription struct {
	broker     *MemoryBroker
	merchantID string
	events     chan domain.OrderEvent
	closeOnce  sync.Once
}

func (s *memorySubscription) Events() <-chan domain.OrderEvent { return s.events }

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		b := s.broker
		b.mu.Lock()
		subs := b.subs[s.merchantID]
		for i, other := range subs {
			if other == s {
				b.subs[s.merchantID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(s.events)
	})
	return nil
}
