// Package dashboard implements the admin dashboard's live order feed: a
// small state machine (connecting → connected | polling) over the fan-out
// channel, with fixed-interval polling as the fallback.
//
// The two modes co-exist deliberately: once a polling timer is armed it
// keeps running even if a subscription is established later. The redundancy
// is the resilience mechanism, not a bug to fix away.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/domain"
	"github.com/lumastore/storefront/internal/fanout"
)

// Mode is the client's connection state.
type Mode string

const (
	ModeConnecting Mode = "connecting"
	ModeConnected  Mode = "connected"
	ModePolling    Mode = "polling"
)

// OrderSummary is the dashboard's view of one order: just enough to render
// the list and the alert toast.
type OrderSummary struct {
	ID           string
	CustomerName string
	Total        decimal.Decimal
	Status       domain.Status
}

// Fetcher is the polling read path: the day's orders for the merchant.
type Fetcher interface {
	FetchToday(ctx context.Context) ([]OrderSummary, error)
}

// Alerter fires the sound+toast for a newly arrived pending order.
type Alerter interface {
	NewOrder(o OrderSummary)
}

// Options tune the client's timers. Zero values take the defaults:
// 3 s connect deadline, 5 s poll interval.
type Options struct {
	ConnectTimeout time.Duration
	PollInterval   time.Duration
	// ResubscribeInterval is how often a polling client retries the
	// subscription. Zero disables retries.
	ResubscribeInterval time.Duration
}

// Client maintains the merged, deduplicated order list for one merchant
// dashboard. All mutation happens on the Run goroutine; accessors take a
// read lock.
type Client struct {
	merchantID string
	broker     fanout.Broker
	fetcher    Fetcher
	alerter    Alerter
	opts       Options

	mu     sync.RWMutex
	mode   Mode
	orders map[string]OrderSummary
}

// NewClient builds a dashboard client. alerter may be nil to disable
// alerts.
func NewClient(merchantID string, broker fanout.Broker, fetcher Fetcher, alerter Alerter, opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 3 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Client{
		merchantID: merchantID,
		broker:     broker,
		fetcher:    fetcher,
		alerter:    alerter,
		opts:       opts,
		mode:       ModeConnecting,
		orders:     make(map[string]OrderSummary),
	}
}

// Mode returns the current connection state.
func (c *Client) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Orders returns the merged order list, stable-sorted by id. Each order id
// appears exactly once regardless of how many streams reported it.
func (c *Client) Orders() []OrderSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]OrderSummary, 0, len(c.orders))
	for _, o := range c.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Run loads the current day's orders, then drives the state machine until
// ctx is cancelled. Safe to call once per client.
func (c *Client) Run(ctx context.Context) error {
	// Initial load seeds the known-id set so pre-existing orders never
	// trigger alerts.
	if orders, err := c.fetcher.FetchToday(ctx); err != nil {
		slog.WarnContext(ctx, "dashboard initial load failed", "merchant_id", c.merchantID, "error", err)
	} else {
		c.mergeAll(orders, false)
	}

	var (
		events      <-chan domain.OrderEvent
		active      fanout.Subscription
		pollTicker  *time.Ticker
		pollC       <-chan time.Time
		retryTicker *time.Ticker
		retryC      <-chan time.Time
	)
	defer func() {
		if active != nil {
			_ = active.Close()
		}
		if pollTicker != nil {
			pollTicker.Stop()
		}
		if retryTicker != nil {
			retryTicker.Stop()
		}
	}()

	startPolling := func() {
		if pollC == nil {
			pollTicker = time.NewTicker(c.opts.PollInterval)
			pollC = pollTicker.C
		}
		if retryC == nil && c.opts.ResubscribeInterval > 0 {
			retryTicker = time.NewTicker(c.opts.ResubscribeInterval)
			retryC = retryTicker.C
		}
		c.setMode(ModePolling)
	}

	if sub := c.subscribe(ctx); sub != nil {
		active = sub
		events = sub.Events()
		c.setMode(ModeConnected)
	} else {
		startPolling()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				// Push stream died mid-flight; fall back. An armed polling
				// timer from an earlier fallback keeps running untouched.
				events = nil
				if active != nil {
					_ = active.Close()
					active = nil
				}
				startPolling()
				continue
			}
			c.merge(OrderSummary{
				ID:           ev.OrderID,
				CustomerName: ev.CustomerName,
				Total:        ev.Total,
				Status:       ev.Status,
			}, true)

		case <-pollC:
			orders, err := c.fetcher.FetchToday(ctx)
			if err != nil {
				// A failed poll just delays the next diff by one interval.
				slog.WarnContext(ctx, "dashboard poll failed", "merchant_id", c.merchantID, "error", err)
				continue
			}
			c.mergeAll(orders, true)

		case <-retryC:
			if events != nil {
				continue
			}
			if sub := c.subscribe(ctx); sub != nil {
				active = sub
				events = sub.Events()
				// Connected again, but the polling timer stays armed until
				// the client is torn down.
				c.setMode(ModeConnected)
			}
		}
	}
}

// subscribe attempts the fan-out subscription under the connect deadline.
// Any failure, error or timeout, returns nil and sends the client into
// polling.
func (c *Client) subscribe(ctx context.Context) fanout.Subscription {
	connectCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	sub, err := c.broker.Subscribe(connectCtx, c.merchantID)
	if err != nil {
		slog.WarnContext(ctx, "dashboard subscription failed, falling back to polling",
			"merchant_id", c.merchantID, "error", err)
		return nil
	}
	return sub
}

func (c *Client) setMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// merge upserts one order by id. When alerts are enabled, a previously
// unknown pending order fires the sound+toast.
func (c *Client) merge(o OrderSummary, alert bool) {
	c.mu.Lock()
	_, known := c.orders[o.ID]
	c.orders[o.ID] = o
	c.mu.Unlock()

	if alert && !known && o.Status == domain.StatusPending && c.alerter != nil {
		c.alerter.NewOrder(o)
	}
}

func (c *Client) mergeAll(orders []OrderSummary, alert bool) {
	for _, o := range orders {
		c.merge(o, alert)
	}
}
