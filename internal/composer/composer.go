// Package composer lets staff assemble an order from the catalog and submit
// it through the same creation path as customer checkout. Walk-in sales can
// be recorded directly as delivered.
package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to the storefront API on behalf of staff.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a composer client against the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Product is a catalog entry as listed by the API.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Line is one requested product reference in "product-id:quantity" form.
type Line struct {
	ProductID string
	Quantity  int
}

// ParseLine parses "product-id:quantity"; a bare product id means
// quantity 1.
func ParseLine(s string) (Line, error) {
	id, qty, found := strings.Cut(s, ":")
	if id == "" {
		return Line{}, fmt.Errorf("composer: empty product id in %q", s)
	}
	if !found {
		return Line{ProductID: id, Quantity: 1}, nil
	}
	n, err := strconv.Atoi(qty)
	if err != nil || n < 1 {
		return Line{}, fmt.Errorf("composer: invalid quantity in %q", s)
	}
	return Line{ProductID: id, Quantity: n}, nil
}

// ListProducts fetches the store's catalog for interactive selection.
func (c *Client) ListProducts(ctx context.Context, slug string) ([]Product, error) {
	u := fmt.Sprintf("%s/stores/%s/products", c.baseURL, slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("composer: build request: %w", err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("composer: list products: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("composer: list products: unexpected status %d", res.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(res.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("composer: decode products: %w", err)
	}
	return products, nil
}

// Submission is a staff-entered order.
type Submission struct {
	StoreSlug     string
	CustomerName  string
	CustomerPhone string
	Lines         []Line
	Origin        string // phone, in_person, social, ...
	PaymentMethod string
	Notes         string
	// Delivered records a completed walk-in sale directly in the terminal
	// delivered state.
	Delivered bool
}

// Submit posts the order through POST /orders with the manual flag set and
// returns the created order id.
func (c *Client) Submit(ctx context.Context, s Submission) (string, error) {
	items := make([]map[string]any, len(s.Lines))
	for i, l := range s.Lines {
		items[i] = map[string]any{"product_id": l.ProductID, "quantity": l.Quantity}
	}

	origin := s.Origin
	if origin == "" {
		origin = "in_person"
	}

	body, err := json.Marshal(map[string]any{
		"store_slug":     s.StoreSlug,
		"customer_name":  s.CustomerName,
		"customer_phone": s.CustomerPhone,
		"items":          items,
		"fulfillment":    "pickup",
		"payment_method": s.PaymentMethod,
		"origin":         origin,
		"notes":          s.Notes,
		"manual":         true,
		"as_delivered":   s.Delivered,
	})
	if err != nil {
		return "", fmt.Errorf("composer: encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("composer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("composer: submit order: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("composer: submit order: status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("composer: decode response: %w", err)
	}
	return created.ID, nil
}
