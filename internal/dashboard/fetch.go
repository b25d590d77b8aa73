package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/domain"
)

// HTTPFetcher polls the storefront API for the day's orders.
type HTTPFetcher struct {
	baseURL string
	slug    string
	client  *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher for one store against the API at baseURL.
func NewHTTPFetcher(baseURL, slug string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		slug:    slug,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type orderRow struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
}

// FetchToday returns summaries of the orders created since midnight.
func (f *HTTPFetcher) FetchToday(ctx context.Context) ([]OrderSummary, error) {
	u := fmt.Sprintf("%s/stores/%s/orders?onlyToday=true", f.baseURL, f.slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dashboard: build request: %w", err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dashboard: fetch orders: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dashboard: fetch orders: unexpected status %d", res.StatusCode)
	}

	var rows []orderRow
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("dashboard: decode orders: %w", err)
	}

	out := make([]OrderSummary, len(rows))
	for i, r := range rows {
		out[i] = OrderSummary{
			ID:           r.ID,
			CustomerName: r.CustomerName,
			Total:        r.Total,
			Status:       domain.Status(r.Status),
		}
	}
	return out, nil
}
