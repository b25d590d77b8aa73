package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumastore/storefront/internal/delivery"
	"github.com/lumastore/storefront/internal/domain"
	"github.com/lumastore/storefront/internal/fanout"
	"github.com/lumastore/storefront/internal/lifecycle"
	"github.com/lumastore/storefront/internal/notify"
	"github.com/lumastore/storefront/internal/store"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func (m *memOrders) CreateOrder(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateOrderStatus(ctx context.Context, id string, status domain.Status, notes string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.Notes = notes
	o.UpdatedAt = updatedAt
	return nil
}

func (m *memOrders) ListOrders(ctx context.Context, merchantID string, _ store.OrderFilter) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.MerchantID == merchantID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memMerchants struct {
	merchant *domain.Merchant
}

func (m *memMerchants) GetMerchant(ctx context.Context, id string) (*domain.Merchant, error) {
	if m.merchant.ID != id {
		return nil, domain.ErrMerchantNotFound
	}
	return m.merchant, nil
}

func (m *memMerchants) GetMerchantBySlug(ctx context.Context, slug string) (*domain.Merchant, error) {
	if m.merchant.Slug != slug {
		return nil, domain.ErrMerchantNotFound
	}
	return m.merchant, nil
}

func (m *memMerchants) SaveDeliverySettings(ctx context.Context, merchantID string, s domain.DeliverySettings) error {
	m.merchant.Delivery = s
	return nil
}

type memCatalog struct {
	products map[string]*domain.Product
}

func (m *memCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *memCatalog) ListProducts(ctx context.Context, merchantID string) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	merchant := &domain.Merchant{
		ID:       "m-1",
		Slug:     "luma-bakery",
		Name:     "Luma Bakery",
		Currency: "R$",
		Delivery: domain.DeliverySettings{
			Enabled:        true,
			RadiusKm:       5,
			PricePerKm:     decimal.RequireFromString("2.50"),
			MinimumFee:     decimal.RequireFromString("5.00"),
			FreeThreshold:  decimal.NewFromInt(50),
			EstimatedHours: 2,
		},
	}
	orders := &memOrders{orders: make(map[string]*domain.Order)}
	merchants := &memMerchants{merchant: merchant}
	catalog := &memCatalog{products: map[string]*domain.Product{
		"prod-1": {ID: "prod-1", MerchantID: "m-1", Name: "Sourdough Loaf", Price: decimal.RequireFromString("12.00")},
	}}

	engine := lifecycle.NewEngine(
		orders, merchants, catalog,
		delivery.NewValidator(nil),
		notify.NewDispatcher(),
		fanout.NewMemoryBroker(),
	)

	srv := httptest.NewServer(NewRouter(NewHandler(engine, orders, merchants, catalog)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func createOrderBody() map[string]any {
	return map[string]any{
		"store_slug":     "luma-bakery",
		"customer_name":  "Ana Souza",
		"customer_phone": "+5511999998888",
		"fulfillment":    "pickup",
		"items": []map[string]any{
			{"product_id": "prod-1", "quantity": 2},
		},
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var got OrderResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "pending", got.Status)
	assert.True(t, got.Subtotal.Equal(decimal.NewFromInt(24)), "subtotal %s", got.Subtotal)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(24)), "total %s", got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Sourdough Loaf", got.Items[0].Name)
}

func TestCreateOrderValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		mutate   func(m map[string]any)
		wantCode string
	}{
		{"missing name", func(m map[string]any) { delete(m, "customer_name") }, "invalid_request"},
		{"no items", func(m map[string]any) { m["items"] = []map[string]any{} }, "invalid_request"},
		{"bad fulfillment", func(m map[string]any) { m["fulfillment"] = "teleport" }, "invalid_request"},
		{"zero quantity", func(m map[string]any) {
			m["items"] = []map[string]any{{"product_id": "prod-1", "quantity": 0}}
		}, "invalid_item"},
		{"unknown product", func(m map[string]any) {
			m["items"] = []map[string]any{{"product_id": "ghost", "quantity": 1}}
		}, "invalid_item"},
		{"negative discount", func(m map[string]any) { m["discount"] = "-5.00" }, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := createOrderBody()
			tt.mutate(body)

			resp, raw := doJSON(t, http.MethodPost, srv.URL+"/orders", body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &e))
			assert.Equal(t, tt.wantCode, e.Error)
		})
	}
}

func TestCreateOrderOutOfRadius(t *testing.T) {
	srv := newTestServer(t)

	body := createOrderBody()
	body["fulfillment"] = "delivery"
	body["address"] = "Rua das Flores 10"
	body["distance_km"] = 6.0

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/orders", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "out_of_radius", e.Error)
	assert.Contains(t, e.Message, "6")
	assert.Contains(t, e.Message, "5")
}

func TestCreateOrderUnknownStore(t *testing.T) {
	srv := newTestServer(t)

	body := createOrderBody()
	body["store_slug"] = "nowhere"

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/orders", body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	_, raw := doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())
	var created OrderResponse
	require.NoError(t, json.Unmarshal(raw, &created))

	resp, raw := doJSON(t, http.MethodPut, srv.URL+"/orders/"+created.ID+"/status",
		map[string]any{"status": "accepted", "note": "on it"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var updated OrderResponse
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, "accepted", updated.Status)
	assert.Contains(t, updated.Notes, "on it")
}

func TestUpdateOrderStatusIllegalTransition(t *testing.T) {
	srv := newTestServer(t)

	_, raw := doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())
	var created OrderResponse
	require.NoError(t, json.Unmarshal(raw, &created))

	resp, raw := doJSON(t, http.MethodPut, srv.URL+"/orders/"+created.ID+"/status",
		map[string]any{"status": "delivering"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var e ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "invalid_transition", e.Error)
}

func TestUpdateOrderStatusOverride(t *testing.T) {
	srv := newTestServer(t)

	_, raw := doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())
	var created OrderResponse
	require.NoError(t, json.Unmarshal(raw, &created))

	resp, raw := doJSON(t, http.MethodPut, srv.URL+"/orders/"+created.ID+"/status",
		map[string]any{"status": "delivered", "override": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestUpdateOrderStatusUnknownStatus(t *testing.T) {
	srv := newTestServer(t)

	_, raw := doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())
	var created OrderResponse
	require.NoError(t, json.Unmarshal(raw, &created))

	resp, raw := doJSON(t, http.MethodPut, srv.URL+"/orders/"+created.ID+"/status",
		map[string]any{"status": "shipped", "override": true})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "unknown_status", e.Error)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/orders/missing/status",
		map[string]any{"status": "accepted"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOrdersEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())
	doJSON(t, http.MethodPost, srv.URL+"/orders", createOrderBody())

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/stores/luma-bakery/orders?onlyToday=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []OrderResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got, 2)
}

func TestListOrdersUnknownStore(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/stores/nowhere/orders", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCalculateDeliveryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		distance float64
		total    string
		wantFee  string
	}{
		{"distance priced", 4, "30", "10"},
		{"minimum floors", 1, "30", "5"},
		{"waived over threshold", 4, "80", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, http.MethodPost, srv.URL+"/stores/luma-bakery/calculate-delivery",
				map[string]any{"distance_km": tt.distance, "order_total": tt.total})
			require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

			var got CalculateDeliveryResponse
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.True(t, got.Fee.Equal(decimal.RequireFromString(tt.wantFee)), "fee %s", got.Fee)
			assert.Equal(t, 2, got.EstimatedHours)
		})
	}
}

func TestCalculateDeliveryRejectsNegativeDistance(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/stores/luma-bakery/calculate-delivery",
		map[string]any{"distance_km": -1, "order_total": "10"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListProductsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/stores/luma-bakery/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []ProductResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Sourdough Loaf", got[0].Name)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}
