package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumastore/storefront/internal/domain"
	"github.com/lumastore/storefront/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedMerchant(t *testing.T, s *Store) *domain.Merchant {
	t.Helper()
	m := &domain.Merchant{
		ID:       "m-1",
		Slug:     "luma-bakery",
		Name:     "Luma Bakery",
		Phone:    "+5511999990000",
		Address:  "Av. Paulista 100",
		Lat:      -23.5614,
		Lng:      -46.6559,
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
	require.NoError(t, s.CreateMerchant(context.Background(), m))
	return m
}

func testOrder(id string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:            id,
		MerchantID:    "m-1",
		CustomerName:  "Ana Souza",
		CustomerPhone: "+5511999998888",
		Address:       "Rua das Flores 10",
		Items: []domain.OrderItem{
			{ProductID: "prod-1", Name: "Sourdough Loaf", UnitPrice: decimal.RequireFromString("12.00"), Quantity: 2},
		},
		Fulfillment:   domain.FulfillmentDelivery,
		PaymentMethod: "pix",
		Subtotal:      decimal.RequireFromString("24.00"),
		DeliveryFee:   decimal.RequireFromString("5.00"),
		Discount:      decimal.Zero,
		Total:         decimal.RequireFromString("29.00"),
		Status:        domain.StatusPending,
		Origin:        "storefront",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestOrderRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	in := testOrder("o-1", now)
	require.NoError(t, s.CreateOrder(ctx, in))

	out, err := s.GetOrder(ctx, "o-1")
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.MerchantID, out.MerchantID)
	assert.Equal(t, in.CustomerName, out.CustomerName)
	assert.Equal(t, domain.FulfillmentDelivery, out.Fulfillment)
	assert.Equal(t, domain.StatusPending, out.Status)
	assert.True(t, in.Total.Equal(out.Total), "total %s", out.Total)
	assert.True(t, in.DeliveryFee.Equal(out.DeliveryFee))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Sourdough Loaf", out.Items[0].Name)
	assert.True(t, out.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.00")))
	assert.Equal(t, 2, out.Items[0].Quantity)
	assert.True(t, out.CreatedAt.Equal(now), "created_at %s", out.CreatedAt)
}

func TestGetOrderNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetOrder(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateOrder(ctx, testOrder("o-1", now)))

	later := now.Add(5 * time.Minute)
	require.NoError(t, s.UpdateOrderStatus(ctx, "o-1", domain.StatusAccepted, "confirmed", later))

	out, err := s.GetOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, out.Status)
	assert.Equal(t, "confirmed", out.Notes)
	assert.True(t, out.UpdatedAt.Equal(later))
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.UpdateOrderStatus(context.Background(), "missing", domain.StatusAccepted, "", time.Now())
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"o-1", "o-2", "o-3"} {
		require.NoError(t, s.CreateOrder(ctx, testOrder(id, base.Add(time.Duration(i)*time.Hour))))
	}

	out, err := s.ListOrders(ctx, "m-1", store.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "o-3", out[0].ID)
	assert.Equal(t, "o-1", out[2].ID)
}

func TestListOrdersOnlyToday(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateOrder(ctx, testOrder("yesterday", now.Add(-24*time.Hour))))
	require.NoError(t, s.CreateOrder(ctx, testOrder("this-morning", now.Add(-6*time.Hour))))
	require.NoError(t, s.CreateOrder(ctx, testOrder("just-now", now)))

	out, err := s.ListOrders(ctx, "m-1", store.OrderFilter{OnlyToday: true, Now: now})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "just-now", out[0].ID)
	assert.Equal(t, "this-morning", out[1].ID)
}

func TestListOrdersLimit(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"o-1", "o-2", "o-3"} {
		require.NoError(t, s.CreateOrder(ctx, testOrder(id, base.Add(time.Duration(i)*time.Minute))))
	}

	out, err := s.ListOrders(ctx, "m-1", store.OrderFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "o-3", out[0].ID)
}

func TestListOrdersScopedToMerchant(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.CreateOrder(ctx, testOrder("mine", now)))
	foreign := testOrder("theirs", now)
	foreign.MerchantID = "m-2"
	require.NoError(t, s.CreateOrder(ctx, foreign))

	out, err := s.ListOrders(ctx, "m-1", store.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "mine", out[0].ID)
}

func TestMerchantRoundTrip(t *testing.T) {
	s := openTestStore(t)
	in := seedMerchant(t, s)
	ctx := context.Background()

	byID, err := s.GetMerchant(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, in.Slug, byID.Slug)
	assert.Equal(t, in.Currency, byID.Currency)
	assert.InDelta(t, in.Lat, byID.Lat, 1e-9)
	assert.True(t, byID.Delivery.Enabled)
	assert.True(t, byID.Delivery.PricePerKm.Equal(decimal.RequireFromString("2.50")))
	assert.Equal(t, 2, byID.Delivery.EstimatedHours)

	bySlug, err := s.GetMerchantBySlug(ctx, "luma-bakery")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, bySlug.ID)

	_, err = s.GetMerchantBySlug(ctx, "nowhere")
	require.ErrorIs(t, err, domain.ErrMerchantNotFound)
}

func TestSaveDeliverySettings(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	next := domain.DeliverySettings{
		Enabled:        false,
		RadiusKm:       8,
		PricePerKm:     decimal.RequireFromString("3.00"),
		MinimumFee:     decimal.RequireFromString("6.00"),
		FreeThreshold:  decimal.NewFromInt(80),
		EstimatedHours: 3,
	}
	require.NoError(t, s.SaveDeliverySettings(ctx, "m-1", next))

	m, err := s.GetMerchant(ctx, "m-1")
	require.NoError(t, err)
	assert.False(t, m.Delivery.Enabled)
	assert.InDelta(t, 8, m.Delivery.RadiusKm, 1e-9)
	assert.True(t, m.Delivery.FreeThreshold.Equal(decimal.NewFromInt(80)))

	err = s.SaveDeliverySettings(ctx, "ghost", next)
	require.ErrorIs(t, err, domain.ErrMerchantNotFound)
}

func TestProductRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	in := &domain.Product{
		ID:         "prod-1",
		MerchantID: "m-1",
		Name:       "Linen Shirt",
		Price:      decimal.RequireFromString("89.90"),
		ImageURL:   "https://cdn.example.com/shirt.jpg",
		Colors:     []string{"white", "navy"},
		Sizes:      []string{"S", "M", "L"},
	}
	require.NoError(t, s.CreateProduct(ctx, in))

	out, err := s.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.True(t, in.Price.Equal(out.Price))
	assert.Equal(t, in.Colors, out.Colors)
	assert.Equal(t, in.Sizes, out.Sizes)

	_, err = s.GetProduct(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestListProductsSortedByName(t *testing.T) {
	s := openTestStore(t)
	seedMerchant(t, s)
	ctx := context.Background()

	for _, p := range []*domain.Product{
		{ID: "p-1", MerchantID: "m-1", Name: "Zest Soap", Price: decimal.NewFromInt(5)},
		{ID: "p-2", MerchantID: "m-1", Name: "Almond Oil", Price: decimal.NewFromInt(12)},
	} {
		require.NoError(t, s.CreateProduct(ctx, p))
	}

	out, err := s.ListProducts(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Almond Oil", out[0].Name)
	assert.Equal(t, "Zest Soap", out[1].Name)
}
