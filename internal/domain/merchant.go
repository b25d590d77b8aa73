package domain

import (
	"github.com/shopspring/decimal"
)

// Merchant is a tenant owning a catalog, its orders, and its delivery
// settings.
type Merchant struct {
	ID       string
	Slug     string
	Name     string
	Phone    string
	Address  string
	Lat      float64 // zero pair means "not geocoded yet"
	Lng      float64
	Currency string // display symbol, e.g. "$" or "R$"
	Delivery DeliverySettings
}

// HasCoordinates reports whether a stored lat/lng pair is available.
func (m *Merchant) HasCoordinates() bool {
	return m.Lat != 0 || m.Lng != 0
}

// FormatAmount renders a decimal amount in the merchant's currency format.
func (m *Merchant) FormatAmount(v decimal.Decimal) string {
	sym := m.Currency
	if sym == "" {
		sym = "$"
	}
	return sym + " " + v.StringFixed(2)
}

// DeliverySettings is the per-merchant delivery policy. Created with
// defaults when the store is created, mutated only by merchant admin action,
// read-only to the validator.
type DeliverySettings struct {
	Enabled        bool
	RadiusKm       float64
	PricePerKm     decimal.Decimal
	MinimumFee     decimal.Decimal
	FreeThreshold  decimal.Decimal // order subtotal at which the fee is waived
	EstimatedHours int
}

// DefaultDeliverySettings are applied when a merchant store is created.
func DefaultDeliverySettings() DeliverySettings {
	return DeliverySettings{
		Enabled:        false,
		RadiusKm:       5,
		PricePerKm:     decimal.NewFromFloat(1.50),
		MinimumFee:     decimal.NewFromFloat(3.00),
		FreeThreshold:  decimal.NewFromInt(100),
		EstimatedHours: 1,
	}
}

// Product is a catalog entry. The order pipeline only reads it to snapshot
// name and price into order lines; catalog management itself lives outside
// this subsystem.
type Product struct {
	ID         string
	MerchantID string
	Name       string
	Price      decimal.Decimal
	ImageURL   string
	Colors     []string
	Sizes      []string
}
