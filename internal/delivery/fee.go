package delivery

import (
	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/domain"
)

// Fee computes the delivery fee for a distance and order subtotal:
// max(minimum_fee, distance_km × price_per_km), waived entirely when the
// subtotal reaches the merchant's free-delivery threshold.
func Fee(s domain.DeliverySettings, distanceKm float64, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.FreeThreshold) {
		return decimal.Zero
	}

	fee := decimal.NewFromFloat(distanceKm).Mul(s.PricePerKm)
	if fee.LessThan(s.MinimumFee) {
		fee = s.MinimumFee
	}
	return fee.Round(2)
}
