// Package delivery implements the delivery-radius validation gate and fee
// formula applied at order-creation time.
package delivery

import (
	"context"
	"log/slog"

	"github.com/lumastore/storefront/internal/domain"
)

// Request is a candidate delivery to validate. Either DistanceKm is supplied
// directly (the storefront UI computed it client-side) or Address is set and
// coordinates are resolved server-side.
type Request struct {
	// DistanceKm, when non-nil, short-circuits geocoding.
	DistanceKm *float64
	// Address is the customer's delivery address, used when no distance is
	// supplied.
	Address string
}

// Result carries the admitted distance, when one was established. Nil means
// the check was skipped (geocoding unavailable) and the order was admitted
// fail-open.
type Result struct {
	DistanceKm *float64
}

// Validator decides admit/reject for delivery-mode orders against the
// merchant's configured radius.
type Validator struct {
	geocoder Geocoder
}

// NewValidator builds a validator. geocoder may be nil, in which case
// address resolution is unavailable and address-only requests are admitted
// fail-open.
func NewValidator(geocoder Geocoder) *Validator {
	return &Validator{geocoder: geocoder}
}

// Check applies the admission rules from the delivery settings:
//
//  1. Delivery disabled for the merchant rejects outright.
//  2. A directly supplied distance is compared against the radius.
//  3. Otherwise merchant coordinates (stored lat/lng preferred, else
//     geocoded from the merchant address) and customer coordinates are
//     resolved and the great-circle distance is compared.
//
// Geocoding failures are non-fatal: the distance check is skipped and the
// order proceeds. A flaky geocoder must not block checkout.
func (v *Validator) Check(ctx context.Context, m *domain.Merchant, req Request) (Result, error) {
	if !m.Delivery.Enabled {
		return Result{}, &domain.DeliveryDisabledError{MerchantID: m.ID}
	}

	if req.DistanceKm != nil {
		return v.admit(*req.DistanceKm, m.Delivery.RadiusKm)
	}

	if v.geocoder == nil || req.Address == "" {
		return Result{}, nil
	}

	origin, ok := v.merchantCoordinates(ctx, m)
	if !ok {
		return Result{}, nil
	}

	dest, err := v.geocoder.Geocode(ctx, req.Address)
	if err != nil {
		slog.WarnContext(ctx, "customer geocode failed, skipping radius check",
			"merchant_id", m.ID, "error", err)
		return Result{}, nil
	}

	return v.admit(DistanceKm(origin, dest), m.Delivery.RadiusKm)
}

func (v *Validator) admit(distanceKm, radiusKm float64) (Result, error) {
	if distanceKm > radiusKm {
		return Result{}, &domain.OutOfRadiusError{DistanceKm: distanceKm, RadiusKm: radiusKm}
	}
	return Result{DistanceKm: &distanceKm}, nil
}

func (v *Validator) merchantCoordinates(ctx context.Context, m *domain.Merchant) (Coordinates, bool) {
	if m.HasCoordinates() {
		return Coordinates{Lat: m.Lat, Lng: m.Lng}, true
	}
	if m.Address == "" {
		return Coordinates{}, false
	}
	c, err := v.geocoder.Geocode(ctx, m.Address)
	if err != nil {
		slog.WarnContext(ctx, "merchant geocode failed, skipping radius check",
			"merchant_id", m.ID, "error", err)
		return Coordinates{}, false
	}
	return c, true
}
