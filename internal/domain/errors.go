package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for lookups. Wrap with %w at call sites so errors.Is
// works across layers.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrProductNotFound  = errors.New("product not found")
)

// DeliveryDisabledError rejects a delivery-mode order for a merchant that
// has delivery switched off.
type DeliveryDisabledError struct {
	MerchantID string
}

func (e *DeliveryDisabledError) Error() string {
	return "delivery is not enabled for this store"
}

// OutOfRadiusError rejects a delivery-mode order whose distance exceeds the
// merchant's configured radius. The message is shown to the customer as-is.
type OutOfRadiusError struct {
	DistanceKm float64
	RadiusKm   float64
}

func (e *OutOfRadiusError) Error() string {
	return fmt.Sprintf("delivery address is %.1f km away, outside the %.1f km delivery radius", e.DistanceKm, e.RadiusKm)
}

// InvalidTransitionError rejects an illegal status move.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}

// UnknownStatusError rejects a status outside the enum. Never bypassed,
// not even by administrative override.
type UnknownStatusError struct {
	Status Status
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown order status %q", e.Status)
}
