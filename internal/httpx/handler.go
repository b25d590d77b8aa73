package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/delivery"
	"github.com/lumastore/storefront/internal/domain"
	"github.com/lumastore/storefront/internal/lifecycle"
	"github.com/lumastore/storefront/internal/store"
)

// Handler serves the order-pipeline HTTP surface.
type Handler struct {
	engine    *lifecycle.Engine
	orders    store.OrderStore
	merchants store.MerchantStore
	catalog   store.CatalogStore
}

// NewHandler wires the handler to the lifecycle engine and the read-side
// stores.
func NewHandler(engine *lifecycle.Engine, orders store.OrderStore, merchants store.MerchantStore, catalog store.CatalogStore) *Handler {
	return &Handler{
		engine:    engine,
		orders:    orders,
		merchants: merchants,
		catalog:   catalog,
	}
}

// CreateOrder handles POST /orders for both customer checkout and the
// manual composer.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if req.StoreSlug == "" || req.CustomerName == "" || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "store_slug, customer_name and items are required")
		return
	}

	mode := domain.FulfillmentMode(req.Fulfillment)
	if mode != domain.FulfillmentDelivery && mode != domain.FulfillmentPickup {
		writeError(w, http.StatusBadRequest, "invalid_request", "fulfillment must be delivery or pickup")
		return
	}

	items := make([]lifecycle.CreateItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			writeError(w, http.StatusBadRequest, "invalid_item", "product_id and a positive quantity are required")
			return
		}
		items = append(items, lifecycle.CreateItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Color:     it.Color,
			Size:      it.Size,
		})
	}

	discount := decimal.Zero
	if req.Discount != nil {
		if req.Discount.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid_request", "discount must not be negative")
			return
		}
		discount = *req.Discount
	}

	order, err := h.engine.Create(r.Context(), lifecycle.CreateOrderRequest{
		MerchantSlug:  req.StoreSlug,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
		Fulfillment:   mode,
		Address:       req.Address,
		DistanceKm:    req.DistanceKm,
		PaymentMethod: req.PaymentMethod,
		Discount:      discount,
		Origin:        req.Origin,
		Notes:         req.Notes,
		Manual:        req.Manual,
		AsDelivered:   req.AsDelivered,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

// UpdateOrderStatus handles PUT /orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.engine.Transition(r.Context(), orderID, domain.Status(req.Status), req.Note, req.Override)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// ListOrders handles GET /stores/{slug}/orders, the read path shared by the
// initial dashboard load and its polling fallback.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	merchant, err := h.merchants.GetMerchantBySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	f := store.OrderFilter{
		OnlyToday: r.URL.Query().Get("onlyToday") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}

	orders, err := h.orders.ListOrders(r.Context(), merchant.ID, f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// CalculateDelivery handles POST /stores/{slug}/calculate-delivery: a pure
// fee calculator with no side effects, used by the merchant settings UI.
func (h *Handler) CalculateDelivery(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req CalculateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.DistanceKm < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "distance_km must not be negative")
		return
	}

	merchant, err := h.merchants.GetMerchantBySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateDeliveryResponse{
		Fee:            delivery.Fee(merchant.Delivery, req.DistanceKm, req.OrderTotal),
		EstimatedHours: merchant.Delivery.EstimatedHours,
	})
}

// ListProducts handles GET /stores/{slug}/products, the catalog read used
// by the manual order composer.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	merchant, err := h.merchants.GetMerchantBySlug(r.Context(), slug)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), merchant.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProductToResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps the error taxonomy to HTTP status codes. Anything
// unrecognised is a persistence (or collaborator) failure: 500, no
// automatic retry.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		outOfRadius *domain.OutOfRadiusError
		disabled    *domain.DeliveryDisabledError
		badTransit  *domain.InvalidTransitionError
		badStatus   *domain.UnknownStatusError
	)

	switch {
	case errors.As(err, &outOfRadius):
		writeError(w, http.StatusBadRequest, "out_of_radius", outOfRadius.Error())
	case errors.As(err, &disabled):
		writeError(w, http.StatusBadRequest, "delivery_disabled", disabled.Error())
	case errors.As(err, &badStatus):
		writeError(w, http.StatusBadRequest, "unknown_status", badStatus.Error())
	case errors.As(err, &badTransit):
		writeError(w, http.StatusConflict, "invalid_transition", badTransit.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrMerchantNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "the request could not be completed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
