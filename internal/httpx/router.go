package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter mounts the order-pipeline routes.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.Health)

	r.Post("/orders", handler.CreateOrder)
	r.Put("/orders/{id}/status", handler.UpdateOrderStatus)

	r.Route("/stores/{slug}", func(r chi.Router) {
		r.Get("/orders", handler.ListOrders)
		r.Get("/products", handler.ListProducts)
		r.Post("/calculate-delivery", handler.CalculateDelivery)
	})

	return otelhttp.NewHandler(r, "http.server")
}
