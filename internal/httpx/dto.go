package httpx

import (
	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/domain"
)

type CreateOrderRequest struct {
	StoreSlug     string           `json:"store_slug"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	Items         []OrderItemDTO   `json:"items"`
	Fulfillment   string           `json:"fulfillment"` // delivery | pickup
	Address       string           `json:"address,omitempty"`
	DistanceKm    *float64         `json:"distance_km,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Origin        string           `json:"origin,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Manual        bool             `json:"manual,omitempty"`
	AsDelivered   bool             `json:"as_delivered,omitempty"`
}

type OrderItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
	// Override is the administrative-correction path: it bypasses the
	// transition table (never the status enum).
	Override bool `json:"override,omitempty"`
}

type CalculateDeliveryRequest struct {
	DistanceKm float64         `json:"distance_km"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type CalculateDeliveryResponse struct {
	Fee            decimal.Decimal `json:"fee"`
	EstimatedHours int             `json:"estimated_hours"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	MerchantID    string              `json:"merchant_id"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	Address       string              `json:"address,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	Fulfillment   string              `json:"fulfillment"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	Status        string              `json:"status"`
	Notes         string              `json:"notes,omitempty"`
	Origin        string              `json:"origin,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url,omitempty"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
}

type ProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
	Colors   []string        `json:"colors,omitempty"`
	Sizes    []string        `json:"sizes,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapOrderToResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
			Color:     it.Color,
			Size:      it.Size,
		}
	}
	return OrderResponse{
		ID:            o.ID,
		MerchantID:    o.MerchantID,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Address:       o.Address,
		Items:         items,
		Fulfillment:   string(o.Fulfillment),
		PaymentMethod: o.PaymentMethod,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		Total:         o.Total,
		Status:        string(o.Status),
		Notes:         o.Notes,
		Origin:        o.Origin,
		CreatedAt:     o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     o.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func mapProductToResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Colors:   p.Colors,
		Sizes:    p.Sizes,
	}
}
