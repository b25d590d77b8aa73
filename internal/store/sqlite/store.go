// Package sqlite provides the SQLite-backed implementation of the store
// ports.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa. Dashboard polling reads while checkout handlers write, so this
// matters under load.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumastore/storefront/internal/domain"
	"github.com/lumastore/storefront/internal/store"

	// Register the pure-Go SQLite driver. We use modernc.org/sqlite instead
	// of mattn/go-sqlite3 to avoid CGO requirements, making it easier to
	// build and run in Docker (Alpine).
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Order items are embedded as a
// JSON column: they are not independently addressable and always travel with
// their order. Money columns are stored as TEXT to keep two-place decimal
// precision intact.
const schema = `
CREATE TABLE IF NOT EXISTS merchants (
    id                       TEXT PRIMARY KEY,
    slug                     TEXT NOT NULL UNIQUE,
    name                     TEXT NOT NULL,
    phone                    TEXT NOT NULL DEFAULT '',
    address                  TEXT NOT NULL DEFAULT '',
    lat                      REAL NOT NULL DEFAULT 0,
    lng                      REAL NOT NULL DEFAULT 0,
    currency                 TEXT NOT NULL DEFAULT '$',

    -- Delivery settings, one row per merchant, mutated only by admin action.
    delivery_enabled         INTEGER NOT NULL DEFAULT 0,
    delivery_radius_km       REAL NOT NULL DEFAULT 5,
    delivery_price_per_km    TEXT NOT NULL DEFAULT '1.5',
    delivery_minimum_fee     TEXT NOT NULL DEFAULT '3',
    delivery_free_threshold  TEXT NOT NULL DEFAULT '100',
    delivery_estimated_hours INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    name        TEXT NOT NULL,
    price       TEXT NOT NULL,
    image_url   TEXT NOT NULL DEFAULT '',
    colors      TEXT NOT NULL DEFAULT '[]',
    sizes       TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_products_merchant ON products(merchant_id);

CREATE TABLE IF NOT EXISTS orders (
    id             TEXT PRIMARY KEY,
    merchant_id    TEXT NOT NULL,
    customer_name  TEXT NOT NULL,
    customer_phone TEXT NOT NULL DEFAULT '',
    address        TEXT NOT NULL DEFAULT '',
    items          TEXT NOT NULL DEFAULT '[]',
    fulfillment    TEXT NOT NULL DEFAULT 'pickup',
    payment_method TEXT NOT NULL DEFAULT '',
    subtotal       TEXT NOT NULL DEFAULT '0',
    delivery_fee   TEXT NOT NULL DEFAULT '0',
    discount       TEXT NOT NULL DEFAULT '0',
    total          TEXT NOT NULL DEFAULT '0',
    status         TEXT NOT NULL,
    notes          TEXT NOT NULL DEFAULT '',
    origin         TEXT NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);

-- The dashboard's polling fallback asks for "today's orders for merchant X"
-- every few seconds; cover it.
CREATE INDEX IF NOT EXISTS idx_orders_merchant_created ON orders(merchant_id, created_at);
`

// Store implements store.OrderStore, store.MerchantStore and
// store.CatalogStore over a single SQLite database.
type Store struct {
	db *sql.DB
}

var (
	_ store.OrderStore    = (*Store)(nil)
	_ store.MerchantStore = (*Store)(nil)
	_ store.CatalogStore  = (*Store)(nil)
)

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. WAL enables concurrent readers, busy_timeout waits for locks
// instead of failing immediately.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// itemRow is the JSON shape of one embedded order line.
type itemRow struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

func encodeItems(items []domain.OrderItem) (string, error) {
	rows := make([]itemRow, len(items))
	for i, it := range items {
		rows[i] = itemRow{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
			Color:     it.Color,
			Size:      it.Size,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode items: %w", err)
	}
	return string(b), nil
}

func decodeItems(raw string) ([]domain.OrderItem, error) {
	var rows []itemRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("sqlite: decode items: %w", err)
	}
	items := make([]domain.OrderItem, len(rows))
	for i, r := range rows {
		price, err := decimal.NewFromString(r.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode item price %q: %w", r.UnitPrice, err)
		}
		items[i] = domain.OrderItem{
			ProductID: r.ProductID,
			Name:      r.Name,
			UnitPrice: price,
			Quantity:  r.Quantity,
			ImageURL:  r.ImageURL,
			Color:     r.Color,
			Size:      r.Size,
		}
	}
	return items, nil
}

// CreateOrder inserts a new order row. The caller has already computed
// authoritative totals.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	items, err := encodeItems(o.Items)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO orders
			(id, merchant_id, customer_name, customer_phone, address, items,
			 fulfillment, payment_method, subtotal, delivery_fee, discount, total,
			 status, notes, origin, created_at, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		o.ID, o.MerchantID, o.CustomerName, o.CustomerPhone, o.Address, items,
		string(o.Fulfillment), o.PaymentMethod,
		o.Subtotal.String(), o.DeliveryFee.String(), o.Discount.String(), o.Total.String(),
		string(o.Status), o.Notes, o.Origin,
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create order %q: %w", o.ID, err)
	}
	return nil
}

// GetOrder loads one order by id, returning domain.ErrOrderNotFound if
// absent.
func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	const q = selectOrder + ` WHERE id = ?`
	o, err := scanOrder(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: order %q: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}
	return o, nil
}

// UpdateOrderStatus persists a new status and notes text. Last write wins.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.Status, notes string, updatedAt time.Time) error {
	const q = `UPDATE orders SET status = ?, notes = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, string(status), notes, formatTime(updatedAt), id)
	if err != nil {
		return fmt.Errorf("sqlite: update order %q status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update order %q status: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: order %q: %w", id, domain.ErrOrderNotFound)
	}
	return nil
}

// ListOrders returns the merchant's orders, newest first.
func (s *Store) ListOrders(ctx context.Context, merchantID string, f store.OrderFilter) ([]*domain.Order, error) {
	q := selectOrder + ` WHERE merchant_id = ?`
	args := []any{merchantID}

	if f.OnlyToday {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		y, m, d := now.Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		q += ` AND created_at >= ?`
		args = append(args, formatTime(midnight))
	}

	q += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders for %q: %w", merchantID, err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list orders for %q: %w", merchantID, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list orders for %q: %w", merchantID, err)
	}
	return out, nil
}

const selectOrder = `
	SELECT id, merchant_id, customer_name, customer_phone, address, items,
	       fulfillment, payment_method, subtotal, delivery_fee, discount, total,
	       status, notes, origin, created_at, updated_at
	FROM   orders`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (*domain.Order, error) {
	var (
		o                              domain.Order
		items, fulfillment, status     string
		subtotal, fee, discount, total string
		createdAt, updatedAt           string
	)
	err := r.Scan(
		&o.ID, &o.MerchantID, &o.CustomerName, &o.CustomerPhone, &o.Address, &items,
		&fulfillment, &o.PaymentMethod, &subtotal, &fee, &discount, &total,
		&status, &o.Notes, &o.Origin, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	o.Fulfillment = domain.FulfillmentMode(fulfillment)
	o.Status = domain.Status(status)

	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&o.Subtotal, subtotal},
		{&o.DeliveryFee, fee},
		{&o.Discount, discount},
		{&o.Total, total},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", f.raw, err)
		}
		*f.dst = v
	}

	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateMerchant inserts a merchant row with its delivery settings. Used by
// seeding and tests; merchant onboarding proper lives outside this core.
func (s *Store) CreateMerchant(ctx context.Context, m *domain.Merchant) error {
	const q = `
		INSERT INTO merchants
			(id, slug, name, phone, address, lat, lng, currency,
			 delivery_enabled, delivery_radius_km, delivery_price_per_km,
			 delivery_minimum_fee, delivery_free_threshold, delivery_estimated_hours)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		m.ID, m.Slug, m.Name, m.Phone, m.Address, m.Lat, m.Lng, m.Currency,
		boolToInt(m.Delivery.Enabled), m.Delivery.RadiusKm, m.Delivery.PricePerKm.String(),
		m.Delivery.MinimumFee.String(), m.Delivery.FreeThreshold.String(), m.Delivery.EstimatedHours,
	)
	if err != nil {
		return fmt.Errorf("sqlite: create merchant %q: %w", m.Slug, err)
	}
	return nil
}

// GetMerchant loads a merchant by id.
func (s *Store) GetMerchant(ctx context.Context, id string) (*domain.Merchant, error) {
	return s.getMerchant(ctx, `id = ?`, id)
}

// GetMerchantBySlug loads a merchant by its storefront slug.
func (s *Store) GetMerchantBySlug(ctx context.Context, slug string) (*domain.Merchant, error) {
	return s.getMerchant(ctx, `slug = ?`, slug)
}

func (s *Store) getMerchant(ctx context.Context, where string, arg any) (*domain.Merchant, error) {
	q := `
		SELECT id, slug, name, phone, address, lat, lng, currency,
		       delivery_enabled, delivery_radius_km, delivery_price_per_km,
		       delivery_minimum_fee, delivery_free_threshold, delivery_estimated_hours
		FROM   merchants
		WHERE  ` + where

	var (
		m                         domain.Merchant
		enabled                   int
		pricePerKm, minFee, thres string
	)
	err := s.db.QueryRowContext(ctx, q, arg).Scan(
		&m.ID, &m.Slug, &m.Name, &m.Phone, &m.Address, &m.Lat, &m.Lng, &m.Currency,
		&enabled, &m.Delivery.RadiusKm, &pricePerKm, &minFee, &thres, &m.Delivery.EstimatedHours,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: merchant %v: %w", arg, domain.ErrMerchantNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get merchant %v: %w", arg, err)
	}

	m.Delivery.Enabled = enabled != 0
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&m.Delivery.PricePerKm, pricePerKm},
		{&m.Delivery.MinimumFee, minFee},
		{&m.Delivery.FreeThreshold, thres},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse delivery amount %q: %w", f.raw, err)
		}
		*f.dst = v
	}
	return &m, nil
}

// SaveDeliverySettings replaces the merchant's delivery policy.
func (s *Store) SaveDeliverySettings(ctx context.Context, merchantID string, d domain.DeliverySettings) error {
	const q = `
		UPDATE merchants SET
			delivery_enabled = ?, delivery_radius_km = ?, delivery_price_per_km = ?,
			delivery_minimum_fee = ?, delivery_free_threshold = ?, delivery_estimated_hours = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q,
		boolToInt(d.Enabled), d.RadiusKm, d.PricePerKm.String(),
		d.MinimumFee.String(), d.FreeThreshold.String(), d.EstimatedHours, merchantID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save delivery settings for %q: %w", merchantID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: save delivery settings for %q: %w", merchantID, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: merchant %q: %w", merchantID, domain.ErrMerchantNotFound)
	}
	return nil
}

// CreateProduct inserts a catalog entry. Used by seeding and tests.
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	colors, err := json.Marshal(p.Colors)
	if err != nil {
		return fmt.Errorf("sqlite: encode colors: %w", err)
	}
	sizes, err := json.Marshal(p.Sizes)
	if err != nil {
		return fmt.Errorf("sqlite: encode sizes: %w", err)
	}

	const q = `
		INSERT INTO products (id, merchant_id, name, price, image_url, colors, sizes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q, p.ID, p.MerchantID, p.Name, p.Price.String(), p.ImageURL, string(colors), string(sizes))
	if err != nil {
		return fmt.Errorf("sqlite: create product %q: %w", p.ID, err)
	}
	return nil
}

// GetProduct loads one catalog entry by id.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const q = `SELECT id, merchant_id, name, price, image_url, colors, sizes FROM products WHERE id = ?`
	p, err := scanProduct(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: product %q: %w", id, domain.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get product %q: %w", id, err)
	}
	return p, nil
}

// ListProducts returns the merchant's catalog.
func (s *Store) ListProducts(ctx context.Context, merchantID string) ([]*domain.Product, error) {
	const q = `SELECT id, merchant_id, name, price, image_url, colors, sizes FROM products WHERE merchant_id = ? ORDER BY name`

	rows, err := s.db.QueryContext(ctx, q, merchantID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list products for %q: %w", merchantID, err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list products for %q: %w", merchantID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list products for %q: %w", merchantID, err)
	}
	return out, nil
}

func scanProduct(r rowScanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		price, colors, sizes string
	)
	if err := r.Scan(&p.ID, &p.MerchantID, &p.Name, &price, &p.ImageURL, &colors, &sizes); err != nil {
		return nil, err
	}
	v, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = v
	if err := json.Unmarshal([]byte(colors), &p.Colors); err != nil {
		return nil, fmt.Errorf("decode colors: %w", err)
	}
	if err := json.Unmarshal([]byte(sizes), &p.Sizes); err != nil {
		return nil, fmt.Errorf("decode sizes: %w", err)
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
