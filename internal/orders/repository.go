package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Tracking carries carrier info supplied together with a shipped transition.
type Tracking struct {
	Number string
	URL    string
}

// Create persists the order header, its line-item snapshots and the creation
// event in a single transaction. Partial orders never become visible.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, subtotal, shipping, total, status,
			first_name, last_name, email, phone, street, city, postal_code, country,
			created_at, status_changed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`, order.ID, order.OrderNumber, order.UserID, order.Subtotal, order.Shipping, order.Total, order.Status,
		order.Address.FirstName, order.Address.LastName, order.Address.Email, order.Address.Phone,
		order.Address.Street, order.Address.City, order.Address.PostalCode, order.Address.Country,
		order.CreatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		item := order.Items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, product_title, variant_name, price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, item.ID, order.ID, item.ProductID, item.VariantID, item.ProductTitle, item.VariantName, item.Price, item.Quantity, item.ImageURL)
		if err != nil {
			return err
		}
	}

	created := domain.OrderEvent{
		OrderID:     order.ID,
		Type:        domain.EventOrderCreated,
		Description: fmt.Sprintf("Order %s placed", order.OrderNumber),
		Metadata:    map[string]any{"order_number": order.OrderNumber, "total": order.Total},
		CreatedAt:   order.CreatedAt,
	}
	if err := insertEvent(ctx, tx, &created); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	order.Events = append(order.Events, created)
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, subtotal, shipping, total, status,
			first_name, last_name, email, phone, street, city, postal_code, country,
			tracking_number, tracking_url, notes, created_at, status_changed_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.Subtotal, &order.Shipping, &order.Total, &order.Status,
		&order.Address.FirstName, &order.Address.LastName, &order.Address.Email, &order.Address.Phone,
		&order.Address.Street, &order.Address.City, &order.Address.PostalCode, &order.Address.Country,
		&order.TrackingNumber, &order.TrackingURL, &order.Notes, &order.CreatedAt, &order.StatusChangedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	if err := r.loadEvents(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, variant_id, product_title, variant_name, price, quantity, image_url
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, order.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VariantID, &item.ProductTitle, &item.VariantName, &item.Price, &item.Quantity, &item.ImageURL); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

func (r *OrderRepository) loadEvents(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, description, metadata, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY created_at, id
	`, order.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		event := domain.OrderEvent{OrderID: order.ID}
		var metadata []byte
		if err := rows.Scan(&event.ID, &event.Type, &event.Description, &metadata, &event.CreatedAt); err != nil {
			return err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return err
			}
		}
		order.Events = append(order.Events, event)
	}

	return rows.Err()
}

// List returns all orders newest first, with line items loaded in one batched
// query instead of one per order.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, order_number, user_id, subtotal, shipping, total, status,
			first_name, last_name, email, phone, street, city, postal_code, country,
			tracking_number, tracking_url, notes, created_at, status_changed_at
		FROM orders
		ORDER BY created_at DESC
	`)
}

// ListByUser returns a customer's own orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, order_number, user_id, subtotal, shipping, total, status,
			first_name, last_name, email, phone, street, city, postal_code, country,
			tracking_number, tracking_url, notes, created_at, status_changed_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.OrderNumber, &order.UserID, &order.Subtotal, &order.Shipping, &order.Total, &order.Status,
			&order.Address.FirstName, &order.Address.LastName, &order.Address.Email, &order.Address.Phone,
			&order.Address.Street, &order.Address.City, &order.Address.PostalCode, &order.Address.Country,
			&order.TrackingNumber, &order.TrackingURL, &order.Notes, &order.CreatedAt, &order.StatusChangedAt,
		); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, id, product_id, variant_id, product_title, variant_name, price, quantity, image_url
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ID, &item.ProductID, &item.VariantID, &item.ProductTitle, &item.VariantName, &item.Price, &item.Quantity, &item.ImageURL); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// ApplyTransition persists the new status, the status-change timestamp,
// optional tracking fields and the transition event as one transaction. The
// update is guarded on the status the caller validated against, so a missing
// order or a concurrent transition makes RowsAffected zero and returns
// nil, nil without writing anything.
func (r *OrderRepository) ApplyTransition(ctx context.Context, id string, from, to domain.OrderStatus, tracking *Tracking, event domain.OrderEvent) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var result sql.Result
	if tracking != nil {
		result, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = $1, status_changed_at = $2, tracking_number = $3, tracking_url = $4
			WHERE id = $5 AND status = $6
		`, to, now, tracking.Number, nullable(tracking.URL), id, from)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = $1, status_changed_at = $2
			WHERE id = $3 AND status = $4
		`, to, now, id, from)
	}
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	event.OrderID = id
	event.CreatedAt = now
	if err := insertEvent(ctx, tx, &event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// SaveTracking records carrier info ahead of the shipped transition and logs
// a tracking_added event alongside it.
func (r *OrderRepository) SaveTracking(ctx context.Context, id string, tracking Tracking) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET tracking_number = $1, tracking_url = $2
		WHERE id = $3
	`, tracking.Number, nullable(tracking.URL), id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	event := domain.OrderEvent{
		OrderID:     id,
		Type:        domain.EventTrackingAdded,
		Description: "Tracking number " + tracking.Number + " added",
		Metadata:    map[string]any{"tracking_number": tracking.Number},
		CreatedAt:   time.Now().UTC(),
	}
	if err := insertEvent(ctx, tx, &event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// SaveNotes replaces the internal notes on an order.
func (r *OrderRepository) SaveNotes(ctx context.Context, id string, notes string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET notes = $1
		WHERE id = $2
	`, nullable(notes), id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	event := domain.OrderEvent{
		OrderID:     id,
		Type:        domain.EventNoteAdded,
		Description: "Internal notes updated",
		CreatedAt:   time.Now().UTC(),
	}
	if err := insertEvent(ctx, tx, &event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// AppendEvent adds a single audit entry outside any other write, used by the
// email service to record sends.
func (r *OrderRepository) AppendEvent(ctx context.Context, event *domain.OrderEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return insertEvent(ctx, r.db, event)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, ex execer, event *domain.OrderEvent) error {
	event.ID = uuid.New().String()

	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO order_events (id, order_id, type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.OrderID, event.Type, event.Description, metadata, event.CreatedAt)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
