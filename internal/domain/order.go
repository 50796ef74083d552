package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions leave this status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the order lifecycle allows moving from s to
// next. Delivered orders can still be refunded; cancelled and refunded orders
// accept nothing.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusShipped || next == OrderStatusCancelled || next == OrderStatusRefunded
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled || next == OrderStatusRefunded
	case OrderStatusDelivered:
		return next == OrderStatusRefunded
	default:
		return false
	}
}

type EmailType string

const (
	EmailOrderConfirmation EmailType = "order_confirmation"
	EmailOrderShipped      EmailType = "order_shipped"
	EmailOrderDelivered    EmailType = "order_delivered"
	EmailOrderRefunded     EmailType = "order_refunded"
)

// EmailTypeFor maps a newly reached status to the customer email it triggers.
// Cancellation sends nothing, so the second return is false for it.
func EmailTypeFor(status OrderStatus) (EmailType, bool) {
	switch status {
	case OrderStatusConfirmed:
		return EmailOrderConfirmation, true
	case OrderStatusShipped:
		return EmailOrderShipped, true
	case OrderStatusDelivered:
		return EmailOrderDelivered, true
	case OrderStatusRefunded:
		return EmailOrderRefunded, true
	default:
		return "", false
	}
}

type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a Address) Validate() error {
	if a.FirstName == "" || a.LastName == "" {
		return fmt.Errorf("shipping address requires first and last name")
	}
	if a.Email == "" {
		return fmt.Errorf("shipping address requires an email")
	}
	if a.Street == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return fmt.Errorf("shipping address requires street, city, postal code and country")
	}
	return nil
}

// OrderItem is a snapshot of the purchased variant taken at checkout.
// Catalog edits after the fact never touch these rows.
type OrderItem struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	VariantID    string `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	VariantName  string `json:"variant_name"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	ImageURL     string `json:"image_url,omitempty"`
}

type OrderEventType string

const (
	EventOrderCreated  OrderEventType = "order_created"
	EventStatusChanged OrderEventType = "status_changed"
	EventTrackingAdded OrderEventType = "tracking_added"
	EventEmailSent     OrderEventType = "email_sent"
	EventNoteAdded     OrderEventType = "note_added"
)

// OrderEvent is one append-only audit-log entry in an order's history.
type OrderEvent struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	Type        OrderEventType `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Order struct {
	ID              string       `json:"id"`
	OrderNumber     string       `json:"order_number"`
	UserID          *string      `json:"user_id,omitempty"`
	Subtotal        int64        `json:"subtotal"`
	Shipping        int64        `json:"shipping"`
	Total           int64        `json:"total"`
	Status          OrderStatus  `json:"status"`
	Address         Address      `json:"address"`
	TrackingNumber  *string      `json:"tracking_number,omitempty"`
	TrackingURL     *string      `json:"tracking_url,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	Items           []OrderItem  `json:"items"`
	Events          []OrderEvent `json:"events,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	StatusChangedAt time.Time    `json:"status_changed_at"`
}

func (o *Order) HasTracking() bool {
	return o.TrackingNumber != nil && *o.TrackingNumber != ""
}
