package domain

import "time"

// OrderNotificationEvent is published on the order.notifications topic
// whenever a lifecycle step should trigger a customer email. Delivery is
// best-effort: the transition that produced it never waits on it.
type OrderNotificationEvent struct {
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	EmailType      EmailType `json:"email_type"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	TrackingURL    string    `json:"tracking_url,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
