package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// Publisher is the messaging surface the dispatcher needs.
// *messaging.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// NotificationDispatcher publishes lifecycle emails onto the notification
// topic. A nil producer disables notifications entirely, which is a supported
// deployment mode rather than an error.
type NotificationDispatcher struct {
	producer Publisher
	logger   *slog.Logger
}

func NewNotificationDispatcher(producer Publisher, logger *slog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		producer: producer,
		logger:   logger,
	}
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, order *domain.Order, emailType domain.EmailType) error {
	if d.producer == nil {
		d.logger.Info("notifications disabled, skipping", "order_id", order.ID, "email_type", emailType)
		return nil
	}

	event := domain.OrderNotificationEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		EmailType:   emailType,
		Timestamp:   time.Now().UTC(),
	}
	if order.TrackingNumber != nil {
		event.TrackingNumber = *order.TrackingNumber
	}
	if order.TrackingURL != nil {
		event.TrackingURL = *order.TrackingURL
	}

	return d.producer.Publish(ctx, order.ID, event)
}
