package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// NotificationHandler drives the email service from the notification topic.
// Delivery is best-effort end to end: a failed send is logged and the message
// is committed anyway, there is no retry path.
type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderNotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed notification event", "error", err)
		return nil
	}

	h.logger.Info("processing notification", "order_id", event.OrderID, "email_type", event.EmailType)

	if err := h.notify(ctx, event); err != nil {
		h.logger.Error("notification failed", "error", err, "order_id", event.OrderID, "email_type", event.EmailType)
		return nil
	}

	return nil
}

func (h *NotificationHandler) notify(ctx context.Context, event domain.OrderNotificationEvent) error {
	body := map[string]string{
		"order_id":   event.OrderID,
		"email_type": string(event.EmailType),
	}
	if event.TrackingNumber != "" {
		body["tracking_number"] = event.TrackingNumber
	}
	if event.TrackingURL != "" {
		body["tracking_url"] = event.TrackingURL
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/notify", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
