package email

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// OrderStore is the slice of order persistence the email service needs: it
// fetches the rows it renders from and records sends in the event log.
// *orders.OrderRepository satisfies it.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	AppendEvent(ctx context.Context, event *domain.OrderEvent) error
}

type Handler struct {
	store    OrderStore
	provider *Provider
	logger   *slog.Logger
}

func NewHandler(store OrderStore, provider *Provider, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

type notifyRequest struct {
	OrderID        string           `json:"order_id"`
	EmailType      domain.EmailType `json:"email_type"`
	TrackingNumber string           `json:"tracking_number,omitempty"`
	TrackingURL    string           `json:"tracking_url,omitempty"`
}

type notifyResponse struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	EmailID string `json:"email_id,omitempty"`
}

// HandleNotify renders and sends one lifecycle email. Running without a
// provider credential is a supported mode: the send is skipped with a 200,
// not an error.
func (h *Handler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		h.writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	order, err := h.store.GetByID(r.Context(), req.OrderID)
	if err != nil {
		h.logger.Error("failed to fetch order", "error", err, "order_id", req.OrderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	subject, body, err := Render(req.EmailType, order, req.TrackingNumber, req.TrackingURL)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.provider.Configured() {
		h.logger.Info("no mail credential configured, skipping send", "order_id", order.ID, "email_type", req.EmailType)
		h.writeJSON(w, http.StatusOK, notifyResponse{Skipped: true})
		return
	}

	emailID, err := h.provider.Send(r.Context(), order.Address.Email, subject, body)
	if err != nil {
		h.logger.Error("provider send failed", "error", err, "order_id", order.ID, "email_type", req.EmailType)
		h.writeError(w, http.StatusBadGateway, "email provider error")
		return
	}

	event := &domain.OrderEvent{
		OrderID:     order.ID,
		Type:        domain.EventEmailSent,
		Description: "Email " + string(req.EmailType) + " sent to " + order.Address.Email,
		Metadata:    map[string]any{"email_type": string(req.EmailType), "provider_message_id": emailID},
	}
	if err := h.store.AppendEvent(r.Context(), event); err != nil {
		// The email is already out; the missing audit row is logged, not fatal.
		h.logger.Error("failed to append email_sent event", "error", err, "order_id", order.ID)
	}

	h.logger.Info("email sent", "order_id", order.ID, "email_type", req.EmailType, "email_id", emailID)
	h.writeJSON(w, http.StatusOK, notifyResponse{Success: true, EmailID: emailID})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
