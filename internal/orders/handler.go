package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
	"github.com/hannalindberg/atelje-backend/internal/checkout"
	"github.com/hannalindberg/atelje-backend/internal/config"
	"github.com/hannalindberg/atelje-backend/internal/domain"
	"github.com/hannalindberg/atelje-backend/internal/telemetry"
)

// CatalogResolver resolves cart lines against the live catalog at checkout
// time. *catalog.Repository satisfies it.
type CatalogResolver interface {
	ResolveVariants(ctx context.Context, variantIDs []string) (checkout.Snapshot, error)
}

// OrderStore is the persistence the storefront handler needs.
// *OrderRepository satisfies it.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// Handler serves the storefront-facing order endpoints: checkout and a
// customer's own orders.
type Handler struct {
	repo       OrderStore
	resolver   CatalogResolver
	dispatcher Dispatcher
	pricing    config.Pricing
	metrics    *telemetry.CheckoutMetrics
	logger     *slog.Logger
}

func NewHandler(repo OrderStore, resolver CatalogResolver, dispatcher Dispatcher, pricing config.Pricing, metrics *telemetry.CheckoutMetrics, logger *slog.Logger) *Handler {
	return &Handler{
		repo:       repo,
		resolver:   resolver,
		dispatcher: dispatcher,
		pricing:    pricing,
		metrics:    metrics,
		logger:     logger,
	}
}

type checkoutRequest struct {
	Items   []checkout.CartLine `json:"items"`
	Address domain.Address      `json:"address"`
}

// HandleCheckout materializes the submitted cart into a pending order. The
// confirmation email is dispatched after the commit and never fails the
// checkout.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var userID *string
	if uid, ok := accounts.UserIDFromContext(r.Context()); ok {
		userID = &uid
	}

	variantIDs := make([]string, 0, len(req.Items))
	for _, line := range req.Items {
		variantIDs = append(variantIDs, line.VariantID)
	}

	snapshot, err := h.resolver.ResolveVariants(r.Context(), variantIDs)
	if err != nil {
		h.logger.Error("failed to resolve cart variants", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	order, err := checkout.Materialize(req.Items, snapshot, req.Address, h.pricing, userID)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.As(err, &verr):
			h.writeError(w, http.StatusBadRequest, verr.Reason)
		default:
			h.logger.Error("failed to materialize order", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err, "order_number", order.OrderNumber)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), order, domain.EmailOrderConfirmation); err != nil {
		h.logger.Error("failed to dispatch confirmation email", "error", err, "order_id", order.ID)
	}

	h.metrics.RecordOrder(r.Context(), order.Total)

	h.logger.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, order)
}

// HandleGet returns one order. Guest orders are reachable by id alone;
// orders that belong to an account only answer to their owner, and anyone
// else sees the same response as for a missing order.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if order.UserID != nil {
		uid, ok := accounts.UserIDFromContext(r.Context())
		if !ok || uid != *order.UserID {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
	}

	h.writeJSON(w, http.StatusOK, order)
}

// HandleListMine lists the authenticated customer's orders.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := accounts.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
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
