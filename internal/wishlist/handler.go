package wishlist

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
)

// Handler serves the authenticated customer's wishlist.
type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := accounts.UserIDFromContext(r.Context())

	items, err := h.repo.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list wishlist", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _ := accounts.UserIDFromContext(r.Context())
	productID := r.PathValue("productId")

	if err := h.repo.Add(r.Context(), userID, productID); err != nil {
		h.logger.Error("failed to add wishlist item", "error", err, "user_id", userID, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, _ := accounts.UserIDFromContext(r.Context())
	productID := r.PathValue("productId")

	removed, err := h.repo.Remove(r.Context(), userID, productID)
	if err != nil {
		h.logger.Error("failed to remove wishlist item", "error", err, "user_id", userID, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !removed {
		h.writeError(w, http.StatusNotFound, "not in wishlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
