package reviews

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// AdminHandler serves the review moderation queue.
type AdminHandler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewAdminHandler(repo *Repository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *AdminHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListPending(r.Context())
	if err != nil {
		h.logger.Error("failed to list pending reviews", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

type moderateRequest struct {
	Status domain.ReviewStatus `json:"status"`
}

func (h *AdminHandler) HandleModerate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != domain.ReviewStatusApproved && req.Status != domain.ReviewStatusRejected {
		h.writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	updated, err := h.repo.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("failed to moderate review", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !updated {
		h.writeError(w, http.StatusNotFound, "review not found")
		return
	}

	h.logger.Info("review moderated", "review_id", id, "status", req.Status)
	h.writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

func (h *AdminHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
