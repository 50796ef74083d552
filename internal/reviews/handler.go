package reviews

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
	"github.com/hannalindberg/atelje-backend/internal/domain"
)

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
	list, err := h.repo.ListApproved(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "product_id", r.PathValue("id"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

type createReviewRequest struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// HandleCreate accepts a review into the moderation queue. Ratings outside
// 1..5 are rejected before any write.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.AuthorName == "" || req.Body == "" {
		h.writeError(w, http.StatusBadRequest, "author name and body are required")
		return
	}

	var userID *string
	if uid, ok := accounts.UserIDFromContext(r.Context()); ok {
		userID = &uid
	}

	review := &domain.Review{
		ProductID:  r.PathValue("id"),
		UserID:     userID,
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Title:      req.Title,
		Body:       req.Body,
	}
	if err := h.repo.Create(r.Context(), review); err != nil {
		h.logger.Error("failed to create review", "error", err, "product_id", review.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("review submitted", "review_id", review.ID, "product_id", review.ProductID, "rating", review.Rating)
	h.writeJSON(w, http.StatusCreated, review)
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
