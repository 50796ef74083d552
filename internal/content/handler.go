package content

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// Handler serves hero banners: the active set publicly, full CRUD for the
// back office.
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

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	banners, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list banners", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, banners)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	banners, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list banners", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, banners)
}

type bannerRequest struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	ImageURL  string `json:"image_url"`
	LinkURL   string `json:"link_url"`
	SortOrder int    `json:"sort_order"`
	Active    bool   `json:"active"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.ImageURL == "" {
		h.writeError(w, http.StatusBadRequest, "title and image_url are required")
		return
	}

	banner := &domain.HeroBanner{
		Title:     req.Title,
		Subtitle:  req.Subtitle,
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		SortOrder: req.SortOrder,
		Active:    req.Active,
	}
	if err := h.repo.Create(r.Context(), banner); err != nil {
		h.logger.Error("failed to create banner", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("banner created", "banner_id", banner.ID, "title", banner.Title)
	h.writeJSON(w, http.StatusCreated, banner)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req bannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	banner := &domain.HeroBanner{
		ID:        r.PathValue("id"),
		Title:     req.Title,
		Subtitle:  req.Subtitle,
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		SortOrder: req.SortOrder,
		Active:    req.Active,
	}
	updated, err := h.repo.Update(r.Context(), banner)
	if err != nil {
		h.logger.Error("failed to update banner", "error", err, "id", banner.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !updated {
		h.writeError(w, http.StatusNotFound, "banner not found")
		return
	}

	h.writeJSON(w, http.StatusOK, banner)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repo.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to delete banner", "error", err, "id", r.PathValue("id"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "banner not found")
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
