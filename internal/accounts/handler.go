package accounts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type Handler struct {
	repo   *ProfileRepository
	logger *slog.Logger
}

func NewHandler(repo *ProfileRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	profile, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get profile", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Locale    string `json:"locale"`
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.repo.Update(r.Context(), &domain.Profile{
		ID:        userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Locale:    req.Locale,
	})
	if err != nil {
		h.logger.Error("failed to update profile", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	h.logger.Info("profile updated", "user_id", userID)
	h.writeJSON(w, http.StatusOK, profile)
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
