package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// AdminHandler serves the back-office order endpoints: listing, detail with
// the event log, status transitions, tracking and internal notes.
type AdminHandler struct {
	repo   *OrderRepository
	engine *Engine
	logger *slog.Logger
}

func NewAdminHandler(repo *OrderRepository, engine *Engine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		repo:   repo,
		engine: engine,
		logger: logger,
	}
}

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", r.PathValue("id"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type transitionRequest struct {
	Status         domain.OrderStatus `json:"status"`
	TrackingNumber string             `json:"tracking_number,omitempty"`
	TrackingURL    string             `json:"tracking_url,omitempty"`
}

func (h *AdminHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.engine.Transition(r.Context(), id, TransitionRequest{
		Target:         req.Status,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
	})
	if err != nil {
		var invalid *InvalidTransitionError
		switch {
		case errors.Is(err, ErrOrderNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &invalid):
			h.writeError(w, http.StatusConflict, invalid.Error())
		case errors.Is(err, ErrTrackingRequired):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("failed to transition order", "error", err, "id", id, "status", req.Status)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}

func (h *AdminHandler) HandleSaveTracking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TrackingNumber == "" {
		h.writeError(w, http.StatusBadRequest, "tracking_number is required")
		return
	}

	order, err := h.repo.SaveTracking(r.Context(), id, Tracking{Number: req.TrackingNumber, URL: req.TrackingURL})
	if err != nil {
		h.logger.Error("failed to save tracking", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("tracking saved", "order_id", id, "tracking_number", req.TrackingNumber)
	h.writeJSON(w, http.StatusOK, order)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *AdminHandler) HandleSaveNotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.repo.SaveNotes(r.Context(), id, req.Notes)
	if err != nil {
		h.logger.Error("failed to save notes", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
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
