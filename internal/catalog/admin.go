package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

// AdminHandler serves product, variant and image management for the back
// office.
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

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *AdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", r.PathValue("id"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type productRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Published   bool   `json:"published"`
}

func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		h.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	product := &domain.Product{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Published:   req.Published,
	}
	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "title", product.Title)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.repo.UpdateProduct(r.Context(), &domain.Product{
		ID:          r.PathValue("id"),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Published:   req.Published,
	})
	if err != nil {
		h.logger.Error("failed to update product", "error", err, "id", r.PathValue("id"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repo.DeleteProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to delete product", "error", err, "id", r.PathValue("id"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product deleted", "product_id", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type variantRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	Position int    `json:"position"`
}

func (h *AdminHandler) HandleCreateVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "variant needs a name and a non-negative price")
		return
	}

	variant := &domain.Variant{
		ProductID: r.PathValue("id"),
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
		Position:  req.Position,
	}
	if err := h.repo.CreateVariant(r.Context(), variant); err != nil {
		h.logger.Error("failed to create variant", "error", err, "product_id", variant.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, variant)
}

func (h *AdminHandler) HandleUpdateVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	variant := &domain.Variant{
		ID:       r.PathValue("variantId"),
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Position: req.Position,
	}
	updated, err := h.repo.UpdateVariant(r.Context(), variant)
	if err != nil {
		h.logger.Error("failed to update variant", "error", err, "id", variant.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !updated {
		h.writeError(w, http.StatusNotFound, "variant not found")
		return
	}

	h.writeJSON(w, http.StatusOK, variant)
}

func (h *AdminHandler) HandleDeleteVariant(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repo.DeleteVariant(r.Context(), r.PathValue("variantId"))
	if err != nil {
		h.logger.Error("failed to delete variant", "error", err, "id", r.PathValue("variantId"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "variant not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type imageRequest struct {
	URL      string `json:"url"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
	Primary  bool   `json:"primary"`
}

func (h *AdminHandler) HandleCreateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		h.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	image := &domain.ProductImage{
		ProductID: r.PathValue("id"),
		URL:       req.URL,
		Alt:       req.Alt,
		Position:  req.Position,
		Primary:   req.Primary,
	}
	if err := h.repo.CreateImage(r.Context(), image); err != nil {
		h.logger.Error("failed to create image", "error", err, "product_id", image.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, image)
}

func (h *AdminHandler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repo.DeleteImage(r.Context(), r.PathValue("imageId"))
	if err != nil {
		h.logger.Error("failed to delete image", "error", err, "id", r.PathValue("imageId"))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, "image not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
