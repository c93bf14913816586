package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/model"
)

// SiteContent is the slice of the content store the HTTP layer needs.
type SiteContent interface {
	GetContent(ctx context.Context, key string) (model.ContentEntry, error)
	ListContent(ctx context.Context) ([]model.ContentEntry, error)
	SetContent(ctx context.Context, entry model.ContentEntry) error
	ListCategories(ctx context.Context) ([]model.PortfolioCategory, error)
	UpsertCategory(ctx context.Context, c model.PortfolioCategory) error
	DeleteCategory(ctx context.Context, id string) error
	ListImages(ctx context.Context, categoryID string) ([]model.PortfolioImage, error)
	UpsertImage(ctx context.Context, img model.PortfolioImage) error
	DeleteImage(ctx context.Context, id string) error
}

// ContentHandler serves the editable site copy, the service catalog, and the
// portfolio gallery. Public routes are read-only; writes live under /admin.
type ContentHandler struct {
	content SiteContent
	catalog ServiceCatalog
	logger  *slog.Logger
}

func NewContentHandler(content SiteContent, catalog ServiceCatalog, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, catalog: catalog, logger: logger}
}

type serviceItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Price       string `json:"price"`
}

type contentItem struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type categoryItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image,omitempty"`
}

type imageItem struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	ImageURL    string `json:"image_url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Role        string `json:"role,omitempty"`
	Year        string `json:"year,omitempty"`
}

// Services serves GET /api/v1/public/services.
func (h *ContentHandler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceItem(s))
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminServices serves POST (upsert) and DELETE on /api/v1/admin/services.
func (h *ContentHandler) AdminServices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost, http.MethodPut:
		var req serviceItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Duration = strings.TrimSpace(req.Duration)
		if req.Name == "" || req.Duration == "" {
			http.Error(w, "name and duration required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			req.ID = uuid.NewString()
		}
		if err := h.catalog.UpsertService(r.Context(), model.Service(req)); err != nil {
			http.Error(w, "failed to save service", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.catalog.DeleteService(r.Context(), id); err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				http.Error(w, "service not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to delete service", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Content serves GET /api/v1/public/content. With a key parameter it returns
// one entry; without it, all of them.
func (h *ContentHandler) Content(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		entry, err := h.content.GetContent(r.Context(), key)
		if err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				http.Error(w, "content key not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to load content", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, contentItem{Key: entry.Key, Value: entry.Value})
		return
	}

	entries, err := h.content.ListContent(r.Context())
	if err != nil {
		http.Error(w, "failed to load content", http.StatusInternalServerError)
		return
	}
	items := make([]contentItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, contentItem{Key: e.Key, Value: e.Value})
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminContent serves PUT /api/v1/admin/content. The value is stored as
// opaque JSON; it only has to parse.
func (h *ContentHandler) AdminContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req contentItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" || len(req.Value) == 0 || !json.Valid(req.Value) {
		http.Error(w, "key and a valid json value required", http.StatusBadRequest)
		return
	}
	if err := h.content.SetContent(r.Context(), model.ContentEntry{Key: req.Key, Value: req.Value}); err != nil {
		http.Error(w, "failed to save content", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Categories serves GET /api/v1/public/portfolio/categories.
func (h *ContentHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cats, err := h.content.ListCategories(r.Context())
	if err != nil {
		http.Error(w, "failed to list categories", http.StatusInternalServerError)
		return
	}
	items := make([]categoryItem, 0, len(cats))
	for _, c := range cats {
		items = append(items, categoryItem(c))
	}
	writeJSON(w, http.StatusOK, items)
}

// Images serves GET /api/v1/public/portfolio/images, optionally narrowed by
// category_id.
func (h *ContentHandler) Images(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	categoryID := strings.TrimSpace(r.URL.Query().Get("category_id"))
	images, err := h.content.ListImages(r.Context(), categoryID)
	if err != nil {
		http.Error(w, "failed to list images", http.StatusInternalServerError)
		return
	}
	items := make([]imageItem, 0, len(images))
	for _, img := range images {
		items = append(items, imageItem(img))
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminCategories serves POST (upsert) and DELETE on
// /api/v1/admin/portfolio/categories. Deleting a category removes its images.
func (h *ContentHandler) AdminCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost, http.MethodPut:
		var req categoryItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			req.ID = uuid.NewString()
		}
		if err := h.content.UpsertCategory(r.Context(), model.PortfolioCategory(req)); err != nil {
			http.Error(w, "failed to save category", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.content.DeleteCategory(r.Context(), id); err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				http.Error(w, "category not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to delete category", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// AdminImages serves POST (upsert) and DELETE on
// /api/v1/admin/portfolio/images.
func (h *ContentHandler) AdminImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req imageItem
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.ImageURL = strings.TrimSpace(req.ImageURL)
		req.CategoryID = strings.TrimSpace(req.CategoryID)
		if req.ImageURL == "" || req.CategoryID == "" {
			http.Error(w, "image_url and category_id required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ID) == "" {
			req.ID = uuid.NewString()
		}
		if err := h.content.UpsertImage(r.Context(), model.PortfolioImage(req)); err != nil {
			http.Error(w, "failed to save image", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, req)
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if err := h.content.DeleteImage(r.Context(), id); err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				http.Error(w, "image not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to delete image", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
