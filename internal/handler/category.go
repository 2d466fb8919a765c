package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/store"
)

// CategoryHandler serves the public category listing and the admin category
// CRUD endpoints.
type CategoryHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(s *store.Store, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{store: s, logger: logger}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeList(w, cats, len(cats))
}

// GetBySlug handles GET /api/categories/{slug}.
func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	cat, err := h.store.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.logger.Error("get category failed", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, http.StatusOK, cat)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// slugify derives a URL slug from a category name: lowercase, spaces to
// hyphens, everything else but letters and digits dropped.
func slugify(name string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// Create handles POST /api/admin/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}
	if req.Slug == "" {
		req.Slug = slugify(req.Name)
	}

	cat := &model.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        req.Slug,
		Description: req.Description,
	}
	if err := h.store.CreateCategory(r.Context(), cat); err != nil {
		if isDuplicate(err) {
			writeError(w, http.StatusConflict, "A category with this slug already exists")
			return
		}
		h.logger.Error("create category failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, http.StatusCreated, cat)
}

// Update handles PUT /api/admin/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	cat, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.logger.Error("get category failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	cat.Name = strings.TrimSpace(req.Name)
	if req.Slug != "" {
		cat.Slug = req.Slug
	}
	cat.Description = req.Description

	if err := h.store.UpdateCategory(r.Context(), cat); err != nil {
		if isDuplicate(err) {
			writeError(w, http.StatusConflict, "A category with this slug already exists")
			return
		}
		h.logger.Error("update category failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, http.StatusOK, cat)
}

// Delete handles DELETE /api/admin/categories/{id}. Categories that still
// have products attached cannot be deleted.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteCategory(r.Context(), id)
	var inUse *store.CategoryInUseError
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Category deleted")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Category not found")
	case errors.As(err, &inUse):
		writeError(w, http.StatusConflict, inUse.Error())
	default:
		h.logger.Error("delete category failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// isDuplicate reports whether err looks like a unique constraint violation.
// Matched on message text because each driver wraps the condition in its
// own error type.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
