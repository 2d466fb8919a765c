package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/store"
	"github.com/sgprime/sgprime/internal/upload"
)

// maxProductForm bounds the in-memory portion of multipart product forms.
const maxProductForm = 8 << 20

// ProductHandler serves the public catalog endpoints and the admin product
// CRUD endpoints. Create and update accept multipart forms so an image can
// ride along with the fields.
type ProductHandler struct {
	store  *store.Store
	saver  *upload.Saver
	logger *slog.Logger
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(s *store.Store, saver *upload.Saver, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{store: s, saver: saver, logger: logger}
}

// List handles GET /api/products. Supported filters: ?category=<slug>,
// ?featured=true, and ?status=<active|inactive|all>. The status filter is
// only honored for authenticated admins; public callers always get active
// products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// AdminList handles GET /api/admin/products with the status filter enabled.
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, admin bool) {
	filter := store.ProductFilter{
		CategorySlug: queryString(r, "category"),
		FeaturedOnly: queryBool(r, "featured"),
	}
	if admin {
		status := queryString(r, "status")
		if status != "" && status != "all" && !model.ValidProductStatus(status) {
			writeError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = status
	}

	products, err := h.store.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeList(w, products, len(products))
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("get product failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, http.StatusOK, p)
}

// Create handles POST /api/admin/products as a multipart form. Recognized
// fields: name, category_id, description, specs (JSON object), is_featured,
// display_order, status, and an optional image file.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProductForm); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	p := &model.Product{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
		Status:      model.ProductStatusActive,
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "Product name is required")
		return
	}

	categoryID, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		writeError(w, http.StatusBadRequest, "A valid category_id is required")
		return
	}
	p.CategoryID = categoryID

	if _, err := h.store.GetCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Category does not exist")
			return
		}
		h.logger.Error("category lookup failed", "id", categoryID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !h.applyOptionalFields(w, r, p) {
		return
	}

	imageURL, ok := h.saveImage(w, r, "")
	if !ok {
		return
	}
	p.ImageURL = imageURL

	if err := h.store.CreateProduct(r.Context(), p); err != nil {
		h.logger.Error("create product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, http.StatusCreated, p)
}

// Update handles PUT /api/admin/products/{id} as a multipart form. Only the
// fields present in the form are changed; a new image replaces and removes
// the old one.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("get product failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := r.ParseMultipartForm(maxProductForm); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	if r.Form.Has("name") {
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "Product name cannot be empty")
			return
		}
		p.Name = name
	}
	if r.Form.Has("category_id") {
		categoryID, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
		if err != nil || categoryID <= 0 {
			writeError(w, http.StatusBadRequest, "A valid category_id is required")
			return
		}
		if _, err := h.store.GetCategory(r.Context(), categoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "Category does not exist")
				return
			}
			h.logger.Error("category lookup failed", "id", categoryID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		p.CategoryID = categoryID
	}
	if r.Form.Has("description") {
		p.Description = r.FormValue("description")
	}
	if !h.applyOptionalFields(w, r, p) {
		return
	}

	oldImage := p.ImageURL
	imageURL, ok := h.saveImage(w, r, p.ImageURL)
	if !ok {
		return
	}
	p.ImageURL = imageURL

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		h.logger.Error("update product failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Remove the replaced file only after the row is saved.
	if oldImage != "" && oldImage != p.ImageURL {
		if err := h.saver.Remove(oldImage); err != nil {
			h.logger.Warn("failed to remove replaced image", "path", oldImage, "error", err)
		}
	}

	writeData(w, http.StatusOK, p)
}

// applyOptionalFields reads the form fields shared by create and update.
// Returns false after writing an error response.
func (h *ProductHandler) applyOptionalFields(w http.ResponseWriter, r *http.Request, p *model.Product) bool {
	if r.Form.Has("specs") {
		raw := r.FormValue("specs")
		if raw == "" {
			p.Specs = map[string]string{}
		} else {
			var specs map[string]string
			if err := json.Unmarshal([]byte(raw), &specs); err != nil {
				writeError(w, http.StatusBadRequest, "Specs must be a JSON object of strings")
				return false
			}
			p.Specs = specs
		}
	}
	if r.Form.Has("is_featured") {
		v := r.FormValue("is_featured")
		p.IsFeatured = v == "true" || v == "1"
	}
	if r.Form.Has("display_order") {
		order, err := strconv.Atoi(r.FormValue("display_order"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "display_order must be a number")
			return false
		}
		p.DisplayOrder = order
	}
	if r.Form.Has("status") {
		status := r.FormValue("status")
		if !model.ValidProductStatus(status) {
			writeError(w, http.StatusBadRequest, "Status must be active or inactive")
			return false
		}
		p.Status = status
	}
	return true
}

// saveImage stores the uploaded image file if one is present, returning the
// new URL or current as a fallback. Returns ok=false after writing an error
// response.
func (h *ProductHandler) saveImage(w http.ResponseWriter, r *http.Request, current string) (string, bool) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return current, true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image upload")
		return "", false
	}
	defer file.Close()

	url, err := h.saver.SaveProductImage(file, header.Filename)
	if err != nil {
		var unsupported *upload.UnsupportedTypeError
		switch {
		case errors.As(err, &unsupported):
			writeError(w, http.StatusBadRequest, unsupported.Error())
		case errors.Is(err, upload.ErrTooLarge):
			writeError(w, http.StatusBadRequest, "Image exceeds the maximum upload size")
		default:
			h.logger.Error("image upload failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return "", false
	}
	return url, true
}

// Delete handles DELETE /api/admin/products/{id}. The product's image file
// is removed best effort after the row is gone.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("get product failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("delete product failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if p.ImageURL != "" {
		if err := h.saver.Remove(p.ImageURL); err != nil {
			h.logger.Warn("failed to remove product image", "path", p.ImageURL, "error", err)
		}
	}

	writeMessage(w, http.StatusOK, "Product deleted")
}
