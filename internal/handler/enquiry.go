package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/sgprime/sgprime/internal/mailer"
	"github.com/sgprime/sgprime/internal/model"
	"github.com/sgprime/sgprime/internal/store"
)

// mailTimeout bounds the background notification send so a slow relay
// cannot pile up goroutines.
const mailTimeout = 30 * time.Second

// EnquiryHandler serves the public contact form submission and the admin
// enquiry triage endpoints.
type EnquiryHandler struct {
	store  *store.Store
	mailer mailer.Mailer
	logger *slog.Logger
}

// NewEnquiryHandler creates an EnquiryHandler.
func NewEnquiryHandler(s *store.Store, m mailer.Mailer, logger *slog.Logger) *EnquiryHandler {
	return &EnquiryHandler{store: s, mailer: m, logger: logger}
}

type enquiryRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	ProductID *int64 `json:"product_id"`
}

// Submit handles POST /api/enquiry. The enquiry is persisted first; the
// email notification is sent in the background and never fails the request.
func (h *EnquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req enquiryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Name, email, and message are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}

	e := &model.Enquiry{
		Name:    req.Name,
		Email:   req.Email,
		Company: strings.TrimSpace(req.Company),
		Phone:   strings.TrimSpace(req.Phone),
		Message: req.Message,
	}

	var productName string
	if req.ProductID != nil {
		name, err := h.store.GetProductName(r.Context(), *req.ProductID)
		switch {
		case err == nil:
			e.ProductID = req.ProductID
			productName = name
		case errors.Is(err, store.ErrNotFound):
			// A stale product reference should not block the enquiry.
		default:
			h.logger.Error("product lookup failed", "id", *req.ProductID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	if err := h.store.CreateEnquiry(r.Context(), e); err != nil {
		h.logger.Error("create enquiry failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.notify(mailer.Notification{
		EnquiryID:   e.ID,
		Name:        e.Name,
		Email:       e.Email,
		Company:     e.Company,
		Phone:       e.Phone,
		ProductName: productName,
		Message:     e.Message,
	})

	writeJSON(w, http.StatusCreated, model.APIResponse{
		Success: true,
		Message: "Thank you for your enquiry. We will get back to you shortly.",
		Data:    map[string]int64{"id": e.ID},
	})
}

// notify dispatches the notification email without holding up the response.
func (h *EnquiryHandler) notify(n mailer.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := h.mailer.SendEnquiryNotification(ctx, n); err != nil {
			h.logger.Error("enquiry notification failed", "enquiry_id", n.EnquiryID, "error", err)
		}
	}()
}

// List handles GET /api/admin/enquiries with an optional ?status= filter.
func (h *EnquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	status := queryString(r, "status")
	if status != "" && !model.ValidEnquiryStatus(status) {
		writeError(w, http.StatusBadRequest, invalidStatusMessage())
		return
	}

	enquiries, err := h.store.ListEnquiries(r.Context(), status)
	if err != nil {
		h.logger.Error("list enquiries failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeList(w, enquiries, len(enquiries))
}

// Get handles GET /api/admin/enquiries/{id}.
func (h *EnquiryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	e, err := h.store.GetEnquiry(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Enquiry not found")
			return
		}
		h.logger.Error("get enquiry failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeData(w, http.StatusOK, e)
}

type enquiryStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateStatus handles PATCH /api/admin/enquiries/{id}.
func (h *EnquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	var req enquiryStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidEnquiryStatus(req.Status) {
		writeError(w, http.StatusBadRequest, invalidStatusMessage())
		return
	}

	if err := h.store.UpdateEnquiryStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Enquiry not found")
			return
		}
		h.logger.Error("update enquiry failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeMessage(w, http.StatusOK, "Enquiry updated")
}

// Delete handles DELETE /api/admin/enquiries/{id}.
func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteEnquiry(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Enquiry not found")
			return
		}
		h.logger.Error("delete enquiry failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeMessage(w, http.StatusOK, "Enquiry deleted")
}

func invalidStatusMessage() string {
	return fmt.Sprintf("Status must be one of: %s", strings.Join(model.EnquiryStatuses, ", "))
}
