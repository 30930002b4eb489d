package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/helsby/invoicer/internal/domain"
	"github.com/helsby/invoicer/internal/markup"
	"github.com/helsby/invoicer/internal/middleware"
	"github.com/helsby/invoicer/internal/router"
	"github.com/helsby/invoicer/internal/service"
)

// InvoiceService is the subset of the invoice service the HTTP layer uses
type InvoiceService interface {
	Create(ctx context.Context, params service.CreateInvoiceParams) (*domain.Invoice, error)
	Send(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	RenderHTML(ctx context.Context, id uuid.UUID, mode markup.Mode) (string, error)
	GeneratePDF(ctx context.Context, id uuid.UUID) ([]byte, error)
	PaymentLink(ctx context.Context, id uuid.UUID) (string, error)
}

// InvoiceHandler exposes invoice operations over HTTP
type InvoiceHandler struct {
	service InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// RegisterRoutes registers the invoice API routes
func (h *InvoiceHandler) RegisterRoutes(r *router.Router) {
	r.Post("/api/invoices", h.Create)
	r.Get("/api/invoices/{id}", h.Get)
	r.Post("/api/invoices/{id}/send", h.Send)
	r.Get("/api/invoices/{id}/html", h.HTML)
	r.Get("/api/invoices/{id}/pdf", h.PDF)
	r.Get("/api/invoices/{id}/payment-link", h.PaymentLink)
}

type createInvoiceRequest struct {
	OrderBatchID string  `json:"order_batch_id"`
	TemplateID   *string `json:"template_id,omitempty"`
	Currency     string  `json:"currency"`
	DueDate      string  `json:"due_date"`
}

type invoiceResponse struct {
	ID              string `json:"id"`
	Reference       string `json:"reference"`
	CompanyID       string `json:"company_id"`
	CustomerID      string `json:"customer_id"`
	OrderBatchID    string `json:"order_batch_id"`
	TemplateID      string `json:"template_id,omitempty"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	DueDate         string `json:"due_date"`
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func newInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:              inv.ID.String(),
		Reference:       inv.Reference,
		CompanyID:       inv.CompanyID.String(),
		CustomerID:      inv.CustomerID.String(),
		OrderBatchID:    inv.OrderBatchID.String(),
		Amount:          inv.Amount.StringFixed(2),
		Currency:        inv.Currency,
		DueDate:         inv.DueDate.Format("2006-01-02"),
		Status:          string(inv.Status),
		PaymentIntentID: inv.PaymentIntentID,
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       inv.UpdatedAt.Format(time.RFC3339),
	}
	if inv.TemplateID != uuid.Nil {
		resp.TemplateID = inv.TemplateID.String()
	}
	return resp
}

// Create handles POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("invoice.create", "invalid JSON body"))
		return
	}

	batchID, err := uuid.Parse(req.OrderBatchID)
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("invoice.create", "order_batch_id must be a UUID"))
		return
	}

	params := service.CreateInvoiceParams{
		OrderBatchID: batchID,
		Currency:     req.Currency,
	}

	if req.TemplateID != nil {
		templateID, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			ErrorResponse(w, r, domain.Invalid("invoice.create", "template_id must be a UUID"))
			return
		}
		params.TemplateID = &templateID
	}

	if req.DueDate != "" {
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			ErrorResponse(w, r, domain.Invalid("invoice.create", "due_date must be an ISO 8601 date"))
			return
		}
		params.DueDate = dueDate
	}

	inv, err := h.service.Create(r.Context(), params)
	if err != nil {
		middleware.GetLogger(r.Context()).Error().Err(err).Str("order_batch_id", req.OrderBatchID).Msg("invoice creation failed")
		ErrorResponse(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newInvoiceResponse(inv))
}

// Get handles GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newInvoiceResponse(inv))
}

// Send handles POST /api/invoices/{id}/send
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.Send(r.Context(), id)
	if err != nil {
		middleware.GetLogger(r.Context()).Error().Err(err).Str("invoice_id", id.String()).Msg("invoice send failed")
		ErrorResponse(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newInvoiceResponse(inv))
}

// HTML handles GET /api/invoices/{id}/html and returns the interactive
// browser rendition of the invoice.
func (h *InvoiceHandler) HTML(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	html, err := h.service.RenderHTML(r.Context(), id, markup.ModeInteractive)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// PDF handles GET /api/invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	pdf, err := h.service.GeneratePDF(r.Context(), id)
	if err != nil {
		middleware.GetLogger(r.Context()).Error().Err(err).Str("invoice_id", id.String()).Msg("pdf generation failed")
		ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice-"+id.String()+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// PaymentLink handles GET /api/invoices/{id}/payment-link
func (h *InvoiceHandler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	url, err := h.service.PaymentLink(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// invoiceID parses the {id} path value, writing a 400 on failure
func (h *InvoiceHandler) invoiceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, domain.Invalid("invoice.get", "invoice id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// parseDate accepts an ISO 8601 date, with or without a time component
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
