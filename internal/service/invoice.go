// Package service orchestrates invoice composition: aggregating order
// batches, persisting invoices, requesting payment intents, rendering
// documents and dispatching them by email.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helsby/invoicer/internal/billing"
	"github.com/helsby/invoicer/internal/domain"
	"github.com/helsby/invoicer/internal/email"
	"github.com/helsby/invoicer/internal/markup"
	"github.com/helsby/invoicer/internal/order"
	"github.com/helsby/invoicer/internal/pdf"
)

// referenceAttempts bounds how many times Create retries reference
// generation when the unique index reports a collision.
const referenceAttempts = 3

// orderStatusAwaitingPayment is the order-line status set when an invoice is sent.
const orderStatusAwaitingPayment = "awaiting_payment"

// CreateInvoiceParams are the inputs for creating an invoice from a batch.
// Company and customer are derived from the batch's order lines.
type CreateInvoiceParams struct {
	OrderBatchID uuid.UUID
	TemplateID   *uuid.UUID // nil selects the company default
	Currency     string
	DueDate      time.Time
}

// InvoiceService coordinates the stores, the substitution engine, the
// document renderer and the payment and email collaborators.
type InvoiceService struct {
	invoices  domain.InvoiceStore
	templates domain.TemplateStore
	orders    domain.OrderStore
	companies domain.CompanyStore

	engine   *markup.Engine
	renderer *pdf.Renderer
	payments billing.Provider
	links    *billing.LinkBuilder
	sender   email.Sender

	frontendURL string
	logger      zerolog.Logger
}

// Deps bundles the collaborators for NewInvoiceService.
type Deps struct {
	Invoices  domain.InvoiceStore
	Templates domain.TemplateStore
	Orders    domain.OrderStore
	Companies domain.CompanyStore

	Engine   *markup.Engine
	Renderer *pdf.Renderer
	Payments billing.Provider
	Links    *billing.LinkBuilder
	Sender   email.Sender

	// FrontendURL is the base for the customer-facing invoice view link
	// included in notification emails.
	FrontendURL string
	Logger      zerolog.Logger
}

// NewInvoiceService creates a new invoice orchestrator.
func NewInvoiceService(deps Deps) *InvoiceService {
	return &InvoiceService{
		invoices:    deps.Invoices,
		templates:   deps.Templates,
		orders:      deps.Orders,
		companies:   deps.Companies,
		engine:      deps.Engine,
		renderer:    deps.Renderer,
		payments:    deps.Payments,
		links:       deps.Links,
		sender:      deps.Sender,
		frontendURL: deps.FrontendURL,
		logger:      deps.Logger,
	}
}

// Create builds an invoice from an order batch: aggregates the batch,
// resolves the template, persists a draft invoice under a fresh reference,
// requests a payment intent and sends a best-effort notification email.
//
// A payment intent failure is surfaced (the draft invoice remains persisted);
// a notification failure is logged and swallowed.
func (s *InvoiceService) Create(ctx context.Context, params CreateInvoiceParams) (*domain.Invoice, error) {
	if params.OrderBatchID == uuid.Nil {
		return nil, ErrMissingBatchID
	}
	if params.Currency == "" {
		return nil, ErrMissingCurrency
	}
	if params.DueDate.IsZero() {
		return nil, ErrMissingDueDate
	}

	lines, err := s.orders.FindOrderLinesByBatch(ctx, params.OrderBatchID)
	if err != nil {
		return nil, err
	}

	summary, err := order.Aggregate(lines)
	if err != nil {
		return nil, err
	}
	companyID := lines[0].CompanyID
	customerID := lines[0].CustomerID

	tpl, err := s.resolveTemplate(ctx, params.TemplateID, companyID)
	if err != nil {
		return nil, err
	}

	inv, err := s.createWithReference(ctx, &domain.Invoice{
		ID:           uuid.New(),
		CompanyID:    companyID,
		CustomerID:   customerID,
		OrderBatchID: params.OrderBatchID,
		TemplateID:   tpl.ID,
		Amount:       summary.Total,
		Currency:     params.Currency,
		DueDate:      params.DueDate,
		Status:       domain.InvoiceStatusDraft,
	})
	if err != nil {
		return nil, err
	}

	viewURL := fmt.Sprintf("%s/invoices/%s", s.frontendURL, inv.ID)
	intent, err := s.payments.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		InvoiceID:        inv.ID,
		CompanyID:        inv.CompanyID,
		AmountMinorUnits: inv.Amount.Shift(2).IntPart(),
		Currency:         inv.Currency,
		Description:      fmt.Sprintf("Invoice %s", inv.Reference),
		Metadata:         map[string]string{"invoice_reference": inv.Reference},
		SuccessURL:       viewURL + "?payment=success",
		CancelURL:        viewURL + "?payment=cancelled",
		IdempotencyKey:   inv.Reference,
	})
	if err != nil {
		return nil, domain.Upstream(err, "invoice.create", "failed to create payment intent")
	}
	if err := s.invoices.UpdateInvoicePaymentIntent(ctx, inv.ID, intent.ID); err != nil {
		return nil, err
	}
	inv.PaymentIntentID = intent.ID

	// Notification failure must not fail invoice creation.
	if err := s.notifyCreated(ctx, inv); err != nil {
		s.logger.Warn().Err(err).
			Str("invoice_id", inv.ID.String()).
			Str("reference", inv.Reference).
			Msg("invoice created but notification email failed")
	}

	return inv, nil
}

// createWithReference inserts the invoice under a freshly generated
// reference, regenerating on a unique-index collision.
func (s *InvoiceService) createWithReference(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	var lastErr error
	for i := 0; i < referenceAttempts; i++ {
		inv.Reference = domain.NewReference()
		created, err := s.invoices.CreateInvoice(ctx, inv)
		if err == nil {
			return created, nil
		}
		if !domain.IsCode(err, domain.ECONFLICT) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn().Str("reference", inv.Reference).Int("attempt", i+1).
			Msg("invoice reference collision, regenerating")
	}
	return nil, domain.WrapError(lastErr, domain.ECONFLICT, "invoice.create", "could not allocate a unique invoice reference")
}

// Send dispatches an invoice to its customer: transitions the invoice to
// awaiting_payment along with the batch's order lines, renders the PDF
// and emails it as an attachment.
//
// Status is mutated before rendering and sending; a failure after that point
// is surfaced but not rolled back.
func (s *InvoiceService) Send(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.FindInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, tpl, err := s.buildContext(ctx, inv)
	if err != nil {
		return nil, err
	}

	inv, err = s.invoices.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusAwaitingPayment)
	if err != nil {
		return nil, err
	}
	rc.Invoice = inv
	if err := s.orders.UpdateOrderStatusByBatch(ctx, inv.OrderBatchID, orderStatusAwaitingPayment); err != nil {
		return nil, err
	}

	doc, err := s.engine.Render(tpl, rc, markup.ModePlain)
	if err != nil {
		return nil, err
	}
	pdfBytes, err := s.renderer.Render(ctx, func(ctx context.Context) (string, error) {
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	msg := &email.Email{
		To:           []string{rc.Customer.Email},
		Subject:      fmt.Sprintf("Invoice %s from %s", inv.Reference, rc.Company.Name),
		HTMLBody:     s.notificationBody(rc),
		CredentialID: tpl.Credential,
		Attachments: []email.Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", inv.ID),
			ContentType: "application/pdf",
			Content:     pdfBytes,
		}},
	}
	if _, err := s.sender.Send(ctx, msg); err != nil {
		return nil, domain.Upstream(err, "invoice.send", "failed to send invoice email")
	}

	s.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("reference", inv.Reference).
		Str("to", rc.Customer.Email).
		Msg("invoice sent")

	return inv, nil
}

// RenderHTML returns the resolved markup for browser viewing.
func (s *InvoiceService) RenderHTML(ctx context.Context, id uuid.UUID, mode markup.Mode) (string, error) {
	inv, err := s.invoices.FindInvoice(ctx, id)
	if err != nil {
		return "", err
	}
	rc, tpl, err := s.buildContext(ctx, inv)
	if err != nil {
		return "", err
	}
	return s.engine.Render(tpl, rc, mode)
}

// GeneratePDF returns the invoice document as PDF bytes. The renderer
// re-resolves the invoice on each attempt, so an invoice that is still being
// written becomes visible within the retry window.
func (s *InvoiceService) GeneratePDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.renderer.Render(ctx, func(ctx context.Context) (string, error) {
		return s.RenderHTML(ctx, id, markup.ModePlain)
	})
}

// PaymentLink returns the hosted payment page URL for an invoice.
func (s *InvoiceService) PaymentLink(ctx context.Context, id uuid.UUID) (string, error) {
	inv, err := s.invoices.FindInvoice(ctx, id)
	if err != nil {
		return "", err
	}
	return s.links.PaymentLink(inv.ID), nil
}

// Get returns an invoice by ID.
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.invoices.FindInvoice(ctx, id)
}

// CompletePayment marks an invoice paid after the payment collaborator
// reports a successful charge. The reported intent must match the one
// recorded at creation; a mismatch is rejected rather than trusted.
func (s *InvoiceService) CompletePayment(ctx context.Context, id uuid.UUID, intentID string) (*domain.Invoice, error) {
	inv, err := s.invoices.FindInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if intentID == "" || inv.PaymentIntentID != intentID {
		return nil, domain.Invalid("invoice.complete_payment", "payment intent does not match invoice")
	}
	if inv.Status == domain.InvoiceStatusPaid {
		return inv, nil
	}

	inv, err = s.invoices.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("reference", inv.Reference).
		Str("payment_intent_id", intentID).
		Msg("invoice paid")

	return inv, nil
}

// VoidInvoice marks an invoice void after its payment intent is canceled.
func (s *InvoiceService) VoidInvoice(ctx context.Context, id uuid.UUID, intentID string) (*domain.Invoice, error) {
	inv, err := s.invoices.FindInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if intentID == "" || inv.PaymentIntentID != intentID {
		return nil, domain.Invalid("invoice.void", "payment intent does not match invoice")
	}
	if inv.Status == domain.InvoiceStatusVoid {
		return inv, nil
	}

	inv, err = s.invoices.UpdateInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusVoid)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("reference", inv.Reference).
		Msg("invoice voided")

	return inv, nil
}

// buildContext loads the company, customer and batch summary for an invoice
// and resolves its template.
func (s *InvoiceService) buildContext(ctx context.Context, inv *domain.Invoice) (*domain.RenderingContext, *domain.Template, error) {
	company, err := s.companies.FindCompany(ctx, inv.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	customer, err := s.orders.FindCustomer(ctx, inv.CustomerID)
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.orders.FindOrderLinesByBatch(ctx, inv.OrderBatchID)
	if err != nil {
		return nil, nil, err
	}
	summary, err := order.Aggregate(lines)
	if err != nil {
		return nil, nil, err
	}

	var tpl *domain.Template
	if inv.TemplateID != uuid.Nil {
		tpl, err = s.templates.FindTemplate(ctx, inv.TemplateID)
	} else {
		tpl, err = s.templates.FindDefaultTemplate(ctx, inv.CompanyID)
	}
	if err != nil {
		return nil, nil, err
	}

	return &domain.RenderingContext{
		Company:  company,
		Customer: customer,
		Invoice:  inv,
		Summary:  summary,
	}, tpl, nil
}

func (s *InvoiceService) resolveTemplate(ctx context.Context, id *uuid.UUID, companyID uuid.UUID) (*domain.Template, error) {
	if id != nil && *id != uuid.Nil {
		return s.templates.FindTemplate(ctx, *id)
	}
	return s.templates.FindDefaultTemplate(ctx, companyID)
}

// notifyCreated sends the create-time notification email with a view link
// and the rendered PDF attached.
func (s *InvoiceService) notifyCreated(ctx context.Context, inv *domain.Invoice) error {
	rc, tpl, err := s.buildContext(ctx, inv)
	if err != nil {
		return err
	}

	doc, err := s.engine.Render(tpl, rc, markup.ModePlain)
	if err != nil {
		return err
	}
	pdfBytes, err := s.renderer.Render(ctx, func(ctx context.Context) (string, error) {
		return doc, nil
	})
	if err != nil {
		return err
	}

	msg := &email.Email{
		To:           []string{rc.Customer.Email},
		Subject:      fmt.Sprintf("Invoice %s from %s", inv.Reference, rc.Company.Name),
		HTMLBody:     s.notificationBody(rc),
		CredentialID: tpl.Credential,
		Attachments: []email.Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", inv.ID),
			ContentType: "application/pdf",
			Content:     pdfBytes,
		}},
	}
	_, err = s.sender.Send(ctx, msg)
	return err
}

// notificationBody is the fixed email body accompanying an invoice.
func (s *InvoiceService) notificationBody(rc *domain.RenderingContext) string {
	viewURL := fmt.Sprintf("%s/invoices/%s", s.frontendURL, rc.Invoice.ID)
	return fmt.Sprintf(`<h1>Invoice from %s</h1>
<p>Dear %s,</p>
<p>Please find attached your invoice %s.</p>
<p>You can view your invoice online using the following link:</p>
<p><a href="%s">View Invoice</a></p>
<p>If you have any questions, please don't hesitate to contact us.</p>
<p>Best regards,<br>%s</p>`,
		rc.Company.Name, rc.Customer.FullName(), rc.Invoice.Reference, viewURL, rc.Company.Name)
}
