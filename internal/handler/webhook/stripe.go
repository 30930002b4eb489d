package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"

	"github.com/helsby/invoicer/internal/billing"
	"github.com/helsby/invoicer/internal/domain"
	"github.com/helsby/invoicer/internal/handler"
)

// InvoicePaymentService applies payment outcomes to invoices
type InvoicePaymentService interface {
	CompletePayment(ctx context.Context, id uuid.UUID, intentID string) (*domain.Invoice, error)
	VoidInvoice(ctx context.Context, id uuid.UUID, intentID string) (*domain.Invoice, error)
}

// StripeHandler handles Stripe webhook events
type StripeHandler struct {
	provider billing.Provider
	invoices InvoicePaymentService
	secret   string
	logger   zerolog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(provider billing.Provider, invoices InvoicePaymentService, webhookSecret string, logger zerolog.Logger) *StripeHandler {
	return &StripeHandler{
		provider: provider,
		invoices: invoices,
		secret:   webhookSecret,
		logger:   logger,
	}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3002/webhooks/stripe
//	stripe trigger payment_intent.succeeded
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.secret); err != nil {
		h.logger.Warn().Err(err).Msg("webhook signature verification failed")
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid signature"))
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON"))
		return
	}

	h.logger.Info().
		Str("event_type", string(event.Type)).
		Str("event_id", event.ID).
		Msg("stripe webhook received")

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentIntentSucceeded(r.Context(), event)

	case "payment_intent.payment_failed":
		h.handlePaymentIntentFailed(event)

	case "payment_intent.canceled":
		h.handlePaymentIntentCanceled(r.Context(), event)

	default:
		h.logger.Debug().Str("event_type", string(event.Type)).Msg("unhandled event type")
	}

	// Always return 200 to acknowledge receipt.
	// Stripe will retry if we return an error.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

func (h *StripeHandler) handlePaymentIntentSucceeded(ctx context.Context, event stripe.Event) {
	pi, invoiceID, ok := h.paymentIntent(event)
	if !ok {
		return
	}

	inv, err := h.invoices.CompletePayment(ctx, invoiceID, pi.ID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("invoice_id", invoiceID.String()).
			Str("payment_intent_id", pi.ID).
			Msg("failed to mark invoice paid")
		return
	}

	h.logger.Info().
		Str("invoice_id", inv.ID.String()).
		Str("reference", inv.Reference).
		Int64("amount", pi.Amount).
		Msg("payment succeeded")
}

func (h *StripeHandler) handlePaymentIntentFailed(event stripe.Event) {
	pi, invoiceID, ok := h.paymentIntent(event)
	if !ok {
		return
	}

	// The invoice stays awaiting payment; the customer can retry through
	// the hosted payment page.
	log := h.logger.Warn().
		Str("invoice_id", invoiceID.String()).
		Str("payment_intent_id", pi.ID)
	if pi.LastPaymentError != nil {
		log = log.Str("decline_code", string(pi.LastPaymentError.DeclineCode))
	}
	log.Msg("payment failed")
}

func (h *StripeHandler) handlePaymentIntentCanceled(ctx context.Context, event stripe.Event) {
	pi, invoiceID, ok := h.paymentIntent(event)
	if !ok {
		return
	}

	if _, err := h.invoices.VoidInvoice(ctx, invoiceID, pi.ID); err != nil {
		h.logger.Error().Err(err).
			Str("invoice_id", invoiceID.String()).
			Str("payment_intent_id", pi.ID).
			Msg("failed to void invoice")
	}
}

// paymentIntent parses the event payload and extracts the invoice id the
// intent was created with. Events without our metadata belong to another
// system sharing the Stripe account and are skipped.
func (h *StripeHandler) paymentIntent(event stripe.Event) (*stripe.PaymentIntent, uuid.UUID, bool) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to parse payment intent")
		return nil, uuid.Nil, false
	}

	raw, ok := pi.Metadata["invoice_id"]
	if !ok {
		h.logger.Debug().Str("payment_intent_id", pi.ID).Msg("payment intent without invoice metadata")
		return nil, uuid.Nil, false
	}

	invoiceID, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Error().Str("payment_intent_id", pi.ID).Str("invoice_id", raw).Msg("malformed invoice id in metadata")
		return nil, uuid.Nil, false
	}

	return &pi, invoiceID, true
}
