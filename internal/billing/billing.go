package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a single invoice.
	// Returns payment intent with client_secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent.
	// Used by the payment page to display current status.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// CancelPaymentIntent cancels a payment intent that hasn't been confirmed.
	// Used when an invoice is voided before payment.
	CancelPaymentIntent(ctx context.Context, paymentIntentID string) error

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	// Required to process async payment confirmations.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// InvoiceID links the intent back to the invoice (stored in metadata)
	InvoiceID uuid.UUID

	// CompanyID identifies the merchant the payment settles to (stored in
	// metadata)
	CompanyID uuid.UUID

	// AmountMinorUnits is the amount in smallest currency unit (pence for GBP)
	AmountMinorUnits int64

	// Currency code (ISO 4217) - e.g., "gbp", "usd"
	Currency string

	// Description appears on the customer's statement and in the dashboard
	Description string

	// ReceiptEmail is where the provider sends the payment receipt
	ReceiptEmail string

	// Metadata for filtering and reporting (always include invoice_reference)
	Metadata map[string]string

	// SuccessURL and CancelURL are where the hosted payment page returns the
	// customer after payment
	SuccessURL string
	CancelURL  string

	// IdempotencyKey prevents duplicate payment intents.
	// Typically the invoice reference.
	IdempotencyKey string
}

// PaymentIntent represents a payment intent.
type PaymentIntent struct {
	// ID is the provider's payment intent ID (pi_...)
	ID string

	// ClientSecret is used by the payment page to confirm payment
	ClientSecret string

	// AmountMinorUnits is the amount in smallest currency unit
	AmountMinorUnits int64

	// Currency code
	Currency string

	// Status: requires_payment_method, requires_confirmation, succeeded, etc.
	Status string

	// Metadata passed during creation
	Metadata map[string]string

	// CreatedAt is when the payment intent was created
	CreatedAt time.Time

	// LastPaymentError contains details if payment failed
	LastPaymentError *PaymentError
}

// PaymentError contains details about a failed payment attempt.
type PaymentError struct {
	Code        string // Provider error code
	Message     string // Human-readable message
	DeclineCode string // Reason card was declined (if applicable)
}
