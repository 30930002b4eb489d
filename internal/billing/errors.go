package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v83"
)

var (
	// ErrInvalidAPIKey is returned when the Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrPaymentIntentNotFound is returned when a payment intent does not exist.
	ErrPaymentIntentNotFound = errors.New("billing: payment intent not found")

	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrAmountTooSmall is returned when the invoice amount is below Stripe's minimum.
	ErrAmountTooSmall = errors.New("billing: amount below Stripe minimum charge")
)

// StripeError wraps a Stripe API error with additional context.
type StripeError struct {
	Message       string // Human-readable error message
	Code          string // Stripe error code (e.g., "card_declined")
	DeclineCode   string // Card decline reason (if applicable)
	RequestID     string // Stripe request ID for debugging
	OriginalError error  // Original error from Stripe SDK
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// IsDeclined returns true if error is due to card decline.
func (e *StripeError) IsDeclined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

// IsTemporary returns true if error is likely transient and retryable.
func (e *StripeError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error"
}

// wrapStripeError converts an SDK error into a StripeError, mapping the
// well-known cases onto package sentinels.
func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &StripeError{Message: err.Error(), OriginalError: err}
	}

	switch stripeErr.Code {
	case stripe.ErrorCodeResourceMissing:
		return fmt.Errorf("%w: %s", ErrPaymentIntentNotFound, stripeErr.Msg)
	case stripe.ErrorCodeAmountTooSmall:
		return fmt.Errorf("%w: %s", ErrAmountTooSmall, stripeErr.Msg)
	}

	wrapped := &StripeError{
		Message:       stripeErr.Msg,
		Code:          string(stripeErr.Code),
		RequestID:     stripeErr.RequestID,
		OriginalError: err,
	}
	if stripeErr.DeclineCode != "" {
		wrapped.DeclineCode = string(stripeErr.DeclineCode)
	}
	return wrapped
}
