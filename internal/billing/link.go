package billing

import (
	"strings"

	"github.com/google/uuid"
)

// LinkBuilder builds hosted payment page URLs for invoices.
// The payment frontend serves a page at <base>/pay/<invoice-id> which
// confirms the invoice's payment intent via the provider's JS SDK.
type LinkBuilder struct {
	baseURL string
}

// NewLinkBuilder creates a LinkBuilder for the given payment frontend base URL.
func NewLinkBuilder(baseURL string) *LinkBuilder {
	return &LinkBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// PaymentLink returns the hosted payment page URL for an invoice.
func (b *LinkBuilder) PaymentLink(invoiceID uuid.UUID) string {
	return b.baseURL + "/pay/" + invoiceID.String()
}
