package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
// Transitions are forward-only: draft -> awaiting_payment -> paid | void.
// The paid and void states are set by external payment collaborators.
type InvoiceStatus string

const (
	InvoiceStatusDraft           InvoiceStatus = "draft"
	InvoiceStatusAwaitingPayment InvoiceStatus = "awaiting_payment"
	InvoiceStatusPaid            InvoiceStatus = "paid"
	InvoiceStatusVoid            InvoiceStatus = "void"
)

// Invoice is a billing document issued for a batch of orders.
type Invoice struct {
	ID              uuid.UUID
	Reference       string // 8-char opaque code, unique per invoice
	CompanyID       uuid.UUID
	CustomerID      uuid.UUID
	OrderBatchID    uuid.UUID
	TemplateID      uuid.UUID
	Amount          decimal.Decimal
	Currency        string // ISO 4217 code, e.g. "GBP"
	DueDate         time.Time
	Status          InvoiceStatus
	PaymentIntentID string // opaque handle from the payment collaborator, may be empty
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Template is a merchant-owned markup document with placeholders.
// Exactly one template per company may be the default; that invariant is
// enforced upstream, not here.
type Template struct {
	ID         uuid.UUID
	Name       string
	HTML       string
	CSS        string
	CompanyID  uuid.UUID
	IsDefault  bool
	Credential string // email credential selector for this company's dispatch
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MergedLineItem is the deduplicated form of order lines sharing a product name.
// Quantity and TotalPrice are sums over the contributing lines; UnitPrice is
// the first occurrence's unit price, kept for display.
type MergedLineItem struct {
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// BatchSummary holds the aggregated totals for an order batch.
type BatchSummary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Items    []MergedLineItem
}

// RenderingContext carries everything the substitution engine needs to fill a
// template. Constructed per render request and discarded after use.
type RenderingContext struct {
	Company  *Company
	Customer *Customer
	Invoice  *Invoice
	Summary  *BatchSummary
}

// InvoiceStore persists invoices.
type InvoiceStore interface {
	// CreateInvoice inserts a new invoice. Returns ECONFLICT if the reference
	// collides with an existing one.
	CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)

	// FindInvoice returns ENOTFOUND when the invoice does not exist.
	FindInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// UpdateInvoiceStatus sets the status and returns the updated invoice.
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus) (*Invoice, error)

	// UpdateInvoicePaymentIntent records the payment collaborator's handle.
	UpdateInvoicePaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
}

// TemplateStore resolves invoice templates.
type TemplateStore interface {
	FindTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	FindDefaultTemplate(ctx context.Context, companyID uuid.UUID) (*Template, error)
}
