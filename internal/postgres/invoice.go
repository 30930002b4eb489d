package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helsby/invoicer/internal/domain"
)

// InvoiceStore implements domain.InvoiceStore using PostgreSQL.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that InvoiceStore implements domain.InvoiceStore.
var _ domain.InvoiceStore = (*InvoiceStore)(nil)

// NewInvoiceStore creates a new PostgreSQL-backed invoice store.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{pool: pool}
}

const invoiceColumns = `id, reference, company_id, customer_id, order_batch_id, template_id,
	amount, currency, due_date, status, payment_intent_id, created_at, updated_at`

// CreateInvoice inserts a new invoice.
// Returns ECONFLICT when the reference collides with an existing invoice.
func (s *InvoiceStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (id, reference, company_id, customer_id, order_batch_id, template_id,
			amount, currency, due_date, status, payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+invoiceColumns,
		inv.ID, inv.Reference, inv.CompanyID, inv.CustomerID, inv.OrderBatchID, inv.TemplateID,
		inv.Amount, inv.Currency, inv.DueDate, inv.Status, inv.PaymentIntentID,
	)

	created, err := scanInvoice(row)
	if err != nil {
		if isUniqueViolation(err, "invoices_reference_key") {
			return nil, domain.Conflict("invoice.create", "invoice reference already exists")
		}
		return nil, domain.Internal(err, "invoice.create", "failed to create invoice")
	}
	return created, nil
}

// FindInvoice returns ENOTFOUND when the invoice does not exist.
func (s *InvoiceStore) FindInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1`,
		id,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("invoice.find", "invoice", id.String())
		}
		return nil, domain.Internal(err, "invoice.find", "failed to find invoice")
	}
	return inv, nil
}

// UpdateInvoiceStatus sets the status and returns the updated invoice.
func (s *InvoiceStore) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE invoices
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+invoiceColumns,
		id, status,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("invoice.update_status", "invoice", id.String())
		}
		return nil, domain.Internal(err, "invoice.update_status", "failed to update invoice status")
	}
	return inv, nil
}

// UpdateInvoicePaymentIntent records the payment collaborator's handle.
func (s *InvoiceStore) UpdateInvoicePaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices
		SET payment_intent_id = $2, updated_at = now()
		WHERE id = $1`,
		id, intentID,
	)
	if err != nil {
		return domain.Internal(err, "invoice.update_payment_intent", "failed to update payment intent")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("invoice.update_payment_intent", "invoice", id.String())
	}
	return nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(
		&inv.ID, &inv.Reference, &inv.CompanyID, &inv.CustomerID, &inv.OrderBatchID, &inv.TemplateID,
		&inv.Amount, &inv.Currency, &inv.DueDate, &inv.Status, &inv.PaymentIntentID,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
