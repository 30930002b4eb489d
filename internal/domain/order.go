package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one raw order record belonging to a batch. Immutable once read.
// TotalPrice is quantity * unit price rounded to 2dp, but source rows may carry
// it pre-computed and are trusted as-is; discrepancies are not reconciled.
type OrderLine struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	CustomerID  uuid.UUID
	CompanyID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Status      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Customer is the billed party on an invoice.
type Customer struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	Phone        string // optional
	AddressLine1 string
	AddressLine2 string // optional
	AddressLine3 string // optional
	City         string
	County       string // optional
	Postcode     string
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// OrderStore reads order lines and their customers from the ordering database.
type OrderStore interface {
	// FindOrderLinesByBatch returns all lines for a batch in insertion order.
	// An empty result is not an error at this layer; the aggregator decides.
	FindOrderLinesByBatch(ctx context.Context, batchID uuid.UUID) ([]OrderLine, error)

	// FindCustomer returns ENOTFOUND when the customer does not exist.
	FindCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)

	// UpdateOrderStatusByBatch transitions every line in the batch.
	UpdateOrderStatusByBatch(ctx context.Context, batchID uuid.UUID, status string) error
}
