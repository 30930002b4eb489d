package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Company is the issuing merchant on an invoice, including the banking details
// printed on the document.
type Company struct {
	ID            uuid.UUID
	Name          string
	Email         string
	Phone         string
	Website       string // optional
	AddressLine1  string
	AddressLine2  string // optional
	City          string
	County        string // optional
	Postcode      string
	BankName      string // optional
	AccountName   string // optional
	AccountNumber string // optional
	SortCode      string // optional
	IBAN          string // optional
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CompanyStore resolves companies.
type CompanyStore interface {
	// FindCompany returns ENOTFOUND when the company does not exist.
	FindCompany(ctx context.Context, id uuid.UUID) (*Company, error)
}
