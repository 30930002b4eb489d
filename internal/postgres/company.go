package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helsby/invoicer/internal/domain"
)

// CompanyStore implements domain.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *pgxpool.Pool
}

var _ domain.CompanyStore = (*CompanyStore)(nil)

// NewCompanyStore creates a new PostgreSQL-backed company store.
func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

// FindCompany returns ENOTFOUND when the company does not exist.
func (s *CompanyStore) FindCompany(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var c domain.Company
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, website,
			address_line1, address_line2, city, county, postcode,
			bank_name, account_name, account_number, sort_code, iban,
			created_at, updated_at
		FROM companies
		WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Website,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.County, &c.Postcode,
		&c.BankName, &c.AccountName, &c.AccountNumber, &c.SortCode, &c.IBAN,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("company.find", "company", id.String())
		}
		return nil, domain.Internal(err, "company.find", "failed to find company")
	}
	return &c, nil
}
