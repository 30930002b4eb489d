package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helsby/invoicer/internal/domain"
)

// TemplateStore implements domain.TemplateStore using PostgreSQL.
type TemplateStore struct {
	pool *pgxpool.Pool
}

var _ domain.TemplateStore = (*TemplateStore)(nil)

// NewTemplateStore creates a new PostgreSQL-backed template store.
func NewTemplateStore(pool *pgxpool.Pool) *TemplateStore {
	return &TemplateStore{pool: pool}
}

const templateColumns = `id, name, html, css, company_id, is_default, credential, created_at, updated_at`

// FindTemplate returns ENOTFOUND when the template does not exist.
func (s *TemplateStore) FindTemplate(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE id = $1`,
		id,
	)

	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("template.find", "template", id.String())
		}
		return nil, domain.Internal(err, "template.find", "failed to find template")
	}
	return tpl, nil
}

// FindDefaultTemplate returns the company's default template.
// Returns ENOTFOUND when the company has no default.
func (s *TemplateStore) FindDefaultTemplate(ctx context.Context, companyID uuid.UUID) (*domain.Template, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE company_id = $1 AND is_default = true`,
		companyID,
	)

	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("template.find_default", "default template for company", companyID.String())
		}
		return nil, domain.Internal(err, "template.find_default", "failed to find default template")
	}
	return tpl, nil
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var tpl domain.Template
	err := row.Scan(
		&tpl.ID, &tpl.Name, &tpl.HTML, &tpl.CSS, &tpl.CompanyID, &tpl.IsDefault, &tpl.Credential,
		&tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}
