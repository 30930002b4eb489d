package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helsby/invoicer/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a new PostgreSQL-backed order store.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// FindOrderLinesByBatch returns all lines for a batch in insertion order.
func (s *OrderStore) FindOrderLinesByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.OrderLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, batch_id, customer_id, company_id, product_name, quantity,
			unit_price, total_price, status, notes, created_at, updated_at
		FROM order_lines
		WHERE batch_id = $1
		ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, domain.Internal(err, "order.find_by_batch", "failed to query order lines")
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.BatchID, &line.CustomerID, &line.CompanyID, &line.ProductName, &line.Quantity,
			&line.UnitPrice, &line.TotalPrice, &line.Status, &line.Notes, &line.CreatedAt, &line.UpdatedAt,
		); err != nil {
			return nil, domain.Internal(err, "order.find_by_batch", "failed to scan order line")
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "order.find_by_batch", "failed to read order lines")
	}

	return lines, nil
}

// FindCustomer returns ENOTFOUND when the customer does not exist.
func (s *OrderStore) FindCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var c domain.Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone,
			address_line1, address_line2, address_line3, city, county, postcode, country,
			created_at, updated_at
		FROM customers
		WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.AddressLine1, &c.AddressLine2, &c.AddressLine3, &c.City, &c.County, &c.Postcode, &c.Country,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("order.find_customer", "customer", id.String())
		}
		return nil, domain.Internal(err, "order.find_customer", "failed to find customer")
	}
	return &c, nil
}

// UpdateOrderStatusByBatch transitions every line in the batch.
func (s *OrderStore) UpdateOrderStatusByBatch(ctx context.Context, batchID uuid.UUID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE order_lines
		SET status = $2, updated_at = now()
		WHERE batch_id = $1`,
		batchID, status,
	)
	if err != nil {
		return domain.Internal(err, "order.update_status_by_batch", "failed to update order status")
	}
	return nil
}
