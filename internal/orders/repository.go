package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpay/gateway/internal/models"
)

// Repository handles order persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an orders repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an order with status created.
func (r *Repository) Create(ctx context.Context, o *models.Order) error {
	const q = `INSERT INTO orders (id, merchant_id, amount, currency, receipt, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, o.ID, o.MerchantID, o.Amount, o.Currency, o.Receipt, o.Notes, o.Status).
		Scan(&o.CreatedAt)
}

// GetByID returns an order by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	const q = `SELECT id, merchant_id, amount, currency, COALESCE(receipt, ''), COALESCE(notes, ''), status, created_at
		FROM orders WHERE id = $1`
	var o models.Order
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&o.ID, &o.MerchantID, &o.Amount, &o.Currency, &o.Receipt, &o.Notes, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
