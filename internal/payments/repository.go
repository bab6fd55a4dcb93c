package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpay/gateway/internal/models"
)

const paymentColumns = `id, order_id, merchant_id, amount, currency, method, status,
	COALESCE(vpa, ''), COALESCE(card_network, ''), COALESCE(card_last4, ''),
	captured, COALESCE(error_code, ''), COALESCE(error_description, ''), created_at, updated_at`

// Repository handles payment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending payment.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO payments (id, order_id, merchant_id, amount, currency, method, status, vpa, card_network, card_last4)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		p.ID, p.OrderID, p.MerchantID, p.Amount, p.Currency, p.Method, p.Status,
		p.VPA, p.CardNetwork, p.CardLast4).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a payment by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetByIDForMerchant returns a payment owned by the merchant, or nil.
func (r *Repository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.Payment, error) {
	return r.getOne(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND merchant_id = $2`,
		id, merchantID)
}

// ListByMerchant returns the merchant's payments, newest first.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID string) ([]models.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC`,
		merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// TransitionFromPending moves a payment from pending to a terminal
// status. Returns false when the payment was not pending, which makes
// job redelivery harmless.
func (r *Repository) TransitionFromPending(ctx context.Context, id, status, errorCode, errorDescription string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $1, error_code = NULLIF($2, ''), error_description = NULLIF($3, ''), updated_at = NOW()
		 WHERE id = $4 AND status = $5`,
		status, errorCode, errorDescription, id, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Capture marks a successful, uncaptured payment as captured. Returns
// the updated payment, or nil when it was not in a capturable state.
func (r *Repository) Capture(ctx context.Context, id, merchantID string) (*models.Payment, error) {
	const q = `UPDATE payments SET captured = TRUE, updated_at = NOW()
		WHERE id = $1 AND merchant_id = $2 AND status = $3 AND captured = FALSE
		RETURNING ` + paymentColumns
	var p models.Payment
	err := scanPayment(r.pool.QueryRow(ctx, q, id, merchantID, models.PaymentStatusSuccess), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) getOne(ctx context.Context, q string, args ...any) (*models.Payment, error) {
	var p models.Payment
	err := scanPayment(r.pool.QueryRow(ctx, q, args...), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPayment(row pgx.Row, p *models.Payment) error {
	return row.Scan(
		&p.ID, &p.OrderID, &p.MerchantID, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.VPA, &p.CardNetwork, &p.CardLast4,
		&p.Captured, &p.ErrorCode, &p.ErrorDescription, &p.CreatedAt, &p.UpdatedAt)
}
