package refunds

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpay/gateway/internal/models"
)

// Refund creation failures the handler maps to client errors.
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrExceedsRefundable    = errors.New("refund amount exceeds available amount")
)

const refundColumns = `id, payment_id, merchant_id, amount, COALESCE(reason, ''), status, processed_at, created_at`

// Repository handles refund persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a refunds repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateChecked inserts a pending refund after verifying, under a row
// lock on the payment, that the running refund total stays within the
// payment amount. The lock serializes concurrent refund requests against
// the same payment so two cannot jointly over-refund.
func (r *Repository) CreateChecked(ctx context.Context, ref *models.Refund) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var paymentAmount int64
	var paymentStatus string
	err = tx.QueryRow(ctx,
		`SELECT amount, status FROM payments WHERE id = $1 AND merchant_id = $2 FOR UPDATE`,
		ref.PaymentID, ref.MerchantID).Scan(&paymentAmount, &paymentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return err
	}
	if paymentStatus != models.PaymentStatusSuccess {
		return ErrPaymentNotSuccessful
	}

	var refunded int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id = $1`,
		ref.PaymentID).Scan(&refunded); err != nil {
		return err
	}
	if ref.Amount+refunded > paymentAmount {
		return ErrExceedsRefundable
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO refunds (id, payment_id, merchant_id, amount, reason, status)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		 RETURNING created_at`,
		ref.ID, ref.PaymentID, ref.MerchantID, ref.Amount, ref.Reason, ref.Status).
		Scan(&ref.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns a refund by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Refund, error) {
	return r.getOne(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id)
}

// GetByIDForMerchant returns a refund owned by the merchant, or nil.
func (r *Repository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.Refund, error) {
	return r.getOne(ctx,
		`SELECT `+refundColumns+` FROM refunds WHERE id = $1 AND merchant_id = $2`,
		id, merchantID)
}

// MarkProcessed moves a refund from pending to processed. Returns false
// when the refund was not pending, so job redelivery cannot re-apply.
func (r *Repository) MarkProcessed(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refunds SET status = $1, processed_at = NOW() WHERE id = $2 AND status = $3`,
		models.RefundStatusProcessed, id, models.RefundStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) getOne(ctx context.Context, q string, args ...any) (*models.Refund, error) {
	var ref models.Refund
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&ref.ID, &ref.PaymentID, &ref.MerchantID, &ref.Amount, &ref.Reason,
		&ref.Status, &ref.ProcessedAt, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
