package webhooks

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/utils"
)

const logColumns = `id, merchant_id, event, payload, status, attempts, response_code, last_attempt_at, created_at`

// Repository handles webhook delivery log persistence. One row is
// appended per delivery attempt.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webhooks repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AppendAttempt inserts a pending log row for one delivery attempt and
// returns its id.
func (r *Repository) AppendAttempt(ctx context.Context, merchantID, event string, payload json.RawMessage, attempt int) (string, error) {
	id := utils.GenerateID("whl_")
	_, err := r.pool.Exec(ctx,
		`INSERT INTO webhook_logs (id, merchant_id, event, payload, status, attempts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, merchantID, event, payload, models.WebhookLogStatusPending, attempt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// MarkResult finalizes an attempt's log row with success or failed and
// the HTTP response code observed (0 for transport errors).
func (r *Repository) MarkResult(ctx context.Context, id, status string, responseCode int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE webhook_logs SET status = $1, response_code = $2, last_attempt_at = NOW() WHERE id = $3`,
		status, responseCode, id)
	return err
}

// GetByIDForMerchant returns a log row owned by the merchant, or nil.
func (r *Repository) GetByIDForMerchant(ctx context.Context, id, merchantID string) (*models.WebhookLog, error) {
	var l models.WebhookLog
	err := r.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM webhook_logs WHERE id = $1 AND merchant_id = $2`,
		id, merchantID).Scan(
		&l.ID, &l.MerchantID, &l.Event, &l.Payload, &l.Status, &l.Attempts,
		&l.ResponseCode, &l.LastAttemptAt, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByMerchant returns a page of the merchant's log rows, newest first,
// with the total row count.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.WebhookLog, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+logColumns+` FROM webhook_logs WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		merchantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []models.WebhookLog
	for rows.Next() {
		var l models.WebhookLog
		if err := rows.Scan(
			&l.ID, &l.MerchantID, &l.Event, &l.Payload, &l.Status, &l.Attempts,
			&l.ResponseCode, &l.LastAttemptAt, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM webhook_logs WHERE merchant_id = $1`, merchantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ResetForRetry returns a log row to pending with zeroed attempts ahead
// of a manual redelivery.
func (r *Repository) ResetForRetry(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE webhook_logs SET status = $1, attempts = 0 WHERE id = $2`,
		models.WebhookLogStatusPending, id)
	return err
}
