// Package idempotency implements the replay guard for payment creation:
// a caller-supplied key, scoped per merchant, maps to the original
// response for 24 hours.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpay/gateway/internal/models"
)

// Repository handles idempotency key persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an idempotency repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lookup returns the stored response for (key, merchant) or nil when no
// unexpired record exists. Expired rows are purged opportunistically
// before the lookup.
func (r *Repository) Lookup(ctx context.Context, key, merchantID string) (json.RawMessage, error) {
	if _, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < NOW()`); err != nil {
		return nil, err
	}

	var resp json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT response FROM idempotency_keys WHERE key = $1 AND merchant_id = $2 AND expires_at >= NOW()`,
		key, merchantID).Scan(&resp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Store persists the response for (key, merchant) with the standard TTL.
// A concurrent duplicate insert loses silently; the first stored response
// wins, which is what replay requires.
func (r *Repository) Store(ctx context.Context, key, merchantID string, resp json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (key, merchant_id, response, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key, merchant_id) DO NOTHING`,
		key, merchantID, resp, time.Now().Add(models.IdempotencyTTL))
	return err
}
