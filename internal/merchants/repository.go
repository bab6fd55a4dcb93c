package merchants

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackpay/gateway/internal/models"
)

const merchantColumns = `id, email, password_hash, api_key, api_secret,
	COALESCE(webhook_url, ''), COALESCE(webhook_secret, ''), created_at`

// Repository handles merchant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a merchants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a merchant.
func (r *Repository) Create(ctx context.Context, m *models.Merchant) error {
	const q = `INSERT INTO merchants (id, email, password_hash, api_key, api_secret, webhook_secret)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, m.ID, m.Email, m.PasswordHash, m.APIKey, m.APISecret, m.WebhookSecret).
		Scan(&m.CreatedAt)
}

// GetByID returns a merchant by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Merchant, error) {
	return r.getOne(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id)
}

// GetByEmail returns a merchant by email, or nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	return r.getOne(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE email = $1`, email)
}

// GetByAPICredentials resolves a merchant from API key + secret, or nil
// when the pair does not match.
func (r *Repository) GetByAPICredentials(ctx context.Context, apiKey, apiSecret string) (*models.Merchant, error) {
	return r.getOne(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE api_key = $1 AND api_secret = $2`,
		apiKey, apiSecret)
}

// UpdateWebhookURL sets the merchant's webhook endpoint.
func (r *Repository) UpdateWebhookURL(ctx context.Context, merchantID, url string) error {
	_, err := r.pool.Exec(ctx, `UPDATE merchants SET webhook_url = $1 WHERE id = $2`, url, merchantID)
	return err
}

func (r *Repository) getOne(ctx context.Context, q string, args ...any) (*models.Merchant, error) {
	var m models.Merchant
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&m.ID, &m.Email, &m.PasswordHash, &m.APIKey, &m.APISecret,
		&m.WebhookURL, &m.WebhookSecret, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
