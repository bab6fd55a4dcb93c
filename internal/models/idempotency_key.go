package models

import (
	"encoding/json"
	"time"
)

// IdempotencyTTL is how long a stored response replays for.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyKey maps a caller-supplied key, scoped to a merchant, to the
// response of the original request. Unique while unexpired.
type IdempotencyKey struct {
	Key        string          `json:"key"`
	MerchantID string          `json:"merchant_id"`
	Response   json.RawMessage `json:"response"`
	ExpiresAt  time.Time       `json:"expires_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
