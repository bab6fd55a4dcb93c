package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextIdempotencyKey is the key for the request's Idempotency-Key
// header value, set only when no stored response was replayed.
const ContextIdempotencyKey = "idempotency_key"

// ReplayStore looks up stored responses for idempotent requests.
// Implemented by idempotency.Repository.
type ReplayStore interface {
	Lookup(ctx context.Context, key, merchantID string) (json.RawMessage, error)
}

// Idempotency returns a middleware that short-circuits requests carrying
// an Idempotency-Key already mapped to a stored response: the original
// body is replayed with 201 and no side effects run. Requests without
// the header bypass the guard entirely. Guard errors fail open: the
// request proceeds as if no key were present.
func Idempotency(store ReplayStore, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		merchant := MerchantFrom(c)
		stored, err := store.Lookup(c.Request.Context(), key, merchant.ID)
		if err != nil {
			logger.Error("idempotency lookup failed", zap.Error(err), zap.String("merchant_id", merchant.ID))
			c.Next()
			return
		}
		if stored != nil {
			c.Data(http.StatusCreated, "application/json", stored)
			c.Abort()
			return
		}

		c.Set(ContextIdempotencyKey, key)
		c.Next()
	}
}

// IdempotencyKeyFrom returns the pending idempotency key for the request,
// or "" when the guard was bypassed or replayed.
func IdempotencyKeyFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextIdempotencyKey); ok {
		return v.(string)
	}
	return ""
}
