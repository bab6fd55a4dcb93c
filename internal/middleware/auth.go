package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/response"
)

// ContextMerchant is the key for the authenticated merchant in gin context.
const ContextMerchant = "merchant"

// CredentialResolver looks up merchants by API credentials or id.
// Implemented by merchants.Repository.
type CredentialResolver interface {
	GetByAPICredentials(ctx context.Context, apiKey, apiSecret string) (*models.Merchant, error)
	GetByID(ctx context.Context, id string) (*models.Merchant, error)
}

// TokenValidator validates a dashboard session token and returns the
// merchant id it was issued for.
type TokenValidator func(token string) (merchantID string, err error)

// Auth returns a middleware that authenticates a merchant either by
// X-Api-Key/X-Api-Secret headers or by a Bearer session token, and sets
// the merchant in context.
func Auth(resolver CredentialResolver, validateToken TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		apiKey := c.GetHeader("X-Api-Key")
		apiSecret := c.GetHeader("X-Api-Secret")
		if apiKey != "" {
			m, err := resolver.GetByAPICredentials(ctx, apiKey, apiSecret)
			if err != nil {
				logger.Error("credential lookup failed", zap.Error(err))
				response.Internal(c, "Authentication Error")
				c.Abort()
				return
			}
			if m == nil {
				response.Unauthorized(c, "Invalid API credentials")
				c.Abort()
				return
			}
			c.Set(ContextMerchant, m)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "Invalid API credentials")
			c.Abort()
			return
		}
		merchantID, err := validateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		m, err := resolver.GetByID(ctx, merchantID)
		if err != nil || m == nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextMerchant, m)
		c.Next()
	}
}

// MerchantFrom returns the authenticated merchant set by Auth.
func MerchantFrom(c *gin.Context) *models.Merchant {
	return c.MustGet(ContextMerchant).(*models.Merchant)
}
