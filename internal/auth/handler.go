package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/merchants"
	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/response"
	"github.com/stackpay/gateway/pkg/utils"
)

// Handler handles merchant dashboard auth endpoints.
type Handler struct {
	repo   *merchants.Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *merchants.Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/register. Creates a merchant with freshly
// generated API credentials and a webhook signing secret.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "email and password (min 8 chars) required")
		return
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("lookup merchant failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if existing != nil {
		response.Conflict(c, response.CodeBadRequest, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "Server Error")
		return
	}

	m := &models.Merchant{
		ID:            utils.GenerateID("mrch_"),
		Email:         req.Email,
		PasswordHash:  hash,
		APIKey:        "key_" + utils.GenerateSecret(12),
		APISecret:     "secret_" + utils.GenerateSecret(16),
		WebhookSecret: "whsec_" + utils.GenerateSecret(16),
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("create merchant failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}

	token, err := h.jwt.Generate(m.ID, m.Email)
	if err != nil {
		response.Internal(c, "Server Error")
		return
	}
	response.Created(c, gin.H{
		"token":          token,
		"merchant_id":    m.ID,
		"api_key":        m.APIKey,
		"api_secret":     m.APISecret,
		"webhook_secret": m.WebhookSecret,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "email and password required")
		return
	}

	m, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("lookup merchant failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if m == nil || !utils.CheckPassword(req.Password, m.PasswordHash) {
		response.Unauthorized(c, "Invalid credentials")
		return
	}

	token, err := h.jwt.Generate(m.ID, m.Email)
	if err != nil {
		response.Internal(c, "Server Error")
		return
	}
	response.OK(c, gin.H{
		"token":       token,
		"merchant_id": m.ID,
		"api_key":     m.APIKey,
	})
}
