package orders

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stackpay/gateway/internal/middleware"
	"github.com/stackpay/gateway/internal/models"
	"github.com/stackpay/gateway/pkg/response"
	"github.com/stackpay/gateway/pkg/utils"
)

// Handler handles order HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an orders handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Notes    string `json:"notes"`
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(c *gin.Context) {
	merchant := middleware.MerchantFrom(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid request body")
		return
	}
	if req.Amount < models.MinOrderAmount {
		response.BadRequest(c, response.CodeBadRequest, "amount must be at least 100")
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	o := &models.Order{
		ID:         utils.GenerateID("order_"),
		MerchantID: merchant.ID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Receipt:    req.Receipt,
		Notes:      req.Notes,
		Status:     models.OrderStatusCreated,
	}
	if err := h.repo.Create(c.Request.Context(), o); err != nil {
		h.logger.Error("create order failed", zap.Error(err), zap.String("merchant_id", merchant.ID))
		response.Internal(c, "Server Error")
		return
	}
	response.Created(c, o)
}

// GetPublic handles GET /api/v1/orders/:id/public. Unauthenticated view
// for the hosted checkout page.
func (h *Handler) GetPublic(c *gin.Context) {
	o, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("load order failed", zap.Error(err))
		response.Internal(c, "Server Error")
		return
	}
	if o == nil {
		response.NotFound(c, "Order not found")
		return
	}
	response.OK(c, models.PublicOrder{ID: o.ID, Amount: o.Amount, Currency: o.Currency, Status: o.Status})
}
