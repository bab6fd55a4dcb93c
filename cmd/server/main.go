// Package main runs the payment gateway HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stackpay/gateway/config"
	"github.com/stackpay/gateway/internal/auth"
	"github.com/stackpay/gateway/internal/idempotency"
	"github.com/stackpay/gateway/internal/merchants"
	"github.com/stackpay/gateway/internal/middleware"
	"github.com/stackpay/gateway/internal/orders"
	"github.com/stackpay/gateway/internal/payments"
	"github.com/stackpay/gateway/internal/refunds"
	"github.com/stackpay/gateway/internal/webhooks"
	"github.com/stackpay/gateway/pkg/database"
	"github.com/stackpay/gateway/pkg/queue"
	"github.com/stackpay/gateway/pkg/redis"
	"github.com/stackpay/gateway/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	broker := queue.NewQueue(rdb.Client, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	merchantRepo := merchants.NewRepository(pool)
	orderRepo := orders.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	refundRepo := refunds.NewRepository(pool)
	webhookRepo := webhooks.NewRepository(pool)
	idemRepo := idempotency.NewRepository(pool)

	authHandler := auth.NewHandler(merchantRepo, jwtService, logger)
	merchantHandler := merchants.NewHandler(merchantRepo, logger)
	orderHandler := orders.NewHandler(orderRepo, logger)
	paymentHandler := payments.NewHandler(paymentRepo, orderRepo, idemRepo, broker, logger)
	refundHandler := refunds.NewHandler(refundRepo, broker, logger)
	webhookHandler := webhooks.NewHandler(webhookRepo, broker, logger)

	validateToken := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.MerchantID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.OK(c, gin.H{"status": "unhealthy", "database": "disconnected"})
			return
		}
		response.OK(c, gin.H{"status": "healthy", "database": "connected"})
	})

	// Dashboard auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public checkout surface (no merchant credentials)
	public := router.Group("/api/v1")
	{
		public.GET("/orders/:id/public", orderHandler.GetPublic)
		public.POST("/payments/public", paymentHandler.CreatePublic)
		public.GET("/payments/:id/public", paymentHandler.GetPublic)
	}

	// Test surface for integration tooling
	test := router.Group("/api/v1/test")
	{
		test.GET("/merchant", merchantHandler.GetTestMerchant)
		test.GET("/jobs/status", jobsStatus(broker, logger))
	}

	// Merchant API (API key or dashboard session)
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(merchantRepo, validateToken, logger))
	{
		api.POST("/orders", orderHandler.Create)
		api.POST("/payments", middleware.Idempotency(idemRepo, logger), paymentHandler.Create)
		api.GET("/payments", paymentHandler.List)
		api.POST("/payments/:id/capture", paymentHandler.Capture)
		api.POST("/payments/:id/refunds", refundHandler.Create)
		api.GET("/refunds/:id", refundHandler.Get)
		api.GET("/webhooks", webhookHandler.List)
		api.POST("/webhooks/:id/retry", webhookHandler.Retry)
		api.POST("/merchants/webhook-config", merchantHandler.ConfigureWebhook)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// jobsStatus aggregates broker counts across the three queues.
func jobsStatus(broker queue.Broker, logger *zap.Logger) gin.HandlerFunc {
	queues := []string{queue.QueuePayment, queue.QueueWebhook, queue.QueueRefund}
	return func(c *gin.Context) {
		var pending, processing, completed, failed int64
		for _, name := range queues {
			counts, err := broker.Counts(c.Request.Context(), name)
			if err != nil {
				logger.Error("queue counts failed", zap.Error(err), zap.String("queue", name))
				response.Internal(c, "Server Error")
				return
			}
			pending += counts.Waiting + counts.Delayed
			processing += counts.Active
			completed += counts.Completed
			failed += counts.Failed
		}
		response.OK(c, gin.H{
			"pending":       pending,
			"processing":    processing,
			"completed":     completed,
			"failed":        failed,
			"worker_status": "running",
		})
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
