// Package main runs the background job workers (payment processing,
// refund processing, webhook delivery).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stackpay/gateway/config"
	"github.com/stackpay/gateway/internal/merchants"
	"github.com/stackpay/gateway/internal/payments"
	"github.com/stackpay/gateway/internal/refunds"
	"github.com/stackpay/gateway/internal/webhooks"
	"github.com/stackpay/gateway/internal/worker"
	"github.com/stackpay/gateway/pkg/database"
	"github.com/stackpay/gateway/pkg/queue"
	"github.com/stackpay/gateway/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	paymentRepo := payments.NewRepository(pool)
	refundRepo := refunds.NewRepository(pool)
	merchantRepo := merchants.NewRepository(pool)
	webhookRepo := webhooks.NewRepository(pool)
	broker := queue.NewQueue(rdb.Client, logger)

	var outcome worker.OutcomeDecider = worker.RandomOutcome{}
	var paymentDelay worker.DelaySource = worker.RandomDelay{Min: 5 * time.Second, Max: 10 * time.Second}
	if cfg.Processing.TestMode {
		outcome = worker.FixedOutcome{Success: cfg.Processing.TestPaymentSuccess}
		paymentDelay = worker.FixedDelay{D: time.Duration(cfg.Processing.TestDelayMS) * time.Millisecond}
	}
	refundDelay := worker.FixedDelay{D: time.Duration(cfg.Processing.RefundDelayMS) * time.Millisecond}
	schedule := worker.ProductionRetrySchedule
	if cfg.Processing.WebhookRetryIntervalsTest {
		schedule = worker.TestRetrySchedule
	}

	paymentProcessor := worker.NewPaymentProcessor(paymentRepo, broker, outcome, paymentDelay, logger)
	refundProcessor := worker.NewRefundProcessor(refundRepo, broker, refundDelay, logger)
	webhookProcessor := worker.NewWebhookProcessor(merchantRepo, webhookRepo, broker, schedule, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go broker.Consume(workerCtx, queue.QueuePayment, cfg.Worker.PaymentConcurrency, paymentProcessor.Process)
	go broker.Consume(workerCtx, queue.QueueRefund, cfg.Worker.RefundConcurrency, refundProcessor.Process)
	go broker.Consume(workerCtx, queue.QueueWebhook, cfg.Worker.WebhookConcurrency, webhookProcessor.Process)
	logger.Info("worker started",
		zap.Bool("test_mode", cfg.Processing.TestMode),
		zap.Int("payment_concurrency", cfg.Worker.PaymentConcurrency),
		zap.Int("webhook_concurrency", cfg.Worker.WebhookConcurrency),
		zap.Int("refund_concurrency", cfg.Worker.RefundConcurrency))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
