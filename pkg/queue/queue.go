package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Queue names. One logical consumer group per queue.
const (
	QueuePayment = "payment"
	QueueWebhook = "webhook"
	QueueRefund  = "refund"
)

const (
	// MaxBrokerAttempts is the number of broker-level deliveries of a job
	// before it is moved to the dead-letter list. Domain-level retries
	// (webhook delivery) are explicit re-enqueues and do not count here.
	MaxBrokerAttempts = 3

	keyPrefix       = "queue:"
	blockTimeout    = 1 * time.Second
	promoteInterval = 1 * time.Second
	promoteBatch    = 100
)

// PaymentJobPayload references a pending payment to process.
type PaymentJobPayload struct {
	PaymentID string `json:"paymentId"`
}

// RefundJobPayload references a pending refund to process.
type RefundJobPayload struct {
	RefundID string `json:"refundId"`
}

// WebhookJobPayload carries one delivery attempt of a merchant webhook.
// Attempt is 1-based; Payload is the exact body to sign and POST.
type WebhookJobPayload struct {
	MerchantID string          `json:"merchantId"`
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
}

// Job is the envelope persisted in Redis.
type Job struct {
	ID        string          `json:"id"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Counts reports per-queue job tallies for observability.
type Counts struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Handler processes one job. A returned error triggers broker-level
// redelivery up to MaxBrokerAttempts, then the dead-letter list.
type Handler func(ctx context.Context, job *Job) error

// Broker is the enqueue-side contract injected into API handlers and
// workers. The Redis Queue implements it; tests substitute an in-memory
// fake.
type Broker interface {
	Enqueue(ctx context.Context, queue string, payload any) error
	EnqueueDelayed(ctx context.Context, queue string, payload any, delay time.Duration) error
	Counts(ctx context.Context, queue string) (Counts, error)
}

// Queue is a Redis-backed at-least-once job broker. Immediate jobs live
// on a list; delayed jobs wait in a sorted set scored by ready time and
// are promoted onto the list when due.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

func listKey(queue string) string    { return keyPrefix + queue }
func delayedKey(queue string) string { return keyPrefix + queue + ":delayed" }
func dlqKey(queue string) string     { return keyPrefix + queue + ":dlq" }
func statsKey(queue string) string   { return keyPrefix + queue + ":stats" }

// Enqueue persists a job and makes it immediately visible to consumers.
func (q *Queue) Enqueue(ctx context.Context, queue string, payload any) error {
	raw, err := marshalJob(queue, payload)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, listKey(queue), raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", queue, err)
	}
	q.logger.Debug("job enqueued", zap.String("queue", queue))
	return nil
}

// EnqueueDelayed persists a job that becomes visible at now + delay.
func (q *Queue) EnqueueDelayed(ctx context.Context, queue string, payload any, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, queue, payload)
	}
	raw, err := marshalJob(queue, payload)
	if err != nil {
		return err
	}
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, delayedKey(queue), redis.Z{Score: readyAt, Member: raw}).Err(); err != nil {
		return fmt.Errorf("zadd %s: %w", queue, err)
	}
	q.logger.Debug("job enqueued delayed", zap.String("queue", queue), zap.Duration("delay", delay))
	return nil
}

// Counts returns waiting/delayed/active/completed/failed tallies.
func (q *Queue) Counts(ctx context.Context, queue string) (Counts, error) {
	var c Counts
	var err error
	if c.Waiting, err = q.client.LLen(ctx, listKey(queue)).Result(); err != nil {
		return c, fmt.Errorf("llen %s: %w", queue, err)
	}
	if c.Delayed, err = q.client.ZCard(ctx, delayedKey(queue)).Result(); err != nil {
		return c, fmt.Errorf("zcard %s: %w", queue, err)
	}
	stats, err := q.client.HGetAll(ctx, statsKey(queue)).Result()
	if err != nil {
		return c, fmt.Errorf("hgetall %s: %w", queue, err)
	}
	c.Active = parseStat(stats, "active")
	c.Completed = parseStat(stats, "completed")
	c.Failed = parseStat(stats, "failed")
	return c, nil
}

// Consume runs the consumer loop for one queue until ctx is done.
// Handler invocations run on a bounded pool of `concurrency` goroutines;
// jobs across queues and slots progress independently.
func (q *Queue) Consume(ctx context.Context, queue string, concurrency int, handler Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	go q.promoteLoop(ctx, queue)

	slots := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			q.logger.Info("queue consumer stopping", zap.String("queue", queue))
			return
		case slots <- struct{}{}:
		}

		job, err := q.dequeue(ctx, queue)
		if err != nil || job == nil {
			<-slots
			if err != nil && ctx.Err() == nil {
				q.logger.Warn("dequeue error", zap.String("queue", queue), zap.Error(err))
				time.Sleep(blockTimeout)
			}
			continue
		}

		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()
			defer func() { <-slots }()
			q.handle(ctx, queue, job, handler)
		}(job)
	}
}

func (q *Queue) handle(ctx context.Context, queue string, job *Job, handler Handler) {
	q.client.HIncrBy(ctx, statsKey(queue), "active", 1)
	defer q.client.HIncrBy(ctx, statsKey(queue), "active", -1)

	if err := handler(ctx, job); err != nil {
		q.logger.Error("job failed", zap.String("queue", queue), zap.String("job_id", job.ID), zap.Error(err))
		if rerr := q.retry(ctx, queue, job); rerr != nil {
			q.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(rerr))
		}
		return
	}
	q.client.HIncrBy(ctx, statsKey(queue), "completed", 1)
}

// dequeue blocks up to blockTimeout for the next job. Nil job means no
// work was available.
func (q *Queue) dequeue(ctx context.Context, queue string) (*Job, error) {
	result, err := q.client.BLPop(ctx, blockTimeout, listKey(queue)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload dropped", zap.String("queue", queue), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// retry re-enqueues a job with incremented attempt, or moves it to the
// dead-letter list once MaxBrokerAttempts is reached.
func (q *Queue) retry(ctx context.Context, queue string, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxBrokerAttempts {
		if err := q.client.RPush(ctx, dlqKey(queue), raw).Err(); err != nil {
			return err
		}
		q.client.HIncrBy(ctx, statsKey(queue), "failed", 1)
		q.logger.Warn("job moved to DLQ", zap.String("queue", queue), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	return q.client.RPush(ctx, listKey(queue), raw).Err()
}

// promoteLoop moves due delayed jobs onto the ready list.
func (q *Queue) promoteLoop(ctx context.Context, queue string) {
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.promoteDue(ctx, queue); err != nil && ctx.Err() == nil {
				q.logger.Warn("promote delayed jobs failed", zap.String("queue", queue), zap.Error(err))
			}
		}
	}
}

func (q *Queue) promoteDue(ctx context.Context, queue string) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	members, err := q.client.ZRangeByScore(ctx, delayedKey(queue), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: promoteBatch,
	}).Result()
	if err != nil {
		return err
	}
	for _, raw := range members {
		// ZRem first so a concurrent promoter cannot double-deliver.
		removed, err := q.client.ZRem(ctx, delayedKey(queue), raw).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, listKey(queue), raw).Err(); err != nil {
			return err
		}
	}
	return nil
}

func marshalJob(queue string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Queue:     queue,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	return raw, nil
}

func parseStat(stats map[string]string, field string) int64 {
	n, _ := strconv.ParseInt(stats[field], 10, 64)
	return n
}
