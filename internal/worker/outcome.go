package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/stackpay/gateway/internal/models"
)

// Success rates of the simulated acquirer by payment method.
const (
	upiSuccessRate  = 0.90
	cardSuccessRate = 0.95
)

// OutcomeDecider determines whether a payment succeeds. Selected at
// startup so worker behavior is deterministic under test configuration.
type OutcomeDecider interface {
	Decide(method string) bool
}

// RandomOutcome models acquirer decline rates: UPI 90% success, card 95%.
type RandomOutcome struct{}

// Decide returns the simulated outcome for one payment.
func (RandomOutcome) Decide(method string) bool {
	if method == models.PaymentMethodUPI {
		return rand.Float64() < upiSuccessRate
	}
	return rand.Float64() < cardSuccessRate
}

// FixedOutcome always returns the configured result.
type FixedOutcome struct {
	Success bool
}

// Decide returns the fixed outcome regardless of method.
func (o FixedOutcome) Decide(string) bool { return o.Success }

// DelaySource produces the simulated processing delay per job.
type DelaySource interface {
	ProcessingDelay() time.Duration
}

// RandomDelay yields a uniform duration in [Min, Max], modeling gateway
// latency (5-10s in production configuration).
type RandomDelay struct {
	Min, Max time.Duration
}

// ProcessingDelay returns one sampled delay.
func (d RandomDelay) ProcessingDelay() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int63n(int64(d.Max-d.Min)+1))
}

// FixedDelay yields a constant duration.
type FixedDelay struct {
	D time.Duration
}

// ProcessingDelay returns the fixed delay.
func (d FixedDelay) ProcessingDelay() time.Duration { return d.D }

// sleep waits for d or until ctx is done, without blocking other jobs.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
