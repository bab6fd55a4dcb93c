package worker

import (
	"time"

	"github.com/stackpay/gateway/internal/models"
)

// RetrySchedule maps a failed attempt number (1-based index) to the
// delay before the next attempt. Index 0 is unused: the first attempt
// runs immediately.
type RetrySchedule []time.Duration

// ProductionRetrySchedule spaces retries out over two hours.
var ProductionRetrySchedule = RetrySchedule{0, 60 * time.Second, 5 * time.Minute, 30 * time.Minute, 2 * time.Hour}

// TestRetrySchedule compresses the intervals for fast iteration.
var TestRetrySchedule = RetrySchedule{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}

// NextDelay returns the delay to apply after a failure at the given
// attempt, and false when the attempt budget is exhausted.
func (s RetrySchedule) NextDelay(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt >= models.MaxWebhookAttempts || attempt >= len(s) {
		return 0, false
	}
	return s[attempt], true
}
