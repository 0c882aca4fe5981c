package queue

import (
	"math/rand/v2"
	"time"
)

// backoffSchedule staggers event redeliveries so a struggling notification
// provider or directory is not hammered. Attempts past the last step reuse
// the final delay.
var backoffSchedule = [...]time.Duration{
	30 * time.Second,
	1 * time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

// RetryStrategy decides whether a failed event message gets another
// delivery attempt and how long to wait before it.
type RetryStrategy struct {
	maxRetries int
}

// NewRetryStrategy returns a RetryStrategy allowing up to maxRetries
// redelivery attempts per message.
func NewRetryStrategy(maxRetries int) *RetryStrategy {
	return &RetryStrategy{maxRetries: maxRetries}
}

// ShouldRetry reports whether a message on its given attempt still has
// redelivery budget left.
func (r *RetryStrategy) ShouldRetry(attempt int) bool {
	return attempt < r.maxRetries
}

// NextBackoff returns the jittered delay before the given attempt is
// redelivered. The jitter keeps same-batch failures from re-arriving as a
// burst: each delay lands uniformly between half the scheduled step and the
// full step.
func (r *RetryStrategy) NextBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(backoffSchedule) {
		attempt = len(backoffSchedule) - 1
	}

	step := backoffSchedule[attempt]
	half := step / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}
