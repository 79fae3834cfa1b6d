package httpclient

import (
	"math/rand/v2"
	"time"
)

// Retry defaults.
const (
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultRetryMaxDelay  = 30 * time.Second

	// retryJitterFraction spreads the backoff by up to 10% so clients that
	// failed together do not retry together.
	retryJitterFraction = 0.1
)

// RetryPolicy decides whether and when a failed attempt is retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// jitter returns a value in [0, 1). Tests pin it for determinism.
	jitter func() float64
}

// NewRetryPolicy creates a policy, substituting defaults for non-positive
// values.
func NewRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultRetryMaxDelay
	}
	return RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MaxDelay:   maxDelay,
		jitter:     rand.Float64,
	}
}

// ShouldRetry reports whether the error is worth another attempt. attempt is
// zero-based: attempt 0 failing with MaxRetries 3 leaves three retries.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxRetries {
		return false
	}
	return IsRetryable(err)
}

// Delay returns the backoff before the given attempt's retry: the base delay
// doubled per attempt, capped at MaxDelay, plus jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}

	jitter := p.jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	return delay + time.Duration(float64(delay)*retryJitterFraction*jitter())
}
