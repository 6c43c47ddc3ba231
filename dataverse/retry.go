package dataverse

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// retryPolicy implements bounded exponential backoff with jitter for
// throttled Web API calls. Dataverse signals throttling with 429 and
// transient unavailability with 503, both usually carrying Retry-After.
type retryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxAttempts:  4,
		initialDelay: 500 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       0.1,
	}
}

// retryable reports whether a response status is worth retrying.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// delay computes the wait before retry attempt n (0-based), honoring a
// Retry-After header when the server sent one.
func (p retryPolicy) delay(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}

	d := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt))
	if d > float64(p.maxDelay) {
		d = float64(p.maxDelay)
	}
	if p.jitter > 0 {
		d += d * p.jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(d)
}
