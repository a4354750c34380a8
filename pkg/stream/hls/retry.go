package hls

import (
	"context"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// fetchWithRetry runs fetch up to maxRetry times. The attempt counter lives
// in this call only, so concurrent fetches never share retry budget.
func fetchWithRetry[T any](ctx context.Context, logger logging.Logger, url string, maxRetry int, delay time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if maxRetry < 1 {
		maxRetry = 1
	}

	for attempt := 1; attempt <= maxRetry; attempt++ {
		result, err := fetch(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if logger != nil {
			logger.Warn("fetch attempt failed", logging.Fields{
				"url":         url,
				"attempt":     attempt,
				"max_retry":   maxRetry,
				"error":       err.Error(),
				"will_retry":  attempt < maxRetry,
				"retry_delay": delay.String(),
			})
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < maxRetry && delay > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}
