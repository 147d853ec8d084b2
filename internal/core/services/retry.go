package services

import (
	"context"
	"time"

	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// Retry policy for capability calls. Transient embedding/generation
// failures are retried with exponential backoff; exhaustion surfaces as
// the capability's unavailable error, never as "no relevant results".
const (
	retryAttempts = 3
	retryBaseWait = 500 * time.Millisecond
)

// withRetry runs fn up to retryAttempts times, doubling the wait between
// attempts. It returns the last error when all attempts fail.
func withRetry(ctx context.Context, what string, fn func() error) error {
	var err error
	wait := retryBaseWait
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == retryAttempts {
			break
		}
		logger.Warn("%s failed (attempt %d/%d): %v", what, attempt, retryAttempts, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
