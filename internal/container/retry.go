// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 500 * time.Millisecond
)

// RetryWithBackoff retries op up to maxAttempts times with exponential backoff.
// It checks ctx.Err() between retries to respect cancellation immediately.
//
// op returns (shouldRetry bool, err error). If shouldRetry is false, err is
// returned immediately (nil on success, non-nil on permanent failure).
// On retry exhaustion, the last error is returned.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("retry aborted: %w", err)
			}
			time.Sleep(baseBackoff * time.Duration(1<<(attempt-1)))
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// QuietRetry runs an engine command like Quiet, retrying transient engine
// failures. Remote engines drop connections and rootless engines race on
// storage setup often enough that it pays off.
func (e *Engine) QuietRetry(ctx context.Context, args ...string) error {
	return e.quietRetry(ctx, IsTransientError, args)
}

// StartRetry runs a detached `run --name` like QuietRetry. Exit code 125 is
// not retried on its own, see IsTransientStartError.
func (e *Engine) StartRetry(ctx context.Context, args ...string) error {
	return e.quietRetry(ctx, IsTransientStartError, args)
}

func (e *Engine) quietRetry(ctx context.Context, transient func(error) bool, args []string) error {
	return RetryWithBackoff(ctx, defaultRetryAttempts, defaultRetryBackoff, func(attempt int) (bool, error) {
		err := e.Quiet(ctx, args...)
		if err != nil && transient(err) {
			e.logger.Debug("transient engine failure", "attempt", attempt+1, "err", err)
			return true, err
		}
		return false, err
	})
}
