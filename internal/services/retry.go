package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
)

const defaultRetryBackoff = 100 * time.Millisecond

// RetryPolicy re-runs idempotent record writes until they converge.
// The zero value runs a step once.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func NewRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Backoff: defaultRetryBackoff}
}

// Do runs step until it succeeds, fails with a non-retryable error or attempts run out.
// The wait doubles after every failed attempt.
func (p RetryPolicy) Do(ctx context.Context, logger *ServiceLogger, operation string, step func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = step(ctx); err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			break
		}
		logger.LogRetry(ctx, operation, attempt, attempts, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
	return err
}

// retryable: transport failures and unclassified store errors. Caller errors and cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return apperrors.IsNetwork(err) || !apperrors.Classified(err)
}
