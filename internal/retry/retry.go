// Package retry implements the dispatch retry policy: exponential backoff for
// transient failures, immediate abort for terminal ones, and a fixed
// inter-request delay that bounds the aggregate request rate.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// ErrMaxRetriesExceeded indicates all retry attempts failed.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

// Policy configures retry behavior. One policy instance is applied uniformly
// by the orchestrator around every dispatch.
type Policy struct {
	MaxRetries        int           // retry attempts after the first try
	BaseDelay         time.Duration // backoff base (doubles each retry)
	MaxDelay          time.Duration // backoff cap
	InterRequestDelay time.Duration // applied before every attempt
	BackoffEnabled    bool          // false: report the first failure, no retry

	// Retryable decides whether a failure is worth another attempt. A nil
	// predicate treats every failure as terminal.
	Retryable func(error) bool

	Logger *zap.Logger
}

// DefaultPolicy returns the standard dispatch policy. The retryable predicate
// still has to be supplied by the caller.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		BaseDelay:         2 * time.Second,
		MaxDelay:          60 * time.Second,
		InterRequestDelay: 500 * time.Millisecond,
		BackoffEnabled:    true,
	}
}

// Func is a single dispatch attempt.
type Func func(ctx context.Context) (string, error)

// Backoff returns the wait before re-attempting after failed attempt n
// (1-based): BaseDelay * 2^(n-1), capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// Do runs fn under the policy. The inter-request delay is applied before
// every attempt, including the first. Terminal failures abort immediately;
// retryable ones wait the backoff and try again until MaxRetries is spent.
// Waits block only this call sequence and honor context cancellation.
func (p Policy) Do(ctx context.Context, operation string, fn Func) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := p.MaxRetries + 1
	if !p.BackoffEnabled || attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := sleep(ctx, p.InterRequestDelay); err != nil {
			return "", err
		}

		text, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("retry succeeded",
					zap.String("operation", operation),
					zap.Int("attempt", attempt))
			}
			return text, nil
		}
		lastErr = err

		if !p.BackoffEnabled {
			return "", err
		}
		if p.Retryable == nil || !p.Retryable(err) {
			logger.Debug("terminal failure, not retrying",
				zap.String("operation", operation),
				zap.Error(err))
			return "", err
		}

		logger.Debug("attempt failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			backoff := p.Backoff(attempt)
			logger.Debug("backing off",
				zap.String("operation", operation),
				zap.Duration("wait", backoff))
			if err := sleep(ctx, backoff); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%w for %s: %v", ErrMaxRetriesExceeded, operation, lastErr)
}

// sleep waits d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
