package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds a single resilient call: the operation runs at most
// MaxRetries times, sleeping BaseDelay*2^attempt between transient failures.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy matches the backend's documented rate-limit behavior.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 2 * time.Second}

// transientPhrases are upstream message fragments that signal an overload
// likely to clear on retry. Matching is case-insensitive.
var transientPhrases = []string{
	"overloaded",
	"unavailable",
	"capacity",
	"try again later",
	"429",
}

// IsTransient reports whether an upstream error is worth retrying:
// a 503 status, or a message carrying a known overload phrase.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	var be *BackendError
	if errors.As(err, &be) {
		if be.Status == http.StatusServiceUnavailable {
			return true
		}
		msg = be.Message
	}
	lower := strings.ToLower(msg)
	for _, phrase := range transientPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Execute runs op under the retry policy. Each invocation owns its own
// attempt counter; there is no shared state across calls. Fatal errors
// and the final transient error are returned unchanged. op may be called
// more than once, so it must be idempotent or tolerate duplicate side
// effects upstream.
func Execute[T any](ctx context.Context, logger *zap.Logger, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}

	var last error
	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
		last = err
		if attempt+1 < policy.MaxRetries {
			delay := policy.BaseDelay * (1 << attempt)
			logger.Warn("transient backend error, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(err))
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
	}
	return zero, last
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
