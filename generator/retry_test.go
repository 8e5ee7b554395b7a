package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.WarnLevel)
	return zap.New(core), recorded
}

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries, BaseDelay: time.Millisecond}
}

func TestExecuteExhaustsRetriesOnTransientError(t *testing.T) {
	logger, logs := observedLogger()
	transient := &BackendError{Status: 503, Message: "model overloaded"}

	calls := 0
	_, err := Execute(context.Background(), logger, fastPolicy(3), func(context.Context) (string, error) {
		calls++
		return "", transient
	})

	require.Error(t, err)
	assert.Same(t, transient, err, "last error must be re-raised unchanged")
	assert.Equal(t, 3, calls, "operation runs exactly maxRetries times")
	assert.Equal(t, 2, logs.Len(), "one warning per retry")
}

func TestExecuteFatalErrorFailsImmediately(t *testing.T) {
	logger, logs := observedLogger()
	fatal := &BackendError{Status: 400, Message: "invalid request"}

	calls := 0
	_, err := Execute(context.Background(), logger, fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})

	require.Error(t, err)
	assert.Same(t, fatal, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, logs.Len(), "fatal errors never sleep or warn")
}

func TestExecuteRecoversAfterTransientErrors(t *testing.T) {
	logger, logs := observedLogger()

	calls := 0
	got, err := Execute(context.Background(), logger, fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", &BackendError{Status: 503, Message: "service unavailable"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, logs.Len())
}

func TestExecuteHonorsContextDuringBackoff(t *testing.T) {
	logger, _ := observedLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
	_, err := Execute(ctx, logger, policy, func(context.Context) (int, error) {
		return 0, &BackendError{Status: 503, Message: "overloaded"}
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status 503", &BackendError{Status: 503, Message: "boom"}, true},
		{"overloaded phrase", &BackendError{Message: "The model is Overloaded right now"}, true},
		{"unavailable phrase", errors.New("upstream temporarily UNAVAILABLE"), true},
		{"capacity phrase", &BackendError{Status: 500, Message: "at capacity, slow down"}, true},
		{"try again later", errors.New("please try again later"), true},
		{"429 in message", &BackendError{Message: "request failed: 429 Too Many Requests"}, true},
		{"plain fatal", errors.New("model exploded"), false},
		{"status 400", &BackendError{Status: 400, Message: "bad prompt"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
