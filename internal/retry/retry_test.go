package retry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fastConfig() Config {
	return Config{MaxAttempts: 3, Backoff: []time.Duration{time.Millisecond, 2 * time.Millisecond}}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unauthorized", errors.New("API error 401: unauthorized"), true},
		{"not found", errors.New("resource not found"), true},
		{"validation", errors.New("validation failed for field strike"), true},
		{"timeout", errors.New("request timeout"), false},
		{"unknown", errors.New("something odd happened"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPermanent(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("request timeout"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"rate limit", errors.New("429 rate limit exceeded"), true},
		{"server error", errors.New("API error 503: service unavailable"), true},
		{"unknown defaults transient", errors.New("something odd happened"), true},
		{"permanent stays permanent", errors.New("401 unauthorized"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassificationPrecedence(t *testing.T) {
	// Matches both classifiers; permanence wins.
	err := errors.New("network auth handshake rejected")
	assert.True(t, IsPermanent(err))
	assert.False(t, IsTransient(err))
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testLogger(), fastConfig(), "fetch", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	permErr := errors.New("403 forbidden")
	err := Do(context.Background(), testLogger(), fastConfig(), "fetch", func(context.Context) error {
		attempts++
		return permErr
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "permanent errors are never retried")
	assert.True(t, errors.Is(err, permErr))
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	tranErr := errors.New("timeout waiting for provider")
	err := Do(context.Background(), testLogger(), fastConfig(), "fetch", func(context.Context) error {
		attempts++
		return tranErr
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, errors.Is(err, tranErr))
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, testLogger(), fastConfig(), "fetch", func(context.Context) error {
		attempts++
		return nil
	})
	require.Error(t, err)
	assert.Zero(t, attempts)
}

func TestBackoffSlotClamping(t *testing.T) {
	backoff := []time.Duration{time.Second, 2 * time.Second}
	assert.Equal(t, time.Second, backoffSlot(backoff, 0))
	assert.Equal(t, 2*time.Second, backoffSlot(backoff, 1))
	assert.Equal(t, 2*time.Second, backoffSlot(backoff, 5), "attempts past the table reuse the last slot")
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, DefaultConfig.Backoff, cfg.Backoff)

	custom := Config{MaxAttempts: 5}.WithDefaults()
	assert.Equal(t, 5, custom.MaxAttempts)
}
