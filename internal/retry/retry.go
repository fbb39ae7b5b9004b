// Package retry provides a generic retry/backoff decorator that
// distinguishes transient provider failures from permanent ones.
package retry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls the retry schedule.
type Config struct {
	MaxAttempts int             // total attempts, including the first
	Backoff     []time.Duration // per-attempt sleep slots; the last slot repeats
}

// DefaultConfig retries three times with a doubling minute-scale schedule.
var DefaultConfig = Config{
	MaxAttempts: 3,
	Backoff:     []time.Duration{60 * time.Second, 120 * time.Second, 240 * time.Second},
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if len(c.Backoff) == 0 {
		c.Backoff = DefaultConfig.Backoff
	}
	return c
}

// permanentPatterns mark errors that must never be retried. Permanence takes
// precedence: an auth failure that also mentions "network" stays permanent.
var permanentPatterns = []string{
	"400", "401", "403", "404", "405", "409", "422",
	"bad request",
	"unauthorized",
	"forbidden",
	"not found",
	"auth",
	"invalid",
	"validation",
	"malformed",
}

// transientPatterns mark errors worth retrying.
var transientPatterns = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"temporary failure",
	"server error",
	"rate limit",
	"429",
	"500",
	"502",
	"503",
	"504",
	"network",
	"dns",
	"tcp",
	"eof",
}

// IsPermanent reports whether an error must not be retried.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range permanentPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// IsTransient reports whether an error is worth retrying. Unknown errors
// default to transient; permanent classification wins when both match.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(strings.ToLower(err.Error()), pattern) {
			return true
		}
	}
	// Unclassified errors are assumed transient.
	return true
}

// Do runs fn with the configured retry schedule. Transient failures sleep
// the attempt's backoff slot (clamped to the last slot) and retry; permanent
// failures and exhausted attempts return the last error to the caller.
func Do(ctx context.Context, logger *logrus.Logger, cfg Config, op string, fn func(context.Context) error) error {
	cfg = cfg.WithDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s canceled: %w", op, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			logger.Warnf("%s failed permanently on attempt %d: %v", op, attempt, lastErr)
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoffSlot(cfg.Backoff, attempt-1)
		logger.Warnf("%s attempt %d/%d failed: %v; retrying in %v", op, attempt, cfg.MaxAttempts, lastErr, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s canceled during backoff: %w", op, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, cfg.MaxAttempts, lastErr)
}

func backoffSlot(backoff []time.Duration, idx int) time.Duration {
	if idx >= len(backoff) {
		idx = len(backoff) - 1
	}
	return backoff[idx]
}
