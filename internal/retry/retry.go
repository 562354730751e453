// Package retry runs flaky I/O with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Config holds retry strategy configuration.
type Config struct {
	MaxAttempts  int           // Including the first attempt
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Upper bound for any single delay
	Multiplier   float64       // Backoff growth per attempt
}

// DefaultConfig returns the retry configuration used for registry lookups.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// permanentError marks an error that retrying cannot fix.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do executes fn until it succeeds, fails permanently or runs out of attempts.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		return zero, fmt.Errorf("MaxAttempts must be greater than 0")
	}

	var lastErr error
	for attempt := range cfg.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if IsPermanent(err) || attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(addJitter(calculateDelay(attempt, cfg))):
		}
	}

	var p *permanentError
	if errors.As(lastErr, &p) {
		return zero, p.err
	}
	return zero, lastErr
}

// calculateDelay calculates exponential backoff delay.
func calculateDelay(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(max(attempt, 0)))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// addJitter adds ±10% random jitter to delay.
func addJitter(delay time.Duration) time.Duration {
	jitter := float64(delay) * 0.1 * (rand.Float64()*2 - 1) //nolint:gosec // jitter needs no crypto randomness
	return delay + time.Duration(jitter)
}
