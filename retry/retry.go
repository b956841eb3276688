// Package retry provides the bounded loops used wherever the service polls a
// page or resamples a candidate: every loop has a hard upper bound and stops
// on context cancellation.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when a bounded loop reaches its cap without a
// step reporting completion.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Loop calls step up to max times with the zero-based attempt number. It
// returns nil as soon as step reports done, the step's error if it returns
// one, the context error if ctx ends first, and ErrExhausted otherwise.
// A non-positive max is treated as 1.
func Loop(ctx context.Context, max int, step func(attempt int) (done bool, err error)) error {
	if max <= 0 {
		max = 1
	}
	for attempt := 0; attempt < max; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := step(attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrExhausted
}

// Attempt calls fn up to max times and returns the first value produced
// without error. Failed attempts are retried immediately. When every attempt
// fails the returned error wraps both ErrExhausted and the last failure.
func Attempt[T any](ctx context.Context, max int, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if max <= 0 {
		max = 1
	}

	var lastErr error
	for attempt := 0; attempt < max; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		val, err := fn(ctx, attempt)
		if err == nil {
			return val, nil
		}
		lastErr = err
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, max, lastErr)
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
