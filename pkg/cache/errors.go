package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks failures talking to a remote cache backend.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks a transient backend failure.
type RetryableError struct{ Err error }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, was marked Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff retries cache writes that fail with a Retryable error.
type Backoff struct {
	Attempts int
	Initial  time.Duration
}

// DefaultBackoff is used when image bytes are written back after a host fetch.
var DefaultBackoff = Backoff{Attempts: 3, Initial: 200 * time.Millisecond}

// Do calls fn until it succeeds, fails permanently, or Attempts run out.
// The delay doubles after each retry. Cancelling ctx ends the wait early.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Initial

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}
