package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"time"
)

// RetryManager bounds the status poll loop: a fixed number of attempts with a
// fixed delay between them, and a cap on back-to-back transient failures.
type RetryManager struct {
	maxAttempts          int
	interval             time.Duration
	maxConsecutiveErrors int
}

// NewRetryManager creates a new RetryManager
func NewRetryManager(maxAttempts int, interval time.Duration, maxConsecutiveErrors int) *RetryManager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if maxConsecutiveErrors < 0 {
		maxConsecutiveErrors = 0
	}
	return &RetryManager{
		maxAttempts:          maxAttempts,
		interval:             interval,
		maxConsecutiveErrors: maxConsecutiveErrors,
	}
}

func (r *RetryManager) MaxAttempts() int {
	return r.maxAttempts
}

func (r *RetryManager) Interval() time.Duration {
	return r.interval
}

// HasNext reports whether another attempt is allowed after `attempt` attempts.
func (r *RetryManager) HasNext(attempt int) bool {
	return attempt < r.maxAttempts
}

// ShouldRetry decides whether a failed poll may be followed by another one.
// consecutive is the number of failures in a row including this one. The
// attempt budget is checked separately with HasNext.
func (r *RetryManager) ShouldRetry(err error, consecutive int) bool {
	if consecutive > r.maxConsecutiveErrors {
		return false
	}
	return IsTransient(err)
}

// Wait sleeps for one interval or until ctx is done.
func (r *RetryManager) Wait(ctx context.Context) error {
	if r.interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TransientError marks a failure that is worth another attempt, such as an
// upstream 5xx or 429.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so that IsTransient reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient determines if an error is retryable: marked upstream failures and
// network failures are; cancellation and request errors that would fail the
// same way again (bad URL, unsupported scheme) are not. A per-request client
// timeout is transient; the caller's own deadline is checked by the poll loop.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	// connection dropped mid-response
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	// *url.Error satisfies net.Error itself, so judge what it wraps
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		err = urlErr.Err
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
