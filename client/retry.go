package client

import (
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Default retry settings: three attempts with a 200ms base delay doubling up
// to a 5s cap.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 200 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultMultiplier  = 2.0
)

// RetryOptions configures DoWithRetry. Zero fields fall back to the
// defaults above; a nil Classifier falls back to IsRetryable.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Classifier  func(error) bool
}

// DefaultRetryOptions returns the standard backoff configuration.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
		Classifier:  IsRetryable,
	}
}

// RetryResult carries the operation's value plus observability data: how many
// attempts ran and one warning per retried failure. Warnings never influence
// the value.
type RetryResult[T any] struct {
	Value        T
	AttemptsUsed int
	Warnings     []string
}

// HTTPStatusError reports a non-success HTTP response. 5xx-class statuses
// classify as retryable.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// DoWithRetry runs op with bounded exponential backoff. Retryable failures
// sleep min(base * multiplier^(attempt-1), maxDelay) and try again; terminal
// failures propagate immediately without sleeping. After the attempt budget
// is exhausted the last failure propagates. The delay between attempts is
// deterministic - no jitter.
//
// A cancelled context aborts an in-flight backoff sleep promptly and
// surfaces the context's error.
func DoWithRetry[T any](ctx context.Context, opts RetryOptions, op func(context.Context) (T, error)) (RetryResult[T], error) {
	opts = opts.withDefaults()

	var result RetryResult[T]
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result.AttemptsUsed = attempt

		value, err := op(ctx)
		if err == nil {
			result.Value = value
			return result, nil
		}
		lastErr = err

		if !opts.Classifier(err) {
			return result, err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		delay := backoffDelay(opts, attempt)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("attempt %d/%d failed (%s); retrying in %s",
				attempt, opts.MaxAttempts, errorCode(err), delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, errors.Wrap(ctx.Err(), "[DoWithRetry] cancelled during backoff")
		case <-timer.C:
		}
	}

	return result, lastErr
}

// IsRetryable reports whether err looks transient: connection resets and
// refusals, unreachable hosts, timeouts, and 5xx-class responses. Anything
// else is a permanent rejection and must not be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.ECONNABORTED,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return errors.Is(err, io.ErrUnexpectedEOF)
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.Multiplier <= 0 {
		o.Multiplier = DefaultMultiplier
	}
	if o.Classifier == nil {
		o.Classifier = IsRetryable
	}
	return o
}

// backoffDelay computes the sleep after a failed attempt (1-based).
func backoffDelay(opts RetryOptions, attempt int) time.Duration {
	delay := time.Duration(float64(opts.BaseDelay) * math.Pow(opts.Multiplier, float64(attempt-1)))
	if delay > opts.MaxDelay {
		delay = opts.MaxDelay
	}
	return delay
}

// errorCode reduces an error to a short signature for warning strings.
func errorCode(err error) string {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("http %d", statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}

	return err.Error()
}
