package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

type (
	// Retry is a simple wrapper on top of "cenkalti/backoff" to provide retry functionalities.
	// Main differences with "cenkalti/backoff":
	// * By default, RateLimitError and ConnectionError are permanent and everything else is retried.
	//   Both are specific to the endpoint that produced them, so retrying in place cannot help.
	// * It is compatible with xerrors, i.e. the default Filter uses xerrors.As to classify wrapped errors.
	// * Retry is aborted if MaxAttempts is exceeded or the context is done.
	Retry interface {
		Retry(ctx context.Context, operation OperationFn) error
	}

	RetryableError struct {
		Err error
	}

	RateLimitError struct {
		Err error
	}

	// ConnectionError indicates that the remote endpoint could not be reached at all,
	// e.g. connection refused, dial timeout or an unresolved host.
	ConnectionError struct {
		Err error
	}

	// Kind is the failure class decided at the client boundary.
	Kind int

	OperationFn func(ctx context.Context) error
	Backoff     backoff.BackOff

	// Filter should return true if the error is retryable.
	Filter func(err error) bool

	// BackoffFactory returns a new instance of backoff policy.
	BackoffFactory func() Backoff

	Option func(r *retryImpl)

	// LinearBackoff waits Interval * n before the n-th retry.
	LinearBackoff struct {
		Interval time.Duration
		attempts int64
	}

	retryImpl struct {
		maxAttempts    int
		filter         Filter
		backoffFactory BackoffFactory
		logger         *zap.Logger
	}
)

const (
	KindUnclassified Kind = iota
	KindRateLimit
	KindConnection
)

const (
	DefaultMaxAttempts = 3
	defaultInterval    = time.Second
)

var (
	_ xerrors.Wrapper = (*RetryableError)(nil)
	_ xerrors.Wrapper = (*RateLimitError)(nil)
	_ xerrors.Wrapper = (*ConnectionError)(nil)
	_ backoff.BackOff = (*LinearBackoff)(nil)
)

func New(opts ...Option) Retry {
	r := &retryImpl{
		maxAttempts:    DefaultMaxAttempts,
		filter:         defaultFilter,
		backoffFactory: LinearBackoffFactory(defaultInterval),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func WithMaxAttempts(maxAttempts int) Option {
	return func(r *retryImpl) {
		r.maxAttempts = maxAttempts
	}
}

func WithFilter(filter Filter) Option {
	return func(r *retryImpl) {
		r.filter = filter
	}
}

func WithBackoffFactory(backoffFactory BackoffFactory) Option {
	return func(r *retryImpl) {
		r.backoffFactory = backoffFactory
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *retryImpl) {
		r.logger = logger
	}
}

func Retryable(err error) error {
	return &RetryableError{
		Err: err,
	}
}

func RateLimit(err error) error {
	return &RateLimitError{
		Err: err,
	}
}

func Connection(err error) error {
	return &ConnectionError{
		Err: err,
	}
}

func (r *retryImpl) Retry(ctx context.Context, operation OperationFn) error {
	backoffContext := backoff.WithContext(
		r.backoffFactory(),
		ctx,
	)

	attempts := 0
	decoratedOperation := func() error {
		err := operation(ctx)
		attempts += 1
		if err != nil {
			if retryable := r.filter(err); !retryable {
				if r.logger != nil {
					r.logger.Warn(
						"encountered a permanent error",
						zap.Int("attempts", attempts),
						zap.Error(err),
					)
				}
				return backoff.Permanent(err)
			}

			if attempts >= r.maxAttempts {
				if r.logger != nil {
					r.logger.Warn(
						"max attempts exceeded",
						zap.Int("attempts", attempts),
						zap.Error(err),
					)
				}
				return backoff.Permanent(err)
			}

			if r.logger != nil {
				r.logger.Warn(
					"encountered a retryable error",
					zap.Int("attempts", attempts),
					zap.Error(err),
				)
			}

			return err
		}

		return nil
	}

	return backoff.Retry(decoratedOperation, backoffContext)
}

// Classify returns the failure class carried by err.
// Errors that were not wrapped by RateLimit or Connection are unclassified.
func Classify(err error) Kind {
	var rateLimitErr *RateLimitError
	if xerrors.As(err, &rateLimitErr) {
		return KindRateLimit
	}

	var connectionErr *ConnectionError
	if xerrors.As(err, &connectionErr) {
		return KindConnection
	}

	return KindUnclassified
}

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindConnection:
		return "connection"
	default:
		return "unclassified"
	}
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("RetryableError: %v", e.Err.Error())
}

func (e *RetryableError) Unwrap() error {
	// Implement `xerrors.Wrapper` so that the original error can be unwrapped.
	return e.Err
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("RateLimitError: %v", e.Err.Error())
}

func (e *RateLimitError) Unwrap() error {
	// Implement `xerrors.Wrapper` so that the original error can be unwrapped.
	return e.Err
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ConnectionError: %v", e.Err.Error())
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// defaultFilter retries unclassified errors only.
func defaultFilter(err error) bool {
	return Classify(err) == KindUnclassified
}

// LinearBackoffFactory creates a backoff policy that waits interval, 2*interval, 3*interval, ...
func LinearBackoffFactory(interval time.Duration) BackoffFactory {
	return func() Backoff {
		return &LinearBackoff{Interval: interval}
	}
}

func (b *LinearBackoff) NextBackOff() time.Duration {
	b.attempts += 1
	return b.Interval * time.Duration(b.attempts)
}

func (b *LinearBackoff) Reset() {
	b.attempts = 0
}
