package instrument

import (
	"context"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
)

type (
	// Call emits a latency timer and success/error counters for every invocation of an operation.
	Call interface {
		Instrument(ctx context.Context, operation OperationFn) error
	}

	OperationFn func(ctx context.Context) error

	Option func(c *call)

	call struct {
		name      string
		latency   tally.Timer
		success   tally.Counter
		err       tally.Counter
		logger    *zap.Logger
		loggerMsg string
		spanName  string
		spanTags  map[string]string
	}
)

const (
	resultTypeTag     = "result_type"
	resultTypeSuccess = "success"
	resultTypeError   = "error"
	latencyTimer      = "latency"
)

func NewCall(scope tally.Scope, name string, opts ...Option) Call {
	scope = scope.SubScope(name)
	c := &call{
		name:    name,
		latency: scope.Timer(latencyTimer),
		success: scope.Tagged(map[string]string{resultTypeTag: resultTypeSuccess}).Counter(name),
		err:     scope.Tagged(map[string]string{resultTypeTag: resultTypeError}).Counter(name),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithLogger logs the outcome of each call with the given message.
func WithLogger(logger *zap.Logger, msg string) Option {
	return func(c *call) {
		c.logger = logger
		c.loggerMsg = msg
	}
}

// WithTracer wraps each call in a datadog span.
func WithTracer(spanName string, tags map[string]string) Option {
	return func(c *call) {
		c.spanName = spanName
		c.spanTags = tags
	}
}

func (c *call) Instrument(ctx context.Context, operation OperationFn) error {
	var span ddtrace.Span
	if c.spanName != "" {
		opts := make([]tracer.StartSpanOption, 0, len(c.spanTags))
		for k, v := range c.spanTags {
			opts = append(opts, tracer.Tag(k, v))
		}
		span, ctx = tracer.StartSpanFromContext(ctx, c.spanName, opts...)
	}

	start := time.Now()
	err := operation(ctx)
	duration := time.Since(start)

	c.latency.Record(duration)
	if err != nil {
		c.err.Inc(1)
	} else {
		c.success.Inc(1)
	}

	if span != nil {
		span.Finish(tracer.WithError(err))
	}

	if c.logger != nil {
		logger := log.WithSpan(ctx, c.logger)
		fields := []zap.Field{
			zap.String("name", c.name),
			zap.Duration("duration", duration),
		}
		if err != nil {
			logger.Warn(c.loggerMsg, append(fields, zap.Error(err))...)
		} else {
			logger.Debug(c.loggerMsg, fields...)
		}
	}

	return err
}
