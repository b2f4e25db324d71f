package endpoints

import (
	"context"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/retry"
)

type (
	// Operation runs one attempt against the client of the selected endpoint.
	// It must honor ctx, which carries the attempt timeout.
	Operation func(ctx context.Context, client jsonrpc.Client) error

	// FailoverExecutor routes an operation through the endpoints in priority order.
	FailoverExecutor struct {
		logger         *zap.Logger
		pool           *Pool
		cfg            *config.FailoverConfig
		retry          retry.Retry
		attempts       tally.Scope
		failoverCount  tally.Counter
		exhaustedCount tally.Counter
	}
)

const (
	executorScope  = "executor"
	attemptCounter = "attempt"
	resultTypeTag  = "result_type"
	errorKindTag   = "error_kind"
	endpointTag    = "endpoint"
	successResult  = "success"
	errorResult    = "error"
)

func NewFailoverExecutor(logger *zap.Logger, metrics tally.Scope, pool *Pool, cfg *config.FailoverConfig) *FailoverExecutor {
	logger = log.WithPackage(logger)
	metrics = metrics.SubScope(executorScope)
	return &FailoverExecutor{
		logger:         logger,
		pool:           pool,
		cfg:            cfg,
		// Rate limit and connection errors are permanent, which moves Execute to the next endpoint.
		retry:          cfg.NewRetry(retry.WithLogger(logger)),
		attempts:       metrics,
		failoverCount:  metrics.Counter("failover"),
		exhaustedCount: metrics.Counter("exhausted"),
	}
}

// Execute runs operation against the best available endpoint.
// Per-endpoint failures are absorbed; the caller sees either success,
// an AllEndpointsExhaustedError, or the ctx error if ctx is done first.
func (e *FailoverExecutor) Execute(ctx context.Context, label string, operation Operation) error {
	candidates := e.pool.candidates()

	var lastErr error
	for i, endpoint := range candidates {
		client, ok := e.pool.Client(endpoint.name)
		if !ok {
			return xerrors.Errorf("client of %v is missing", endpoint.name)
		}

		err := e.retry.Retry(ctx, func(ctx context.Context) error {
			return e.attempt(ctx, endpoint, client, operation)
		})
		if err == nil {
			return nil
		}

		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return xerrors.Errorf("%v aborted on %v: %w", label, endpoint.name, ctxErr)
		}

		if i+1 < len(candidates) {
			e.failoverCount.Inc(1)
			e.logger.Warn(
				"failing over to next endpoint",
				zap.String("label", label),
				zap.String("from", endpoint.name),
				zap.String("to", candidates[i+1].name),
				zap.String("error_kind", retry.Classify(err).String()),
				zap.Error(err),
			)
		}
	}

	e.exhaustedCount.Inc(1)
	return &AllEndpointsExhaustedError{
		Label: label,
		Err:   lastErr,
	}
}

func (e *FailoverExecutor) attempt(ctx context.Context, endpoint *Endpoint, client jsonrpc.Client, operation Operation) error {
	endpoint.beginRequest()

	start := time.Now()
	err := e.runWithTimeout(ctx, endpoint, client, operation)
	if err == nil {
		latency := time.Since(start)
		e.attempts.Tagged(map[string]string{
			endpointTag:   endpoint.name,
			resultTypeTag: successResult,
		}).Counter(attemptCounter).Inc(1)
		e.attempts.Tagged(map[string]string{endpointTag: endpoint.name}).Timer("latency").Record(latency)

		if recovered := endpoint.recordSuccess(latency); recovered {
			e.logger.Info("endpoint recovered", zap.String("endpoint", endpoint.name))
		}

		return nil
	}

	kind := retry.Classify(err)
	e.attempts.Tagged(map[string]string{
		endpointTag:   endpoint.name,
		resultTypeTag: errorResult,
		errorKindTag:  kind.String(),
	}).Counter(attemptCounter).Inc(1)

	if degraded := endpoint.recordFailure(e.cfg.FailureThreshold); degraded {
		e.logDegraded(endpoint, err)
	}

	return err
}

// runWithTimeout bounds the attempt even if operation does not return when ctx is done.
func (e *FailoverExecutor) runWithTimeout(ctx context.Context, endpoint *Endpoint, client jsonrpc.Client, operation Operation) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- operation(attemptCtx, client)
	}()

	var err error
	select {
	case err = <-done:
		if err == nil {
			return nil
		}
	case <-attemptCtx.Done():
		err = attemptCtx.Err()
	}

	if ctx.Err() == nil && xerrors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &AttemptTimeoutError{
			Endpoint: endpoint.name,
			Timeout:  e.cfg.RequestTimeout,
			Err:      attemptCtx.Err(),
		}
	}

	return err
}

func (e *FailoverExecutor) logDegraded(endpoint *Endpoint, err error) {
	fields := []zap.Field{
		zap.String("endpoint", endpoint.name),
		zap.Int("failure_threshold", e.cfg.FailureThreshold),
		zap.Error(err),
	}
	if next, ok := e.pool.NextHealthy(endpoint); ok {
		fields = append(fields, zap.String("next_endpoint", next.name))
	}

	e.logger.Warn("endpoint marked unhealthy", fields...)
}
