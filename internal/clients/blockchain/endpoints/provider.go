package endpoints

//go:generate mockgen -destination=mocks/mocks.go -package=endpointsmocks github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/endpoints FailoverProvider

import (
	"context"
	"sync"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/fxparams"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
)

type (
	// FailoverProvider is the single entry point for outbound rpc calls.
	// Every call is routed to the first healthy endpoint by priority,
	// retried in place on unclassified errors and failed over on rate limit or connection errors.
	FailoverProvider interface {
		Execute(ctx context.Context, label string, operation Operation) error
		Status() *PoolStatus
		// ForceFailover marks the named endpoint unhealthy. It returns false if the name is unknown.
		ForceFailover(name string) bool
		// ResetAll marks every endpoint healthy and clears the failure streaks.
		ResetAll()
		Start() error
		Stop()
	}

	FailoverProviderParams struct {
		fx.In
		fxparams.Params
		Lifecycle     fx.Lifecycle
		ClientFactory jsonrpc.ClientFactory
	}

	failoverProvider struct {
		logger    *zap.Logger
		pool      *Pool
		executor  *FailoverExecutor
		monitor   *HealthMonitor
		threshold int
	}
)

var _ FailoverProvider = (*failoverProvider)(nil)

func NewFailoverProvider(params FailoverProviderParams) (FailoverProvider, error) {
	provider, err := New(params.Logger, params.Metrics, params.Config, params.ClientFactory)
	if err != nil {
		return nil, err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return provider.Start()
		},
		OnStop: func(ctx context.Context) error {
			provider.Stop()
			return nil
		},
	})

	return provider, nil
}

// New builds the pool, the executor and the health monitor. The monitor is not started.
func New(logger *zap.Logger, metrics tally.Scope, cfg *config.Config, factory jsonrpc.ClientFactory) (FailoverProvider, error) {
	logger = log.WithPackage(logger)
	pool, err := NewPool(logger, &cfg.Client, factory)
	if err != nil {
		return nil, xerrors.Errorf("failed to create endpoint pool: %w", err)
	}

	metrics = metrics.SubScope("failover")
	return &failoverProvider{
		logger:    logger,
		pool:      pool,
		executor:  NewFailoverExecutor(logger, metrics, pool, &cfg.Failover),
		monitor:   NewHealthMonitor(logger, metrics, pool, &cfg.Failover),
		threshold: cfg.Failover.FailureThreshold,
	}, nil
}

func (p *failoverProvider) Execute(ctx context.Context, label string, operation Operation) error {
	return p.executor.Execute(ctx, label, operation)
}

func (p *failoverProvider) Status() *PoolStatus {
	return NewPoolStatus(p.pool)
}

func (p *failoverProvider) ForceFailover(name string) bool {
	endpoint, ok := p.pool.Endpoint(name)
	if !ok {
		p.logger.Warn("cannot force failover of unknown endpoint", zap.String("endpoint", name))
		return false
	}

	endpoint.forceUnhealthy(p.threshold)
	fields := []zap.Field{zap.String("endpoint", name)}
	if next, ok := p.pool.NextHealthy(endpoint); ok {
		fields = append(fields, zap.String("next_endpoint", next.name))
	}
	p.logger.Warn("forced failover", fields...)
	return true
}

func (p *failoverProvider) ResetAll() {
	for _, endpoint := range p.pool.Endpoints() {
		endpoint.reset()
	}
	p.logger.Info("reset all endpoints")
}

func (p *failoverProvider) Start() error {
	return p.monitor.Start()
}

func (p *failoverProvider) Stop() {
	p.monitor.Stop()
}

// Do executes fn through the provider and returns the value produced by the successful attempt.
func Do[T any](ctx context.Context, provider FailoverProvider, label string, fn func(ctx context.Context, client jsonrpc.Client) (T, error)) (T, error) {
	var (
		mu     sync.Mutex
		result T
	)

	err := provider.Execute(ctx, label, func(ctx context.Context, client jsonrpc.Client) error {
		value, err := fn(ctx, client)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if err := ctx.Err(); err != nil {
			// The attempt was abandoned; its value must not leak into the result.
			return err
		}
		result = value
		return nil
	})

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
