package endpoints

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/robfig/cron/v3"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/instrument"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/syncgroup"
)

type (
	// HealthMonitor probes every endpoint on a fixed schedule and feeds the results into the endpoint state.
	// Probe failures are logged and never returned.
	HealthMonitor struct {
		logger      *zap.Logger
		metrics     tally.Scope
		pool        *Pool
		cfg         *config.FailoverConfig
		probeMethod *jsonrpc.RequestMethod
		cron        *cron.Cron
		semaphore   *semaphore.Weighted
		ctx         context.Context
		cancel      context.CancelFunc
		startOnce   sync.Once
		stopOnce    sync.Once
		wg          sync.WaitGroup
	}
)

const (
	monitorScope    = "health_monitor"
	probeCallName   = "probe"
	probeLoggerMsg  = "health.probe"
	monitorStopWait = 5 * time.Second
)

var _ cron.Job = (*HealthMonitor)(nil)

func NewHealthMonitor(logger *zap.Logger, metrics tally.Scope, pool *Pool, cfg *config.FailoverConfig) *HealthMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &HealthMonitor{
		logger:      log.WithPackage(logger),
		metrics:     metrics.SubScope(monitorScope),
		pool:        pool,
		cfg:         cfg,
		probeMethod: jsonrpc.NewRequestMethod(cfg.HealthCheckMethod, cfg.HealthCheckTimeout),
		cron:        cron.New(),
		semaphore:   semaphore.NewWeighted(1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs a sweep right away and then on every interval.
// Calling Start more than once has no effect.
func (m *HealthMonitor) Start() error {
	var err error
	m.startOnce.Do(func() {
		schedule := "@every " + m.cfg.HealthCheckInterval.String()
		if _, err = m.cron.AddJob(schedule, m); err != nil {
			err = xerrors.Errorf("failed to schedule health checks (schedule=%v): %w", schedule, err)
			return
		}

		m.logger.Info(
			"starting health monitor",
			zap.Duration("interval", m.cfg.HealthCheckInterval),
			zap.Duration("timeout", m.cfg.HealthCheckTimeout),
			zap.Int("endpoints", len(m.pool.Endpoints())),
		)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.Run()
		}()
		m.cron.Start()
	})

	return err
}

// Stop cancels in-flight probes and the schedule. It is safe to call more than once.
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() {
		m.logger.Info("stopping health monitor")
		m.cancel()
		ctx := m.cron.Stop()
		m.wg.Wait()
		select {
		case <-ctx.Done():
			m.logger.Info("stopped health monitor")
		case <-time.After(monitorStopWait):
			m.logger.Error("timed out while stopping health monitor")
		}
	})
}

// Run implements cron.Job. A sweep is skipped if the previous one is still running.
func (m *HealthMonitor) Run() {
	if !m.semaphore.TryAcquire(1) {
		m.logger.Debug("skipping health check sweep since the previous one is still running")
		return
	}
	defer m.semaphore.Release(1)

	if m.ctx.Err() != nil {
		return
	}

	m.Sweep(m.ctx)
}

// Sweep probes all endpoints concurrently and waits for every probe to finish.
func (m *HealthMonitor) Sweep(ctx context.Context) {
	group, ctx := syncgroup.New(ctx)
	for _, endpoint := range m.pool.Endpoints() {
		endpoint := endpoint
		group.Go(func() error {
			m.probe(ctx, endpoint)
			return nil
		})
	}
	_ = group.Wait()

	healthy := 0
	for _, endpoint := range m.pool.Endpoints() {
		if endpoint.IsHealthy() {
			healthy += 1
		}
	}
	m.metrics.Gauge("healthy_count").Update(float64(healthy))
}

func (m *HealthMonitor) probe(ctx context.Context, endpoint *Endpoint) {
	client, ok := m.pool.Client(endpoint.name)
	if !ok {
		return
	}

	scope := m.metrics.Tagged(map[string]string{endpointTag: endpoint.name})
	logger := m.logger.With(zap.String("endpoint", endpoint.name))
	call := instrument.NewCall(scope, probeCallName, instrument.WithLogger(logger, probeLoggerMsg))

	start := time.Now()
	var height uint64
	err := call.Instrument(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, m.cfg.HealthCheckTimeout)
		defer cancel()

		response, err := client.Call(ctx, m.probeMethod, nil)
		if err != nil {
			return xerrors.Errorf("failed to probe endpoint: %w", err)
		}

		height, err = decodeHeight(response)
		if err != nil {
			return xerrors.Errorf("failed to decode probe response: %w", err)
		}

		return nil
	})
	latency := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			// The monitor is shutting down.
			return
		}

		if degraded := endpoint.recordProbeFailure(m.cfg.FailureThreshold, time.Now()); degraded {
			fields := []zap.Field{
				zap.Int("failure_threshold", m.cfg.FailureThreshold),
				zap.Error(err),
			}
			if next, ok := m.pool.NextHealthy(endpoint); ok {
				fields = append(fields, zap.String("next_endpoint", next.name))
			}
			logger.Warn("endpoint marked unhealthy", fields...)
		}
		scope.Gauge("healthy").Update(boolToGauge(endpoint.IsHealthy()))
		return
	}

	if recovered := endpoint.recordProbeSuccess(latency, time.Now()); recovered {
		logger.Info("endpoint recovered", zap.Uint64("height", height))
	}
	scope.Gauge("healthy").Update(1)
}

// decodeHeight accepts either a hex quantity or a plain json number.
func decodeHeight(response *jsonrpc.Response) (uint64, error) {
	if response.IsNullOrEmpty() {
		return 0, xerrors.New("empty result")
	}

	var hex string
	if err := json.Unmarshal(response.Result, &hex); err == nil {
		if !strings.HasPrefix(hex, "0x") {
			return 0, xerrors.Errorf("unexpected result: %v", hex)
		}

		height, err := hexutil.DecodeUint64(hex)
		if err != nil {
			return 0, xerrors.Errorf("failed to decode hex quantity %v: %w", hex, err)
		}

		return height, nil
	}

	var height uint64
	if err := json.Unmarshal(response.Result, &height); err != nil {
		return 0, xerrors.Errorf("failed to decode result %v: %w", string(response.Result), err)
	}

	return height, nil
}

func boolToGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
