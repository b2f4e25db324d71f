package endpoints

import (
	"sync"
	"time"

	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/timeutil"
)

type (
	// Status is the health state of an endpoint.
	// An endpoint starts as StatusUnknown and is eligible for routing until it is observed to fail.
	Status int

	// Endpoint holds the identity and the mutable health state of one backend.
	// All mutations happen under its own lock; there is no lock across endpoints.
	Endpoint struct {
		name     string
		url      string
		priority int
		weight   uint8

		mu                  sync.Mutex
		status              Status
		consecutiveFailures int
		lastHealthCheckAt   time.Time
		avgResponseTimeMs   float64
		totalRequests       uint64
		failedRequests      uint64
	}

	// EndpointSnapshot is a consistent copy of an endpoint's state.
	EndpointSnapshot struct {
		Name                string
		Priority            int
		Weight              uint8
		Status              Status
		Healthy             bool
		ConsecutiveFailures int
		LastHealthCheckAt   time.Time
		AvgResponseTimeMs   float64
		TotalRequests       uint64
		FailedRequests      uint64
	}
)

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
)

const (
	// emaAlpha is the weight of the newest latency sample.
	emaAlpha = 0.2
)

func newEndpoint(cfg *config.Endpoint) *Endpoint {
	return &Endpoint{
		name:     cfg.Name,
		url:      cfg.Url,
		priority: cfg.Priority,
		weight:   cfg.Weight,
		status:   StatusUnknown,
	}
}

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

func (e *Endpoint) Name() string {
	return e.name
}

func (e *Endpoint) Priority() int {
	return e.priority
}

func (e *Endpoint) Weight() uint8 {
	return e.weight
}

// IsHealthy returns true unless the endpoint has been degraded.
func (e *Endpoint) IsHealthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status != StatusUnhealthy
}

func (e *Endpoint) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Endpoint) Snapshot() EndpointSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EndpointSnapshot{
		Name:                e.name,
		Priority:            e.priority,
		Weight:              e.weight,
		Status:              e.status,
		Healthy:             e.status != StatusUnhealthy,
		ConsecutiveFailures: e.consecutiveFailures,
		LastHealthCheckAt:   e.lastHealthCheckAt,
		AvgResponseTimeMs:   e.avgResponseTimeMs,
		TotalRequests:       e.totalRequests,
		FailedRequests:      e.failedRequests,
	}
}

// beginRequest counts an attempt made by the executor.
func (e *Endpoint) beginRequest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totalRequests += 1
}

// recordSuccess resets the failure streak and folds latency into the moving average.
// It returns true if the endpoint recovered from StatusUnhealthy.
func (e *Endpoint) recordSuccess(latency time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordSuccessLocked(latency)
}

// recordFailure counts a failed executor attempt.
// It returns true if this failure degraded the endpoint.
func (e *Endpoint) recordFailure(threshold int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failedRequests += 1
	return e.recordFailureLocked(threshold)
}

func (e *Endpoint) recordProbeSuccess(latency time.Duration, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastHealthCheckAt = at
	return e.recordSuccessLocked(latency)
}

// recordProbeFailure leaves the request counters alone.
func (e *Endpoint) recordProbeFailure(threshold int, at time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastHealthCheckAt = at
	return e.recordFailureLocked(threshold)
}

// forceUnhealthy degrades the endpoint as if it had reached the threshold organically.
func (e *Endpoint) forceUnhealthy(threshold int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusUnhealthy
	e.consecutiveFailures = threshold
}

func (e *Endpoint) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusHealthy
	e.consecutiveFailures = 0
}

func (e *Endpoint) recordSuccessLocked(latency time.Duration) bool {
	sample := timeutil.DurationToMillis(latency)
	if e.avgResponseTimeMs == 0 {
		e.avgResponseTimeMs = sample
	} else {
		e.avgResponseTimeMs = e.avgResponseTimeMs*(1-emaAlpha) + sample*emaAlpha
	}

	recovered := e.status == StatusUnhealthy
	e.consecutiveFailures = 0
	e.status = StatusHealthy
	return recovered
}

func (e *Endpoint) recordFailureLocked(threshold int) bool {
	e.consecutiveFailures += 1
	if e.status != StatusUnhealthy && e.consecutiveFailures >= threshold {
		e.status = StatusUnhealthy
		return true
	}

	return false
}
