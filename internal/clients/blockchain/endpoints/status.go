package endpoints

import (
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/timeutil"
)

type (
	// PoolStatus is a read-only view of the pool, suitable for a health check handler.
	PoolStatus struct {
		PrimaryEndpoint string           `json:"primaryEndpoint"`
		ActiveEndpoint  string           `json:"activeEndpoint"`
		HealthyCount    int              `json:"healthyCount"`
		TotalCount      int              `json:"totalCount"`
		Endpoints       []EndpointStatus `json:"endpoints"`
	}

	EndpointStatus struct {
		Name                string  `json:"name"`
		Healthy             bool    `json:"healthy"`
		Status              string  `json:"status"`
		Priority            int     `json:"priority"`
		Weight              uint8   `json:"weight"`
		ConsecutiveFailures int     `json:"consecutiveFailures"`
		AvgResponseTimeMs   float64 `json:"avgResponseTimeMs"`
		TotalRequests       uint64  `json:"totalRequests"`
		FailedRequests      uint64  `json:"failedRequests"`
		SuccessRatePercent  float64 `json:"successRatePercent"`
		LastHealthCheckAt   string  `json:"lastHealthCheckAt,omitempty"`
	}
)

// NewPoolStatus has no side effects.
// The active endpoint is the first healthy one by priority, or the primary if none is healthy.
func NewPoolStatus(pool *Pool) *PoolStatus {
	endpoints := pool.Endpoints()
	status := &PoolStatus{
		PrimaryEndpoint: endpoints[0].Name(),
		TotalCount:      len(endpoints),
		Endpoints:       make([]EndpointStatus, len(endpoints)),
	}

	for i, endpoint := range endpoints {
		snapshot := endpoint.Snapshot()
		if snapshot.Healthy {
			if status.HealthyCount == 0 {
				status.ActiveEndpoint = snapshot.Name
			}
			status.HealthyCount += 1
		}

		status.Endpoints[i] = newEndpointStatus(&snapshot)
	}

	if status.ActiveEndpoint == "" {
		status.ActiveEndpoint = status.PrimaryEndpoint
	}

	return status
}

func newEndpointStatus(snapshot *EndpointSnapshot) EndpointStatus {
	successRate := 100.0
	if snapshot.TotalRequests > 0 {
		successRate = float64(snapshot.TotalRequests-snapshot.FailedRequests) / float64(snapshot.TotalRequests) * 100
	}

	return EndpointStatus{
		Name:                snapshot.Name,
		Healthy:             snapshot.Healthy,
		Status:              snapshot.Status.String(),
		Priority:            snapshot.Priority,
		Weight:              snapshot.Weight,
		ConsecutiveFailures: snapshot.ConsecutiveFailures,
		AvgResponseTimeMs:   snapshot.AvgResponseTimeMs,
		TotalRequests:       snapshot.TotalRequests,
		FailedRequests:      snapshot.FailedRequests,
		SuccessRatePercent:  successRate,
		LastHealthCheckAt:   timeutil.TimeToISO8601(snapshot.LastHealthCheckAt),
	}
}
