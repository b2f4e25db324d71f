package endpoints

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestNewPoolStatus_Fresh(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	pool := newTestPool(t, ctrl, map[string]jsonrpc.Client{}, "a", "b")
	status := NewPoolStatus(pool)
	require.Equal("a", status.PrimaryEndpoint)
	require.Equal("a", status.ActiveEndpoint)
	require.Equal(2, status.HealthyCount)
	require.Equal(2, status.TotalCount)
	require.Len(status.Endpoints, 2)
	require.Equal(float64(100), status.Endpoints[0].SuccessRatePercent)
	require.Equal("unknown", status.Endpoints[0].Status)
	require.Empty(status.Endpoints[0].LastHealthCheckAt)
}

func TestNewPoolStatus_ActiveIsFirstHealthy(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	pool := newTestPool(t, ctrl, map[string]jsonrpc.Client{}, "a", "b", "c")
	a, _ := pool.Endpoint("a")
	a.forceUnhealthy(3)

	status := NewPoolStatus(pool)
	require.Equal("a", status.PrimaryEndpoint)
	require.Equal("b", status.ActiveEndpoint)
	require.Equal(2, status.HealthyCount)
	require.False(status.Endpoints[0].Healthy)
	require.Equal(3, status.Endpoints[0].ConsecutiveFailures)
}

func TestNewPoolStatus_NoneHealthy(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	pool := newTestPool(t, ctrl, map[string]jsonrpc.Client{}, "a", "b")
	for _, endpoint := range pool.Endpoints() {
		endpoint.forceUnhealthy(3)
	}

	status := NewPoolStatus(pool)
	require.Equal("a", status.ActiveEndpoint)
	require.Equal(0, status.HealthyCount)
	require.Equal(2, status.TotalCount)
}

func TestNewPoolStatus_SuccessRate(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	pool := newTestPool(t, ctrl, map[string]jsonrpc.Client{}, "a")
	a, _ := pool.Endpoint("a")
	for i := 0; i < 4; i++ {
		a.beginRequest()
	}
	a.recordFailure(3)
	a.recordSuccess(100 * time.Millisecond)
	a.recordProbeSuccess(100*time.Millisecond, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	status := NewPoolStatus(pool)
	endpoint := status.Endpoints[0]
	require.Equal(uint64(4), endpoint.TotalRequests)
	require.Equal(uint64(1), endpoint.FailedRequests)
	require.Equal(float64(75), endpoint.SuccessRatePercent)
	require.Equal(float64(100), endpoint.AvgResponseTimeMs)
	require.Equal("2024-01-02T03:04:05Z", endpoint.LastHealthCheckAt)
}
