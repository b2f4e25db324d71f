package endpoints

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap/zaptest"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	jsonrpcmocks "github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc/mocks"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/retry"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

type (
	failoverExecutorTestSuite struct {
		suite.Suite
		ctrl    *gomock.Controller
		cfg     *config.FailoverConfig
		metrics tally.TestScope
		clients map[string]jsonrpc.Client
	}
)

var testMethod = jsonrpc.NewRequestMethod("getBlockHeight", 0)

func TestFailoverExecutorTestSuite(t *testing.T) {
	suite.Run(t, new(failoverExecutorTestSuite))
}

func (s *failoverExecutorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cfg = newTestFailoverConfig()
	s.metrics = tally.NewTestScope("test", nil)
	s.clients = map[string]jsonrpc.Client{}
}

func (s *failoverExecutorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *failoverExecutorTestSuite) newExecutor(names ...string) (*FailoverExecutor, *Pool) {
	pool := newTestPool(s.T(), s.ctrl, s.clients, names...)
	return NewFailoverExecutor(zaptest.NewLogger(s.T()), s.metrics, pool, s.cfg), pool
}

func (s *failoverExecutorTestSuite) mock(name string) *jsonrpcmocks.MockClient {
	return s.clients[name].(*jsonrpcmocks.MockClient)
}

func (s *failoverExecutorTestSuite) TestPriorityOrdering() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a", "b", "c")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x1"), nil).Times(5)

	for i := 0; i < 5; i++ {
		require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))
	}

	a, _ := pool.Endpoint("a")
	require.Equal(uint64(5), a.Snapshot().TotalRequests)
	b, _ := pool.Endpoint("b")
	require.Equal(uint64(0), b.Snapshot().TotalRequests)
}

func (s *failoverExecutorTestSuite) TestFailoverOnRateLimit() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a", "b")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).
		Return(nil, retry.RateLimit(xerrors.New("too many requests"))).
		Times(1)
	s.mock("b").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x2"), nil)

	require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))

	a, _ := pool.Endpoint("a")
	snapshot := a.Snapshot()
	require.Equal(uint64(1), snapshot.TotalRequests)
	require.Equal(uint64(1), snapshot.FailedRequests)
	require.Equal(1, snapshot.ConsecutiveFailures)
	require.True(snapshot.Healthy)

	b, _ := pool.Endpoint("b")
	require.Equal(uint64(1), b.Snapshot().TotalRequests)
	require.Equal(int64(1), s.metrics.Snapshot().Counters()["test.executor.failover+"].Value())
}

func (s *failoverExecutorTestSuite) TestFailoverOnConnectionError() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a", "b")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).
		Return(nil, retry.Connection(xerrors.New("connection refused"))).
		Times(1)
	s.mock("b").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x2"), nil)

	require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))

	a, _ := pool.Endpoint("a")
	require.Equal(uint64(1), a.Snapshot().TotalRequests)
}

func (s *failoverExecutorTestSuite) TestRetryInPlaceOnUnclassifiedError() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a")
	gomock.InOrder(
		s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, xerrors.New("header not found")),
		s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, xerrors.New("header not found")),
		s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x3"), nil),
	)

	require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))

	a, _ := pool.Endpoint("a")
	snapshot := a.Snapshot()
	require.Equal(uint64(3), snapshot.TotalRequests)
	require.Equal(uint64(2), snapshot.FailedRequests)
	require.Equal(0, snapshot.ConsecutiveFailures)
	require.True(snapshot.Healthy)
}

func (s *failoverExecutorTestSuite) TestRetryDelayIsLinear() {
	require := testutil.Require(s.T())

	s.cfg.RetryDelay = 20 * time.Millisecond
	executor, _ := s.newExecutor("a")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, xerrors.New("unknown")).Times(3)

	start := time.Now()
	err := executor.Execute(context.Background(), "getBlockHeight", callOperation)
	require.Error(err)
	// 20ms after the first attempt and 40ms after the second.
	require.GreaterOrEqual(time.Since(start), 60*time.Millisecond)
}

func (s *failoverExecutorTestSuite) TestDegradeAfterThreshold() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a", "b")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, xerrors.New("unknown")).Times(3)
	s.mock("b").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x1"), nil).Times(2)

	require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))

	a, _ := pool.Endpoint("a")
	snapshot := a.Snapshot()
	require.False(snapshot.Healthy)
	require.Equal(3, snapshot.ConsecutiveFailures)

	// Unhealthy endpoints are skipped while a healthy one exists.
	require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))
	require.Equal(uint64(3), a.Snapshot().TotalRequests)
}

func (s *failoverExecutorTestSuite) TestFailOpen() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a", "b")
	for _, endpoint := range pool.Endpoints() {
		endpoint.forceUnhealthy(s.cfg.FailureThreshold)
	}

	gomock.InOrder(
		s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, retry.Connection(xerrors.New("refused"))),
		s.mock("b").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x1"), nil),
	)

	require.NoError(executor.Execute(context.Background(), "getBlockHeight", callOperation))

	a, _ := pool.Endpoint("a")
	require.False(a.IsHealthy())
	b, _ := pool.Endpoint("b")
	// A single success is enough to recover.
	require.True(b.IsHealthy())
}

func (s *failoverExecutorTestSuite) TestExhausted() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a", "b")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, xerrors.New("execution reverted")).Times(3)
	s.mock("b").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(nil, xerrors.New("last failure")).Times(3)

	err := executor.Execute(context.Background(), "sendTransaction", callOperation)
	require.Error(err)

	var exhaustedErr *AllEndpointsExhaustedError
	require.True(xerrors.As(err, &exhaustedErr))
	require.Equal("sendTransaction", exhaustedErr.Label)
	require.Contains(err.Error(), "sendTransaction")
	require.Contains(err.Error(), "last failure")

	for _, endpoint := range pool.Endpoints() {
		snapshot := endpoint.Snapshot()
		require.Equal(uint64(3), snapshot.TotalRequests)
		require.Equal(uint64(3), snapshot.FailedRequests)
	}
	require.Equal(int64(1), s.metrics.Snapshot().Counters()["test.executor.exhausted+"].Value())
}

func (s *failoverExecutorTestSuite) TestAttemptTimeout() {
	require := testutil.Require(s.T())

	s.cfg.RequestTimeout = 20 * time.Millisecond
	s.cfg.MaxRetries = 2
	executor, pool := s.newExecutor("a")

	block := make(chan struct{})
	defer close(block)

	// The operation ignores its context; the attempt must still be bounded.
	err := executor.Execute(context.Background(), "getBlockHeight", func(ctx context.Context, client jsonrpc.Client) error {
		<-block
		return nil
	})
	require.Error(err)

	var timeoutErr *AttemptTimeoutError
	require.True(xerrors.As(err, &timeoutErr))
	require.Equal("a", timeoutErr.Endpoint)
	require.True(xerrors.Is(err, context.DeadlineExceeded))

	a, _ := pool.Endpoint("a")
	snapshot := a.Snapshot()
	require.Equal(uint64(2), snapshot.TotalRequests)
	require.Equal(uint64(2), snapshot.FailedRequests)
}

func (s *failoverExecutorTestSuite) TestTimeoutOverridesClassification() {
	require := testutil.Require(s.T())

	s.cfg.RequestTimeout = 20 * time.Millisecond
	executor, pool := s.newExecutor("a")

	err := executor.Execute(context.Background(), "getBlockHeight", func(ctx context.Context, client jsonrpc.Client) error {
		<-ctx.Done()
		return retry.Connection(ctx.Err())
	})
	require.Error(err)

	var timeoutErr *AttemptTimeoutError
	require.True(xerrors.As(err, &timeoutErr))

	// Timeouts are retried in place.
	a, _ := pool.Endpoint("a")
	require.Equal(uint64(3), a.Snapshot().TotalRequests)
}

func (s *failoverExecutorTestSuite) TestCanceledContext() {
	require := testutil.Require(s.T())

	executor, _ := s.newExecutor("a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Execute(ctx, "getBlockHeight", func(ctx context.Context, client jsonrpc.Client) error {
		return ctx.Err()
	})
	require.Error(err)
	require.True(xerrors.Is(err, context.Canceled))

	var exhaustedErr *AllEndpointsExhaustedError
	require.False(xerrors.As(err, &exhaustedErr))
}

func (s *failoverExecutorTestSuite) TestDo() {
	require := testutil.Require(s.T())

	executor, pool := s.newExecutor("a")
	s.mock("a").EXPECT().Call(gomock.Any(), testMethod, gomock.Any()).Return(newResponse("0x2a"), nil)

	provider := &failoverProvider{
		logger:    zaptest.NewLogger(s.T()),
		pool:      pool,
		executor:  executor,
		threshold: s.cfg.FailureThreshold,
	}
	height, err := Do(context.Background(), provider, "getBlockHeight", func(ctx context.Context, client jsonrpc.Client) (uint64, error) {
		response, err := client.Call(ctx, testMethod, nil)
		if err != nil {
			return 0, err
		}

		return decodeHeight(response)
	})
	require.NoError(err)
	require.Equal(uint64(42), height)
}

func callOperation(ctx context.Context, client jsonrpc.Client) error {
	_, err := client.Call(ctx, testMethod, nil)
	return err
}

func newResponse(result string) *jsonrpc.Response {
	raw, _ := json.Marshal(result)
	return &jsonrpc.Response{
		JSONRPC: "2.0",
		Result:  raw,
	}
}

func newTestFailoverConfig() *config.FailoverConfig {
	return &config.FailoverConfig{
		MaxRetries:          3,
		RetryDelay:          time.Millisecond,
		RequestTimeout:      time.Second,
		HealthCheckInterval: time.Hour,
		HealthCheckTimeout:  100 * time.Millisecond,
		HealthCheckMethod:   "getBlockHeight",
		FailureThreshold:    3,
	}
}
