package endpoints

import (
	"testing"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap/zaptest"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	jsonrpcmocks "github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc/mocks"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestNewPool_SortedByPriority(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	cfg := &config.ClientConfig{
		Endpoints: config.EndpointList{
			{Name: "c", Url: "http://c", Priority: 3},
			{Name: "b1", Url: "http://b1", Priority: 2},
			{Name: "a", Url: "http://a", Priority: 1},
			{Name: "b2", Url: "http://b2", Priority: 2},
		},
	}
	clients := map[string]jsonrpc.Client{}
	pool, err := NewPool(zaptest.NewLogger(t), cfg, newMockFactory(ctrl, clients))
	require.NoError(err)

	var names []string
	for _, endpoint := range pool.Endpoints() {
		names = append(names, endpoint.Name())
	}
	require.Equal([]string{"a", "b1", "b2", "c"}, names)
	require.Equal("a", pool.Primary().Name())

	client, ok := pool.Client("b2")
	require.True(ok)
	require.Equal(clients["b2"], client)

	_, ok = pool.Client("unknown")
	require.False(ok)

	// The configuration itself is left untouched.
	require.Equal("c", cfg.Endpoints[0].Name)
}

func TestNewPool_SkipsPlaceholders(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	cfg := &config.ClientConfig{
		Endpoints: config.EndpointList{
			{Name: "a", Url: "<placeholder>", Priority: 1},
			{Name: "b", Url: "", Priority: 2},
			{Name: "c", Url: "<helius-url>", Priority: 3},
			{Name: "d", Url: "http://d", Priority: 4},
		},
	}
	pool, err := NewPool(zaptest.NewLogger(t), cfg, newMockFactory(ctrl, map[string]jsonrpc.Client{}))
	require.NoError(err)
	require.Len(pool.Endpoints(), 1)
	require.Equal("d", pool.Primary().Name())

	_, ok := pool.Endpoint("a")
	require.False(ok)
}

func TestNewPool_NoEndpointsConfigured(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	cfg := &config.ClientConfig{
		Endpoints: config.EndpointList{
			{Name: "a", Url: "<placeholder>", Priority: 1},
		},
	}
	_, err := NewPool(zaptest.NewLogger(t), cfg, newMockFactory(ctrl, map[string]jsonrpc.Client{}))
	require.Error(err)
	require.True(xerrors.Is(err, ErrNoEndpointsConfigured))

	_, err = NewPool(zaptest.NewLogger(t), &config.ClientConfig{}, newMockFactory(ctrl, map[string]jsonrpc.Client{}))
	require.True(xerrors.Is(err, ErrNoEndpointsConfigured))
}

func TestNewPool_DuplicateName(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	cfg := &config.ClientConfig{
		Endpoints: config.EndpointList{
			{Name: "a", Url: "http://a1", Priority: 1},
			{Name: "a", Url: "http://a2", Priority: 2},
		},
	}
	_, err := NewPool(zaptest.NewLogger(t), cfg, newMockFactory(ctrl, map[string]jsonrpc.Client{}))
	require.Error(err)
	require.True(xerrors.Is(err, ErrDuplicateEndpoint))
}

func TestNewPool_FactoryError(t *testing.T) {
	require := testutil.Require(t)

	cfg := &config.ClientConfig{
		Endpoints: config.EndpointList{
			{Name: "a", Url: "http://a", Priority: 1},
		},
	}
	factory := func(endpoint *config.Endpoint) (jsonrpc.Client, error) {
		return nil, xerrors.New("boom")
	}
	_, err := NewPool(zaptest.NewLogger(t), cfg, factory)
	require.Error(err)
	require.Contains(err.Error(), "boom")
}

func TestPool_Candidates(t *testing.T) {
	require := testutil.Require(t)
	ctrl := gomock.NewController(t)

	pool := newTestPool(t, ctrl, map[string]jsonrpc.Client{}, "a", "b", "c")
	require.Len(pool.candidates(), 3)

	a, _ := pool.Endpoint("a")
	a.forceUnhealthy(3)
	candidates := pool.candidates()
	require.Len(candidates, 2)
	require.Equal("b", candidates[0].Name())

	next, ok := pool.NextHealthy(a)
	require.True(ok)
	require.Equal("b", next.Name())

	for _, endpoint := range pool.Endpoints() {
		endpoint.forceUnhealthy(3)
	}
	// Fail open.
	require.Len(pool.candidates(), 3)
	_, ok = pool.NextHealthy(a)
	require.False(ok)
}

// newMockFactory creates a mock client per endpoint and records it in clients.
func newMockFactory(ctrl *gomock.Controller, clients map[string]jsonrpc.Client) jsonrpc.ClientFactory {
	return func(endpoint *config.Endpoint) (jsonrpc.Client, error) {
		if client, ok := clients[endpoint.Name]; ok {
			return client, nil
		}

		client := jsonrpcmocks.NewMockClient(ctrl)
		clients[endpoint.Name] = client
		return client, nil
	}
}

// newTestPool registers the names with ascending priorities.
func newTestPool(t *testing.T, ctrl *gomock.Controller, clients map[string]jsonrpc.Client, names ...string) *Pool {
	cfg := &config.ClientConfig{}
	for i, name := range names {
		cfg.Endpoints = append(cfg.Endpoints, config.Endpoint{
			Name:     name,
			Url:      "http://" + name,
			Priority: i + 1,
			Weight:   1,
		})
	}

	pool, err := NewPool(zaptest.NewLogger(t), cfg, newMockFactory(ctrl, clients))
	testutil.Require(t).NoError(err)
	return pool
}
