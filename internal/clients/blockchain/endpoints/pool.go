package endpoints

import (
	"sort"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
)

type (
	// Pool owns one client per configured endpoint.
	// The set of endpoints and their order never change after construction.
	Pool struct {
		endpoints []*Endpoint
		byName    map[string]*Endpoint
		clients   map[string]jsonrpc.Client
	}
)

// NewPool builds the endpoints sorted by ascending priority; ties keep their registration order.
// Endpoints without a usable url are skipped. No network calls are made.
func NewPool(logger *zap.Logger, cfg *config.ClientConfig, factory jsonrpc.ClientFactory) (*Pool, error) {
	for _, endpoint := range cfg.Endpoints {
		if !endpoint.IsConfigured() {
			logger.Debug("skipping unconfigured endpoint", zap.String("endpoint", endpoint.Name))
		}
	}

	configured := cfg.ConfiguredEndpoints()
	if len(configured) == 0 {
		return nil, ErrNoEndpointsConfigured
	}

	sort.SliceStable(configured, func(i, j int) bool {
		return configured[i].Priority < configured[j].Priority
	})

	pool := &Pool{
		endpoints: make([]*Endpoint, 0, len(configured)),
		byName:    make(map[string]*Endpoint, len(configured)),
		clients:   make(map[string]jsonrpc.Client, len(configured)),
	}
	for i := range configured {
		endpointCfg := &configured[i]
		if _, ok := pool.byName[endpointCfg.Name]; ok {
			return nil, xerrors.Errorf("failed to register %v: %w", endpointCfg.Name, ErrDuplicateEndpoint)
		}

		client, err := factory(endpointCfg)
		if err != nil {
			return nil, xerrors.Errorf("failed to create client for %v: %w", endpointCfg.Name, err)
		}

		endpoint := newEndpoint(endpointCfg)
		pool.endpoints = append(pool.endpoints, endpoint)
		pool.byName[endpoint.name] = endpoint
		pool.clients[endpoint.name] = client
		logger.Info(
			"registered endpoint",
			zap.String("endpoint", endpoint.name),
			zap.Int("priority", endpoint.priority),
			zap.Uint8("weight", endpoint.weight),
		)
	}

	return pool, nil
}

// Endpoints returns the endpoints in priority order.
func (p *Pool) Endpoints() []*Endpoint {
	return p.endpoints
}

func (p *Pool) Endpoint(name string) (*Endpoint, bool) {
	endpoint, ok := p.byName[name]
	return endpoint, ok
}

func (p *Pool) Client(name string) (jsonrpc.Client, bool) {
	client, ok := p.clients[name]
	return client, ok
}

func (p *Pool) Primary() *Endpoint {
	return p.endpoints[0]
}

// NextHealthy returns the first healthy endpoint in priority order other than skip.
func (p *Pool) NextHealthy(skip *Endpoint) (*Endpoint, bool) {
	for _, endpoint := range p.endpoints {
		if endpoint == skip {
			continue
		}

		if endpoint.IsHealthy() {
			return endpoint, true
		}
	}

	return nil, false
}

// candidates returns the healthy endpoints if there are any, and every endpoint otherwise.
func (p *Pool) candidates() []*Endpoint {
	healthy := make([]*Endpoint, 0, len(p.endpoints))
	for _, endpoint := range p.endpoints {
		if endpoint.IsHealthy() {
			healthy = append(healthy, endpoint)
		}
	}

	if len(healthy) == 0 {
		return p.endpoints
	}

	return healthy
}
