package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/endpoints"
	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/fxparams"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/instrument"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
)

type (
	ServerParams struct {
		fx.In
		fxparams.Params
		Lifecycle fx.Lifecycle
		Provider  endpoints.FailoverProvider
	}

	// Server exposes the pool status, the administrative overrides and a json-rpc passthrough.
	Server struct {
		logger     *zap.Logger
		metrics    tally.Scope
		provider   endpoints.FailoverProvider
		address    string
		mux        *http.ServeMux
		httpServer *http.Server
	}
)

const (
	HealthPath   = "/health"
	FailoverPath = "/admin/failover"
	ResetPath    = "/admin/reset"
	RPCPath      = "/v1"

	EndpointParam = "endpoint"

	jsonrpcVersion = "2.0"

	// Standard json-rpc error codes.
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeInternalError  = -32603

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	serverScope       = "server"
	routeTag          = "route"
	loggerMsg         = "server.request"
)

var (
	_ http.Handler = (*Server)(nil)
)

func NewServer(params ServerParams) *Server {
	logger := log.WithPackage(params.Logger)
	server := &Server{
		logger:   logger,
		metrics:  params.Metrics.SubScope(serverScope),
		provider: params.Provider,
		address:  params.Config.Server.BindAddress,
		mux:      http.NewServeMux(),
	}

	server.registerHandler(HealthPath, http.MethodGet, server.handleHealth)
	server.registerHandler(FailoverPath, http.MethodPost, server.handleFailover)
	server.registerHandler(ResetPath, http.MethodPost, server.handleReset)
	server.registerHandler(RPCPath, http.MethodPost, server.handleRPC)

	params.Lifecycle.Append(fx.Hook{
		OnStart: server.onStart,
		OnStop:  server.onStop,
	})

	return server
}

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.mux.ServeHTTP(writer, request)
}

func (s *Server) onStart(ctx context.Context) error {
	if s.address == "" {
		return nil
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return xerrors.Errorf("failed to listen on %v: %w", s.address, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.logger.Info("starting server", zap.String("address", listener.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

func (s *Server) onStop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("stopping server")
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return xerrors.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func (s *Server) registerHandler(path string, method string, handler http.HandlerFunc) {
	call := instrument.NewCall(
		s.metrics.Tagged(map[string]string{routeTag: path}),
		"request",
		instrument.WithLogger(s.logger.With(zap.String(routeTag, path)), loggerMsg),
		instrument.WithTracer(loggerMsg, map[string]string{routeTag: path}),
	)

	s.mux.HandleFunc(path, func(writer http.ResponseWriter, request *http.Request) {
		_ = call.Instrument(request.Context(), func(ctx context.Context) error {
			interceptor := NewResponseInterceptor(writer)
			if request.Method != method {
				s.writeError(interceptor, NewServerError(
					http.StatusMethodNotAllowed,
					xerrors.Errorf("method %v is not allowed", request.Method),
				))
				return interceptor.Err()
			}

			handler(interceptor, request.WithContext(ctx))
			return interceptor.Err()
		})
	})
}

// handleHealth returns 503 when no endpoint is healthy so that load balancers can react.
func (s *Server) handleHealth(writer http.ResponseWriter, request *http.Request) {
	status := s.provider.Status()
	statusCode := http.StatusOK
	if status.HealthyCount == 0 {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(writer, statusCode, status)
}

func (s *Server) handleFailover(writer http.ResponseWriter, request *http.Request) {
	name := request.URL.Query().Get(EndpointParam)
	if name == "" {
		s.writeError(writer, NewServerError(
			http.StatusBadRequest,
			xerrors.Errorf("missing query parameter %q", EndpointParam),
		))
		return
	}

	if !s.provider.ForceFailover(name) {
		s.writeError(writer, NewServerError(
			http.StatusNotFound,
			xerrors.Errorf("unknown endpoint %q", name),
		))
		return
	}

	s.writeJSON(writer, http.StatusOK, s.provider.Status())
}

func (s *Server) handleReset(writer http.ResponseWriter, request *http.Request) {
	s.provider.ResetAll()
	s.writeJSON(writer, http.StatusOK, s.provider.Status())
}

// handleRPC forwards a single json-rpc request through the failover provider.
func (s *Server) handleRPC(writer http.ResponseWriter, request *http.Request) {
	interceptor := NewRequestInterceptor(request)
	body, err := interceptor.Body()
	if err != nil {
		s.writeError(writer, err)
		return
	}

	if interceptor.IsBatch() {
		s.writeRPCError(writer, http.StatusBadRequest, 0, jsonrpc.NewRPCError(codeInvalidRequest, "batch requests are not supported"))
		return
	}

	var rpcRequest struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
		ID      uint            `json:"id"`
	}
	if err := json.Unmarshal(body, &rpcRequest); err != nil {
		s.writeRPCError(writer, http.StatusBadRequest, 0, jsonrpc.NewRPCError(codeParseError, "parse error"))
		return
	}

	if rpcRequest.Method == "" {
		s.writeRPCError(writer, http.StatusBadRequest, rpcRequest.ID, jsonrpc.NewRPCError(codeInvalidRequest, "missing method"))
		return
	}

	var params jsonrpc.Params
	if len(rpcRequest.Params) > 0 && string(rpcRequest.Params) != "null" {
		if err := json.Unmarshal(rpcRequest.Params, &params); err != nil {
			s.writeRPCError(writer, http.StatusBadRequest, rpcRequest.ID, jsonrpc.NewRPCError(codeInvalidRequest, "params must be an array"))
			return
		}
	}

	method := jsonrpc.NewRequestMethod(rpcRequest.Method, 0)
	response, err := endpoints.Do(request.Context(), s.provider, rpcRequest.Method, func(ctx context.Context, client jsonrpc.Client) (*jsonrpc.Response, error) {
		return jsonrpc.Forward(ctx, client, method, params)
	})
	if err != nil {
		statusCode := http.StatusServiceUnavailable
		if xerrors.Is(err, context.Canceled) {
			statusCode = StatusCanceled
		}
		log.WithSpan(request.Context(), s.logger).Warn("failed to forward request", zap.String("method", rpcRequest.Method), zap.Error(err))
		s.writeRPCError(writer, statusCode, rpcRequest.ID, jsonrpc.NewRPCError(codeInternalError, err.Error()))
		return
	}

	if response.Error != nil {
		s.writeRPCError(writer, http.StatusOK, rpcRequest.ID, response.Error)
		return
	}

	s.writeJSON(writer, http.StatusOK, &jsonrpc.Response{
		JSONRPC: jsonrpcVersion,
		Result:  response.Result,
		ID:      rpcRequest.ID,
	})
}

func (s *Server) writeRPCError(writer http.ResponseWriter, statusCode int, id uint, rpcErr *jsonrpc.RPCError) {
	s.writeJSON(writer, statusCode, &jsonrpc.Response{
		JSONRPC: jsonrpcVersion,
		Error:   rpcErr,
		ID:      id,
	})
}

func (s *Server) writeError(writer http.ResponseWriter, err error) {
	var serverErr *ServerError
	if xerrors.As(err, &serverErr) {
		http.Error(writer, serverErr.Error(), serverErr.HTTPStatus())
		return
	}

	http.Error(writer, err.Error(), http.StatusInternalServerError)
}

func (s *Server) writeJSON(writer http.ResponseWriter, statusCode int, value interface{}) {
	body, err := json.Marshal(value)
	if err != nil {
		s.writeError(writer, xerrors.Errorf("failed to encode response: %w", err))
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(body); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
