package jsonrpc

//go:generate mockgen -destination=mocks/mocks.go -package=jsonrpcmocks github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc Client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/finalizer"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/fxparams"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/instrument"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/retry"
)

type (
	// Client talks to exactly one endpoint. It is safe for concurrent use.
	// Failures are classified before they leave the client:
	// retry.RateLimitError for throttling, retry.ConnectionError when the endpoint cannot be reached,
	// anything else is left unclassified.
	Client interface {
		Call(ctx context.Context, method *RequestMethod, params Params) (*Response, error)
		BatchCall(ctx context.Context, method *RequestMethod, batchParams []Params) ([]*Response, error)
		Endpoint() *config.Endpoint
	}

	// ClientFactory builds the client of one endpoint.
	ClientFactory func(endpoint *config.Endpoint) (Client, error)

	HTTPClient interface {
		Do(req *http.Request) (*http.Response, error)
	}

	ClientFactoryParams struct {
		fx.In
		fxparams.Params
		HTTPClient HTTPClient `optional:"true"` // Injected by unit test.
	}

	Request struct {
		JSONRPC string      `json:"jsonrpc"`
		Method  string      `json:"method"`
		Params  interface{} `json:"params,omitempty"`
		ID      uint        `json:"id"`
	}

	Response struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *RPCError       `json:"error,omitempty"`
		ID      uint            `json:"id"`
	}

	RPCError struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data,omitempty"`

		cause error
	}

	HTTPError struct {
		Code     int
		Response string
	}

	RequestMethod struct {
		Name    string
		Timeout time.Duration
	}

	Params []interface{}
)

type (
	clientImpl struct {
		logger     *zap.Logger
		metrics    tally.Scope
		httpClient HTTPClient
		endpoint   *config.Endpoint
	}
)

const (
	jsonrpcVersion = "2.0"
	scopeName      = "jsonrpc"

	// Error codes used by node providers to signal throttling.
	rpcCodeRateLimited   = 429
	rpcCodeLimitExceeded = -32005
)

var (
	// Implements Formatter so that zap writes errorVerbose to Datadog.
	_ fmt.Formatter = (*RPCError)(nil)
)

func NewClientFactory(params ClientFactoryParams) ClientFactory {
	logger := log.WithPackage(params.Logger)
	metrics := params.Metrics.SubScope(scopeName)
	clientConfig := params.Config.Client

	return func(endpoint *config.Endpoint) (Client, error) {
		httpClient := params.HTTPClient
		if httpClient == nil {
			client, err := NewHTTPClient(WithTimeout(clientConfig.Timeout), WithMaxConns(clientConfig.MaxConns))
			if err != nil {
				return nil, xerrors.Errorf("failed to create http client for %v: %w", endpoint.Name, err)
			}
			httpClient = client
		}

		return NewClient(logger, metrics, httpClient, endpoint), nil
	}
}

func NewClient(logger *zap.Logger, metrics tally.Scope, httpClient HTTPClient, endpoint *config.Endpoint) Client {
	return &clientImpl{
		logger:     logger.With(zap.String("endpoint", endpoint.Name)),
		metrics:    metrics,
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

func (c *clientImpl) Endpoint() *config.Endpoint {
	return c.endpoint
}

func (c *clientImpl) Call(ctx context.Context, method *RequestMethod, params Params) (*Response, error) {
	defer c.logDuration(method.Name, time.Now())

	request := &Request{
		JSONRPC: jsonrpcVersion,
		Method:  method.Name,
		Params:  params,
		ID:      0,
	}

	response := new(Response)
	err := c.instrument(ctx, method.Name, func(ctx context.Context) error {
		if err := c.makeHTTPRequest(ctx, method.Timeout, request, response); err != nil {
			return xerrors.Errorf("failed to make http request (method=%v, params=%v, endpoint=%v): %w", method.Name, params, c.endpoint.Name, err)
		}

		return nil
	})

	if response.Error != nil {
		rpcErr := xerrors.Errorf("received rpc error (method=%v, params=%v, endpoint=%v): %w", method.Name, params, c.endpoint.Name, response.Error)
		if response.Error.IsRateLimited() || (err != nil && retry.Classify(err) == retry.KindRateLimit) {
			return nil, retry.RateLimit(rpcErr)
		}

		var retryableErr *retry.RetryableError
		if xerrors.As(err, &retryableErr) {
			// The node failed to serve the request; the error body only describes the failure.
			return nil, retry.Retryable(rpcErr)
		}

		return nil, rpcErr
	}

	if err != nil {
		return nil, err
	}

	return response, nil
}

// Forward calls the method and returns an error answered by the node inside the response.
// Only transport failures, server errors and throttling are returned as errors,
// so that a request rejected by the node does not count against the endpoint.
func Forward(ctx context.Context, client Client, method *RequestMethod, params Params) (*Response, error) {
	response, err := client.Call(ctx, method, params)
	if err != nil {
		var rpcErr *RPCError
		var retryableErr *retry.RetryableError
		if retry.Classify(err) == retry.KindUnclassified && xerrors.As(err, &rpcErr) && !xerrors.As(err, &retryableErr) {
			return &Response{
				JSONRPC: jsonrpcVersion,
				Error:   rpcErr,
			}, nil
		}

		return nil, err
	}

	return response, nil
}

func (c *clientImpl) BatchCall(ctx context.Context, method *RequestMethod, batchParams []Params) ([]*Response, error) {
	defer c.logDuration(method.Name, time.Now())

	batchRequests := make([]*Request, len(batchParams))
	for i, params := range batchParams {
		batchRequests[i] = &Request{
			JSONRPC: jsonrpcVersion,
			Method:  method.Name,
			Params:  params,
			ID:      uint(i),
		}
	}

	finalBatchResponses := make([]*Response, len(batchParams))
	if err := c.instrument(ctx, method.Name, func(ctx context.Context) error {
		var batchResponses []Response
		if err := c.makeHTTPRequest(ctx, method.Timeout, batchRequests, &batchResponses); err != nil {
			return xerrors.Errorf(
				"failed to make http request (method=%v, params=%v, endpoint=%v): %w",
				method.Name, c.formatParams(batchParams), c.endpoint.Name, err,
			)
		}

		if len(batchParams) != len(batchResponses) {
			return xerrors.Errorf(
				"received wrong number of responses (method=%v, params=%v, endpoint=%v, want=%v, got=%v)",
				method.Name, c.formatParams(batchParams), c.endpoint.Name, len(batchParams), len(batchResponses),
			)
		}

		// The responses may be out of order.
		// Reorder them to match `batchParams`.
		for i := range batchResponses {
			response := &batchResponses[i]

			id := int(response.ID)
			if id >= len(finalBatchResponses) {
				return xerrors.Errorf(
					"received unexpected response id (method=%v, params=%v, endpoint=%v, id=%v)",
					method.Name, c.formatParams(batchParams), c.endpoint.Name, id,
				)
			}

			if response.Error != nil {
				rpcErr := xerrors.Errorf(
					"received rpc error (method=%v, params=%v, endpoint=%v): %w",
					method.Name, c.formatParams(batchParams), c.endpoint.Name, response.Error,
				)
				if response.Error.IsRateLimited() {
					return retry.RateLimit(rpcErr)
				}
				return rpcErr
			}

			if response.IsNullOrEmpty() {
				return retry.Retryable(xerrors.Errorf(
					"received a null response (method=%v, params=%v, endpoint=%v, index=%v, response=%v)",
					method.Name, c.formatParams(batchParams), c.endpoint.Name, i, string(response.Result),
				))
			}

			finalBatchResponses[id] = response
		}

		return nil
	}); err != nil {
		return nil, err
	}

	for i := range finalBatchResponses {
		if finalBatchResponses[i] == nil {
			return nil, xerrors.Errorf(
				"missing response (method=%v, params=%v, endpoint=%v, id=%v)",
				method.Name, c.formatParams(batchParams), c.endpoint.Name, i,
			)
		}
	}

	return finalBatchResponses, nil
}

func (c *clientImpl) makeHTTPRequest(ctx context.Context, timeout time.Duration, data interface{}, out interface{}) error {
	requestBody, err := json.Marshal(data)
	if err != nil {
		return xerrors.Errorf("failed to marshal request: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.Url, bytes.NewReader(requestBody))
	if err != nil {
		err = c.sanitizedError(err)
		return xerrors.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	if c.endpoint.User != "" && c.endpoint.Password != "" {
		request.SetBasicAuth(c.endpoint.User, c.endpoint.Password)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		err = c.sanitizedError(err)
		return retry.Connection(xerrors.Errorf("failed to send http request: %w", err))
	}

	finalizer := finalizer.WithCloser(response.Body)
	defer finalizer.Finalize()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return retry.Retryable(xerrors.Errorf("failed to read http response: %w", err))
	}

	if response.StatusCode != http.StatusOK {
		errHTTP := xerrors.Errorf("received http error: %w", &HTTPError{
			Code:     response.StatusCode,
			Response: string(responseBody),
		})

		// unmarshal responseBody if possible in order to preserve the error code. silence error if there is any.
		if err := json.Unmarshal(responseBody, out); err != nil {
			c.logger.Warn("failed to decode response", zap.String("response", string(responseBody)), zap.Error(err))
		}

		if response.StatusCode == http.StatusTooManyRequests {
			return retry.RateLimit(errHTTP)
		}

		if response.StatusCode >= http.StatusInternalServerError {
			return retry.Retryable(errHTTP)
		}

		return errHTTP
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return xerrors.Errorf("failed to decode response %v: %w", string(responseBody), err)
	}

	return finalizer.Close()
}

func (c *clientImpl) logDuration(method string, start time.Time) {
	c.logger.Debug(
		"jsonrpc.request",
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	)
}

func (c *clientImpl) instrument(ctx context.Context, method string, fn instrument.OperationFn) error {
	tags := map[string]string{
		"method":   method,
		"endpoint": c.endpoint.Name,
	}
	scope := c.metrics.Tagged(tags)
	call := instrument.NewCall(
		scope,
		"request",
		instrument.WithTracer("jsonrpc.request", tags),
	)
	return call.Instrument(ctx, fn)
}

func (c *clientImpl) formatParams(params []Params) string {
	const maxParams = 10
	builder := strings.Builder{}
	builder.WriteRune('[')
	for i, param := range params {
		if i > 0 {
			builder.WriteRune(',')
		}

		if i == maxParams {
			builder.WriteString(fmt.Sprintf("...(%v items)", len(params)))
			break
		}

		builder.WriteString(fmt.Sprintf("%+v", param))
	}

	builder.WriteRune(']')
	return builder.String()
}

func (c *clientImpl) sanitizedError(err error) error {
	var uerr *url.Error
	if xerrors.As(err, &uerr) {
		// url.Error includes the url in the error message, which may contain the API key.
		err = uerr.Err
	}
	return err
}

func NewRPCError(code int, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}

// Error provides the error message seen by RPC clients.
// In order to keep the error message consistent with the node,
// do not annotate the message with extra information.
func (e *RPCError) Error() string {
	return e.Message
}

func (e *RPCError) ErrorCode() int {
	return e.Code
}

func (e *RPCError) ErrorData() interface{} {
	return e.Data
}

// IsRateLimited reports whether the node rejected the request because of throttling.
func (e *RPCError) IsRateLimited() bool {
	return e.Code == rpcCodeRateLimited || e.Code == rpcCodeLimitExceeded
}

// Format provides the "errorVerbose" field in Datadog.
// The stack trace, if available, is taken from the cause.
func (e *RPCError) Format(state fmt.State, verb rune) {
	if verb == 'v' && state.Flag('+') {
		_, _ = fmt.Fprintf(state, "RPCError %v: %v\n", e.Code, e.Message)
		if e.cause != nil {
			_, _ = fmt.Fprintf(state, "Caused by: %+v\n", e.cause)
		}
		return
	}

	_, _ = io.WriteString(state, e.Message)
}

// WithCause annotates the error with the cause of the error.
// The stack trace will be written to the "errorVerbose" field in Datadog.
func (e *RPCError) WithCause(cause error) *RPCError {
	clone := *e
	clone.cause = cause
	return &clone
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %v: %v", e.Code, e.Response)
}

func (r *Response) Unmarshal(out interface{}) error {
	return json.Unmarshal(r.Result, out)
}

func (r *Response) IsNullOrEmpty() bool {
	if len(r.Result) == 0 ||
		bytes.Equal(r.Result, []byte("{}")) ||
		bytes.Equal(r.Result, []byte("null")) {
		return true
	}

	return false
}
