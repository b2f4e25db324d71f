package jsonrpc

import (
	"net/http"
	"time"

	tracehttp "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
)

type (
	HTTPClientOption func(opts *httpClientOptions)

	httpClientOptions struct {
		timeout  time.Duration
		maxConns int
	}
)

const (
	defaultHTTPTimeout  = 30 * time.Second
	defaultHTTPMaxConns = 100
)

// NewHTTPClient returns a pooled http client whose transport is traced by Datadog.
func NewHTTPClient(opts ...HTTPClientOption) (*http.Client, error) {
	options := &httpClientOptions{
		timeout:  defaultHTTPTimeout,
		maxConns: defaultHTTPMaxConns,
	}
	for _, opt := range opts {
		opt(options)
	}

	httpClient, err := newDefaultClient(options)
	if err != nil {
		return nil, err
	}

	return tracehttp.WrapClient(httpClient), nil
}

// WithTimeout overrides the overall http timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(opts *httpClientOptions) {
		if timeout > 0 {
			opts.timeout = timeout
		}
	}
}

func WithMaxConns(maxConns int) HTTPClientOption {
	return func(opts *httpClientOptions) {
		if maxConns > 0 {
			opts.maxConns = maxConns
		}
	}
}

func newDefaultClient(options *httpClientOptions) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = options.maxConns
	transport.MaxIdleConnsPerHost = options.maxConns // If not set, MaxIdleConnsPerHost defaults to 2.

	return &http.Client{
		Timeout:   options.timeout,
		Transport: transport,
	}, nil
}
