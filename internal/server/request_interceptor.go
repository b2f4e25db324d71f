package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/xerrors"
)

type (
	// RequestInterceptor reads the request body once and makes it readable again.
	RequestInterceptor struct {
		request *http.Request
		body    []byte
		err     error
	}

	readCloser struct {
		reader io.Reader
		closer io.Closer
	}
)

const (
	maxRequestBodySize = 5 * 1024 * 1024
)

func NewRequestInterceptor(request *http.Request) *RequestInterceptor {
	body, err := io.ReadAll(io.LimitReader(request.Body, maxRequestBodySize+1))
	if err == nil && len(body) > maxRequestBodySize {
		err = xerrors.Errorf("request body exceeds %v bytes", maxRequestBodySize)
	}
	if err != nil {
		return &RequestInterceptor{
			request: request,
			err: NewServerError(
				http.StatusBadRequest,
				xerrors.Errorf("failed to read request: %w", err),
			),
		}
	}

	// Replace body so that it can be read again.
	request.Body = readCloser{
		reader: bytes.NewBuffer(body),
		closer: request.Body,
	}

	return &RequestInterceptor{
		request: request,
		body:    body,
	}
}

func (i *RequestInterceptor) Body() (json.RawMessage, error) {
	// Cast to json.RawMessage so that the body can be logged as a JSON
	// instead of string (i.e. no extraneous quote escaping).
	return i.body, i.err
}

// IsBatch reports whether the body is a json array.
func (i *RequestInterceptor) IsBatch() bool {
	trimmed := bytes.TrimLeft(i.body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (c readCloser) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c readCloser) Close() error {
	return c.closer.Close()
}
