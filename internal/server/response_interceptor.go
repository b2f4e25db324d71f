package server

import (
	"net/http"

	"golang.org/x/xerrors"
)

type (
	// ResponseInterceptor records the status code written by a handler.
	ResponseInterceptor struct {
		http.ResponseWriter

		statusCode int
	}
)

var (
	errHandler = xerrors.New("handler error")
)

func NewResponseInterceptor(writer http.ResponseWriter) *ResponseInterceptor {
	return &ResponseInterceptor{
		ResponseWriter: writer,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader intercepts the response status code.
func (i *ResponseInterceptor) WriteHeader(statusCode int) {
	i.statusCode = statusCode
	i.ResponseWriter.WriteHeader(statusCode)
}

func (i *ResponseInterceptor) StatusCode() int {
	return i.statusCode
}

// Err converts an error status into a ServerError so that it is counted by the instrumentation.
func (i *ResponseInterceptor) Err() error {
	if i.statusCode >= http.StatusBadRequest {
		return NewServerError(i.statusCode, errHandler)
	}

	return nil
}
