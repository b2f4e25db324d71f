package server

import (
	"fmt"
	"net/http"
)

type (
	// ServerError carries the status code of the http response together with its cause.
	ServerError struct {
		statusCode int
		cause      error
	}
)

const (
	// StatusCanceled is returned when a client cancels the request while it is being processed.
	StatusCanceled = 499
)

var (
	_ fmt.Formatter = (*ServerError)(nil)
)

func NewServerError(statusCode int, cause error) *ServerError {
	return &ServerError{
		statusCode: statusCode,
		cause:      cause,
	}
}

func (e *ServerError) Error() string {
	msg := fmt.Sprintf("%v %v", e.statusCode, http.StatusText(e.statusCode))
	if e.cause != nil {
		msg = fmt.Sprintf("%v\n%v", msg, e.cause.Error())
	}

	return msg
}

func (e *ServerError) Unwrap() error {
	return e.cause
}

// HTTPStatus is used as the status code of the HTTP response.
func (e *ServerError) HTTPStatus() int {
	return e.statusCode
}

// Format provides the "errorVerbose" field in Datadog.
func (e *ServerError) Format(state fmt.State, verb rune) {
	if verb == 'v' && state.Flag('+') {
		_, _ = fmt.Fprintf(state, "%v\n", e.Error())
		if e.cause != nil {
			_, _ = fmt.Fprintf(state, "%+v\n", e.cause)
		}
		return
	}

	_, _ = fmt.Fprint(state, e.Error())
}
