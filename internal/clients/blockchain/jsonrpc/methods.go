package jsonrpc

import (
	"time"
)

// NewRequestMethod describes a json-rpc method.
// A zero timeout leaves the deadline to the caller's context.
func NewRequestMethod(name string, timeout time.Duration) *RequestMethod {
	return &RequestMethod{
		Name:    name,
		Timeout: timeout,
	}
}
