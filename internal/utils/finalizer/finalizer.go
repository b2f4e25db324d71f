package finalizer

import (
	"io"
)

type (
	// Finalizer closes the underlying resource exactly once,
	// either explicitly via Close (returning the error) or via a deferred Finalize.
	Finalizer interface {
		Finalize()
		Close() error
	}

	finalizer struct {
		closer io.Closer
		closed bool
	}
)

func WithCloser(closer io.Closer) Finalizer {
	return &finalizer{closer: closer}
}

// Finalize closes the resource if Close has not been called, ignoring the error.
func (f *finalizer) Finalize() {
	if f.closed {
		return
	}

	_ = f.Close()
}

func (f *finalizer) Close() error {
	if f.closed {
		return nil
	}

	f.closed = true
	return f.closer.Close()
}
