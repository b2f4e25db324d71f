package finalizer

import (
	"testing"

	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

type countingCloser struct {
	calls int
	err   error
}

func (c *countingCloser) Close() error {
	c.calls += 1
	return c.err
}

func TestFinalizer(t *testing.T) {
	require := testutil.Require(t)

	closer := &countingCloser{err: xerrors.New("close failed")}
	f := WithCloser(closer)
	require.Error(f.Close())
	f.Finalize()
	require.Equal(1, closer.calls)

	closer = &countingCloser{}
	f = WithCloser(closer)
	f.Finalize()
	f.Finalize()
	require.NoError(f.Close())
	require.Equal(1, closer.calls)
}
