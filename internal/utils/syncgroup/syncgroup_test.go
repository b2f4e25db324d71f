package syncgroup

import (
	"context"
	"sync/atomic"
	"testing"

	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestGroup(t *testing.T) {
	require := testutil.Require(t)

	g, _ := New(context.Background())
	var counter int32
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			atomic.AddInt32(&counter, 1)
			return nil
		})
	}
	require.NoError(g.Wait())
	require.Equal(int32(10), atomic.LoadInt32(&counter))
}

func TestGroup_Error(t *testing.T) {
	require := testutil.Require(t)

	g, ctx := New(context.Background())
	g.Go(func() error {
		return xerrors.New("failed")
	})
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	require.Error(g.Wait())
}
