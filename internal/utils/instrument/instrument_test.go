package instrument

import (
	"context"
	"testing"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap/zaptest"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestInstrument(t *testing.T) {
	require := testutil.Require(t)

	scope := tally.NewTestScope("test", nil)
	call := NewCall(scope, "probe", WithLogger(zaptest.NewLogger(t), "probe.request"))

	require.NoError(call.Instrument(context.Background(), func(ctx context.Context) error {
		return nil
	}))
	require.Error(call.Instrument(context.Background(), func(ctx context.Context) error {
		return xerrors.New("failed")
	}))
	require.Error(call.Instrument(context.Background(), func(ctx context.Context) error {
		return xerrors.New("failed")
	}))

	counters := scope.Snapshot().Counters()
	require.Equal(int64(1), counters["test.probe.probe+result_type=success"].Value())
	require.Equal(int64(2), counters["test.probe.probe+result_type=error"].Value())

	timers := scope.Snapshot().Timers()
	require.Len(timers["test.probe.latency+"].Values(), 3)
}
