package log

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestWithPackage(t *testing.T) {
	require := testutil.Require(t)

	core, logs := observer.New(zap.InfoLevel)
	logger := WithPackage(zap.New(core))
	logger.Info("hello")

	entries := logs.All()
	require.Len(entries, 1)
	require.Equal("log", entries[0].ContextMap()["package"])
}

func TestWithSpan_NoSpan(t *testing.T) {
	require := testutil.Require(t)

	core, logs := observer.New(zap.InfoLevel)
	logger := WithSpan(context.Background(), zap.New(core))
	logger.Info("hello")

	entries := logs.All()
	require.Len(entries, 1)
	require.NotContains(entries[0].ContextMap(), "dd.trace_id")
}
