package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestRequestInterceptor(t *testing.T) {
	require := testutil.Require(t)

	request := httptest.NewRequest(http.MethodPost, RPCPath, bytes.NewBufferString(`{"method":"getSlot"}`))
	interceptor := NewRequestInterceptor(request)
	body, err := interceptor.Body()
	require.NoError(err)
	require.Equal(`{"method":"getSlot"}`, string(body))
	require.False(interceptor.IsBatch())

	// The body can be read again.
	again, err := io.ReadAll(request.Body)
	require.NoError(err)
	require.Equal(string(body), string(again))
	require.NoError(request.Body.Close())
}

func TestRequestInterceptor_Batch(t *testing.T) {
	require := testutil.Require(t)

	request := httptest.NewRequest(http.MethodPost, RPCPath, bytes.NewBufferString("  \n[{}]"))
	require.True(NewRequestInterceptor(request).IsBatch())
}

func TestRequestInterceptor_TooLarge(t *testing.T) {
	require := testutil.Require(t)

	request := httptest.NewRequest(http.MethodPost, RPCPath, strings.NewReader(strings.Repeat("a", maxRequestBodySize+1)))
	_, err := NewRequestInterceptor(request).Body()
	require.Error(err)

	var serverErr *ServerError
	require.True(xerrors.As(err, &serverErr))
	require.Equal(http.StatusBadRequest, serverErr.HTTPStatus())
}

func TestResponseInterceptor(t *testing.T) {
	require := testutil.Require(t)

	recorder := httptest.NewRecorder()
	interceptor := NewResponseInterceptor(recorder)
	require.Equal(http.StatusOK, interceptor.StatusCode())
	require.NoError(interceptor.Err())

	interceptor.WriteHeader(http.StatusServiceUnavailable)
	require.Equal(http.StatusServiceUnavailable, interceptor.StatusCode())
	require.Equal(http.StatusServiceUnavailable, recorder.Code)

	var serverErr *ServerError
	require.True(xerrors.As(interceptor.Err(), &serverErr))
	require.Equal(http.StatusServiceUnavailable, serverErr.HTTPStatus())
	require.Contains(serverErr.Error(), "503 Service Unavailable")
}
