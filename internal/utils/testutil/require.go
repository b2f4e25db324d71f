package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Require returns a require.Assertions bound to t, so tests can write `require.NoError(err)`.
func Require(t testing.TB) *require.Assertions {
	return require.New(t)
}
