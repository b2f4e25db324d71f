package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/testutil"
)

func TestFormatJSON(t *testing.T) {
	require := testutil.Require(t)
	expected := `{
  "field1": "value1",
  "field2": {
    "field3": "value3",
    "field4": "value4"
  }
}`
	input := map[string]interface{}{
		"field1": "value1",
		"field2": map[string]interface{}{
			"field3": "value3",
			"field4": "value4",
		},
	}

	actual, err := FormatJSON(input)
	require.NoError(err)
	require.Equal(expected, actual)
}

func TestFormatRawJSON(t *testing.T) {
	require := testutil.Require(t)

	require.Equal("[\n  1,\n  2\n]", FormatRawJSON(json.RawMessage(`[1,2]`)))
	require.Equal(`"0x10"`, FormatRawJSON(json.RawMessage(`"0x10"`)))
	require.Equal(`{not json`, FormatRawJSON(json.RawMessage(`{not json`)))
}
