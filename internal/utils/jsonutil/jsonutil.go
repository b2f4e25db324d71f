package jsonutil

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// FormatJSON pretty-formats the object.
func FormatJSON(input interface{}) (string, error) {
	output, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", xerrors.Errorf("failed to marshal result: %w", err)
	}

	return string(output), nil
}

// FormatRawJSON pretty-formats a json document. Invalid documents are returned as is.
func FormatRawJSON(input json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(input, &v); err != nil {
		return string(input)
	}

	output, err := FormatJSON(v)
	if err != nil {
		return string(input)
	}

	return output
}
