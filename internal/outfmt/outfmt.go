package outfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

// ApplyJQ applies a jq expression to JSON bytes and returns the result.
// Each result is encoded as compact JSON on its own line.
func ApplyJQ(jsonBytes []byte, expression string) ([]byte, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expression, err)
	}

	var input any
	if err := json.Unmarshal(jsonBytes, &input); err != nil {
		return nil, fmt.Errorf("parse JSON for jq: %w", err)
	}

	iter := query.Run(input)
	var results []byte

	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq error: %w", err)
		}

		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal jq result: %w", err)
		}
		if len(results) > 0 {
			results = append(results, '\n')
		}
		results = append(results, b...)
	}

	return results, nil
}

// WriteJSON writes v as indented JSON, or the jq-filtered result when
// expression is set.
func WriteJSON(w io.Writer, v any, expression string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if expression != "" {
		if data, err = ApplyJQ(data, expression); err != nil {
			return err
		}
	}
	if len(data) > 0 {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}
