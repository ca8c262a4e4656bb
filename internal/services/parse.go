package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ParseDocuments decodes a JSON array of documents. The whole input must be
// exactly one array; any other shape is an ErrParse.
func ParseDocuments(r io.Reader) ([]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected content after the top-level value", ErrParse)
	}

	docs, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: JSON file must contain an array of documents, got %s", ErrParse, jsonKind(raw))
	}
	for i, doc := range docs {
		docs[i] = convertNumbers(doc)
	}
	return docs, nil
}

// convertNumbers turns json.Number values into int64 when they hold an
// integral value (1, 1.0 and 1e3 alike) and float64 otherwise, so Firestore
// stores integerValue or doubleValue as it would for the same JSON number.
func convertNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			// Out of float64 range; keep the literal rather than lose it.
			return val.String()
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case []any:
		for i, elem := range val {
			val[i] = convertNumbers(elem)
		}
		return val
	case map[string]any:
		for k, elem := range val {
			val[k] = convertNumbers(elem)
		}
		return val
	default:
		return v
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, int64, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
