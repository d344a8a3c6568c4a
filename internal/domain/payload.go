package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is a decoded upstream response body. It is either a
// StructuredPayload (a JSON object) or an OpaquePayload (anything else).
type Payload interface {
	isPayload()
}

type StructuredPayload struct {
	Fields map[string]any
}

type OpaquePayload struct {
	Value any
}

func (StructuredPayload) isPayload() {}
func (OpaquePayload) isPayload()     {}

// DecodePayload decodes a JSON document into a Payload. Numbers are kept as
// json.Number so raw details round-trip without float rounding.
func DecodePayload(body []byte) (Payload, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedResponse)
	}

	return PayloadOf(value), nil
}

// PayloadOf wraps an already decoded value.
func PayloadOf(value any) Payload {
	if fields, ok := value.(map[string]any); ok {
		return StructuredPayload{Fields: fields}
	}

	return OpaquePayload{Value: value}
}
