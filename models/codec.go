package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope lists the payload shapes that travel over the broker.
type Envelope interface {
	InboundRequest | Request | ServiceResponse | MappedError
}

func modelName[T Envelope]() string {
	var zero T
	return strings.TrimPrefix(fmt.Sprintf("%T", zero), "models.")
}

// Decode parses a broker payload into T. Failures are decode-class errors.
func Decode[T Envelope](payload []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, NewError(KindDecode, modelName[T](), err)
	}
	return &v, nil
}

// Encode serializes v for publishing.
func Encode[T Envelope](v *T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, NewError(KindDecode, modelName[T](), fmt.Errorf("encode: %w", err))
	}
	return b, nil
}
