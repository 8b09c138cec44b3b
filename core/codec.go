package core

import (
	"encoding/json"
	"fmt"
)

// Codec converts payloads to and from their stored form.
type Codec interface {
	Marshal(payload any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSONCodec stores payloads as JSON. Decoded payloads use the generic encoding/json shapes
// (map[string]any, []any, float64, string, bool).
type JSONCodec struct{}

func (JSONCodec) Marshal(payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return b, nil
}

func (JSONCodec) Unmarshal(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return out, nil
}

// RawCodec stores []byte and string payloads verbatim and returns them as []byte.
type RawCodec struct{}

func (RawCodec) Marshal(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("raw codec cannot encode %T", payload)
}

func (RawCodec) Unmarshal(data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
