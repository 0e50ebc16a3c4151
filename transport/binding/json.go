package binding

import (
	"encoding/json"
	"fmt"
)

type JsonCodec struct{}

func (j JsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json error: %w", err)
	}
	return data, nil
}

func (j JsonCodec) Unmarshal(data []byte, v any) error {
	if v == nil {
		return fmt.Errorf("decode json error: target is nil")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json error: %w", err)
	}
	return nil
}

func (j JsonCodec) Name() string {
	return "json"
}

func (j JsonCodec) ContentType() string {
	return "application/json; charset=utf-8"
}
