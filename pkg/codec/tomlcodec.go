package codec

import (
	"fmt"
	"reflect"

	toml "github.com/pelletier/go-toml/v2"
)

type tomlCodec struct{}

// TOML needs a table at the top level; other values are wrapped as
// {value = ...}.
var TOML Codec = tomlCodec{}

func (tomlCodec) Marshal(v any) ([]byte, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return []byte{}, nil
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
	default:
		v = map[string]any{"value": v}
	}
	return toml.Marshal(v)
}

func (tomlCodec) Unmarshal(data []byte, v any) error {
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("toml decode: %w", err)
	}
	return nil
}

func (tomlCodec) ContentType() string { return "application/toml" }
