package codec

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

type yamlCodec struct{}

// YAML encodes with goccy/go-yaml; map keys are emitted sorted.
var YAML Codec = yamlCodec{}

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}

func (yamlCodec) ContentType() string { return "application/yaml" }
