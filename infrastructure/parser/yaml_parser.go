// Package parser decodes runtime configuration documents.
package parser

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/ports"
)

// YAMLConfigParser implements ports.ConfigParser for YAML.
type YAMLConfigParser struct{}

// NewYAMLConfigParser creates a new YAMLConfigParser.
func NewYAMLConfigParser() ports.ConfigParser {
	return &YAMLConfigParser{}
}

// Parse decodes data over base. Keys absent from data keep base's values;
// unknown keys are an error. An empty document returns base.
func (p *YAMLConfigParser) Parse(data []byte, base entities.RuntimeConfig) (entities.RuntimeConfig, error) {
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if stdErrors.Is(err, io.EOF) {
			return base, nil
		}
		return base, fmt.Errorf("failed to parse runtime config: %w", err)
	}
	return cfg, nil
}

// Document decodes data into a generic tree for schema validation.
// An empty document decodes to an empty map.
func Document(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse runtime config: %w", err)
	}
	return doc, nil
}
