package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestGenerateSchema_Required(t *testing.T) {
	type Config struct {
		URL     string  `json:"url"`
		Body    *string `json:"body,omitempty"`
		Timeout int     `json:"timeout"`
	}

	raw, err := GenerateSchema(Config{})
	require.NoError(t, err)
	decoded := decode(t, raw)

	properties, ok := decoded["properties"].(map[string]any)
	require.True(t, ok, "properties should be a map")
	assert.Len(t, properties, 3)

	required, ok := decoded["required"].([]any)
	require.True(t, ok, "required should be an array")
	assert.ElementsMatch(t, []any{"url", "timeout"}, required)
	assert.Equal(t, false, decoded["additionalProperties"])
}

type emptyConfig struct{}

func TestGenerateSchema_EmptyStruct(t *testing.T) {
	raw, err := GenerateSchema(emptyConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, decode(t, raw))
}

func TestGenerateSchema_RuntimeConfig(t *testing.T) {
	raw, err := GenerateSchema(&entities.RuntimeConfig{})
	require.NoError(t, err)
	decoded := decode(t, raw)

	assert.NotContains(t, decoded, "required", "every runtime setting has a default")

	properties := decoded["properties"].(map[string]any)
	memory := properties["max_memory_bytes"].(map[string]any)
	assert.Equal(t, "integer", memory["type"])
	assert.EqualValues(t, 65536, memory["minimum"])

	level := properties["log_level"].(map[string]any)
	assert.ElementsMatch(t, []any{"debug", "info", "warn", "error"}, level["enum"])

	module := properties["module_name"].(map[string]any)
	assert.Equal(t, "rgo", module["default"])
}
