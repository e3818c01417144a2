package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/sexpbridge/domain/entities"
)

func TestYAMLConfigParser_Parse(t *testing.T) {
	p := NewYAMLConfigParser()
	base := entities.DefaultRuntimeConfig()

	tests := []struct {
		name    string
		data    string
		want    func(*entities.RuntimeConfig)
		wantErr string
	}{
		{name: "empty document", data: ""},
		{name: "comment only", data: "# nothing here\n"},
		{
			name: "overrides",
			data: "max_warnings: 7\nmodule_name: shim\n",
			want: func(c *entities.RuntimeConfig) {
				c.MaxWarnings = 7
				c.ModuleName = "shim"
			},
		},
		{name: "unknown key", data: "max_warning: 7\n", wantErr: "field max_warning not found"},
		{name: "wrong type", data: "max_warnings: many\n", wantErr: "failed to parse runtime config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse([]byte(tt.data), base)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			want := base
			if tt.want != nil {
				tt.want(&want)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestDocument(t *testing.T) {
	doc, err := Document([]byte("initial_pages: 2\nlog_level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"initial_pages": 2, "log_level": "info"}, doc)

	doc, err = Document(nil)
	require.NoError(t, err)
	assert.Empty(t, doc)

	_, err = Document([]byte("- a list\n"))
	require.Error(t, err)
}
