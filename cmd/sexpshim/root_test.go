package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGophers(t *testing.T) {
	out, _, err := execute(t, "gophers", "3")
	require.NoError(t, err)
	assert.Equal(t, `STRSXP len=3 protected ["Gopher 1" "Gopher 2" "Gopher 3"]`+"\n", out)
}

func TestGophers_InvalidCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "negative", args: []string{"gophers", "--", "-1"}},
		{name: "not a number", args: []string{"gophers", "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, "invalid gopher count")
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"beta", "alpha", "beta", "beta"}, want: "1"},
		{args: []string{"gamma", "alpha", "beta", "beta"}, want: "-1"},
		{args: []string{"alpha"}, want: "-1"},
	}
	for _, tt := range tests {
		out, _, err := execute(t, append([]string{"lookup"}, tt.args...)...)
		require.NoError(t, err)
		assert.Equal(t, tt.want, strings.TrimSpace(out), tt.args)
	}
}

func TestPrint(t *testing.T) {
	out, _, err := execute(t, "print", "x", "héllo")
	require.NoError(t, err)
	assert.Equal(t, `STRSXP len=2 protected ["x" "héllo"]`+"\n", out)
}

func TestPrint_Elements(t *testing.T) {
	out, _, err := execute(t, "print", "--elements", "ab", "")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `len=2 "ab"`)
	assert.True(t, strings.HasPrefix(lines[2], "[1] "))
	assert.Contains(t, lines[2], `len=0 ""`)
}

func TestSchema(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("log_level: debug\nmax_warnings: 5\n"), 0o600))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("max_warnings: 0\n"), 0o600))

	out, _, err := execute(t, "--config", good, "gophers", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Gopher 1")

	_, _, err = execute(t, "--config", bad, "gophers", "1")
	assert.ErrorContains(t, err, "bad.yaml")

	_, _, err = execute(t, "--config", filepath.Join(dir, "missing.yaml"), "gophers", "1")
	assert.ErrorContains(t, err, "failed to read config")
}
