package configcmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestRunShow_WithConfigFile(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg := &config.Config{
		RemoteURL:   "https://wiki.example.com",
		RemoteUser:  "reader",
		RemoteToken: "secret-token-value",
		DefaultTo:   "markdown",
		Passes:      []string{"includes", "macros"},
		Interwiki:   map[string]string{"MoinMoin": "https://moinmo.in/"},
	}
	require.NoError(t, cfg.Save(configPath))

	var buf bytes.Buffer
	require.NoError(t, runShow(configPath, true, &buf))

	out := buf.String()
	assert.Contains(t, out, "https://wiki.example.com  (source: config)")
	assert.Contains(t, out, "secr**********alue")
	assert.NotContains(t, out, "secret-token-value")
	assert.Contains(t, out, "markdown  (source: config)")
	assert.Contains(t, out, "includes,macros")
	assert.Contains(t, out, "MoinMoin = https://moinmo.in/")
	assert.NotContains(t, out, "(file not found)")
}

func TestRunShow_EnvOverride(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{DefaultFrom: "creole"}).Save(configPath))
	t.Setenv("WIKICONV_FROM", "rst")

	var buf bytes.Buffer
	require.NoError(t, runShow(configPath, true, &buf))
	assert.Contains(t, buf.String(), "rst  (source: WIKICONV_FROM)")
}

func TestRunShow_NoConfigFile(t *testing.T) {
	clearEnv(t)

	var buf bytes.Buffer
	require.NoError(t, runShow(filepath.Join(t.TempDir(), "config.yml"), true, &buf))

	out := buf.String()
	assert.Contains(t, out, "(file not found)")
	assert.Contains(t, out, "wiki  (source: -)")
}
