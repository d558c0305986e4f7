package cmdutil

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/internal/config"
	"github.com/open-cli-collective/wikiconv/pkg/store"
)

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("WIKICONV_OUTPUT", "")
	t.Setenv("WIKICONV_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{OutputFormat: "table", LogLevel: "error"}).Save(path))

	cfg, err := LoadConfig(Globals{ConfigPath: path, Output: "json", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	_, err := LoadConfig(Globals{ConfigPath: path, Output: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")

	require.NoError(t, (&config.Config{PagesDir: "/a", RemoteURL: "https://b"}).Save(path))
	_, err = LoadConfig(Globals{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestGlobalsFrom(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("output", "", "")
	cmd.Flags().Bool("no-color", false, "")
	cmd.Flags().String("log-level", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--config", "/tmp/c.yml", "--no-color", "--output", "plain"}))

	g := GlobalsFrom(cmd)
	assert.Equal(t, Globals{ConfigPath: "/tmp/c.yml", Output: "plain", NoColor: true}, g)
	assert.Equal(t, "/tmp/c.yml", g.Path())
}

func TestNewStore(t *testing.T) {
	assert.Nil(t, NewStore(&config.Config{}))
	assert.IsType(t, &store.Dir{}, NewStore(&config.Config{PagesDir: t.TempDir()}))
	assert.IsType(t, &store.HTTP{}, NewStore(&config.Config{RemoteURL: "https://wiki.example.com"}))
}

func TestReadInput(t *testing.T) {
	got, err := ReadInput("-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = ReadInput(filepath.Join(t.TempDir(), "none"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")
}

func TestTypeFromPath(t *testing.T) {
	assert.Equal(t, "text/x-markdown", TypeFromPath("notes/page.MD"))
	assert.Equal(t, "text/x.moin.creole", TypeFromPath("page.creole"))
	assert.Equal(t, "", TypeFromPath("page"))
	assert.Equal(t, "", TypeFromPath("-"))
}
