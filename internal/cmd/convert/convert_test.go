package convert

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/internal/config"
	"github.com/open-cli-collective/wikiconv/pkg/engine"
	"github.com/open-cli-collective/wikiconv/pkg/store"
)

func newEngine(t *testing.T, pages ...store.Page) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.Environment{Store: store.NewMemory(pages...)})
	require.NoError(t, err)
	return eng
}

func TestRunConvert(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  convertOptions
		want  string
	}{
		{
			name:  "defaults to wiki and html",
			input: "'''bold'''",
			want:  "<p><strong>bold</strong></p>",
		},
		{
			name:  "creole to wiki",
			input: "**bold**",
			opts:  convertOptions{from: "creole", to: "wiki"},
			want:  "'''bold'''\n",
		},
		{
			name:  "wiki to text",
			input: "= Title =\n''body''",
			opts:  convertOptions{to: "text"},
			want:  "Title\n\nbody\n",
		},
		{
			name:  "mime names",
			input: "plain words",
			opts:  convertOptions{from: "text/x.moin.wiki;charset=utf-8", to: "text/plain"},
			want:  "plain words\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := tt.opts
			err := runConvert(context.Background(), tt.input, &opts, &config.Config{}, newEngine(t), &buf, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRunConvert_ConfigDefaults(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{DefaultFrom: "markdown", DefaultTo: "wiki"}
	err := runConvert(context.Background(), "*x*", &convertOptions{}, cfg, newEngine(t), &buf, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "''x''\n", buf.String())
}

func TestRunConvert_Include(t *testing.T) {
	eng := newEngine(t, store.Page{Name: "Other", Content: "included text"})
	var buf bytes.Buffer
	opts := &convertOptions{to: "text", page: "Home", passes: []string{"includes"}}

	err := runConvert(context.Background(), "<<Include(Other)>>", opts, &config.Config{}, eng, &buf, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "included text\n", buf.String())
}

func TestRunConvert_Errors(t *testing.T) {
	tests := []struct {
		name   string
		opts   convertOptions
		errMsg string
	}{
		{"unknown input", convertOptions{from: "nonsense"}, "invalid input format"},
		{"unknown output", convertOptions{to: "nonsense"}, "invalid output format"},
		{"no serializer", convertOptions{to: "image/png"}, "NO_CONVERTER"},
		{"unknown pass", convertOptions{passes: []string{"bogus"}}, "unknown pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := runConvert(context.Background(), "x", &opts, &config.Config{}, newEngine(t), &bytes.Buffer{}, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRunConvert_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"table", "", "warning: "},
		{"json", "json", `{"warning":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			opts := &convertOptions{warnings: true, noPasses: true, output: tt.output, noColor: true}

			err := runConvert(context.Background(), "||<nosuch=1>Cell||", opts, &config.Config{}, newEngine(t), &out, &errOut)
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Cell")
			assert.True(t, strings.HasPrefix(errOut.String(), tt.want), errOut.String())
			assert.Contains(t, errOut.String(), "nosuch")
		})
	}
}

func TestRunConvert_NoWarningsWithoutFlag(t *testing.T) {
	var errOut bytes.Buffer
	err := runConvert(context.Background(), "||<nosuch=1>Cell||", &convertOptions{}, &config.Config{}, newEngine(t), io.Discard, &errOut)
	require.NoError(t, err)
	assert.Empty(t, errOut.String())
}

func TestPassList(t *testing.T) {
	cfg := &config.Config{Passes: []string{"links"}}

	assert.Equal(t, []string{"macros"}, (&convertOptions{passes: []string{"macros"}}).passList(cfg))
	assert.Equal(t, []string{"links"}, (&convertOptions{}).passList(cfg))
	assert.Nil(t, (&convertOptions{noPasses: true, passes: []string{"macros"}}).passList(cfg))
	assert.Equal(t, engine.DefaultPasses, (&convertOptions{}).passList(&config.Config{}))
}

func TestCmdConvert(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, v := range []string{"WIKICONV_PAGES_DIR", "WIKICONV_REMOTE_URL", "WIKICONV_FROM", "WIKICONV_TO", "WIKICONV_PASSES"} {
		t.Setenv(v, "")
	}

	t.Run("stdin", func(t *testing.T) {
		cmd := NewCmdConvert()
		var out bytes.Buffer
		cmd.SetIn(strings.NewReader("''x''"))
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--to", "markdown"})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "*x*\n", out.String())
	})

	t.Run("format from extension", func(t *testing.T) {
		path := filepath.Join(dir, "page.md")
		require.NoError(t, os.WriteFile(path, []byte("**x**"), 0600))

		cmd := NewCmdConvert()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{path, "--to", "wiki"})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "'''x'''\n", out.String())
	})

	t.Run("missing file", func(t *testing.T) {
		cmd := NewCmdConvert()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{filepath.Join(dir, "none.wiki")})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read input")
	})
}
