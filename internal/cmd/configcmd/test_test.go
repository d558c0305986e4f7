package configcmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/internal/config"
)

func TestRunTest_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Home.wiki"), []byte("= Home ="), 0600))

	var buf bytes.Buffer
	err := runTest(context.Background(), &config.Config{PagesDir: dir}, true, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Configuration valid\n")
	assert.Contains(t, buf.String(), "Listing pages in "+dir+"...\n")
	assert.Contains(t, buf.String(), "✓ Page store reachable (1 pages)\n")
}

func TestRunTest_NoStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runTest(context.Background(), &config.Config{}, true, &buf))
	assert.Contains(t, buf.String(), "No page store configured")
}

func TestRunTest_Invalid(t *testing.T) {
	var buf bytes.Buffer
	err := runTest(context.Background(), &config.Config{LogLevel: "loud"}, true, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.True(t, strings.HasPrefix(buf.String(), "✗ Invalid configuration: "), buf.String())
}

func TestRunTest_Remote(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		wantOut string
	}{
		{"success", http.StatusOK, `["Home", "Other"]`, "", "✓ Page store reachable (2 pages)"},
		{"unauthorized", http.StatusUnauthorized, "", "access denied", "✗ Access denied"},
		{"forbidden", http.StatusForbidden, "", "access denied", "✗ Access denied"},
		{"server error", http.StatusInternalServerError, "boom", "page store unavailable", "✗ Page store unavailable: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "list", r.URL.Query().Get("do"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var buf bytes.Buffer
			err := runTest(context.Background(), &config.Config{RemoteURL: server.URL}, true, &buf)
			assert.Contains(t, buf.String(), tt.wantOut)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
