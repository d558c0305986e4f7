package store

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/+get/Home/Sub Page":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("= Sub ="))
		case r.URL.Path == "/+get/Notes":
			w.Header().Set("Content-Type", "text/x-markdown;charset=utf-8")
			w.Write([]byte("# Notes"))
		case r.URL.Path == "/+get/Secret":
			w.WriteHeader(http.StatusForbidden)
		case r.URL.Path == "/+get/Broken":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		case r.URL.Path == "/" && r.URL.Query().Get("do") == "list":
			assert.Equal(t, "Home/", r.URL.Query().Get("prefix"))
			w.Write([]byte(`["Home/A","Home/B"]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTP_Get(t *testing.T) {
	server := newWikiServer(t)
	h := NewHTTP(server.URL+"/", "", "")
	ctx := context.Background()

	p, err := h.Get(ctx, "/Home/Sub Page")
	require.NoError(t, err)
	assert.Equal(t, "Home/Sub Page", p.Name)
	assert.Equal(t, "= Sub =", p.Content)
	assert.Equal(t, mime.MoinWiki, p.ContentType)

	p, err = h.Get(ctx, "Notes")
	require.NoError(t, err)
	assert.True(t, mime.Markdown.IsSupertype(p.ContentType))

	_, err = h.Get(ctx, "Secret")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.Get(ctx, "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.Get(ctx, "Broken")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestHTTP_List(t *testing.T) {
	server := newWikiServer(t)
	names, err := NewHTTP(server.URL, "", "").List(context.Background(), "Home/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home/A", "Home/B"}, names)
}

func TestHTTP_BasicAuth(t *testing.T) {
	var captured string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Get("Authorization")
		w.Write([]byte("x"))
	}))
	defer server.Close()

	_, err := NewHTTP(server.URL, "user", "secret").Get(context.Background(), "Page")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(captured, "Basic "))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(captured, "Basic "))
	require.NoError(t, err)
	assert.Equal(t, "user:secret", string(decoded))
}
