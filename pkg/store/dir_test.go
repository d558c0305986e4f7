package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newDir(t *testing.T) *Dir {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "Home.wiki", "= Home =")
	writeFile(t, root, "Home/Sub.md", "# Sub")
	writeFile(t, root, "Typed", "---\ncontenttype: text/x.moin.creole\n---\n**bold**")
	writeFile(t, root, "Secret.wiki", "---\nacl: deny\n---\nhidden")
	writeFile(t, root, "pic.png", "\x89PNG")
	writeFile(t, root, ".git/config", "x")
	return NewDir(root)
}

func TestDir_Get(t *testing.T) {
	d := newDir(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		page        string
		content     string
		contentType mime.Type
		err         error
	}{
		{"wiki extension", "Home", "= Home =", mime.MoinWiki, nil},
		{"extension", "Home/Sub", "# Sub", mime.Markdown, nil},
		{"leading slash", "/Home/Sub", "# Sub", mime.Markdown, nil},
		{"front matter type", "Typed", "**bold**", mime.Creole, nil},
		{"directory is not a page", "Home/", "= Home =", mime.MoinWiki, nil},
		{"binary", "pic.png", "\x89PNG", mime.MustParse("image/png"), nil},
		{"denied", "Secret", "", mime.Type{}, ErrForbidden},
		{"missing", "Nowhere", "", mime.Type{}, ErrNotFound},
		{"escape root", "../etc/passwd", "", mime.Type{}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := d.Get(ctx, tt.page)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, p.Content)
			assert.Equal(t, tt.contentType.String(), p.ContentType.String())
		})
	}
}

func TestDir_MayRead(t *testing.T) {
	d := newDir(t)
	assert.True(t, d.MayRead("Home"))
	assert.False(t, d.MayRead("Secret"))
	assert.True(t, d.MayRead("Nowhere"))
}

func TestDir_List(t *testing.T) {
	d := newDir(t)

	names, err := d.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Home/Sub", "Secret", "Typed", "pic.png"}, names)

	names, err = d.List(context.Background(), "Home/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home/Sub"}, names)
}
