package store

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// Extensions maps file extensions to the content type of pages stored
// with them. Files without extension hold wiki markup.
var Extensions = map[string]mime.Type{
	".wiki":      mime.MoinWiki,
	".moin":      mime.MoinWiki,
	".creole":    mime.Creole,
	".md":        mime.Markdown,
	".markdown":  mime.Markdown,
	".rst":       mime.RST,
	".mediawiki": mime.MediaWiki,
	".csv":       mime.CSV,
	".html":      mime.HTML,
	".htm":       mime.HTML,
	".dbk":       mime.DocBook,
	".xml":       mime.DocBook,
	".txt":       mime.PlainText,
	".png":       mime.MustParse("image/png"),
	".jpg":       mime.MustParse("image/jpeg"),
	".gif":       mime.MustParse("image/gif"),
	".svg":       mime.MustParse("image/svg+xml"),
}

// pageMeta is the front matter a page file may start with.
type pageMeta struct {
	ContentType string `yaml:"contenttype"`
	ACL         string `yaml:"acl"`
}

// Dir is a Store reading pages from a directory tree. The page "A/B" is the
// file A/B, or A/B with one of the Extensions. Images and other binary
// files keep their extension in the page name. Text pages may start with
// YAML front matter setting contenttype and acl; "acl: deny" makes the page
// unreadable.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// file finds the file holding name.
func (d *Dir) file(name string) (string, error) {
	name = strings.Trim(path.Clean("/"+name), "/")
	if name == "" {
		return "", ErrNotFound
	}
	base := filepath.Join(d.root, filepath.FromSlash(name))
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		return base, nil
	}
	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", name, err)
	}
	for _, m := range matches {
		if _, ok := Extensions[strings.ToLower(filepath.Ext(m))]; ok {
			return m, nil
		}
	}
	return "", ErrNotFound
}

func (d *Dir) read(name string) (Page, pageMeta, error) {
	file, err := d.file(name)
	if err != nil {
		return Page{}, pageMeta{}, err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return Page{}, pageMeta{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	contentType := mime.MoinWiki
	if t, ok := Extensions[strings.ToLower(filepath.Ext(file))]; ok {
		contentType = t
	}
	page := Page{Name: name, Content: string(raw), ContentType: contentType}
	if !isText(contentType) {
		return page, pageMeta{}, nil
	}

	var meta pageMeta
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return Page{}, pageMeta{}, fmt.Errorf("failed to parse front matter of %s: %w", name, err)
	}
	page.Content = string(body)
	if meta.ContentType != "" {
		t, err := mime.Parse(meta.ContentType)
		if err != nil {
			return Page{}, pageMeta{}, fmt.Errorf("invalid contenttype in %s: %w", name, err)
		}
		page.ContentType = t
	}
	return page, meta, nil
}

// Get implements Store.
func (d *Dir) Get(_ context.Context, name string) (Page, error) {
	page, meta, err := d.read(name)
	if err != nil {
		return Page{}, err
	}
	if denied(meta) {
		return Page{}, ErrForbidden
	}
	return page, nil
}

// MayRead implements Permission. Pages that cannot be read for another
// reason count as readable; Get reports the real error.
func (d *Dir) MayRead(name string) bool {
	_, meta, err := d.read(name)
	return err != nil || !denied(meta)
}

// isText reports whether pages of type t are markup, named without their
// extension and allowed front matter.
func isText(t mime.Type) bool {
	return t.Type == "text" || t.String() == mime.DocBook.String()
}

func denied(meta pageMeta) bool {
	return strings.EqualFold(strings.TrimSpace(meta.ACL), "deny")
}

// List implements Store.
func (d *Dir) List(_ context.Context, prefix string) ([]string, error) {
	seen := map[string]bool{}
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != d.root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if ext := filepath.Ext(name); ext != "" {
			if t, ok := Extensions[strings.ToLower(ext)]; ok && isText(t) {
				name = strings.TrimSuffix(name, ext)
			}
		}
		if strings.HasPrefix(name, prefix) {
			seen[name] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
