// Package transform holds what the document passes share: the Pass
// interface and page path resolution.
package transform

import (
	"context"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// Pass rewrites a parsed document in place. page is the absolute name of
// the page the document belongs to, or "".
type Pass interface {
	Apply(ctx context.Context, doc *dom.Element, page string) error
}

// PassFunc adapts a function to Pass.
type PassFunc func(ctx context.Context, doc *dom.Element, page string) error

// Apply calls f.
func (f PassFunc) Apply(ctx context.Context, doc *dom.Element, page string) error {
	return f(ctx, doc, page)
}

// Local is the scheme prefix of links to pages of this wiki, relative to
// the linking page.
const Local = "wiki.local:"

// Wiki is the scheme prefix of absolute wiki links; wiki:///Name points
// into this wiki, wiki://Site/Name into the interwiki site.
const Wiki = "wiki://"

// Target is a split link target.
type Target struct {
	Path     string
	Query    string
	Fragment string
}

// Suffix renders the query and fragment, with their separators.
func (t Target) Suffix() string {
	var sb strings.Builder
	if t.Query != "" {
		sb.WriteString("?" + t.Query)
	}
	if t.Fragment != "" {
		sb.WriteString("#" + t.Fragment)
	}
	return sb.String()
}

// SplitTarget splits a scheme-less target into its unescaped path, raw
// query and fragment.
func SplitTarget(s string) Target {
	var t Target
	s, t.Fragment, _ = strings.Cut(s, "#")
	s, t.Query, _ = strings.Cut(s, "?")
	if p, err := url.PathUnescape(s); err == nil {
		s = p
	}
	t.Path = s
	return t
}

// Resolve turns a link path into an absolute page name. Paths starting with
// "/" are below page, "../" steps up from page, anything else is absolute.
// An empty path is page itself.
func Resolve(page, rel string) string {
	page = strings.Trim(page, "/")
	var abs string
	switch {
	case rel == "":
		abs = page
	case strings.HasPrefix(rel, "/"):
		abs = page + rel
	case strings.HasPrefix(rel, "../"):
		abs = page
		for strings.HasPrefix(rel, "../") {
			abs = path.Dir("/" + abs)
			rel = rel[3:]
		}
		abs = abs + "/" + rel
	default:
		abs = rel
	}
	return Normalize(abs)
}

// Normalize cleans a page name: NFC form, no empty or dot segments, no
// leading or trailing slash.
func Normalize(name string) string {
	name = norm.NFC.String(name)
	if name == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+name), "/")
}

// EscapeName percent-encodes a page name for use in a URL path.
func EscapeName(name string) string {
	return (&url.URL{Path: name}).EscapedPath()
}

// PageName returns the page a document was parsed for. It prefers the
// page-href attribute of the root, a wiki:/// reference, over fallback.
func PageName(doc *dom.Element, fallback string) string {
	if doc != nil {
		if href := doc.Attr(dom.AttrPageHref); strings.HasPrefix(href, Wiki+"/") {
			return Normalize(SplitTarget(strings.TrimPrefix(href, Wiki+"/")).Path)
		}
	}
	return Normalize(fallback)
}
