// Package render holds what the output serializers share.
package render

import (
	"regexp"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// Serializer writes a document in an output dialect. Implementations keep
// per-call state and are not safe for concurrent use; the state is reset at
// the start of every Serialize call.
type Serializer interface {
	Serialize(doc *dom.Element) (string, error)
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(doc *dom.Element) (string, error)

// Serialize calls f.
func (f SerializerFunc) Serialize(doc *dom.Element) (string, error) {
	return f(doc)
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// CollapseBlankLines reduces runs of blank lines to one.
func CollapseBlankLines(s string) string {
	return blankRuns.ReplaceAllString(s, "\n\n")
}

// MacroName returns the macro name of a part or inline-part placeholder.
func MacroName(e *dom.Element) (string, bool) {
	return partParam(e, mime.Macro)
}

// FormatName returns the embedded format name of a part element.
func FormatName(e *dom.Element) (string, bool) {
	return partParam(e, mime.Format)
}

func partParam(e *dom.Element, kind mime.Type) (string, bool) {
	t, err := mime.Parse(e.Attr(dom.AttrContentType))
	if err != nil || !kind.IsSupertype(t) {
		return "", false
	}
	return t.Param("name")
}

// PartBody returns the expanded output of a part or inline-part, or nil
// when it was never expanded.
func PartBody(e *dom.Element) *dom.Element {
	if b := e.First("body"); b != nil {
		return b
	}
	return e.First("inline-body")
}

// ListKind reports how a list labels its items: "unordered", "ordered" or
// "definition".
func ListKind(e *dom.Element) string {
	switch g := e.Attr(dom.AttrItemLabelGenerate); g {
	case "ordered", "unordered":
		return g
	}
	return "definition"
}

// IsError reports whether e is an error marker.
func IsError(e *dom.Element) bool {
	return e.HasClass(dom.ErrorClass)
}

// LinkTarget returns the href of e with the wiki schemes turned into plain
// paths: wiki.local:X gives X, wiki:///X gives /X.
func LinkTarget(href string) string {
	switch {
	case strings.HasPrefix(href, "wiki.local:"):
		return strings.TrimPrefix(href, "wiki.local:")
	case strings.HasPrefix(href, "wiki:///"):
		return strings.TrimPrefix(href, "wiki://")
	}
	return href
}

var imageExt = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg|webp|bmp|ico)(\?|#|$)`)

// IsImage reports whether href names an image file.
func IsImage(href string) bool {
	return imageExt.MatchString(href)
}
