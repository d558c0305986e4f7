// Package markdown serializes the document tree as Markdown by way of the
// HTML serializer.
package markdown

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/render/html"
)

// Options configures the conversion.
type Options struct {
	// ShowMacros keeps the source text of unexpanded macros instead of
	// stripping them.
	ShowMacros bool
}

// Serializer converts documents to Markdown.
type Serializer struct {
	html *html.Serializer
	opts Options
}

// New returns a Serializer.
func New(opts Options) *Serializer {
	return &Serializer{html: html.New(), opts: opts}
}

// Serialize implements render.Serializer.
func (s *Serializer) Serialize(doc *dom.Element) (string, error) {
	out, err := s.html.Serialize(doc)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", nil
	}

	out = s.macros(out)

	md, err := htmltomarkdown.ConvertString(out)
	if err != nil {
		return "", err
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}
	return md + "\n", nil
}

var macroPattern = regexp.MustCompile(`<(div|span) class="moin-macro">(.*?)</(?:div|span)>`)

// macros strips unexpanded macro placeholders, or turns them into code
// spans so their source survives the conversion.
func (s *Serializer) macros(out string) string {
	if !s.opts.ShowMacros {
		return macroPattern.ReplaceAllString(out, "")
	}
	return macroPattern.ReplaceAllStringFunc(out, func(match string) string {
		m := macroPattern.FindStringSubmatch(match)
		code := "<code>" + m[2] + "</code>"
		if m[1] == "div" {
			return "<p>" + code + "</p>"
		}
		return code
	})
}
