package engine

import (
	"sort"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/format"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
	"github.com/open-cli-collective/wikiconv/pkg/parse/creole"
	"github.com/open-cli-collective/wikiconv/pkg/parse/csv"
	"github.com/open-cli-collective/wikiconv/pkg/parse/docbook"
	htmlparse "github.com/open-cli-collective/wikiconv/pkg/parse/html"
	mdparse "github.com/open-cli-collective/wikiconv/pkg/parse/markdown"
	"github.com/open-cli-collective/wikiconv/pkg/parse/mediawiki"
	"github.com/open-cli-collective/wikiconv/pkg/parse/moinwiki"
	"github.com/open-cli-collective/wikiconv/pkg/parse/rst"
	"github.com/open-cli-collective/wikiconv/pkg/parse/text"
	"github.com/open-cli-collective/wikiconv/pkg/registry"
	"github.com/open-cli-collective/wikiconv/pkg/render"
	htmlrender "github.com/open-cli-collective/wikiconv/pkg/render/html"
	mdrender "github.com/open-cli-collective/wikiconv/pkg/render/markdown"
	wikirender "github.com/open-cli-collective/wikiconv/pkg/render/moinwiki"
	textrender "github.com/open-cli-collective/wikiconv/pkg/render/text"
	"github.com/open-cli-collective/wikiconv/pkg/transform"
	"github.com/open-cli-collective/wikiconv/pkg/transform/highlight"
	"github.com/open-cli-collective/wikiconv/pkg/transform/include"
	"github.com/open-cli-collective/wikiconv/pkg/transform/link"
	macropass "github.com/open-cli-collective/wikiconv/pkg/transform/macro"
	"github.com/open-cli-collective/wikiconv/pkg/transform/smiley"
)

// passOptions maps pass names to the options selecting them.
var passOptions = map[string]registry.Options{
	"macros":    {"macros": "expandall"},
	"includes":  {"includes": "expandall"},
	"links":     {"links": "extern"},
	"refs":      {"items": "refs"},
	"smiley":    {"icon": "smiley"},
	"highlight": {"highlight": "expandall"},
}

// PassNames returns the pass names a Request accepts, sorted.
func PassNames() []string {
	names := make([]string, 0, len(passOptions))
	for n := range passOptions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultPasses is the pass order used for rendering a page for display.
var DefaultPasses = []string{"includes", "macros", "links", "smiley", "highlight"}

func (e *Engine) interwikiNames() []string {
	names := make([]string, 0, len(e.env.Interwiki))
	for n := range e.env.Interwiki {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// parserFactory adapts a constructor to a registry factory. Each Get builds
// a new parser.
func parserFactory(build func() format.Parser) registry.Factory[format.Parser] {
	return func(mime.Type, mime.Type, registry.Options) (format.Parser, bool) {
		return build(), true
	}
}

func (e *Engine) registerParsers() error {
	log := e.env.Logger
	interwiki := e.interwikiNames()
	entries := []struct {
		name  string
		in    mime.Type
		build func() format.Parser
	}{
		{"moinwiki", mime.MoinWiki, func() format.Parser {
			return moinwiki.New(moinwiki.WithFormats(e.formats), moinwiki.WithInterwiki(interwiki...), moinwiki.WithLogger(log))
		}},
		{"creole", mime.Creole, func() format.Parser {
			return creole.New(creole.WithFormats(e.formats), creole.WithInterwiki(interwiki...), creole.WithLogger(log))
		}},
		{"markdown", mime.Markdown, func() format.Parser { return mdparse.New(mdparse.WithLogger(log)) }},
		{"rst", mime.RST, func() format.Parser { return rst.New(rst.WithFormats(e.formats), rst.WithLogger(log)) }},
		{"mediawiki", mime.MediaWiki, func() format.Parser { return mediawiki.New(mediawiki.WithLogger(log)) }},
		{"csv", mime.CSV, func() format.Parser { return csv.New() }},
		{"html", mime.HTML, func() format.Parser { return htmlparse.New(htmlparse.WithLogger(log)) }},
		{"docbook", mime.DocBook, func() format.Parser { return docbook.New(docbook.WithLogger(log)) }},
		{"text", mime.PlainText, func() format.Parser { return text.New() }},
	}
	for _, entry := range entries {
		if err := e.parsers.Register(entry.name, parserFactory(entry.build), entry.in, mime.MoinDocument, registry.Middle); err != nil {
			return err
		}
	}
	// Anything else is kept as an opaque object.
	return e.parsers.Register("fallback", func(in, _ mime.Type, _ registry.Options) (format.Parser, bool) {
		return text.Fallback{Type: in}, true
	}, mime.Any, mime.MoinDocument, registry.ReallyLast)
}

// passFactory builds a pass when opts carry key=value.
func passFactory(key, value string, build func() transform.Pass) registry.Factory[transform.Pass] {
	return func(_, _ mime.Type, opts registry.Options) (transform.Pass, bool) {
		if opts[key] != value {
			return nil, false
		}
		return build(), true
	}
}

func (e *Engine) registerPasses() error {
	env := e.env
	entries := []struct {
		name    string
		factory registry.Factory[transform.Pass]
	}{
		{"macros", passFactory("macros", "expandall", func() transform.Pass {
			return &macropass.Pass{Macros: env.Macros, Pages: env.Store, Logger: env.Logger, Now: env.Now}
		})},
		{"includes", passFactory("includes", "expandall", func() transform.Pass {
			return &include.Pass{Store: env.Store, Permission: env.Permission, Parser: e, Logger: env.Logger}
		})},
		{"links", passFactory("links", "extern", func() transform.Pass {
			return &link.Pass{Base: env.Base, Interwiki: env.Interwiki, Store: env.Store, Logger: env.Logger}
		})},
		{"refs", passFactory("items", "refs", func() transform.Pass { return &link.RefsPass{} })},
		{"smiley", passFactory("icon", "smiley", func() transform.Pass { return smiley.Pass{} })},
		{"highlight", passFactory("highlight", "expandall", func() transform.Pass { return highlight.Pass{} })},
	}
	for _, entry := range entries {
		if err := e.passes.Register(entry.name, entry.factory, mime.MoinDocument, mime.MoinDocument, registry.Middle); err != nil {
			return err
		}
	}
	return nil
}

func serializerFactory(build func() render.Serializer) registry.Factory[render.Serializer] {
	return func(mime.Type, mime.Type, registry.Options) (render.Serializer, bool) {
		return build(), true
	}
}

func (e *Engine) registerSerializers() error {
	entries := []struct {
		name  string
		out   mime.Type
		build func() render.Serializer
	}{
		{"html", mime.HTML, func() render.Serializer { return htmlrender.New() }},
		{"text", mime.PlainText, func() render.Serializer { return textrender.New() }},
		{"moinwiki", mime.MoinWiki, func() render.Serializer { return wikirender.New() }},
		{"markdown", mime.Markdown, func() render.Serializer { return mdrender.New(mdrender.Options{}) }},
	}
	for _, entry := range entries {
		if err := e.serializers.Register(entry.name, serializerFactory(entry.build), mime.MoinDocument, entry.out, registry.Middle); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames maps the short names used in embedded blocks and on the
// command line to descriptors.
var FormatNames = map[string]mime.Type{
	"wiki":      mime.MoinWiki,
	"moinwiki":  mime.MoinWiki,
	"creole":    mime.Creole,
	"markdown":  mime.Markdown,
	"md":        mime.Markdown,
	"mediawiki": mime.MediaWiki,
	"rst":       mime.RST,
	"docbook":   mime.DocBook,
	"html":      mime.HTML,
	"csv":       mime.CSV,
	"text":      mime.PlainText,
	"plain":     mime.PlainText,
}

// LookupType resolves a short name or a full descriptor.
func LookupType(name string) (mime.Type, error) {
	if t, ok := FormatNames[strings.ToLower(name)]; ok {
		return t, nil
	}
	return mime.Parse(name)
}

// registerFormats fills the embedded-format table. Short names resolve
// through the parser registry; highlight and chroma language names produce
// code blocks for the highlight pass.
func (e *Engine) registerFormats() {
	for name, t := range FormatNames {
		e.formats.Register(e.lazyParser(t), name)
	}
	e.formats.Register(format.ParserFunc(highlightBlock("")), "highlight")
	e.formats.SetFallback(func(name string) (format.Parser, bool) {
		if strings.Contains(name, "/") {
			t, err := mime.Parse(name)
			if err != nil {
				return nil, false
			}
			return e.lazyParser(t), true
		}
		if highlight.Known(name) {
			return format.ParserFunc(highlightBlock(name)), true
		}
		return nil, false
	})
}

// lazyParser gets a fresh parser for t on every call, so one embedded
// block never shares parser state with another.
func (e *Engine) lazyParser(t mime.Type) format.Parser {
	return format.ParserFunc(func(input string, a *args.Arguments) (*dom.Element, error) {
		p, err := e.Parser(t)
		if err != nil {
			return nil, err
		}
		return p.Parse(input, a)
	})
}

// highlightBlock returns a parser wrapping its input in a blockcode tagged
// with lang, or with the first positional argument when lang is empty.
func highlightBlock(lang string) func(string, *args.Arguments) (*dom.Element, error) {
	return func(input string, a *args.Arguments) (*dom.Element, error) {
		l := lang
		if l == "" && a != nil && len(a.Positional) > 0 {
			l = a.Positional[0]
		}
		page, body := dom.NewPage()
		code := dom.Elem("blockcode", dom.Text(strings.TrimSuffix(input, "\n")))
		if l != "" {
			code.SetAttr(dom.AttrLanguage, l)
		}
		body.Append(code)
		return page, nil
	}
}
