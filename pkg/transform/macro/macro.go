// Package macro expands the part and inline-part placeholders the wiki
// parsers leave for <<Name(args)>> calls.
package macro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/macro"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// Pass runs macro handlers and stores their output in a body (block) or
// inline-body child of the placeholder.
type Pass struct {
	Macros *macro.Registry
	// Pages is handed to macros that list pages. May be nil.
	Pages  macro.Lister
	Logger *slog.Logger
	// Now is the clock given to date macros; nil means time.Now.
	Now func() time.Time
}

// Apply implements transform.Pass.
func (p *Pass) Apply(ctx context.Context, doc *dom.Element, page string) error {
	dom.Rewrite(doc, func(_ []*dom.Element, n dom.Node) ([]dom.Node, bool) {
		el, ok := n.(*dom.Element)
		if !ok || !(el.Is("part") || el.Is("inline-part")) {
			return nil, false
		}
		name, ok := macroName(el)
		if !ok {
			return nil, false
		}
		p.expand(ctx, el, name, page)
		return []dom.Node{el}, true
	})
	return nil
}

func macroName(el *dom.Element) (string, bool) {
	t, err := mime.Parse(el.Attr(dom.AttrContentType))
	if err != nil || !mime.Macro.IsSupertype(t) {
		return "", false
	}
	return t.Param("name")
}

func (p *Pass) expand(ctx context.Context, el *dom.Element, name, page string) {
	block := el.Is("part")
	raw := ""
	if a := el.First("arguments"); a != nil {
		raw = a.Text()
	}
	c := macro.Context{
		Ctx:   ctx,
		Page:  page,
		Alt:   el.Attr(dom.AttrAlt),
		Raw:   raw,
		Block: block,
		Pages: p.Pages,
		Now:   p.Now,
	}

	var nodes []dom.Node
	entry, ok := p.lookup(name)
	if !ok {
		nodes = []dom.Node{errorNode(fmt.Sprintf("<<%s>> Error: invalid macro name.", name), block)}
	} else {
		var err error
		nodes, err = entry.Run(c, args.Parse(raw))
		if err != nil {
			p.logger().Warn("macro failed", "macro", name, "page", page, "error", err)
			nodes = []dom.Node{errorNode(fmt.Sprintf("<<%s: execution failed [%s]>>", name, err), block)}
		}
	}

	local := "inline-body"
	if block {
		local = "body"
	}
	el.Append(dom.Elem(local, nodes...))
}

func (p *Pass) lookup(name string) (macro.Entry, bool) {
	if p.Macros == nil {
		return macro.Entry{}, false
	}
	return p.Macros.Lookup(name)
}

func (p *Pass) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func errorNode(msg string, block bool) *dom.Element {
	if block {
		return dom.ErrorDiv(msg)
	}
	return dom.ErrorSpan(msg)
}
