// Package link turns wiki link targets into URLs and collects the references
// a page makes.
package link

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
	"github.com/open-cli-collective/wikiconv/pkg/store"
	"github.com/open-cli-collective/wikiconv/pkg/transform"
)

// Classes added to resolved links.
const (
	NonExistentClass = "moin-nonexistent"
	InterwikiClass   = "moin-interwiki"
	BadInterwiki     = "moin-badinterwiki"
)

// Pass resolves link targets for output.
//
// wiki.local: targets become Base plus the absolute page name; wiki:///Name
// becomes Base plus Name; wiki://Site/Name is looked up in Interwiki. Links
// with another scheme get a moin-<scheme> class.
type Pass struct {
	// Base prefixes local URLs. Empty means "/".
	Base      string
	Interwiki map[string]string
	// Store, when set, is asked whether local link targets exist.
	Store  store.Store
	Logger *slog.Logger
}

var hrefAttrs = []dom.QName{dom.XLinkHref, dom.XIncludeHref, dom.HTMLDataHref}

// Apply implements transform.Pass.
func (p *Pass) Apply(ctx context.Context, doc *dom.Element, page string) error {
	page = transform.PageName(doc, page)
	dom.Walk(doc, func(_ []*dom.Element, n dom.Node) bool {
		el, ok := n.(*dom.Element)
		if !ok {
			return false
		}
		for _, attr := range hrefAttrs {
			if href, ok := el.Lookup(attr); ok {
				p.resolve(ctx, el, attr, href, page)
			}
		}
		return true
	})
	return nil
}

func (p *Pass) base() string {
	if p.Base == "" {
		return "/"
	}
	if !strings.HasSuffix(p.Base, "/") {
		return p.Base + "/"
	}
	return p.Base
}

func (p *Pass) resolve(ctx context.Context, el *dom.Element, attr dom.QName, href, page string) {
	isLink := el.Is("a")
	switch {
	case strings.HasPrefix(href, transform.Local):
		target := transform.SplitTarget(strings.TrimPrefix(href, transform.Local))
		name := transform.Resolve(page, target.Path)
		el.SetAttr(attr, p.base()+transform.EscapeName(name)+target.Suffix())
		if isLink && target.Path != "" && !p.exists(ctx, name) {
			el.AddClass(NonExistentClass)
		}

	case strings.HasPrefix(href, transform.Wiki):
		site, rest, _ := strings.Cut(strings.TrimPrefix(href, transform.Wiki), "/")
		if site == "" {
			el.SetAttr(attr, p.base()+rest)
			return
		}
		url, ok := p.Interwiki[site]
		if !ok {
			if isLink {
				el.AddClass(BadInterwiki)
			}
			return
		}
		el.SetAttr(attr, url+rest)
		if isLink {
			el.AddClass(InterwikiClass)
		}

	default:
		if scheme := parse.Scheme(href); scheme != "" && isLink {
			el.AddClass("moin-" + scheme)
		}
	}
}

func (p *Pass) exists(ctx context.Context, name string) bool {
	if p.Store == nil {
		return true
	}
	_, err := p.Store.Get(ctx, name)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return true
	}
	p.logger().Debug("link to missing page", "page", name)
	return false
}

func (p *Pass) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
