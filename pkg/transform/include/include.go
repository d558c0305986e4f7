// Package include expands xinclude elements that transclude wiki pages.
//
// An include names its target through a wiki.local: href or through an
// xpointer of the form
//
//	xmlns(page=...) page:include(pages(^regex) sort(descending) items(3) heading(Title) level(2))
//
// where ^ escapes the next character. Targets are parsed and expanded
// recursively; the chain of pages being included is tracked so that a page
// including itself, directly or not, gives an error instead of looping.
package include

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/store"
	"github.com/open-cli-collective/wikiconv/pkg/transform"
)

// Parser turns a stored page into a document.
type Parser interface {
	ParsePage(ctx context.Context, p store.Page) (*dom.Element, error)
}

// Pass expands page includes. Without a Store or Parser it does nothing.
type Pass struct {
	Store      store.Store
	Permission store.Permission
	Parser     Parser
	Logger     *slog.Logger
}

// TransclusionClass marks the element holding an included page.
const TransclusionClass = "moin-transclusion"

// Apply implements transform.Pass.
func (p *Pass) Apply(ctx context.Context, doc *dom.Element, page string) error {
	if p.Store == nil || p.Parser == nil {
		return nil
	}
	name := transform.PageName(doc, page)
	var stack []string
	if name != "" {
		stack = []string{name}
	}
	p.expand(ctx, doc, name, stack)
	return nil
}

func (p *Pass) expand(ctx context.Context, root *dom.Element, page string, stack []string) {
	dom.Rewrite(root, func(_ []*dom.Element, n dom.Node) ([]dom.Node, bool) {
		el, ok := n.(*dom.Element)
		if !ok {
			return nil, false
		}
		if inc := soleInclude(el); inc != nil {
			nodes, ok := p.include(ctx, inc, page, stack, true)
			if !ok {
				return []dom.Node{el}, true
			}
			return nodes, true
		}
		if isPageInclude(el) {
			nodes, ok := p.include(ctx, el, page, stack, false)
			if !ok {
				return []dom.Node{el}, true
			}
			return nodes, true
		}
		return nil, false
	})
}

func isPageInclude(el *dom.Element) bool {
	if el.Name != dom.XIncludeElement {
		return false
	}
	return strings.HasPrefix(el.Attr(dom.XIncludeHref), transform.Local) ||
		strings.Contains(el.Attr(dom.XIncludeXPointer), "page:include(")
}

// soleInclude returns the page include of a paragraph, or of a moin-p div,
// holding nothing else but whitespace.
func soleInclude(el *dom.Element) *dom.Element {
	if !el.Is("p") && !(el.Is("div") && el.HasClass("moin-p")) {
		return nil
	}
	var inc *dom.Element
	for _, c := range el.Children {
		switch n := c.(type) {
		case dom.Text:
			if strings.TrimSpace(string(n)) != "" {
				return nil
			}
		case *dom.Element:
			if inc != nil || !isPageInclude(n) {
				return nil
			}
			inc = n
		}
	}
	return inc
}

// include returns the nodes replacing inc. ok is false when inc does not
// refer to a document, as for images, and should be kept.
func (p *Pass) include(ctx context.Context, inc *dom.Element, page string, stack []string, block bool) ([]dom.Node, bool) {
	params := ParseXPointer(inc.Attr(dom.XIncludeXPointer))

	var names []string
	if href := inc.Attr(dom.XIncludeHref); strings.HasPrefix(href, transform.Local) {
		target := transform.SplitTarget(strings.TrimPrefix(href, transform.Local))
		names = []string{transform.Resolve(page, target.Path)}
	} else if pattern, ok := params["pages"]; ok {
		var err error
		if names, err = p.match(ctx, pattern, page, params); err != nil {
			return []dom.Node{errorNode("Include: "+err.Error(), block)}, true
		}
	} else {
		return nil, false
	}

	for _, name := range names {
		if i := index(stack, name); i >= 0 {
			chain := strings.Join(append(append([]string{}, stack[i:]...), name), " -> ")
			p.logger().Warn("recursive include", "page", page, "chain", chain)
			return []dom.Node{errorNode("Recursive include detected: "+chain, block)}, true
		}
	}

	var out []dom.Node
	for _, name := range names {
		nodes, ok := p.page(ctx, name, stack, params, block)
		if !ok && len(names) == 1 {
			return nil, false
		}
		out = append(out, nodes...)
	}
	return out, true
}

func (p *Pass) page(ctx context.Context, name string, stack []string, params map[string]string, block bool) ([]dom.Node, bool) {
	if p.Permission != nil && !p.Permission.MayRead(name) {
		p.logger().Warn("include forbidden", "page", name)
		return []dom.Node{errorNode(fmt.Sprintf("Include: %s: %v", name, store.ErrForbidden), block)}, true
	}
	pg, err := p.Store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrForbidden) {
			p.logger().Warn("include failed", "page", name, "error", err)
		} else {
			p.logger().Error("include failed", "page", name, "error", err)
		}
		return []dom.Node{errorNode(fmt.Sprintf("Include: %s: %v", name, err), block)}, true
	}
	switch pg.ContentType.Type {
	case "image", "audio", "video":
		return nil, false
	}

	doc, err := p.Parser.ParsePage(ctx, pg)
	if err != nil {
		return []dom.Node{errorNode(fmt.Sprintf("Include: %s: %v", name, err), block)}, true
	}
	p.expand(ctx, doc, name, append(append([]string{}, stack...), name))

	var children []dom.Node
	if body := dom.Body(doc); body != nil {
		children = body.Children
	}
	if heading, ok := params["heading"]; ok {
		if heading == "" {
			heading = name
		}
		level := 1
		if n, err := strconv.Atoi(params["level"]); err == nil && n > 0 && n < 7 {
			level = n
		}
		h := dom.Elem("h", dom.Text(heading))
		h.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(level))
		children = append([]dom.Node{h}, children...)
	}

	local := "div"
	if !block {
		local = "span"
		if len(children) == 1 {
			if only, ok := children[0].(*dom.Element); ok && only.Is("p") {
				children = only.Children
			}
		}
	}
	wrap := dom.Elem(local, children...)
	wrap.SetAttr(dom.AttrClass, TransclusionClass)
	wrap.SetAttr(dom.HTMLDataHref, transform.Wiki+"/"+transform.EscapeName(name))
	return []dom.Node{wrap}, true
}

// match lists the pages matching the pages() pattern, ordered and cut by
// the sort, skipitems and items parameters. The including page is left out.
func (p *Pass) match(ctx context.Context, pattern, page string, params map[string]string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pages pattern %q: %w", pattern, err)
	}
	all, err := p.Store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, n := range all {
		if n != page && re.MatchString(n) && (p.Permission == nil || p.Permission.MayRead(n)) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	if params["sort"] == "descending" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	if n, err := strconv.Atoi(params["skipitems"]); err == nil && n > 0 {
		names = names[min(n, len(names)):]
	}
	if n, err := strconv.Atoi(params["items"]); err == nil && n > 0 && n < len(names) {
		names = names[:n]
	}
	return names, nil
}

// ParseXPointer returns the functions of a page:include() pointer by name.
func ParseXPointer(xp string) map[string]string {
	out := map[string]string{}
	i := strings.Index(xp, "page:include(")
	if i < 0 {
		return out
	}
	s := xp[i+len("page:include("):]
	for {
		s = strings.TrimLeft(s, " ")
		open := strings.IndexByte(s, '(')
		if s == "" || s[0] == ')' || open < 0 {
			return out
		}
		name := s[:open]
		var val strings.Builder
		j := open + 1
		for ; j < len(s) && s[j] != ')'; j++ {
			if s[j] == '^' && j+1 < len(s) {
				j++
			}
			val.WriteByte(s[j])
		}
		out[name] = val.String()
		if j >= len(s) {
			return out
		}
		s = s[j+1:]
	}
}

func index(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func errorNode(msg string, block bool) *dom.Element {
	if block {
		return dom.ErrorDiv(msg)
	}
	return dom.ErrorSpan(msg)
}

func (p *Pass) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
