package link

import (
	"context"
	"sort"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/parse"
	"github.com/open-cli-collective/wikiconv/pkg/transform"
)

// Refs are the references of one page. Page names are absolute; each list
// is sorted and free of duplicates.
type Refs struct {
	Links         []string `json:"links"`
	Transclusions []string `json:"transclusions"`
	ExternalLinks []string `json:"external_links"`
}

// CollectRefs reads the references of an unresolved document. Links are the
// wiki targets of a elements, transclusions the wiki targets of includes,
// external links every other a target with a scheme.
func CollectRefs(doc *dom.Element, page string) Refs {
	page = transform.PageName(doc, page)
	links := map[string]bool{}
	transclusions := map[string]bool{}
	external := map[string]bool{}

	dom.Walk(doc, func(_ []*dom.Element, n dom.Node) bool {
		el, ok := n.(*dom.Element)
		if !ok {
			return false
		}
		if el.Is("a") {
			href := el.Attr(dom.XLinkHref)
			if name, ok := wikiName(href, page); ok {
				links[name] = true
			} else if parse.Scheme(href) != "" {
				external[href] = true
			}
		}
		if el.Name == dom.XIncludeElement {
			if name, ok := wikiName(el.Attr(dom.XIncludeHref), page); ok {
				transclusions[name] = true
			}
		}
		return true
	})
	return Refs{Links: keys(links), Transclusions: keys(transclusions), ExternalLinks: keys(external)}
}

// wikiName returns the page a wiki.local: or wiki:/// target refers to.
func wikiName(href, page string) (string, bool) {
	switch {
	case strings.HasPrefix(href, transform.Local):
		t := transform.SplitTarget(strings.TrimPrefix(href, transform.Local))
		if t.Path == "" {
			return "", false
		}
		return transform.Resolve(page, t.Path), true
	case strings.HasPrefix(href, transform.Wiki+"/"):
		t := transform.SplitTarget(strings.TrimPrefix(href, transform.Wiki+"/"))
		return transform.Normalize(t.Path), t.Path != ""
	}
	return "", false
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RefsPass records the references of the documents it is applied to
// without changing them.
type RefsPass struct {
	Refs Refs
}

// Apply implements transform.Pass.
func (r *RefsPass) Apply(_ context.Context, doc *dom.Element, page string) error {
	r.Refs = CollectRefs(doc, page)
	return nil
}
