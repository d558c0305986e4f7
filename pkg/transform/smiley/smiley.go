// Package smiley replaces text smileys such as :-) with icon spans.
package smiley

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// Smileys maps the recognized texts to icon names.
var Smileys = map[string]string{
	"X-(":  "angry",
	":D":   "biggrin",
	"<:(":  "frown",
	":o":   "redface",
	":(":   "sad",
	":)":   "smile",
	"B)":   "smile2",
	":))":  "smile3",
	";)":   "smile4",
	"/!\\": "alert",
	"<!>":  "attention",
	"(!)":  "idea",
	":-?":  "tongue",
	":\\":  "ohwell",
	">:>":  "devil",
	"|)":   "tired",
	":-(":  "sad",
	":-)":  "smile",
	"B-)":  "smile2",
	":-))": "smile3",
	";-)":  "smile4",
	"|-)":  "tired",
	"(./)": "checkmark",
	"{OK}": "thumbs-up",
	"{X}":  "icon-error",
	"{i}":  "icon-info",
	"{1}":  "prio1",
	"{2}":  "prio2",
	"{3}":  "prio3",
	"{*}":  "star_on",
	"{o}":  "star_off",
}

// IconClass is set on every smiley span next to moin-<name>.
const IconClass = "moin-text-icon"

var smileyRe = func() *regexp.Regexp {
	texts := make([]string, 0, len(Smileys))
	for s := range Smileys {
		texts = append(texts, s)
	}
	// Longest first, so :)) wins over :).
	sort.Slice(texts, func(i, j int) bool {
		if len(texts[i]) != len(texts[j]) {
			return len(texts[i]) > len(texts[j])
		}
		return texts[i] < texts[j]
	})
	for i, s := range texts {
		texts[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(strings.Join(texts, "|"))
}()

// Subtrees of these elements are left alone.
var skipped = map[string]bool{
	"code":      true,
	"blockcode": true,
	"samp":      true,
	"nowiki":    true,
	"a":         true,
}

// Pass replaces smileys in text.
type Pass struct{}

// Apply implements transform.Pass.
func (Pass) Apply(_ context.Context, doc *dom.Element, _ string) error {
	dom.Rewrite(doc, func(path []*dom.Element, n dom.Node) ([]dom.Node, bool) {
		switch v := n.(type) {
		case *dom.Element:
			if v.Name.Space == dom.Moin && skipped[v.Name.Local] {
				return []dom.Node{v}, true
			}
		case dom.Text:
			if nodes := Replace(string(v)); nodes != nil {
				return nodes, true
			}
		}
		return nil, false
	})
	return nil
}

// Replace splits text around the smileys it holds. A smiley counts only
// with whitespace or the text boundary on both sides. It returns nil when
// text holds none.
func Replace(text string) []dom.Node {
	var out []dom.Node
	last := 0
	for _, loc := range smileyRe.FindAllStringIndex(text, -1) {
		if !boundaryBefore(text, loc[0]) || !boundaryAfter(text, loc[1]) {
			continue
		}
		if loc[0] > last {
			out = append(out, dom.Text(text[last:loc[0]]))
		}
		out = append(out, Icon(Smileys[text[loc[0]:loc[1]]]))
		last = loc[1]
	}
	if out == nil {
		return nil
	}
	if last < len(text) {
		out = append(out, dom.Text(text[last:]))
	}
	return out
}

// Icon returns the span for the named icon.
func Icon(name string) *dom.Element {
	span := dom.Elem("span")
	span.SetAttr(dom.AttrClass, IconClass+" moin-"+name)
	return span
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsSpace(r)
}

func boundaryAfter(s string, i int) bool {
	if i == len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}
