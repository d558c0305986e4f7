// Package highlight tokenizes code blocks that name their language and marks
// the tokens with chroma's short CSS classes.
package highlight

import (
	"context"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// Class is set on the div wrapping a highlighted block.
const Class = "highlight"

// Pass highlights blockcode elements carrying a language attribute. Blocks
// in languages chroma does not know are left untouched.
type Pass struct{}

// Apply implements transform.Pass.
func (Pass) Apply(_ context.Context, doc *dom.Element, _ string) error {
	dom.Rewrite(doc, func(_ []*dom.Element, n dom.Node) ([]dom.Node, bool) {
		el, ok := n.(*dom.Element)
		if !ok || !el.Is("blockcode") {
			return nil, false
		}
		lang := el.Attr(dom.AttrLanguage)
		if lang == "" {
			return nil, false
		}
		out, ok := Highlight(lang, el.Text())
		if !ok {
			return []dom.Node{el}, true
		}
		for k, v := range el.Attrs {
			out.SetAttr(k, v)
		}
		div := dom.Elem("div", out)
		div.SetAttr(dom.AttrClass, Class)
		return []dom.Node{div}, true
	})
	return nil
}

// Known reports whether chroma has a lexer for lang.
func Known(lang string) bool {
	return lexers.Get(lang) != nil
}

// Highlight returns a blockcode element holding code split into classed
// spans. ok is false for unknown languages or when tokenizing fails.
func Highlight(lang, code string) (*dom.Element, bool) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return nil, false
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return nil, false
	}
	tokens := it.Tokens()
	if !strings.HasSuffix(code, "\n") && len(tokens) > 0 {
		// Some lexers append a newline to the input.
		last := &tokens[len(tokens)-1]
		last.Value = strings.TrimSuffix(last.Value, "\n")
	}

	block := dom.Elem("blockcode")
	for _, tok := range tokens {
		if tok.Value == "" {
			continue
		}
		class := tokenClass(tok.Type)
		if class == "" {
			block.AppendText(tok.Value)
			continue
		}
		span := dom.Elem("span", dom.Text(tok.Value))
		span.SetAttr(dom.AttrClass, class)
		block.Append(span)
	}
	return block, true
}

// tokenClass returns the short class of t, falling back to its parent
// types.
func tokenClass(t chroma.TokenType) string {
	for ; t != 0; t = t.Parent() {
		if class, ok := chroma.StandardTypes[t]; ok {
			return class
		}
	}
	return ""
}
