// parse.go implements the descriptor grammar: type[/subtype](;key=value)*.
package mime

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Token", Pattern: "[!#$%&'*+\\-.0-9A-Za-z^_`{|}~]+"},
	{Name: "Punct", Pattern: `[/;=]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type typeAST struct {
	Type    string      `@Token`
	Subtype *string     `( "/" @Token )?`
	Params  []*paramAST `( ";" @@? )*`
}

type paramAST struct {
	Key   string `@Token "="`
	Value string `( @String | @Token )?`
}

var typeParser = participle.MustBuild[typeAST](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Parse parses a descriptor such as "text/x.moin.wiki;charset=utf-8".
// Type, subtype and parameter keys are lowercased; "*" means unset.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, nil
	}
	ast, err := typeParser.ParseString("", s)
	if err != nil {
		return Type{}, fmt.Errorf("invalid type descriptor %q: %w", s, err)
	}

	t := Type{Type: unstar(ast.Type)}
	if ast.Subtype != nil {
		t.Subtype = unstar(*ast.Subtype)
	}
	for _, p := range ast.Params {
		if p == nil {
			continue
		}
		t = t.WithParam(p.Key, p.Value)
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func unstar(s string) string {
	if s == "*" {
		return ""
	}
	return strings.ToLower(s)
}
