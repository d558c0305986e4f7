// Package mime implements the type descriptors used to select converters.
//
// A descriptor is a MIME-like label: a major type, a minor type and a list
// of parameters. Unset fields act as wildcards when one descriptor is
// compared against another with IsSupertype.
package mime

import (
	"fmt"
	"sort"
	"strings"
)

// Param is a single key=value parameter of a Type.
type Param struct {
	Key   string
	Value string
}

// Type is a MIME-like type descriptor. Empty Type or Subtype means unset.
type Type struct {
	Type    string
	Subtype string
	Params  []Param
}

// New returns a descriptor with the given major and minor type.
func New(major, minor string, params ...Param) Type {
	t := Type{Type: strings.ToLower(major), Subtype: strings.ToLower(minor)}
	for _, p := range params {
		t = t.WithParam(p.Key, p.Value)
	}
	return t
}

// Well-known descriptors.
var (
	Any          = Type{}
	MoinDocument = MustParse("application/x.moin.document")
	MoinWiki     = MustParse("text/x.moin.wiki")
	Creole       = MustParse("text/x.moin.creole")
	Markdown     = MustParse("text/x-markdown")
	RST          = MustParse("text/x-rst")
	MediaWiki    = MustParse("text/x-mediawiki")
	CSV          = MustParse("text/csv")
	HTML         = MustParse("text/html")
	DocBook      = MustParse("application/docbook+xml")
	PlainText    = MustParse("text/plain")
	Text         = MustParse("text")
	Macro        = MustParse("x-moin/macro")
	Format       = MustParse("x-moin/format")
)

// MacroType returns the descriptor naming the macro called name.
func MacroType(name string) Type {
	return Macro.WithParam("name", name)
}

// FormatType returns the descriptor naming the embedded format called name.
func FormatType(name string) Type {
	return Format.WithParam("name", name)
}

// Param returns the value of the parameter key.
func (t Type) Param(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, p := range t.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// WithParam returns a copy of t with key set to value.
func (t Type) WithParam(key, value string) Type {
	key = strings.ToLower(key)
	params := make([]Param, 0, len(t.Params)+1)
	replaced := false
	for _, p := range t.Params {
		if p.Key == key {
			params = append(params, Param{Key: key, Value: value})
			replaced = true
			continue
		}
		params = append(params, p)
	}
	if !replaced {
		params = append(params, Param{Key: key, Value: value})
	}
	t.Params = params
	return t
}

// WithoutParams returns t stripped of all parameters.
func (t Type) WithoutParams() Type {
	t.Params = nil
	return t
}

// Equal reports structural equality. Parameter order does not matter.
func (t Type) Equal(other Type) bool {
	if t.Type != other.Type || t.Subtype != other.Subtype || len(t.Params) != len(other.Params) {
		return false
	}
	for _, p := range t.Params {
		v, ok := other.Param(p.Key)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// IsSupertype reports whether t is equal to or less specific than other:
// every field t sets matches the corresponding field of other.
func (t Type) IsSupertype(other Type) bool {
	if t.Type != "" && t.Type != other.Type {
		return false
	}
	if t.Subtype != "" && t.Subtype != other.Subtype {
		return false
	}
	for _, p := range t.Params {
		v, ok := other.Param(p.Key)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// Specificity counts the fields t sets. Registry ordering uses it to try
// narrower patterns first.
func (t Type) Specificity() int {
	n := len(t.Params)
	if t.Type != "" {
		n++
	}
	if t.Subtype != "" {
		n++
	}
	return n
}

// String renders t as type/subtype;key=value with sorted parameters.
func (t Type) String() string {
	var sb strings.Builder
	sb.WriteString(orStar(t.Type))
	sb.WriteByte('/')
	sb.WriteString(orStar(t.Subtype))

	params := make([]Param, len(t.Params))
	copy(params, t.Params)
	sort.Slice(params, func(i, j int) bool { return params[i].Key < params[j].Key })
	for _, p := range params {
		sb.WriteByte(';')
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		if isToken(p.Value) {
			sb.WriteString(p.Value)
		} else {
			fmt.Fprintf(&sb, "%q", p.Value)
		}
	}
	return sb.String()
}

func orStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// isToken reports whether s consists only of RFC 2045 token characters.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`{|}~", c) >= 0
}
