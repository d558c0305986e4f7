// Package args implements the argument mini-language used by macros,
// embedded formats and object references:
//
//	a b key=value key2="quoted value" key3='single \'quoted\''
package args

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Arguments holds positional and keyword arguments.
type Arguments struct {
	Positional []string
	Keyword    map[string]string
}

// New returns empty Arguments.
func New() Arguments {
	return Arguments{Keyword: map[string]string{}}
}

// Get returns the keyword value for key.
func (a Arguments) Get(key string) (string, bool) {
	v, ok := a.Keyword[key]
	return v, ok
}

// Empty reports whether a carries no arguments at all.
func (a Arguments) Empty() bool {
	return len(a.Positional) == 0 && len(a.Keyword) == 0
}

// Equal reports whether a and b hold the same arguments.
func (a Arguments) Equal(b Arguments) bool {
	if len(a.Positional) != len(b.Positional) || len(a.Keyword) != len(b.Keyword) {
		return false
	}
	for i := range a.Positional {
		if a.Positional[i] != b.Positional[i] {
			return false
		}
	}
	for k, v := range a.Keyword {
		if w, ok := b.Keyword[k]; !ok || v != w {
			return false
		}
	}
	return true
}

const (
	keyPattern    = `(?:([-&\pL\pN_]+)=)?`
	quotedPattern = `"((?:\\.|[^"\\])*)"|'((?:\\.|[^'\\])*)'`
)

var (
	defaultRe = regexp.MustCompile(keyPattern + `(?:([-\pL\pN_]+)|` + quotedPattern + `)`)
	objectRe  = regexp.MustCompile(keyPattern + `(?:([-\pL\pN_]+%*)|` + quotedPattern + `)`)
	includeRe = regexp.MustCompile(keyPattern + `(?:(\^?[-/.\pL\pN_]+[-\s\pL\pN_]*)|` + quotedPattern + `)`)
)

// Parse parses text with the default grammar. Text that matches no token is
// skipped.
func Parse(text string) Arguments {
	return parse(text, defaultRe)
}

// ParseObject is like Parse but accepts a trailing % on bare values, as in
// width=50%.
func ParseObject(text string) Arguments {
	return parse(text, objectRe)
}

// ParseInclude is like Parse but accepts page names with dots, slashes and
// inner spaces as bare values.
func ParseInclude(text string) Arguments {
	return parse(text, includeRe)
}

func parse(text string, re *regexp.Regexp) Arguments {
	ret := New()
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		var value string
		switch {
		case m[2] != "":
			value = m[2]
		case m[3] != "":
			value = m[3]
		default:
			value = m[4]
		}
		value = decode(value)
		if m[1] != "" {
			ret.Keyword[m[1]] = value
		} else {
			ret.Positional = append(ret.Positional, value)
		}
	}
	return ret
}

// decode resolves backslash escapes. Invalid escapes are kept literally.
func decode(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			i++
			continue
		}
		switch s[i+1] {
		case '"', '\'', '\\':
			sb.WriteByte(s[i+1])
			i += 2
			continue
		}
		r, multibyte, tail, err := strconv.UnquoteChar(s[i:], 0)
		if err != nil {
			sb.WriteByte('\\')
			i++
			continue
		}
		if multibyte {
			sb.WriteRune(r)
		} else {
			// \xNN and octal escapes name a single byte.
			sb.WriteByte(byte(r))
		}
		i = len(s) - len(tail)
	}
	return sb.String()
}

// ErrInvalidKey is returned by Unparse for keys that are not bare tokens.
var ErrInvalidKey = errors.New("invalid keyword string")

var (
	bareRe = regexp.MustCompile(`^[-\pL\pN_]+$`)
	keyRe  = regexp.MustCompile(`^[-&\pL\pN_]+$`)
)

// Unparse renders a in the default grammar. Keywords are sorted; values are
// quoted only when needed.
func Unparse(a Arguments) (string, error) {
	var parts []string
	for _, v := range a.Positional {
		parts = append(parts, quote(v))
	}

	keys := make([]string, 0, len(a.Keyword))
	for k := range a.Keyword {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !keyRe.MatchString(k) {
			return "", ErrInvalidKey
		}
		parts = append(parts, k+"="+quote(a.Keyword[k]))
	}
	return strings.Join(parts, " "), nil
}

func quote(s string) string {
	if bareRe.MatchString(s) {
		return s
	}
	return strconv.Quote(s)
}
