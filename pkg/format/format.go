// Package format resolves the names used in embedded blocks such as
// {{{#!csv ,}}} to parsers producing document trees.
package format

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// Parser turns the content of an embedded block into a page element.
type Parser interface {
	Parse(input string, a *args.Arguments) (*dom.Element, error)
}

// Warner is implemented by parsers that record the markup problems they
// recovered from.
type Warner interface {
	Warnings(input string) []string
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(input string, a *args.Arguments) (*dom.Element, error)

// Parse calls f.
func (f ParserFunc) Parse(input string, a *args.Arguments) (*dom.Element, error) {
	return f(input, a)
}

// Lookup finds the parser for an embedded format name.
type Lookup interface {
	Lookup(name string) (Parser, bool)
}

// Registry is a Lookup backed by a name table. Names are case-insensitive.
// A fallback, when set, is consulted for names missing from the table.
type Registry struct {
	mu       sync.RWMutex
	parsers  map[string]Parser
	fallback func(name string) (Parser, bool)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: map[string]Parser{}}
}

// Register binds p to every name in names.
func (r *Registry) Register(p Parser, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		r.parsers[strings.ToLower(n)] = p
	}
}

// SetFallback installs fn as the resolver for unknown names.
func (r *Registry) SetFallback(fn func(name string) (Parser, bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

// Lookup implements Lookup.
func (r *Registry) Lookup(name string) (Parser, bool) {
	r.mu.RLock()
	p, ok := r.parsers[strings.ToLower(name)]
	fallback := r.fallback
	r.mu.RUnlock()
	if ok {
		return p, true
	}
	if fallback != nil {
		return fallback(name)
	}
	return nil, false
}

// Names returns the registered names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.parsers))
	for n := range r.parsers {
		names = append(names, n)
	}
	return names
}

// ParseArgs parses the argument text following a format name. A leading
// single punctuation character, as in "#!csv ,", becomes the first
// positional argument.
func ParseArgs(text string) args.Arguments {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, " ")
	if r, size := utf8.DecodeRuneInString(first); size == len(first) && size > 0 && (unicode.IsPunct(r) || unicode.IsSymbol(r)) && r != '"' && r != '\'' {
		a := args.Parse(rest)
		a.Positional = append([]string{first}, a.Positional...)
		return a
	}
	return args.Parse(text)
}
