// Package macro defines the capability through which <<Name(args)>> calls are
// expanded, and the built-in macros.
package macro

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// Kind says where a macro may appear.
type Kind int

const (
	// Block macros produce block content and fail when used inline.
	Block Kind = iota
	// Inline macros produce inline content, wrapped in a div in block position.
	Inline
	// InlineOnly macros produce nothing in block position.
	InlineOnly
)

func (k Kind) String() string {
	switch k {
	case Block:
		return "block"
	case Inline:
		return "inline"
	case InlineOnly:
		return "inline-only"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Lister lists page names below a prefix.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// Context is what a handler knows about the call site.
type Context struct {
	Ctx context.Context
	// Page is the absolute path of the page being converted, or "".
	Page string
	// Alt is the macro call source, e.g. <<Date(2024-01-01)>>.
	Alt string
	// Raw is the unparsed text between the parentheses.
	Raw string
	// Block is set when the call stands alone on its line.
	Block bool
	// Pages lists pages for macros that enumerate them. May be nil.
	Pages Lister
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (c Context) ctx() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

func (c Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Handler expands one macro call.
type Handler interface {
	Call(c Context, a args.Arguments) ([]dom.Node, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(c Context, a args.Arguments) ([]dom.Node, error)

// Call calls f.
func (f HandlerFunc) Call(c Context, a args.Arguments) ([]dom.Node, error) {
	return f(c, a)
}

// Entry is a registered macro.
type Entry struct {
	Name    string
	Kind    Kind
	Handler Handler
}

// Run calls the handler and applies the placement rules of its kind.
// A panicking handler is reported as an error.
func (e Entry) Run(c Context, a args.Arguments) (nodes []dom.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if e.Kind == Block && !c.Block {
		return []dom.Node{FailMessage("Block macros cannot be used inline", c.Alt)}, nil
	}
	if e.Kind == InlineOnly && c.Block {
		return nil, nil
	}
	nodes, err = e.Handler.Call(c, a)
	if err != nil {
		return nil, err
	}
	if e.Kind == Inline && c.Block && len(nodes) > 0 {
		return []dom.Node{dom.Elem("div", nodes...)}, nil
	}
	return nodes, nil
}

// ErrDuplicate is returned when a name is registered twice.
var ErrDuplicate = errors.New("macro already registered")

// Registry maps case-insensitive macro names to entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]Entry{}}
}

// Register adds h under name.
func (r *Registry) Register(name string, kind Kind, h Handler) error {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.entries[key] = Entry{Name: name, Kind: kind, Handler: h}
	return nil
}

// Lookup finds the entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToLower(name)]
	return e, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// FailMessage returns the block shown in place of a macro that could not do
// its job: the call source followed by msg.
func FailMessage(msg, alt string) *dom.Element {
	div := dom.Elem("div",
		dom.Elem("p", dom.Elem("strong", dom.Text(alt))),
		dom.Elem("p", dom.Text(msg)),
	)
	div.SetAttr(dom.AttrClass, "error moin-nowiki")
	return div
}
