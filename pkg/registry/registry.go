// Package registry implements a priority-ordered table of converter factories
// keyed by input and output type patterns.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// Priority orders entries; lower values are tried first.
type Priority int

const (
	ReallyFirst Priority = -20
	First       Priority = -10
	Middle      Priority = 0
	Last        Priority = 10
	ReallyLast  Priority = 20
)

var priorityNames = map[Priority]string{
	ReallyFirst: "really-first",
	First:       "first",
	Middle:      "middle",
	Last:        "last",
	ReallyLast:  "really-last",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("%d", int(p))
}

// Options are the keyword options a factory may inspect before accepting.
type Options map[string]string

// Factory builds a converter for the concrete input and output types. It
// returns false to refuse the request.
type Factory[C any] func(in, out mime.Type, opts Options) (C, bool)

// Entry is one registered factory with its patterns.
type Entry[C any] struct {
	Name     string
	Factory  Factory[C]
	In       mime.Type
	Out      mime.Type
	Priority Priority

	seq int
}

// Matches reports whether the entry's patterns cover the concrete types.
func (e Entry[C]) Matches(in, out mime.Type) bool {
	return e.Out.IsSupertype(out) && e.In.IsSupertype(in)
}

// less orders entries by priority, then output specificity, then input
// specificity, then registration order.
func (e Entry[C]) less(other Entry[C]) bool {
	if e.Priority != other.Priority {
		return e.Priority < other.Priority
	}
	if a, b := e.Out.Specificity(), other.Out.Specificity(); a != b {
		return a > b
	}
	if a, b := e.In.Specificity(), other.In.Specificity(); a != b {
		return a > b
	}
	return e.seq < other.seq
}

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Registry holds entries for one converter kind.
type Registry[C any] struct {
	mu      sync.RWMutex
	entries []Entry[C]
	frozen  bool
	seq     int
}

// New returns an empty registry.
func New[C any]() *Registry[C] {
	return &Registry[C]{}
}

// Register adds a factory under the given patterns.
func (r *Registry[C]) Register(name string, factory Factory[C], in, out mime.Type, priority Priority) error {
	if factory == nil {
		return fmt.Errorf("register %s: factory is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %s: %w", name, ErrFrozen)
	}

	r.seq++
	entry := Entry[C]{Name: name, Factory: factory, In: in, Out: out, Priority: priority, seq: r.seq}
	i := sort.Search(len(r.entries), func(i int) bool { return entry.less(r.entries[i]) })
	r.entries = append(r.entries, Entry[C]{})
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = entry
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry[C]) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Get returns the converter of the first entry, in priority order, whose
// patterns match and whose factory accepts the request.
func (r *Registry[C]) Get(in, out mime.Type, opts Options) (C, bool) {
	r.mu.RLock()
	entries := r.entries
	r.mu.RUnlock()

	for _, e := range entries {
		if !e.Matches(in, out) {
			continue
		}
		if conv, ok := e.Factory(in, out, opts); ok {
			return conv, true
		}
	}
	var zero C
	return zero, false
}

// Entries returns a snapshot of the entries in lookup order.
func (r *Registry[C]) Entries() []Entry[C] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry[C], len(r.entries))
	copy(out, r.entries)
	return out
}
