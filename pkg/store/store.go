// Package store gives the conversion passes read access to wiki pages.
//
// Page names are absolute slash-separated paths without a leading slash,
// e.g. "Home/Sub".
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// Sentinel errors returned by Get.
var (
	ErrNotFound  = errors.New("page not found")
	ErrForbidden = errors.New("permission denied")
)

// Page is a stored page.
type Page struct {
	Name        string
	Content     string
	ContentType mime.Type
}

// Store looks up pages.
type Store interface {
	// Get returns the named page, ErrNotFound or ErrForbidden.
	Get(ctx context.Context, name string) (Page, error)
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Permission decides read access.
type Permission interface {
	MayRead(name string) bool
}

// AllowAll grants every read.
type AllowAll struct{}

// MayRead implements Permission.
func (AllowAll) MayRead(string) bool { return true }

// Memory is a Store held in a map. The zero value is empty and ready to use.
type Memory struct {
	mu     sync.RWMutex
	pages  map[string]Page
	denied map[string]bool
}

// NewMemory returns a Memory holding pages.
func NewMemory(pages ...Page) *Memory {
	m := &Memory{}
	for _, p := range pages {
		m.Put(p)
	}
	return m
}

// Put adds or replaces a page. An unset content type means moin wiki markup.
func (m *Memory) Put(p Page) {
	if p.ContentType.Type == "" {
		p.ContentType = mime.MoinWiki
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages == nil {
		m.pages = map[string]Page{}
	}
	m.pages[p.Name] = p
}

// Deny makes the named pages unreadable.
func (m *Memory) Deny(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied == nil {
		m.denied = map[string]bool{}
	}
	for _, n := range names {
		m.denied[n] = true
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, name string) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[name]
	if !ok {
		return Page{}, ErrNotFound
	}
	if m.denied[name] {
		return Page{}, ErrForbidden
	}
	return p, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name := range m.pages {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// MayRead implements Permission.
func (m *Memory) MayRead(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.denied[name]
}
