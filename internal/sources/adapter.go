// Package sources holds the per-site crawlers. Every site is a SiteAdapter
// parameterised by a SiteConfig; selectors are data and can be overridden
// from a YAML file without a rebuild.
package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/vnknews/vnknews/internal/models"
)

// Adapter crawls one news site.
type Adapter interface {
	ID() string
	Name() string
	Language() string
	Crawl(ctx context.Context) ([]models.NewsItem, error)
}

// RawItem is what the listing and detail phases extract before normalization.
type RawItem struct {
	Title        string
	URL          string
	Summary      string
	CategoryHint string
	ImageURL     string
	Content      string
	Category     models.Category
}

// Info describes a registered source.
type Info struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Language    string   `json:"language"`
	ListingURLs []string `json:"listing_urls,omitempty"`
	InsecureTLS bool     `json:"insecure_tls,omitempty"`
}

// Registry holds adapters keyed by id, preserving registration order.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	adapters map[string]Adapter
}

// NewRegistry creates a registry containing the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		_ = r.Register(a)
	}
	return r
}

// Register adds an adapter. Duplicate ids are rejected.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[a.ID()]; exists {
		return fmt.Errorf("source %q already registered", a.ID())
	}
	r.adapters[a.ID()] = a
	r.order = append(r.order, a.ID())
	return nil
}

// Get returns the adapter for id.
func (r *Registry) Get(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// All returns every adapter in registration order.
func (r *Registry) All() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// IDs returns the registered source ids in order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Describe lists the registered sources for the admin surface.
func (r *Registry) Describe() []Info {
	adapters := r.All()
	out := make([]Info, 0, len(adapters))
	for _, a := range adapters {
		info := Info{ID: a.ID(), Name: a.Name(), Language: a.Language()}
		if s, ok := a.(*SiteAdapter); ok {
			cfg := s.Config()
			info.ListingURLs = cfg.ListingURLs
			info.InsecureTLS = cfg.InsecureTLS
		}
		out = append(out, info)
	}
	return out
}
