package source

import (
	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// RegistryEntry pairs a fetcher with its per-source concurrency cap.
type RegistryEntry struct {
	Fetcher     Fetcher
	Concurrency int
}

// Registry maps enabled providers to their wired adapters, in merge
// priority order.
type Registry struct {
	entries []RegistryEntry
}

func (r *Registry) Add(f Fetcher, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	r.entries = append(r.entries, RegistryEntry{Fetcher: f, Concurrency: concurrency})
}

func (r *Registry) Entries() []RegistryEntry { return r.entries }

func (r *Registry) Sources() []domain.Source {
	out := make([]domain.Source, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Fetcher.Name())
	}
	return out
}

func (r *Registry) Len() int { return len(r.entries) }
