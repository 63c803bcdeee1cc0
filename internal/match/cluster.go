// Package match decides whether two records denote the same business.
// Signals, strongest first: shared canonical phone, then exact name-key
// equality. No fuzzy name similarity; transliteration noise is handled by
// folding, not by thresholds.
package match

import (
	"context"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// Lookup is the slice of the persistence gateway the matcher needs.
type Lookup interface {
	FindByIdentity(ctx context.Context, key string) (*domain.Lead, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Lead, error)
}

// Cluster is one group of records resolved to the same entity.
type Cluster struct {
	Records  []domain.Lead // partials from this run, first-seen order
	Existing []domain.Lead // persisted leads matched by key or phone
}

type Matcher struct {
	Store Lookup
}

// Clusters groups the run's partial records, then attaches any persisted
// leads reachable by identity key or phone. Grouping is a union over both
// signals; when the signals disagree the phone union has already won because
// both end up in one cluster and the merged record's key is phone-derived.
func (m Matcher) Clusters(ctx context.Context, partials []domain.Lead) ([]Cluster, error) {
	n := len(partials)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	byPhone := map[string]int{}
	byNameKey := map[string]int{}
	for i, p := range partials {
		for _, ph := range p.Phones {
			if j, ok := byPhone[ph]; ok {
				union(i, j)
			} else {
				byPhone[ph] = i
			}
		}
		nk := NameKey(p.Name, p.City, p.Category)
		if j, ok := byNameKey[nk]; ok {
			union(i, j)
		} else {
			byNameKey[nk] = i
		}
	}

	groups := map[int]*Cluster{}
	var order []int
	for i, p := range partials {
		root := find(i)
		c, ok := groups[root]
		if !ok {
			c = &Cluster{}
			groups[root] = c
			order = append(order, root)
		}
		c.Records = append(c.Records, p)
	}

	out := make([]Cluster, 0, len(order))
	for _, root := range order {
		c := groups[root]
		existing, err := m.lookupExisting(ctx, c.Records)
		if err != nil {
			return nil, err
		}
		c.Existing = existing
		out = append(out, *c)
	}
	return out, nil
}

// lookupExisting probes the store with every key candidate of the cluster:
// each record's own identity key, its name key, and every phone.
func (m Matcher) lookupExisting(ctx context.Context, records []domain.Lead) ([]domain.Lead, error) {
	if m.Store == nil {
		return nil, nil
	}

	seen := map[string]bool{}
	var out []domain.Lead
	add := func(l *domain.Lead) {
		if l == nil || seen[l.IdentityKey] {
			return
		}
		seen[l.IdentityKey] = true
		out = append(out, *l)
	}

	for _, r := range records {
		for _, key := range []string{KeyFor(r), NameKey(r.Name, r.City, r.Category)} {
			found, err := m.Store.FindByIdentity(ctx, key)
			if err != nil {
				return nil, err
			}
			add(found)
		}
		for _, ph := range r.Phones {
			found, err := m.Store.FindByPhone(ctx, ph)
			if err != nil {
				return nil, err
			}
			add(found)
		}
	}
	return out, nil
}
