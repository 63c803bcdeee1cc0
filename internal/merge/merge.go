// Package merge folds a cluster of matching records into one canonical lead.
// The rules are deterministic so a re-merge of the same inputs is a no-op,
// which is what makes re-running the pipeline safe.
package merge

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/match"
)

// Merge produces the canonical lead for one cluster. Contributor priority:
// structured sources, then scraped, then the persisted lead (so fresh data
// supersedes stale scalars but a populated field never regresses to empty).
// Within a tier, first-seen order is kept.
func Merge(c match.Cluster, now time.Time) domain.Lead {
	contribs := ordered(c)
	if len(contribs) == 0 {
		return domain.Lead{}
	}

	var out domain.Lead

	// Longest non-empty name in characters, not bytes, so Cyrillic and
	// Latin variants compete fairly. Priority order breaks length ties.
	for _, l := range contribs {
		if utf8.RuneCountInString(l.Name) > utf8.RuneCountInString(out.Name) {
			out.Name = l.Name
		}
	}

	firstString := func(get func(domain.Lead) string) string {
		for _, l := range contribs {
			if v := get(l); v != "" {
				return v
			}
		}
		return ""
	}
	out.Category = firstCategory(contribs)
	out.Address = firstString(func(l domain.Lead) string { return l.Address })
	out.City = firstString(func(l domain.Lead) string { return l.City })
	out.District = firstString(func(l domain.Lead) string { return l.District })
	out.Email = firstString(func(l domain.Lead) string { return l.Email })
	out.Website = firstString(func(l domain.Lead) string { return l.Website })

	for _, l := range contribs {
		if out.Rating == 0 && l.Rating > 0 {
			out.Rating = l.Rating
		}
		if out.ReviewCount == 0 && l.ReviewCount > 0 {
			out.ReviewCount = l.ReviewCount
		}
		if out.Geo.IsZero() && !l.Geo.IsZero() {
			out.Geo = l.Geo
		}
	}

	out.Phones = unionPhones(contribs)
	out.Social = unionSocial(contribs)
	out.Source = survivingSource(contribs)
	out.UpdatedAt = now
	out.IdentityKey = match.KeyFor(out)

	// Keep the persisted row id so the gateway updates in place.
	for _, l := range c.Existing {
		if l.ID != 0 {
			out.ID = l.ID
			break
		}
	}
	return out
}

func ordered(c match.Cluster) []domain.Lead {
	var structured, scraped []domain.Lead
	for _, l := range c.Records {
		if l.Source.Trust() == domain.TrustStructured {
			structured = append(structured, l)
		} else {
			scraped = append(scraped, l)
		}
	}
	out := make([]domain.Lead, 0, len(c.Records)+len(c.Existing))
	out = append(out, structured...)
	out = append(out, scraped...)
	out = append(out, c.Existing...)
	return out
}

func firstCategory(contribs []domain.Lead) domain.Category {
	for _, l := range contribs {
		if l.Category != "" && l.Category != domain.CategoryUnknown {
			return l.Category
		}
	}
	return domain.CategoryUnknown
}

func unionPhones(contribs []domain.Lead) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range contribs {
		for _, p := range l.Phones {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

func unionSocial(contribs []domain.Lead) map[string]string {
	var out map[string]string
	for _, l := range contribs {
		for platform, handle := range l.Social {
			if handle == "" {
				continue
			}
			if out == nil {
				out = map[string]string{}
			}
			if _, ok := out[platform]; !ok {
				out[platform] = handle
			}
		}
	}
	return out
}

// survivingSource is the single provider that contributed everything, or
// "merged". A persisted lead counts through its own recorded source.
func survivingSource(contribs []domain.Lead) domain.Source {
	seen := map[domain.Source]bool{}
	for _, l := range contribs {
		if l.Source == "" {
			continue
		}
		seen[l.Source] = true
	}
	if len(seen) == 1 {
		for s := range seen {
			return s
		}
	}
	return domain.SourceMerged
}
