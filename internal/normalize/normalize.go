// Package normalize maps provider-specific raw listings into partial leads.
// Every transform is per-field and failure-tolerant: a field that does not
// parse is omitted, it never blocks the rest of the record. Only a missing
// name drops the whole listing.
package normalize

import (
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// Partial normalizes one raw listing into a partial lead. The identity key is
// not computed here; that is the matching engine's job. ok=false means the
// listing had no usable name and must be counted as a skip.
func Partial(raw domain.RawListing) (domain.Lead, bool) {
	name := CleanText(raw.Name)
	if name == "" {
		return domain.Lead{}, false
	}

	city := CleanText(raw.City)
	if city == "" {
		city = CleanText(raw.CityHint)
	}

	cat := raw.CategoryHint
	if !cat.Valid() || cat == domain.CategoryUnknown {
		cat = Category(string(raw.CategoryHint))
	}

	lead := domain.Lead{
		Name:        name,
		Category:    cat,
		Address:     CleanText(raw.Address),
		City:        city,
		District:    CleanText(raw.District),
		Phones:      Phones(raw.Phones),
		Email:       strings.ToLower(CleanText(raw.Email)),
		Website:     CleanText(raw.Website),
		Rating:      raw.Rating,
		ReviewCount: raw.ReviewCount,
		Source:      raw.Source,
	}

	if lead.Rating < 0 || lead.Rating > 5 {
		lead.Rating = 0
	}
	if lead.ReviewCount < 0 {
		lead.ReviewCount = 0
	}

	if g, ok := Geo(raw.Lat, raw.Lon); ok {
		lead.Geo = g
	}

	fields := append([]string{raw.Website, raw.Bio}, raw.Links...)
	lead.Social = Social(fields...)

	return lead, true
}
