package domain

// Source identifies one of the known providers. The set is closed: adding a
// provider means adding an adapter package, not a config entry.
type Source string

const (
	SourceTwoGIS    Source = "2gis"
	SourceYandex    Source = "yandex_maps"
	SourceEGR       Source = "egr"
	SourceOnliner   Source = "onliner"
	SourceDealBy    Source = "dealby"
	SourceInstagram Source = "instagram"

	// SourceMerged marks a lead whose surviving fields came from more than one
	// provider.
	SourceMerged Source = "merged"
)

// Trust tier of a provider. Structured APIs give complete, well-typed fields;
// scraped pages give noisy partial ones. Merge priority follows this tier.
type Trust int

const (
	TrustPersisted Trust = iota // previously stored lead, lowest priority
	TrustScraped
	TrustStructured
)

func (s Source) Trust() Trust {
	switch s {
	case SourceTwoGIS, SourceYandex, SourceEGR:
		return TrustStructured
	default:
		return TrustScraped
	}
}

func (s Source) Valid() bool {
	switch s {
	case SourceTwoGIS, SourceYandex, SourceEGR, SourceOnliner, SourceDealBy, SourceInstagram:
		return true
	}
	return false
}

// AllSources lists every fetchable provider in merge-priority order
// (structured tiers first).
func AllSources() []Source {
	return []Source{
		SourceTwoGIS, SourceYandex, SourceEGR,
		SourceOnliner, SourceDealBy, SourceInstagram,
	}
}
