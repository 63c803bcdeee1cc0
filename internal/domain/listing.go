package domain

// RawListing is one provider record before normalization. Field contents are
// whatever the provider gave us: phones unformatted, coordinates as strings,
// social links buried in Links or Bio. Nothing outside the provider's own
// normalizer path should interpret these.
type RawListing struct {
	Source       Source
	CategoryHint Category // the category the work unit asked for
	CityHint     string   // the city the work unit asked for

	Name        string
	Address     string
	City        string
	District    string
	Phones      []string // raw strings, may contain noise
	Email       string
	Website     string
	Bio         string   // free text: descriptions, profile bios
	Links       []string // any URLs found alongside the record
	Rating      float64
	ReviewCount int
	Lat, Lon    string // unparsed; normalizer validates bounds
}

// WorkUnit is one (source, category, city) fetch task. It exists only for the
// duration of a run.
type WorkUnit struct {
	Source   Source   `json:"source"`
	Category Category `json:"category"`
	City     string   `json:"city"`
}

func (u WorkUnit) String() string {
	return string(u.Source) + "/" + string(u.Category) + "/" + u.City
}
