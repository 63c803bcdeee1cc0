package domain

import "time"

// Geo is a validated latitude/longitude pair. Zero value means "no geo";
// adapters never emit 0,0 (it is in the Atlantic, not Belarus).
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (g Geo) IsZero() bool { return g.Lat == 0 && g.Lon == 0 }

// Lead is the canonical, deduplicated record of one business. Leads are
// produced only by the merge engine; adapters and the normalizer emit partial
// leads that have not been through identity resolution yet.
type Lead struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	District    string   `json:"district,omitempty"`
	Phones      []string `json:"phones,omitempty"` // canonical +375..., sorted
	Email       string   `json:"email,omitempty"`
	Website     string   `json:"website,omitempty"`
	Social      map[string]string `json:"social,omitempty"` // platform -> handle/URL
	Rating      float64  `json:"rating,omitempty"`          // 0 = absent
	ReviewCount int      `json:"review_count,omitempty"`
	Geo         Geo      `json:"geo,omitzero"`

	// Source is the provider that contributed the surviving field set, or
	// "merged" when several did.
	Source      Source    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
	IdentityKey string    `json:"identity_key"`
}

// Social platform keys. Fixed set, mirrors what the normalizer can extract.
const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformVK        = "vk"
	PlatformTelegram  = "telegram"
)

// HasPhone reports whether p (already canonical) is in the lead's phone set.
func (l Lead) HasPhone(p string) bool {
	for _, q := range l.Phones {
		if q == p {
			return true
		}
	}
	return false
}
