// Package egr queries the public registry of Belarusian legal entities.
// Structured source, no key needed. The registry has names and legal
// addresses but never phones or websites; those come from other providers
// at merge time.
package egr

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const defaultBaseURL = "https://egr.gov.by/api/v2"

// Registry search is by name fragment, so each niche maps to the words that
// show up in company names of that trade.
var nameTerms = map[domain.Category][]string{
	domain.CategoryAutoService: {"автосервис", "шиномонтаж"},
	domain.CategoryHandyman:    {"сантехник", "электромонтаж"},
	domain.CategoryCleaning:    {"клининг"},
	domain.CategoryMoving:      {"грузоперевозки"},
	domain.CategoryEducation:   {"учебный центр", "образовательный центр"},
	domain.CategoryFitness:     {"фитнес"},
	domain.CategoryPhotoVideo:  {"фотостудия"},
	domain.CategoryLegal:       {"юридическ"},
	domain.CategoryPsychology:  {"психологическ"},
	domain.CategoryTattoo:      {"тату"},
}

type Config struct {
	BaseURL string
	Client  *source.Client
}

type Scraper struct {
	cfg Config
}

func New(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = source.NewClient(5, 1)
	}
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() domain.Source { return domain.SourceEGR }

type entry struct {
	RegNumber string `json:"ngrn"`
	Name      string `json:"vn"`      // full name
	ShortName string `json:"vfn"`     // short name
	Address   string `json:"vpadres"` // legal address
	Status    string `json:"vsostk"`  // registration status
}

func (s *Scraper) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	terms := nameTerms[category]
	if len(terms) == 0 {
		terms = []string{string(category)}
	}

	seen := map[string]bool{}
	var out []domain.RawListing
	for _, term := range terms {
		if len(out) >= limit {
			break
		}

		v := url.Values{}
		v.Set("name", term)
		v.Set("size", fmt.Sprint(limit))

		var entries []entry
		if err := s.cfg.Client.GetJSON(ctx, s.Name(), s.cfg.BaseURL+"/registry/search?"+v.Encode(), nil, &entries); err != nil {
			return out, err
		}

		for _, e := range entries {
			name := e.ShortName
			if name == "" {
				name = e.Name
			}
			if name == "" || seen[e.RegNumber+name] {
				continue
			}
			// Active entities only; the registry keeps liquidated ones.
			if st := strings.ToLower(e.Status); st != "" && strings.Contains(st, "исключен") {
				continue
			}
			// The registry is country-wide; keep entries whose legal address
			// mentions the requested city.
			if city != "" && !strings.Contains(strings.ToLower(e.Address), strings.ToLower(city)) {
				continue
			}
			seen[e.RegNumber+name] = true

			out = append(out, domain.RawListing{
				Source:       s.Name(),
				CategoryHint: category,
				CityHint:     city,
				Name:         name,
				Address:      e.Address,
				City:         city,
			})
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
