// Package yandex fetches business listings from the Yandex Maps search API.
// Structured source.
package yandex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const defaultBaseURL = "https://search-maps.yandex.ru/v1"

// Search is coordinate-anchored, so each supported city carries its center.
var cities = map[string][2]float64{ // lat, lon
	"минск":      {53.9006, 27.5590},
	"гомель":     {52.4345, 30.9754},
	"могилев":    {53.9007, 30.3313},
	"витебск":    {55.1904, 30.2049},
	"гродно":     {53.6884, 23.8258},
	"брест":      {52.0976, 23.7340},
	"бобруйск":   {53.1484, 29.2214},
	"барановичи": {53.1327, 26.0139},
	"борисов":    {54.2274, 28.5051},
	"пинск":      {52.1229, 26.0951},
}

var keywords = map[domain.Category][]string{
	domain.CategoryAutoService: {"автосервис", "шиномонтаж"},
	domain.CategoryHandyman:    {"мастер на час", "мелкий ремонт"},
	domain.CategoryCleaning:    {"клининг", "уборка квартир"},
	domain.CategoryMoving:      {"грузоперевозки", "переезд"},
	domain.CategoryEducation:   {"репетитор", "курсы обучения"},
	domain.CategoryFitness:     {"фитнес клуб", "йога студия"},
	domain.CategoryPhotoVideo:  {"фотограф", "видеосъемка"},
	domain.CategoryLegal:       {"юридические услуги"},
	domain.CategoryPsychology:  {"психолог"},
	domain.CategoryTattoo:      {"тату студия"},
}

type Config struct {
	BaseURL string
	APIKey  string
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
		cfg.Client = source.NewClient(10, 2)
	}
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() domain.Source { return domain.SourceYandex }

type searchResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat
		} `json:"geometry"`
		Properties struct {
			CompanyMetaData struct {
				Name    string `json:"name"`
				Address string `json:"address"`
				URL     string `json:"url"`
				Phones  []struct {
					Formatted string `json:"formatted"`
				} `json:"Phones"`
				Categories []struct {
					Name string `json:"name"`
				} `json:"Categories"`
			} `json:"CompanyMetaData"`
		} `json:"properties"`
	} `json:"features"`
}

func (s *Scraper) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	center, ok := cities[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return nil, nil
	}

	queries := keywords[category]
	if len(queries) == 0 {
		queries = []string{string(category)}
	}

	seen := map[string]bool{}
	var out []domain.RawListing
	for _, q := range queries {
		if len(out) >= limit {
			break
		}

		v := url.Values{}
		v.Set("text", q)
		v.Set("type", "biz")
		v.Set("lang", "ru_RU")
		v.Set("ll", fmt.Sprintf("%f,%f", center[1], center[0]))
		v.Set("spn", "0.5,0.5")
		v.Set("results", fmt.Sprint(minInt(limit-len(out), 50)))
		v.Set("apikey", s.cfg.APIKey)

		var resp searchResponse
		if err := s.cfg.Client.GetJSON(ctx, s.Name(), s.cfg.BaseURL+"/?"+v.Encode(), nil, &resp); err != nil {
			return out, err
		}

		for _, f := range resp.Features {
			md := f.Properties.CompanyMetaData
			if md.Name == "" {
				continue
			}
			dedup := md.Name + "|" + md.Address
			if seen[dedup] {
				continue
			}
			seen[dedup] = true

			raw := domain.RawListing{
				Source:       s.Name(),
				CategoryHint: category,
				CityHint:     city,
				Name:         md.Name,
				Address:      md.Address,
				Website:      md.URL,
			}
			for _, p := range md.Phones {
				raw.Phones = append(raw.Phones, p.Formatted)
			}
			if len(f.Geometry.Coordinates) == 2 {
				raw.Lon = fmt.Sprint(f.Geometry.Coordinates[0])
				raw.Lat = fmt.Sprint(f.Geometry.Coordinates[1])
			}
			out = append(out, raw)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
