// Package twogis fetches business listings from the 2GIS catalog API.
// Structured source: field completeness is high, including phones, geo and
// review aggregates.
package twogis

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const defaultBaseURL = "https://catalog.api.2gis.com/3.0"

// Belarus city -> 2GIS region id.
var regions = map[string]string{
	"минск":   "4504",
	"гомель":  "4513",
	"могилев": "4518",
	"витебск": "4521",
	"гродно":  "4527",
	"брест":   "4532",
}

// rubrics are the 2GIS search queries per niche.
var rubrics = map[domain.Category][]string{
	domain.CategoryAutoService: {"автосервис", "шиномонтаж", "автомойка"},
	domain.CategoryHandyman:    {"мастер на час", "сантехник", "электрик"},
	domain.CategoryCleaning:    {"клининг", "химчистка"},
	domain.CategoryMoving:      {"грузоперевозки", "грузчики"},
	domain.CategoryEducation:   {"репетитор", "учебный центр"},
	domain.CategoryFitness:     {"фитнес", "тренажерный зал"},
	domain.CategoryPhotoVideo:  {"фотограф", "фотостудия"},
	domain.CategoryLegal:       {"юридические услуги", "адвокат"},
	domain.CategoryPsychology:  {"психолог"},
	domain.CategoryTattoo:      {"тату салон", "пирсинг"},
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

func (s *Scraper) Name() domain.Source { return domain.SourceTwoGIS }

type itemsResponse struct {
	Meta struct {
		Code  int `json:"code"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"meta"`
	Result struct {
		Items []item `json:"items"`
	} `json:"result"`
}

type item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AddressName string `json:"address_name"`
	Point       struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"point"`
	ContactGroups []struct {
		Contacts []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"contacts"`
	} `json:"contact_groups"`
	Reviews struct {
		GeneralRating      float64 `json:"general_rating"`
		GeneralReviewCount int     `json:"general_review_count"`
	} `json:"reviews"`
	AdmDiv []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"adm_div"`
}

func (s *Scraper) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	region, ok := regions[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return nil, nil // city not covered by this provider
	}

	queries := rubrics[category]
	if len(queries) == 0 {
		queries = []string{string(category)}
	}

	seen := map[string]bool{}
	var out []domain.RawListing
	for _, q := range queries {
		if len(out) >= limit {
			break
		}
		items, err := s.search(ctx, q, region, limit-len(out))
		if err != nil {
			return out, err
		}
		for _, it := range items {
			if it.ID == "" || seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, s.toListing(it, category, city))
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Scraper) search(ctx context.Context, query, region string, limit int) ([]item, error) {
	if limit > 50 {
		limit = 50 // API page cap
	}
	v := url.Values{}
	v.Set("q", query)
	v.Set("region_id", region)
	v.Set("fields", "items.point,items.contact_groups,items.reviews,items.adm_div")
	v.Set("page_size", fmt.Sprint(limit))
	v.Set("key", s.cfg.APIKey)

	var resp itemsResponse
	if err := s.cfg.Client.GetJSON(ctx, s.Name(), s.cfg.BaseURL+"/items?"+v.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Meta.Error.Type != "" {
		return nil, source.Errf(s.Name(), source.KindMalformed, "api error %s: %s", resp.Meta.Error.Type, resp.Meta.Error.Message)
	}
	return resp.Result.Items, nil
}

func (s *Scraper) toListing(it item, category domain.Category, city string) domain.RawListing {
	raw := domain.RawListing{
		Source:       s.Name(),
		CategoryHint: category,
		CityHint:     city,
		Name:         it.Name,
		Address:      it.AddressName,
		Rating:       it.Reviews.GeneralRating,
		ReviewCount:  it.Reviews.GeneralReviewCount,
	}
	if it.Point.Lat != 0 || it.Point.Lon != 0 {
		raw.Lat = fmt.Sprint(it.Point.Lat)
		raw.Lon = fmt.Sprint(it.Point.Lon)
	}
	for _, d := range it.AdmDiv {
		switch d.Type {
		case "city":
			raw.City = d.Name
		case "district":
			raw.District = d.Name
		}
	}
	for _, g := range it.ContactGroups {
		for _, c := range g.Contacts {
			switch c.Type {
			case "phone":
				raw.Phones = append(raw.Phones, c.Value)
			case "email":
				if raw.Email == "" {
					raw.Email = c.Value
				}
			case "website":
				if raw.Website == "" {
					raw.Website = c.Value
				}
			default:
				raw.Links = append(raw.Links, c.Value)
			}
		}
	}
	return raw
}
