// Package onliner scrapes service ads from the Onliner classifieds board.
// Scraped source: records are ad listings, so fields are noisy and phones
// live inside free-text descriptions.
package onliner

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/normalize"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const defaultBaseURL = "https://baraholka.onliner.by"

var searchTerms = map[domain.Category][]string{
	domain.CategoryAutoService: {"автосервис", "шиномонтаж"},
	domain.CategoryHandyman:    {"мастер на час", "сантехник"},
	domain.CategoryCleaning:    {"уборка", "клининг"},
	domain.CategoryMoving:      {"грузоперевозки", "переезд"},
	domain.CategoryEducation:   {"репетитор"},
	domain.CategoryFitness:     {"тренер", "фитнес"},
	domain.CategoryPhotoVideo:  {"фотограф", "видеосъемка"},
	domain.CategoryLegal:       {"юрист"},
	domain.CategoryPsychology:  {"психолог"},
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
		cfg.Client = source.NewClient(2, 1)
	}
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() domain.Source { return domain.SourceOnliner }

func (s *Scraper) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	terms := searchTerms[category]
	if len(terms) == 0 {
		terms = []string{string(category)}
	}

	var out []domain.RawListing
	for _, term := range terms {
		if len(out) >= limit {
			break
		}

		doc, err := s.cfg.Client.GetHTML(ctx, s.Name(), s.cfg.BaseURL+"/search?query="+url.QueryEscape(term))
		if err != nil {
			return out, err
		}

		doc.Find(".classified__item, .board__item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if raw, ok := s.parseAd(item, category, city); ok {
				out = append(out, raw)
			}
			return len(out) < limit
		})
	}
	return out, nil
}

func (s *Scraper) parseAd(item *goquery.Selection, category domain.Category, city string) (domain.RawListing, bool) {
	name := strings.TrimSpace(item.Find(".classified__title, .board__title").First().Text())
	if name == "" {
		return domain.RawListing{}, false
	}

	link, _ := item.Find("a[href]").First().Attr("href")
	if link != "" && strings.HasPrefix(link, "/") {
		link = s.cfg.BaseURL + link
	}

	desc := strings.TrimSpace(item.Find(".classified__description, .board__description").First().Text())
	loc := strings.TrimSpace(item.Find(".classified__location, .board__location").First().Text())

	// Ads from other cities show up in search; drop them here rather than
	// polluting the merge input.
	if city != "" && loc != "" && !strings.Contains(strings.ToLower(loc), strings.ToLower(city)) {
		return domain.RawListing{}, false
	}

	return domain.RawListing{
		Source:       s.Name(),
		CategoryHint: category,
		CityHint:     city,
		Name:         name,
		Address:      loc,
		Bio:          desc,
		Phones:       normalize.ExtractPhones(desc),
		Website:      link,
	}, true
}
