// Package dealby scrapes the Deal.by services catalog. Scraped source;
// listings are grouped by region slug, one page per (region, section).
package dealby

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/normalize"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const defaultBaseURL = "https://deal.by"

var regionSlugs = map[string]string{
	"минск":   "minsk",
	"гомель":  "gomel",
	"могилев": "mogilev",
	"витебск": "vitebsk",
	"гродно":  "grodno",
	"брест":   "brest",
}

var sections = map[domain.Category]string{
	domain.CategoryAutoService: "avtoservisy",
	domain.CategoryHandyman:    "remont-i-stroitelstvo",
	domain.CategoryCleaning:    "kliningovye-uslugi",
	domain.CategoryMoving:      "gruzoperevozki",
	domain.CategoryEducation:   "obrazovanie",
	domain.CategoryFitness:     "sport-i-fitnes",
	domain.CategoryPhotoVideo:  "foto-i-video",
	domain.CategoryLegal:       "yuridicheskie-uslugi",
	domain.CategoryPsychology:  "psihologiya",
	domain.CategoryTattoo:      "tatu-salony",
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

func (s *Scraper) Name() domain.Source { return domain.SourceDealBy }

func (s *Scraper) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	region, ok := regionSlugs[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return nil, nil
	}
	section, ok := sections[category]
	if !ok {
		return nil, nil
	}

	doc, err := s.cfg.Client.GetHTML(ctx, s.Name(), s.cfg.BaseURL+"/"+region+"/"+section)
	if err != nil {
		return nil, err
	}

	var out []domain.RawListing
	doc.Find(".listing__item, .classified, .advert-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if raw, ok := s.parseAd(item, category, city); ok {
			out = append(out, raw)
		}
		return len(out) < limit
	})
	return out, nil
}

func (s *Scraper) parseAd(item *goquery.Selection, category domain.Category, city string) (domain.RawListing, bool) {
	name := strings.TrimSpace(item.Find(".listing__title, h3, .title").First().Text())
	if name == "" {
		return domain.RawListing{}, false
	}

	link, _ := item.Find("a[href]").First().Attr("href")
	if link != "" && strings.HasPrefix(link, "/") {
		link = s.cfg.BaseURL + link
	}

	desc := strings.TrimSpace(item.Find(".listing__text, .description, .text").First().Text())

	return domain.RawListing{
		Source:       s.Name(),
		CategoryHint: category,
		CityHint:     city,
		City:         city,
		Name:         name,
		Bio:          desc,
		Phones:       normalize.ExtractPhones(desc),
		Website:      link,
	}, true
}
