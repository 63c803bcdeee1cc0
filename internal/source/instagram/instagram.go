// Package instagram discovers business profiles through hashtag pages and
// hydrates them from the profile JSON endpoint. Scraped source with the
// lowest field completeness: usually just a name, a bio and whatever contact
// data the owner put in it.
package instagram

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/normalize"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const defaultBaseURL = "https://www.instagram.com"

var hashtags = map[domain.Category][]string{
	domain.CategoryAutoService: {"автосервисминск", "шиномонтажминск"},
	domain.CategoryHandyman:    {"мастерначас", "сантехникминск"},
	domain.CategoryCleaning:    {"клинингминск", "уборкаминск"},
	domain.CategoryMoving:      {"грузоперевозкиминск"},
	domain.CategoryEducation:   {"репетиторминск"},
	domain.CategoryFitness:     {"фитнесминск", "йогаминск"},
	domain.CategoryPhotoVideo:  {"фотографминск"},
	domain.CategoryLegal:       {"юристминск"},
	domain.CategoryPsychology:  {"психологминск"},
	domain.CategoryTattoo:      {"татуминск"},
}

// Usernames referenced on a hashtag page, e.g. "username":"autoservice_premium".
var reUsername = regexp.MustCompile(`"username"\s*:\s*"([A-Za-z0-9._]{2,30})"`)

type Config struct {
	BaseURL   string
	SessionID string // optional; anonymous access is heavily throttled
	Client    *source.Client
}

type Scraper struct {
	cfg Config
}

func New(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = source.NewClient(0.5, 1)
	}
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() domain.Source { return domain.SourceInstagram }

type profileResponse struct {
	GraphQL struct {
		User struct {
			Username        string `json:"username"`
			FullName        string `json:"full_name"`
			Biography       string `json:"biography"`
			ExternalURL     string `json:"external_url"`
			BusinessEmail   string `json:"business_email"`
			BusinessPhone   string `json:"business_phone_number"`
			BusinessAddress string `json:"business_address_json"`
		} `json:"user"`
	} `json:"graphql"`
}

func (s *Scraper) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	tags := hashtags[category]
	if len(tags) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	var out []domain.RawListing
	for _, tag := range tags {
		if len(out) >= limit {
			break
		}
		usernames, err := s.tagUsernames(ctx, tag)
		if err != nil {
			return out, err
		}
		for _, u := range usernames {
			if seen[u] {
				continue
			}
			seen[u] = true

			raw, err := s.profile(ctx, u, category, city)
			if err != nil {
				// Profile hydration failing for one account should not sink
				// the unit; the hashtag page itself already succeeded.
				if source.Classify(err) == source.KindAuthRejected || source.Classify(err) == source.KindRateLimited {
					return out, err
				}
				continue
			}
			out = append(out, raw)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Scraper) tagUsernames(ctx context.Context, tag string) ([]string, error) {
	doc, err := s.cfg.Client.GetHTML(ctx, s.Name(), s.cfg.BaseURL+"/explore/tags/"+tag+"/")
	if err != nil {
		return nil, err
	}
	html, err := doc.Html()
	if err != nil {
		return nil, source.Errf(s.Name(), source.KindMalformed, "serialize tag page: %w", err)
	}

	var out []string
	seen := map[string]bool{}
	for _, m := range reUsername.FindAllStringSubmatch(html, 30) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out, nil
}

func (s *Scraper) profile(ctx context.Context, username string, category domain.Category, city string) (domain.RawListing, error) {
	header := http.Header{}
	if s.cfg.SessionID != "" {
		header.Set("Cookie", "sessionid="+s.cfg.SessionID)
	}

	var resp profileResponse
	url := fmt.Sprintf("%s/%s/?__a=1", s.cfg.BaseURL, username)
	if err := s.cfg.Client.GetJSON(ctx, s.Name(), url, header, &resp); err != nil {
		return domain.RawListing{}, err
	}

	u := resp.GraphQL.User
	name := u.FullName
	if name == "" {
		name = u.Username
	}

	phones := normalize.ExtractPhones(u.Biography)
	if u.BusinessPhone != "" {
		phones = append(phones, u.BusinessPhone)
	}

	return domain.RawListing{
		Source:       s.Name(),
		CategoryHint: category,
		CityHint:     city,
		Name:         name,
		Bio:          u.Biography,
		Email:        u.BusinessEmail,
		Website:      u.ExternalURL,
		Phones:       phones,
		Links:        []string{s.cfg.BaseURL + "/" + u.Username + "/"},
	}, nil
}
