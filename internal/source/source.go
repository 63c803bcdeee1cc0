// Package source defines the single capability every provider adapter
// implements and the shared failure taxonomy they report through. Adapters
// differ only in how they reach the provider (API call or HTML scrape); the
// orchestrator treats them uniformly.
package source

import (
	"context"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// Fetcher fetches raw listings for one (category, city) pair. limit is an
// upper bound, not a guarantee; zero results is a valid outcome, not an
// error. Failures are reported as *Error so the orchestrator can classify
// them.
type Fetcher interface {
	Name() domain.Source
	Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error)
}

// Credentials maps a source to its API key. A missing entry disables
// key-requiring sources without failing anything.
type Credentials map[domain.Source]string
