package aggregate

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/config"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/events"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/match"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/observability"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/store"
)

type fakeFetcher struct {
	name  domain.Source
	fetch func(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error)
}

func (f fakeFetcher) Name() domain.Source { return f.name }
func (f fakeFetcher) Fetch(ctx context.Context, category domain.Category, city string, limit int) ([]domain.RawListing, error) {
	return f.fetch(ctx, category, city, limit)
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.App.Port = 8787
	cfg.Schedule.DailyAt = "03:30"
	cfg.Schedule.RetryMax = 2
	cfg.Schedule.UnitTimeoutSecs = 5
	cfg.Limits.PerUnit = 50
	cfg.Categories = []string{"auto_service"}
	cfg.Cities = []string{"минск"}
	return cfg
}

func testRunner(t *testing.T, entries []source.RegistryEntry) (*Runner, *events.Hub) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	hub := events.NewHub()
	return &Runner{
		DB:      db.Pool,
		Hub:     hub,
		Metrics: observability.NewMetricsWith(prometheus.NewRegistry()),
		Log:     zerolog.Nop(),
		Config:  func() config.Config { return testConfig() },
		Sources: entries,
	}, hub
}

func listingFor(src domain.Source, name, phone string) domain.RawListing {
	return domain.RawListing{
		Source:       src,
		CategoryHint: domain.CategoryAutoService,
		CityHint:     "минск",
		Name:         name,
		Phones:       []string{phone},
	}
}

func TestRunCompletedMergesAcrossSources(t *testing.T) {
	r, _ := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceTwoGIS,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return []domain.RawListing{listingFor(domain.SourceTwoGIS, "Автосервис Премиум", "+375291234567")}, nil
			}}},
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceOnliner,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return []domain.RawListing{listingFor(domain.SourceOnliner, "СТО Премиум", "8029 123-45-67")}, nil
			}}},
	})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, 1, summary.NewLeads)
	assert.Zero(t, summary.Updated)
	assert.Empty(t, summary.Failures)

	// Both providers fed one merged record.
	leads, err := store.ListLeads(context.Background(), r.DB, store.ListLeadsOpts{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, domain.SourceMerged, leads[0].Source)
	assert.Equal(t, []string{"+375291234567"}, leads[0].Phones)
}

func TestRunConsolidatesSplitPersistedRows(t *testing.T) {
	r, _ := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceTwoGIS,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return []domain.RawListing{listingFor(domain.SourceTwoGIS, "Автосервис Премиум", "+375291234567")}, nil
			}}},
	})
	ctx := context.Background()

	// Earlier runs left the same business split across two rows: one
	// phone-less under its name key, one under its phone key.
	_, err := store.UpsertLead(ctx, r.DB, domain.Lead{
		Name: "Автосервис Премиум", City: "минск", Category: domain.CategoryAutoService,
		Source:      domain.SourceOnliner,
		IdentityKey: match.NameKey("Автосервис Премиум", "минск", domain.CategoryAutoService),
	})
	require.NoError(t, err)
	_, err = store.UpsertLead(ctx, r.DB, domain.Lead{
		Name: "СТО Премиум", City: "минск", Category: domain.CategoryAutoService,
		Phones:      []string{"+375291234567"},
		Source:      domain.SourceTwoGIS,
		IdentityKey: match.PhoneKey("+375291234567"),
	})
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Zero(t, summary.NewLeads)
	assert.Equal(t, 1, summary.Updated)

	// The split rows converged to one.
	n, err := store.CountLeads(ctx, r.DB)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.FindByPhone(ctx, r.DB, "+375291234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, match.PhoneKey("+375291234567"), got.IdentityKey)
}

func TestRunPartialOnAuthRejectedUnit(t *testing.T) {
	var attempts atomic.Int32
	r, _ := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceTwoGIS,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return []domain.RawListing{listingFor(domain.SourceTwoGIS, "Автосервис Премиум", "+375291234567")}, nil
			}}},
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceInstagram,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				attempts.Add(1)
				return nil, source.Errf(domain.SourceInstagram, source.KindAuthRejected, "bad session")
			}}},
	})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunPartial, summary.Status)
	assert.Equal(t, 1, summary.NewLeads)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "auth_rejected", summary.Failures[0].Reason)
	assert.Equal(t, domain.SourceInstagram, summary.Failures[0].Unit.Source)

	// Non-transient failures are not retried.
	assert.Equal(t, int32(1), attempts.Load())

	// The healthy source's stats survive next to the failed one's.
	assert.Equal(t, 1, summary.Sources[domain.SourceTwoGIS].Succeeded)
	assert.Equal(t, 1, summary.Sources[domain.SourceInstagram].Failed)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	old := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = old })

	var attempts atomic.Int32
	r, _ := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceDealBy,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				if attempts.Add(1) < 3 {
					return nil, source.Errf(domain.SourceDealBy, source.KindUnavailable, "upstream 502")
				}
				return []domain.RawListing{listingFor(domain.SourceDealBy, "Клининг Плюс", "+375337654321")}, nil
			}}},
	})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, summary.Status)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 1, summary.NewLeads)
}

func TestRunFailedWhenEverythingFails(t *testing.T) {
	old := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = old })

	r, _ := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceOnliner,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return nil, source.Errf(domain.SourceOnliner, source.KindUnavailable, "connection refused")
			}}},
	})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, summary.Status)
	assert.Zero(t, summary.NewLeads)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "source_unavailable", summary.Failures[0].Reason)
}

func TestRunPublishesSnapshotEvent(t *testing.T) {
	r, hub := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceTwoGIS,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return []domain.RawListing{listingFor(domain.SourceTwoGIS, "Автосервис Премиум", "+375291234567")}, nil
			}}},
	})
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	var types []string
	var snapshot events.Event
	for len(types) < 2 {
		select {
		case raw := <-ch:
			var e events.Event
			require.NoError(t, json.Unmarshal([]byte(raw), &e))
			types = append(types, e.Type)
			if e.Type == events.TypeSnapshotReady {
				snapshot = e
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events, got %v", types)
		}
	}
	assert.Equal(t, []string{events.TypeRunStarted, events.TypeSnapshotReady}, types)
	assert.Equal(t, summary.RunID, snapshot.RunID)

	var got domain.RunSummary
	require.NoError(t, json.Unmarshal(snapshot.Data, &got))
	assert.Equal(t, domain.RunCompleted, got.Status)
}

func TestRunRecordsRunHistory(t *testing.T) {
	r, _ := testRunner(t, []source.RegistryEntry{
		{Concurrency: 1, Fetcher: fakeFetcher{name: domain.SourceTwoGIS,
			fetch: func(context.Context, domain.Category, string, int) ([]domain.RawListing, error) {
				return nil, nil
			}}},
	})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	runs, err := store.ListRuns(context.Background(), r.DB, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	assert.Equal(t, summary.Status, runs[0].Status)
}
