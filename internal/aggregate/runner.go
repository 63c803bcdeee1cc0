// Package aggregate executes one full collection run: enumerate work
// units, fetch them with per-source concurrency and retry budgets,
// normalize, resolve identities, merge and persist, then publish the
// run snapshot.
package aggregate

import (
	"context"
	"database/sql"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/config"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/events"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/match"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/merge"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/normalize"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/observability"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/store"
)

type Runner struct {
	DB      *sql.DB
	Hub     *events.Hub
	Metrics *observability.Metrics
	Log     zerolog.Logger

	// Config returns the current configuration; hot reloads are picked
	// up at the start of the next run.
	Config func() config.Config

	Sources []source.RegistryEntry
}

// runState accumulates unit outcomes across source goroutines.
type runState struct {
	mu       sync.Mutex
	listings []domain.RawListing
	stats    map[domain.Source]*domain.SourceStats
	failures []domain.UnitFailure
}

func (s *runState) forSource(src domain.Source) *domain.SourceStats {
	st, ok := s.stats[src]
	if !ok {
		st = &domain.SourceStats{}
		s.stats[src] = st
	}
	return st
}

// Run executes one aggregation run to a terminal state. The returned
// summary is also persisted and published; the error is non-nil only
// for infrastructure faults (storage), never for provider failures.
func (r *Runner) Run(ctx context.Context) (domain.RunSummary, error) {
	cfg := r.Config()
	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	summary := domain.RunSummary{
		RunID:     runID,
		StartedAt: startedAt,
		Status:    domain.RunRunning,
		Sources:   map[domain.Source]domain.SourceStats{},
	}

	if err := store.InsertRun(ctx, r.DB, runID, startedAt); err != nil {
		return summary, err
	}
	r.Hub.Publish(events.RunStarted(runID, startedAt))
	r.Metrics.ActiveRun.Set(1)
	defer r.Metrics.ActiveRun.Set(0)

	log := r.Log.With().Str("run_id", runID).Logger()
	log.Info().
		Int("sources", len(r.Sources)).
		Strs("cities", cfg.Cities).
		Msg("run started")

	st := &runState{stats: map[domain.Source]*domain.SourceStats{}}
	r.fetchAll(ctx, cfg, st, log)

	newLeads, updated, mergeErr := r.mergePhase(ctx, st, log)
	if mergeErr != nil {
		// Storage faults abort the run; provider results are not lost,
		// they simply never reached disk.
		summary.Status = domain.RunFailed
		summary.FinishedAt = time.Now().UTC()
		r.finish(ctx, &summary, st, log)
		return summary, mergeErr
	}

	summary.NewLeads = newLeads
	summary.Updated = updated
	summary.FinishedAt = time.Now().UTC()
	summary.Status = terminalStatus(st)
	r.finish(ctx, &summary, st, log)
	return summary, nil
}

// fetchAll runs every enabled work unit. Each source gets its own
// goroutine group capped by its configured concurrency; a failing
// source never cancels the others.
func (r *Runner) fetchAll(ctx context.Context, cfg config.Config, st *runState, log zerolog.Logger) {
	cats := cfg.EnabledCategories()
	cities := cfg.Cities
	limit := cfg.Limits.PerUnit
	timeout := time.Duration(cfg.Schedule.UnitTimeoutSecs) * time.Second
	retryMax := cfg.Schedule.RetryMax

	var g errgroup.Group
	for _, entry := range r.Sources {
		g.Go(func() error {
			sem := semaphore.NewWeighted(int64(entry.Concurrency))
			var wg sync.WaitGroup
			for _, cat := range cats {
				for _, city := range cities {
					unit := domain.WorkUnit{Source: entry.Fetcher.Name(), Category: cat, City: city}
					if err := sem.Acquire(ctx, 1); err != nil {
						st.mu.Lock()
						st.forSource(unit.Source).Units++
						st.forSource(unit.Source).Failed++
						st.failures = append(st.failures, domain.UnitFailure{
							Unit: unit, Reason: source.KindUnavailable.Label(),
						})
						st.mu.Unlock()
						continue
					}
					wg.Add(1)
					go func() {
						defer wg.Done()
						defer sem.Release(1)
						r.runUnit(ctx, entry.Fetcher, unit, limit, timeout, retryMax, st, log)
					}()
				}
			}
			wg.Wait()
			return nil
		})
	}
	_ = g.Wait()
}

// runUnit fetches one (source, category, city) cell, retrying transient
// failures with exponential backoff until the budget is spent.
func (r *Runner) runUnit(ctx context.Context, f source.Fetcher, unit domain.WorkUnit,
	limit int, timeout time.Duration, retryMax int, st *runState, log zerolog.Logger) {

	started := time.Now()
	var listings []domain.RawListing
	var lastErr error

	for attempt := 0; ; attempt++ {
		unitCtx, cancel := context.WithTimeout(ctx, timeout)
		listings, lastErr = f.Fetch(unitCtx, unit.Category, unit.City, limit)
		cancel()
		if lastErr == nil {
			break
		}

		kind := source.Classify(lastErr)
		if !kind.Transient() || attempt >= retryMax || ctx.Err() != nil {
			break
		}
		delay := backoff(attempt)
		if hint := source.RetryHint(lastErr); hint > delay {
			delay = hint
		}
		log.Debug().
			Stringer("unit", unit).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(lastErr).
			Msg("unit retry")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	r.Metrics.UnitDuration.WithLabelValues(string(unit.Source)).Observe(time.Since(started).Seconds())

	st.mu.Lock()
	defer st.mu.Unlock()
	stats := st.forSource(unit.Source)
	stats.Units++
	if lastErr != nil {
		kind := source.Classify(lastErr)
		stats.Failed++
		st.failures = append(st.failures, domain.UnitFailure{Unit: unit, Reason: kind.Label()})
		r.Metrics.UnitsTotal.WithLabelValues(string(unit.Source), "failed").Inc()
		r.Metrics.UnitFailures.WithLabelValues(string(unit.Source), kind.Label()).Inc()
		log.Warn().Stringer("unit", unit).Str("reason", kind.Label()).Err(lastErr).Msg("unit abandoned")
		return
	}
	stats.Succeeded++
	stats.Listings += len(listings)
	st.listings = append(st.listings, listings...)
	r.Metrics.UnitsTotal.WithLabelValues(string(unit.Source), "ok").Inc()
	r.Metrics.ListingsTotal.WithLabelValues(string(unit.Source)).Add(float64(len(listings)))
	log.Debug().Stringer("unit", unit).Int("listings", len(listings)).Msg("unit done")
}

// mergePhase normalizes the fetched listings, clusters them against the
// store, and upserts one merged lead per cluster.
func (r *Runner) mergePhase(ctx context.Context, st *runState, log zerolog.Logger) (newLeads, updated int, err error) {
	var partials []domain.Lead
	for _, raw := range st.listings {
		lead, ok := normalize.Partial(raw)
		if !ok {
			st.forSource(raw.Source).Skipped++
			continue
		}
		partials = append(partials, lead)
	}

	matcher := match.Matcher{Store: storeLookup{db: r.DB}}
	clusters, err := matcher.Clusters(ctx, partials)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	for _, c := range clusters {
		lead := merge.Merge(c, now)
		// A cluster may have matched more than one persisted row (a
		// phone-less row by name key plus another by phone); all but the
		// survivor are folded into it by the upsert.
		var absorb []int64
		for _, ex := range c.Existing {
			if ex.ID != 0 && ex.ID != lead.ID {
				absorb = append(absorb, ex.ID)
			}
		}
		inserted, err := store.UpsertLead(ctx, r.DB, lead, absorb...)
		if err != nil {
			return newLeads, updated, err
		}
		if inserted {
			newLeads++
			r.Metrics.LeadsInserted.Inc()
		} else {
			updated++
			r.Metrics.LeadsUpdated.Inc()
		}
	}
	log.Info().
		Int("listings", len(st.listings)).
		Int("partials", len(partials)).
		Int("clusters", len(clusters)).
		Int("new", newLeads).
		Int("updated", updated).
		Msg("merge done")
	return newLeads, updated, nil
}

func (r *Runner) finish(ctx context.Context, summary *domain.RunSummary, st *runState, log zerolog.Logger) {
	st.mu.Lock()
	for src, s := range st.stats {
		summary.Sources[src] = *s
	}
	summary.Failures = append(summary.Failures, st.failures...)
	st.mu.Unlock()

	r.Metrics.RunsTotal.WithLabelValues(string(summary.Status)).Inc()
	if err := store.FinishRun(ctx, r.DB, *summary); err != nil {
		log.Error().Err(err).Msg("persist run summary")
	}
	r.Hub.PublishSnapshot(events.SnapshotReady(*summary))
	log.Info().
		Str("status", string(summary.Status)).
		Int("new", summary.NewLeads).
		Int("updated", summary.Updated).
		Int("failures", len(summary.Failures)).
		Msg("run finished")
}

// terminalStatus derives the run outcome from unit counts. A run with
// zero configured units counts as completed.
func terminalStatus(st *runState) domain.RunStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	var units, succeeded int
	for _, s := range st.stats {
		units += s.Units
		succeeded += s.Succeeded
	}
	switch {
	case units == succeeded:
		return domain.RunCompleted
	case succeeded > 0:
		return domain.RunPartial
	default:
		return domain.RunFailed
	}
}

var backoffBase = time.Second

func backoff(attempt int) time.Duration {
	base := backoffBase << attempt
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base / 4)))
	return base + jitter
}

// storeLookup adapts the sqlite store to the matcher's lookup interface.
type storeLookup struct {
	db *sql.DB
}

func (s storeLookup) FindByIdentity(ctx context.Context, key string) (*domain.Lead, error) {
	return store.FindByIdentity(ctx, s.db, key)
}

func (s storeLookup) FindByPhone(ctx context.Context, phone string) (*domain.Lead, error) {
	return store.FindByPhone(ctx, s.db, phone)
}
