package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db.Pool
}

func sampleLead() domain.Lead {
	return domain.Lead{
		Name:        "Автосервис Премиум",
		Category:    domain.CategoryAutoService,
		Address:     "ул. Ленина, 5",
		City:        "минск",
		Phones:      []string{"+375291234567"},
		Email:       "info@premium.by",
		Social:      map[string]string{domain.PlatformInstagram: "@premium.auto"},
		Rating:      4.6,
		ReviewCount: 31,
		Geo:         domain.Geo{Lat: 53.9, Lon: 27.56},
		Source:      domain.SourceTwoGIS,
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
		IdentityKey: "key-premium",
	}
}

func TestUpsertLeadInsertThenUpdate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	inserted, err := UpsertLead(ctx, db, sampleLead())
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same identity key goes to the same row.
	second := sampleLead()
	second.Website = "https://premium.by"
	inserted, err = UpsertLead(ctx, db, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := CountLeads(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := FindByIdentity(ctx, db, "key-premium")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://premium.by", got.Website)
	assert.Equal(t, []string{"+375291234567"}, got.Phones)
	assert.Equal(t, "@premium.auto", got.Social[domain.PlatformInstagram])
	assert.InDelta(t, 53.9, got.Geo.Lat, 0.0001)
}

func TestUpsertLeadByIDChangesIdentityKey(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := UpsertLead(ctx, db, sampleLead())
	require.NoError(t, err)
	existing, err := FindByIdentity(ctx, db, "key-premium")
	require.NoError(t, err)
	require.NotNil(t, existing)

	// A later merge learned a phone, so the key changed but the row stays.
	merged := *existing
	merged.IdentityKey = "key-premium-v2"
	merged.Phones = []string{"+375291234567", "+375337654321"}
	inserted, err := UpsertLead(ctx, db, merged)
	require.NoError(t, err)
	assert.False(t, inserted)

	old, err := FindByIdentity(ctx, db, "key-premium")
	require.NoError(t, err)
	assert.Nil(t, old)

	got, err := FindByPhone(ctx, db, "+375337654321")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, "key-premium-v2", got.IdentityKey)
}

func TestUpsertLeadAbsorbsDuplicateRows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Two rows for the same business from earlier runs: one stored
	// phone-less under a name key, one under a phone key.
	nameless := sampleLead()
	nameless.Phones = nil
	nameless.IdentityKey = "name-key"
	_, err := UpsertLead(ctx, db, nameless)
	require.NoError(t, err)
	byName, err := FindByIdentity(ctx, db, "name-key")
	require.NoError(t, err)
	require.NotNil(t, byName)

	phoned := sampleLead()
	phoned.IdentityKey = "phone-key"
	_, err = UpsertLead(ctx, db, phoned)
	require.NoError(t, err)
	byPhone, err := FindByIdentity(ctx, db, "phone-key")
	require.NoError(t, err)
	require.NotNil(t, byPhone)

	// A merge matched both; the survivor takes the phone-derived key and
	// the other row is folded in rather than left to collide on the
	// unique identity index.
	merged := *byName
	merged.IdentityKey = "phone-key"
	merged.Phones = []string{"+375291234567"}
	inserted, err := UpsertLead(ctx, db, merged, byPhone.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := CountLeads(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := FindByPhone(ctx, db, "+375291234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, byName.ID, got.ID)
	assert.Equal(t, "phone-key", got.IdentityKey)
}

func TestFindByPhone(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := UpsertLead(ctx, db, sampleLead())
	require.NoError(t, err)

	got, err := FindByPhone(ctx, db, "+375291234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Автосервис Премиум", got.Name)

	missing, err := FindByPhone(ctx, db, "+375000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListLeadsFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := UpsertLead(ctx, db, sampleLead())
	require.NoError(t, err)

	other := sampleLead()
	other.Name = "Клининг Плюс"
	other.Category = domain.CategoryCleaning
	other.Phones = nil
	other.IdentityKey = "key-cleaning"
	_, err = UpsertLead(ctx, db, other)
	require.NoError(t, err)

	all, err := ListLeads(ctx, db, ListLeadsOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cleaning, err := ListLeads(ctx, db, ListLeadsOpts{Category: string(domain.CategoryCleaning)})
	require.NoError(t, err)
	require.Len(t, cleaning, 1)
	assert.Equal(t, "Клининг Плюс", cleaning[0].Name)
}

func TestRunsLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	started := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, InsertRun(ctx, db, "run-1", started))

	runs, err := ListRuns(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunRunning, runs[0].Status)

	summary := domain.RunSummary{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Status:     domain.RunPartial,
		Sources: map[domain.Source]domain.SourceStats{
			domain.SourceTwoGIS: {Units: 2, Succeeded: 1, Failed: 1, Listings: 14},
		},
		Failures: []domain.UnitFailure{{
			Unit:   domain.WorkUnit{Source: domain.SourceTwoGIS, Category: domain.CategoryCleaning, City: "минск"},
			Reason: "rate_limited",
		}},
		NewLeads: 9,
		Updated:  3,
	}
	require.NoError(t, FinishRun(ctx, db, summary))

	runs, err = ListRuns(ctx, db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunPartial, runs[0].Status)
	assert.Equal(t, 9, runs[0].NewLeads)
	require.Len(t, runs[0].Failures, 1)
	assert.Equal(t, "rate_limited", runs[0].Failures[0].Reason)
}
