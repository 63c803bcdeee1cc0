package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/match"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMergeStructuredWinsScalars(t *testing.T) {
	c := match.Cluster{Records: []domain.Lead{
		{
			Name: "СТО Премиум", City: "минск", Category: domain.CategoryAutoService,
			Phones: []string{"+375291234567"},
			Social: map[string]string{domain.PlatformInstagram: "@premium.auto"},
			Source: domain.SourceOnliner,
		},
		{
			Name: "Автосервис Премиум", City: "минск", Category: domain.CategoryAutoService,
			Address: "ул. Ленина, 5", Phones: []string{"+375291234567", "+375337654321"},
			Rating: 4.6, ReviewCount: 31,
			Source: domain.SourceTwoGIS,
		},
	}}

	got := Merge(c, now)
	// Longest name survives; here it is also the structured one.
	assert.Equal(t, "Автосервис Премиум", got.Name)
	assert.Equal(t, "ул. Ленина, 5", got.Address)
	assert.Equal(t, 4.6, got.Rating)
	assert.Equal(t, []string{"+375291234567", "+375337654321"}, got.Phones)
	assert.Equal(t, "@premium.auto", got.Social[domain.PlatformInstagram])
	assert.Equal(t, domain.SourceMerged, got.Source)
	assert.Equal(t, match.PhoneKey("+375291234567"), got.IdentityKey)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestMergeNameLengthCountsCharacters(t *testing.T) {
	// Cyrillic runes are two bytes each; the Latin name is longer in
	// characters and must win even though it is shorter in bytes.
	c := match.Cluster{Records: []domain.Lead{
		{
			Name: "AutoService Premium", City: "Минск", Category: domain.CategoryAutoService,
			Phones: []string{"+375291234567"},
			Source: domain.SourceTwoGIS,
		},
		{
			Name: "Автосервис Премиум", City: "Минск", Category: domain.CategoryAutoService,
			Phones: []string{"+375291234567"},
			Social: map[string]string{domain.PlatformInstagram: "@autoservice_premium"},
			Source: domain.SourceOnliner,
		},
	}}

	got := Merge(c, now)
	assert.Equal(t, "AutoService Premium", got.Name)
	assert.Equal(t, []string{"+375291234567"}, got.Phones)
	assert.Equal(t, "@autoservice_premium", got.Social[domain.PlatformInstagram])
	assert.Equal(t, domain.SourceMerged, got.Source)
}

func TestMergeSingleContributorKeepsSource(t *testing.T) {
	c := match.Cluster{Records: []domain.Lead{
		{Name: "Клининг Плюс", City: "минск", Category: domain.CategoryCleaning,
			Source: domain.SourceDealBy},
	}}
	got := Merge(c, now)
	assert.Equal(t, domain.SourceDealBy, got.Source)
	assert.Equal(t,
		match.NameKey("Клининг Плюс", "минск", domain.CategoryCleaning),
		got.IdentityKey)
}

func TestMergeNeverRegressesPersistedFields(t *testing.T) {
	c := match.Cluster{
		Records: []domain.Lead{
			{Name: "Фотостудия Свет", City: "минск", Category: domain.CategoryPhotoVideo,
				Source: domain.SourceYandex},
		},
		Existing: []domain.Lead{
			{ID: 3, Name: "Фотостудия Свет", City: "минск",
				Category: domain.CategoryPhotoVideo,
				Email:    "hello@svet.by", Website: "https://svet.by",
				Phones: []string{"+375291111111"},
				Source: domain.SourceMerged},
		},
	}

	got := Merge(c, now)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, "hello@svet.by", got.Email)
	assert.Equal(t, "https://svet.by", got.Website)
	assert.Contains(t, got.Phones, "+375291111111")
}

func TestMergeIdempotent(t *testing.T) {
	c := match.Cluster{Records: []domain.Lead{
		{Name: "Тату Мастер", City: "минск", Category: domain.CategoryTattoo,
			Phones: []string{"+375291234567"}, Source: domain.SourceInstagram},
		{Name: "Студия Тату Мастер", City: "минск", Category: domain.CategoryTattoo,
			Phones: []string{"+375291234567"}, Source: domain.SourceTwoGIS},
	}}

	first := Merge(c, now)

	// Merging the merged record with the same inputs changes nothing.
	again := Merge(match.Cluster{Records: c.Records, Existing: []domain.Lead{first}}, now)
	assert.Equal(t, first.Name, again.Name)
	assert.Equal(t, first.Phones, again.Phones)
	assert.Equal(t, first.IdentityKey, again.IdentityKey)
}

func TestMergeEmptyCluster(t *testing.T) {
	got := Merge(match.Cluster{}, now)
	require.Zero(t, got.Name)
}
