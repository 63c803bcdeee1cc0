package twogis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/source"
)

const itemsJSON = `{
  "meta": {"code": 200},
  "result": {"items": [
    {
      "id": "70000001",
      "name": "Автосервис Премиум",
      "address_name": "ул. Ленина, 5",
      "point": {"lat": 53.9006, "lon": 27.559},
      "contact_groups": [{"contacts": [
        {"type": "phone", "value": "+375 29 123-45-67"},
        {"type": "email", "value": "info@premium.by"},
        {"type": "website", "value": "https://premium.by"},
        {"type": "instagram", "value": "https://instagram.com/premium.auto"}
      ]}],
      "reviews": {"general_rating": 4.6, "general_review_count": 31},
      "adm_div": [
        {"type": "city", "name": "Минск"},
        {"type": "district", "name": "Центральный район"}
      ]
    },
    {"id": "", "name": "без id, пропускается"}
  ]}
}`

func TestFetchParsesItems(t *testing.T) {
	var gotQuery, gotRegion, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotRegion = r.URL.Query().Get("region_id")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(itemsJSON))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, APIKey: "k123", Client: source.NewClient(100, 10)})
	// limit 1 stops after the first rubric query.
	listings, err := s.Fetch(context.Background(), domain.CategoryAutoService, "Минск", 1)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	assert.Equal(t, "автосервис", gotQuery)
	assert.Equal(t, "4504", gotRegion)
	assert.Equal(t, "k123", gotKey)

	l := listings[0]
	assert.Equal(t, domain.SourceTwoGIS, l.Source)
	assert.Equal(t, "Автосервис Премиум", l.Name)
	assert.Equal(t, "ул. Ленина, 5", l.Address)
	assert.Equal(t, "Минск", l.City)
	assert.Equal(t, "Центральный район", l.District)
	assert.Equal(t, []string{"+375 29 123-45-67"}, l.Phones)
	assert.Equal(t, "info@premium.by", l.Email)
	assert.Equal(t, "https://premium.by", l.Website)
	assert.Contains(t, l.Links, "https://instagram.com/premium.auto")
	assert.Equal(t, 4.6, l.Rating)
	assert.Equal(t, 31, l.ReviewCount)
	assert.Equal(t, "53.9006", l.Lat)
}

func TestFetchUncoveredCity(t *testing.T) {
	s := New(Config{Client: source.NewClient(100, 10)})
	listings, err := s.Fetch(context.Background(), domain.CategoryCleaning, "варшава", 10)
	assert.NoError(t, err)
	assert.Nil(t, listings)
}

func TestFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"code":403,"error":{"type":"keyError","message":"key is invalid"}}}`))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, Client: source.NewClient(100, 10)})
	_, err := s.Fetch(context.Background(), domain.CategoryAutoService, "минск", 10)
	require.Error(t, err)
	assert.Equal(t, source.KindMalformed, source.Classify(err))
}
