package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

func TestGetJSONStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		wantKind  Kind
		transient bool
	}{
		{http.StatusUnauthorized, KindAuthRejected, false},
		{http.StatusForbidden, KindAuthRejected, false},
		{http.StatusTooManyRequests, KindRateLimited, true},
		{http.StatusInternalServerError, KindUnavailable, true},
		{http.StatusBadGateway, KindUnavailable, true},
		{http.StatusNotFound, KindMalformed, false},
	}
	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
		}))

		var out map[string]any
		err := NewClient(100, 10).GetJSON(context.Background(), domain.SourceTwoGIS, srv.URL, nil, &out)
		srv.Close()

		require.Error(t, err, "status %d", c.status)
		assert.Equal(t, c.wantKind, Classify(err), "status %d", c.status)
		assert.Equal(t, c.transient, Classify(err).Transient(), "status %d", c.status)
	}
}

func TestGetJSONRetryAfterHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out any
	err := NewClient(100, 10).GetJSON(context.Background(), domain.SourceYandex, srv.URL, nil, &out)
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, Classify(err))
	assert.Equal(t, 7*time.Second, RetryHint(err))
}

func TestGetJSONMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(100, 10).GetJSON(context.Background(), domain.SourceTwoGIS, srv.URL, nil, &out)
	require.Error(t, err)
	assert.Equal(t, KindMalformed, Classify(err))
	assert.False(t, Classify(err).Transient())
}

func TestGetJSONSetsHeaders(t *testing.T) {
	var gotUA, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]any
	h := http.Header{}
	h.Set("X-Api-Key", "k123")
	err := NewClient(100, 10).GetJSON(context.Background(), domain.SourceTwoGIS, srv.URL, h, &out)
	require.NoError(t, err)
	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, "k123", gotKey)
}

func TestGetHTMLParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="item">привет</div></body></html>`))
	}))
	defer srv.Close()

	doc, err := NewClient(100, 10).GetHTML(context.Background(), domain.SourceOnliner, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "привет", doc.Find(".item").Text())
}

func TestClassifyPlainErrorIsUnavailable(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	assert.Equal(t, KindUnavailable, Classify(err))
	assert.Zero(t, RetryHint(err))
}
