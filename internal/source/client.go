package source

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"context"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

const userAgent = "leadscraper/1.0 (+local)"

// Client is the rate-limited HTTP client shared by one adapter. Retries live
// in the orchestrator; the client's job is one attempt plus classification.
type Client struct {
	hc *http.Client
	rl *rate.Limiter
}

func NewClient(reqPerSec float64, burst int) *Client {
	if reqPerSec <= 0 {
		reqPerSec = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		hc: &http.Client{Timeout: 20 * time.Second},
		rl: rate.NewLimiter(rate.Limit(reqPerSec), burst),
	}
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, src domain.Source, url string, header http.Header, out any) error {
	body, err := c.get(ctx, src, url, header, "application/json")
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return Errf(src, KindMalformed, "decode: %w", err)
	}
	return nil
}

// GetHTML fetches url and parses the body as a document.
func (c *Client) GetHTML(ctx context.Context, src domain.Source, url string) (*goquery.Document, error) {
	body, err := c.get(ctx, src, url, nil, "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, Errf(src, KindMalformed, "parse html: %w", err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, src domain.Source, url string, header http.Header, accept string) (io.ReadCloser, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Errf(src, KindMalformed, "build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Errf(src, KindUnavailable, "get: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusOK:
		return res.Body, nil
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		res.Body.Close()
		return nil, &Error{Source: src, Kind: KindAuthRejected, Err: statusErr(res.StatusCode)}
	case res.StatusCode == http.StatusTooManyRequests:
		hint := retryAfter(res)
		res.Body.Close()
		return nil, &Error{Source: src, Kind: KindRateLimited, RetryAfter: hint, Err: statusErr(res.StatusCode)}
	case res.StatusCode >= 500:
		res.Body.Close()
		return nil, &Error{Source: src, Kind: KindUnavailable, Err: statusErr(res.StatusCode)}
	default:
		res.Body.Close()
		return nil, &Error{Source: src, Kind: KindMalformed, Err: statusErr(res.StatusCode)}
	}
}

type statusErr int

func (s statusErr) Error() string { return "status " + strconv.Itoa(int(s)) }

func retryAfter(res *http.Response) time.Duration {
	v := res.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
