package source

import (
	"errors"
	"fmt"
	"time"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// Kind classifies a fetch failure. Transient kinds are retried with backoff;
// the rest abandon the work unit immediately.
type Kind int

const (
	KindUnavailable Kind = iota // network error, timeout, 5xx
	KindRateLimited             // 429, retry after the provider's hint
	KindAuthRejected            // 401/403, credentials bad, do not retry
	KindMalformed               // unparseable response or 4xx
)

func (k Kind) Transient() bool {
	return k == KindUnavailable || k == KindRateLimited
}

// Label is the taxonomy name surfaced in run summaries. Subscribers see this,
// never the wrapped detail.
func (k Kind) Label() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindAuthRejected:
		return "auth_rejected"
	case KindMalformed:
		return "malformed_response"
	default:
		return "source_unavailable"
	}
}

// Error is the one failure shape adapters emit.
type Error struct {
	Source     domain.Source
	Kind       Kind
	RetryAfter time.Duration // rate-limit hint, 0 when the provider gave none
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Kind.Label())
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind.Label(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Errf(src domain.Source, kind Kind, format string, args ...any) *Error {
	return &Error{Source: src, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify extracts the taxonomy kind. Anything that is not a *Error counts
// as source_unavailable: plain transport errors were never classified by an
// adapter and are worth one more try.
func Classify(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// RetryHint returns the provider-supplied backoff, if any.
func RetryHint(err error) time.Duration {
	var se *Error
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
