package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide collectors. One instance per process,
// registered on the default registry.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	UnitsTotal     *prometheus.CounterVec
	UnitFailures   *prometheus.CounterVec
	ListingsTotal  *prometheus.CounterVec
	LeadsInserted  prometheus.Counter
	LeadsUpdated   prometheus.Counter
	UnitDuration   *prometheus.HistogramVec
	ActiveRun      prometheus.Gauge
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors on reg. Tests pass their own
// registry so repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscraper_runs_total",
			Help: "Aggregation runs by terminal status.",
		}, []string{"status"}),
		UnitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscraper_units_total",
			Help: "Work units executed, by source and outcome.",
		}, []string{"source", "outcome"}),
		UnitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscraper_unit_failures_total",
			Help: "Abandoned work units by source and failure reason.",
		}, []string{"source", "reason"}),
		ListingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadscraper_listings_total",
			Help: "Raw listings fetched per source.",
		}, []string{"source"}),
		LeadsInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadscraper_leads_inserted_total",
			Help: "New leads created by the merge engine.",
		}),
		LeadsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadscraper_leads_updated_total",
			Help: "Existing leads enriched by the merge engine.",
		}),
		UnitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadscraper_unit_duration_seconds",
			Help:    "Wall time per work unit, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"source"}),
		ActiveRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadscraper_active_run",
			Help: "1 while a run is executing.",
		}),
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
