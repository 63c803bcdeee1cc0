package httpapi

import (
	"net/http"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/observability"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Leads
	lh := LeadsHandler{DB: d.DB}
	mux.HandleFunc("/leads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	mux.HandleFunc("/leads/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Stats,
	}))

	// Runs
	rh := RunsHandler{DB: d.DB, Scheduler: d.Scheduler}
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.List,
	}))
	mux.HandleFunc("/runs/trigger", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Trigger,
	}))
	mux.HandleFunc("/runs/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/secrets", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetAPIKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Ops
	mux.HandleFunc("/health", HealthHandler{}.Health)
	mux.Handle("/metrics", observability.Handler())

	return mux
}
