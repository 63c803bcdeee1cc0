package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/store"
)

type RunsHandler struct {
	DB        *sql.DB
	Scheduler Trigger
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := store.ListRuns(r.Context(), h.DB, limit)
	if err != nil {
		WriteError(w, r, 500, "storage_error", err.Error())
		return
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	writeJSON(w, runs)
}

// Trigger queues a run. 202 when accepted, 409 when a run is already
// executing and another is already queued behind it.
func (h RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.Scheduler.TriggerNow() {
		WriteError(w, r, http.StatusConflict, "run_queued", "a run is active and one is already queued")
		return
	}
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]any{"queued": true})
}

func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns(r.Context(), h.DB, 1)
	if err != nil {
		WriteError(w, r, 500, "storage_error", err.Error())
		return
	}
	resp := map[string]any{"running": h.Scheduler.Running()}
	if len(runs) > 0 {
		resp["last_run"] = runs[0]
	}
	writeJSON(w, resp)
}
