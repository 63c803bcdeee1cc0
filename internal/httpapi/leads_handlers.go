package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/store"
)

type LeadsHandler struct {
	DB *sql.DB
}

func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	leads, err := store.ListLeads(r.Context(), h.DB, store.ListLeadsOpts{
		Category: q.Get("category"),
		City:     q.Get("city"),
		Source:   q.Get("source"),
		Sort:     q.Get("sort"),
		Limit:    limit,
	})
	if err != nil {
		WriteError(w, r, 500, "storage_error", err.Error())
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	writeJSON(w, leads)
}

func (h LeadsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := store.CountLeads(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, 500, "storage_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"total": n})
}
