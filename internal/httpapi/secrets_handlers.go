package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setAPIKeyReq struct {
	Source string `json:"source"`
	APIKey string `json:"api_key"`
}

// SetAPIKey stores a provider credential in the OS keychain. Takes
// effect on the next run; running units keep the key they started with.
func (h SecretsHandler) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req setAPIKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	src := domain.Source(req.Source)
	if !src.Valid() || src == domain.SourceMerged {
		WriteError(w, r, http.StatusBadRequest, "unknown_source", "unknown source: "+req.Source)
		return
	}
	if err := secrets.SetAPIKey(src, req.APIKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
