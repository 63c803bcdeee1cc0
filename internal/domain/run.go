package domain

import "time"

// RunStatus is the terminal (or current) state of one aggregation run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED" // every unit succeeded
	RunPartial   RunStatus = "PARTIAL"   // some units failed, results kept
	RunFailed    RunStatus = "FAILED"    // no unit produced a usable record
)

// UnitFailure records one abandoned work unit with its taxonomy label.
// The label is what subscribers see; internal detail stays in the logs.
type UnitFailure struct {
	Unit   WorkUnit `json:"unit"`
	Reason string   `json:"reason"` // source_unavailable | rate_limited | auth_rejected | malformed_response
}

// SourceStats counts per-provider outcomes within one run.
type SourceStats struct {
	Units     int `json:"units"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Listings  int `json:"listings"` // raw listings fetched
	Skipped   int `json:"skipped"`  // dropped in normalization (no usable name)
}

// RunSummary is the "snapshot ready" payload delivered to subscribers.
type RunSummary struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Status     RunStatus              `json:"status"`
	Sources    map[Source]SourceStats `json:"sources"`
	Failures   []UnitFailure          `json:"failures,omitempty"`
	NewLeads   int                    `json:"new_leads"`
	Updated    int                    `json:"updated_leads"`
}
