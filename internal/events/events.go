package events

import (
	"encoding/json"
	"time"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// Event types delivered over the SSE stream.
const (
	TypeRunStarted    = "run_started"
	TypeSnapshotReady = "snapshot_ready"
)

type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(runID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:    typ,
		Version: v,
		At:      time.Now().UTC(),
		RunID:   runID,
		Data:    raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// RunStarted announces that a run began executing.
func RunStarted(runID string, startedAt time.Time) string {
	return MakeEvent(runID, TypeRunStarted, 1, map[string]any{
		"started_at": startedAt.UTC(),
	})
}

// SnapshotReady carries the full run summary once a run reaches a
// terminal state. Emitted for COMPLETED and PARTIAL runs; FAILED runs
// emit it too so subscribers see the failure reasons.
func SnapshotReady(s domain.RunSummary) string {
	return MakeEvent(s.RunID, TypeSnapshotReady, 1, s)
}
