package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// InsertRun records a run in its initial state before any unit executes.
func InsertRun(ctx context.Context, db *sql.DB, id string, startedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO runs(id, started_at, status) VALUES(?,?,?);`,
		id, startedAt.UTC().Format(time.RFC3339), string(domain.RunRunning))
	return err
}

// FinishRun stores the terminal state and the full summary document.
func FinishRun(ctx context.Context, db *sql.DB, s domain.RunSummary) error {
	summaryB, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	_, err = db.ExecContext(ctx, `
UPDATE runs SET finished_at=?, status=?, new_leads=?, updated=?, summary=?
WHERE id=?;`,
		s.FinishedAt.UTC().Format(time.RFC3339), string(s.Status),
		s.NewLeads, s.Updated, string(summaryB), s.RunID)
	return err
}

// ListRuns returns the most recent run summaries, newest first.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, started_at, status, summary
FROM runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var (
			id, startedAt, status, summaryJSON string
		)
		if err := rows.Scan(&id, &startedAt, &status, &summaryJSON); err != nil {
			return nil, err
		}
		var s domain.RunSummary
		if err := json.Unmarshal([]byte(summaryJSON), &s); err != nil || s.RunID == "" {
			// A run that never finished has no summary document yet.
			s = domain.RunSummary{RunID: id, Status: domain.RunStatus(status)}
			s.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
