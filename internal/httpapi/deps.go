package httpapi

import (
	"database/sql"
	"sync/atomic"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/config"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/events"
)

// Trigger is the slice of the scheduler the API needs.
type Trigger interface {
	TriggerNow() bool
	Running() bool
}

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	Scheduler Trigger

	// CfgVal stores config.Config; PUT /config swaps it atomically.
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
