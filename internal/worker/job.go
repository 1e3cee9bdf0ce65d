package worker

import (
	"time"

	"github.com/raoulx24/retainer/internal/retention"
)

// Triggers.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
	TriggerReload = "reload"
)

// Job asks the worker to run one task.
type Job struct {
	Task    string
	Trigger string
	Queued  time.Time
}

// Run statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial" // finished with per-file failures
	StatusFailed  = "failed"
)

// Result describes one task run.
type Result struct {
	ID       string
	Task     string
	Action   string
	Trigger  string
	Status   string
	Started  time.Time
	Finished time.Time
	Report   *retention.Report
	Err      error
}
