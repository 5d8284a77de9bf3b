package planner

import "oppasplanner/internal/models"

// Status is the outcome of one schedule row.
type Status int

const (
	StatusDispatched Status = iota
	StatusSkipped
	StatusNoRecipients
	StatusFailed
	StatusDryRun
)

func (s Status) String() string {
	switch s {
	case StatusDispatched:
		return "dispatched"
	case StatusSkipped:
		return "skipped"
	case StatusNoRecipients:
		return "no_recipients"
	case StatusFailed:
		return "failed"
	case StatusDryRun:
		return "dry_run"
	default:
		return "unknown"
	}
}

// RowResult records what happened to one row. Event is nil for skipped rows.
type RowResult struct {
	Row    models.ScheduleRow
	Event  *models.CalendarEvent
	Status Status
	Err    error
}

// Report collects the results of a run in row order.
type Report struct {
	Results []RowResult
}

// Count returns the number of rows with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}
