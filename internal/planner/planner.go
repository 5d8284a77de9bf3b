// Package planner turns every schedule row into a delivered calendar invitation.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"oppasplanner/internal/dispatch"
	"oppasplanner/internal/models"
	"oppasplanner/internal/schedule"
	"oppasplanner/internal/source"
)

// State is the position of a run in its lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateFetchingRows
	StateBuilding
	StateDispatching
	StateDone
	StateFetchError
	StateSessionError
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateFetchingRows:
		return "fetching_rows"
	case StateBuilding:
		return "building"
	case StateDispatching:
		return "dispatching"
	case StateDone:
		return "done"
	case StateFetchError:
		return "fetch_error"
	case StateSessionError:
		return "session_error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Planner orchestrates one run: fetch rows, build events, dispatch them.
// Rows are handled one at a time in sheet order.
type Planner struct {
	logger     *slog.Logger
	source     source.RowSource
	builder    *schedule.Builder
	dispatcher dispatch.Dispatcher
	dryRun     bool
	state      State
}

// New creates a Planner. The dispatcher may be nil for a dry run.
func New(logger *slog.Logger, src source.RowSource, builder *schedule.Builder, dispatcher dispatch.Dispatcher, dryRun bool) *Planner {
	return &Planner{
		logger:     logger,
		source:     src,
		builder:    builder,
		dispatcher: dispatcher,
		dryRun:     dryRun,
		state:      StateNotStarted,
	}
}

// State returns the current lifecycle state.
func (p *Planner) State() State {
	return p.state
}

// Run performs a full run. Only an unreachable source or a delivery session
// that cannot be opened aborts it; failing rows are recorded in the report.
func (p *Planner) Run(ctx context.Context) (*Report, error) {
	p.logger.Info("Starting planner run.", "dryRun", p.dryRun)

	p.setState(StateFetchingRows)
	rows, err := p.source.Rows(ctx)
	if err != nil {
		p.setState(StateFetchError)
		return nil, fmt.Errorf("failed to fetch schedule rows: %w", err)
	}
	p.logger.Info("Fetched schedule rows.", "count", len(rows))

	if !p.dryRun {
		if err := p.dispatcher.Open(ctx); err != nil {
			p.setState(StateSessionError)
			return nil, fmt.Errorf("failed to open delivery session: %w", err)
		}
		defer func() {
			if err := p.dispatcher.Close(); err != nil {
				p.logger.Error("Failed to close delivery session", "error", err)
			}
		}()
	}

	report := &Report{}
	for _, row := range rows {
		report.Results = append(report.Results, p.processRow(ctx, row))
	}

	p.setState(StateDone)
	p.logger.Info("Planner run finished.",
		"rows", len(report.Results),
		"dispatched", report.Count(StatusDispatched),
		"skipped", report.Count(StatusSkipped),
		"noRecipients", report.Count(StatusNoRecipients),
		"failed", report.Count(StatusFailed),
		"dryRun", report.Count(StatusDryRun),
	)
	return report, nil
}

// processRow builds and dispatches a single row. It never aborts the run.
func (p *Planner) processRow(ctx context.Context, row models.ScheduleRow) RowResult {
	p.setState(StateBuilding)
	event, err := p.builder.Build(row)
	if err != nil {
		p.logger.Warn("Skipping row due to error", "row", row.Number, "week", row.WeekNumber, "error", err)
		return RowResult{Row: row, Status: StatusSkipped, Err: err}
	}

	if p.dryRun {
		p.logger.Info("[DRY RUN] Would create event", "title", event.Title, "date", event.StartDate, "attendees", event.Attendees)
		return RowResult{Row: row, Event: event, Status: StatusDryRun}
	}

	p.setState(StateDispatching)
	err = p.dispatcher.Dispatch(ctx, event)
	switch {
	case errors.Is(err, dispatch.ErrNoRecipients):
		p.logger.Warn("No recipients for event, skipping delivery.", "title", event.Title, "date", event.StartDate)
		return RowResult{Row: row, Event: event, Status: StatusNoRecipients}
	case err != nil:
		p.logger.Error("Failed to dispatch event", "title", event.Title, "date", event.StartDate, "error", err)
		return RowResult{Row: row, Event: event, Status: StatusFailed, Err: err}
	}
	return RowResult{Row: row, Event: event, Status: StatusDispatched}
}

func (p *Planner) setState(s State) {
	if p.state == s {
		return
	}
	p.logger.Debug("Planner state changed", "from", p.state, "to", s)
	p.state = s
}
