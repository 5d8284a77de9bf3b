// Package dispatch defines how built events leave the process.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"oppasplanner/internal/models"
)

// ErrNoRecipients is returned when an event has nobody to deliver it to.
// It is reported, not treated as a failure.
var ErrNoRecipients = errors.New("event has no recipients")

// Dispatcher delivers events. Open is called once before the first event and
// Close once after the last, also when the run stops early.
type Dispatcher interface {
	Open(ctx context.Context) error
	Dispatch(ctx context.Context, event *models.CalendarEvent) error
	Close() error
}

// TransportError reports a failed remote call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
