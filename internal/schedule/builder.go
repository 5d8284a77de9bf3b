package schedule

import (
	"fmt"
	"strings"

	"oppasplanner/internal/models"
)

const (
	// TitlePrefix is prepended to the caregiver name to form the event title.
	TitlePrefix = "Oppas – "

	// DefaultTimeZone is attached to every event unless configured otherwise.
	DefaultTimeZone = "Europe/Amsterdam"
)

// ValidationError reports a schedule row that cannot become an event.
type ValidationError struct {
	Row   int
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: invalid %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: missing %s", e.Row, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Builder turns schedule rows into calendar events.
// It holds no mutable state and is safe to reuse across rows.
type Builder struct {
	Directory        models.EmailDirectory
	DefaultRecipient string
	TimeZone         string
}

// NewBuilder returns a Builder. An empty timeZone falls back to DefaultTimeZone.
func NewBuilder(directory models.EmailDirectory, defaultRecipient, timeZone string) *Builder {
	if timeZone == "" {
		timeZone = DefaultTimeZone
	}
	return &Builder{
		Directory:        directory,
		DefaultRecipient: strings.TrimSpace(defaultRecipient),
		TimeZone:         timeZone,
	}
}

// Build maps one row onto an all-day event. Rows without a date or a
// caregiver are rejected with a *ValidationError. A caregiver missing from
// the directory still yields an event, just without their address.
func (b *Builder) Build(row models.ScheduleRow) (*models.CalendarEvent, error) {
	date := strings.TrimSpace(row.Date)
	caregiver := strings.TrimSpace(row.Caregiver)
	if date == "" {
		return nil, &ValidationError{Row: row.Number, Field: models.ColumnDate}
	}
	if caregiver == "" {
		return nil, &ValidationError{Row: row.Number, Field: models.ColumnCaregiver}
	}

	start, err := ParseDate(date)
	if err != nil {
		return nil, &ValidationError{Row: row.Number, Field: models.ColumnDate, Err: err}
	}

	event := &models.CalendarEvent{
		Title:       TitlePrefix + caregiver,
		Description: row.Comments,
		StartDate:   start,
		EndDate:     start.AddDays(1),
		Caregiver:   caregiver,
		TimeZone:    b.TimeZone,
		Row:         row.Number,
	}

	if email, ok := b.Directory.Lookup(caregiver); ok {
		event.CaregiverEmail = email
		event.Attendees = append(event.Attendees, email)
	}
	if b.DefaultRecipient != "" && !strings.EqualFold(b.DefaultRecipient, event.CaregiverEmail) {
		event.Attendees = append(event.Attendees, b.DefaultRecipient)
	}
	return event, nil
}
