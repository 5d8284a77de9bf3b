package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"oppasplanner/internal/dispatch"
	"oppasplanner/internal/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// CalendarClient inserts events into a Google Calendar and lets Google notify the attendees.
type CalendarClient struct {
	service    *calendar.Service
	calendarID string
	stableIDs  bool
	logger     *slog.Logger
}

// NewCalendarClient creates a Google Calendar dispatcher for calendarID.
// With stableIDs set every event is inserted under an id derived from its
// caregiver and date, so a repeated run reports "already exists" instead of
// creating a duplicate.
func NewCalendarClient(ctx context.Context, logger *slog.Logger, calendarID string, stableIDs bool, opts ...option.ClientOption) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, calendarID: calendarID, stableIDs: stableIDs, logger: logger}, nil
}

// Open is a no-op, the API client holds no session.
func (c *CalendarClient) Open(ctx context.Context) error { return nil }

// Close is a no-op, the API client holds no session.
func (c *CalendarClient) Close() error { return nil }

// Dispatch inserts event with notifications sent to every attendee.
func (c *CalendarClient) Dispatch(ctx context.Context, event *models.CalendarEvent) error {
	item := toGoogleEvent(event)
	if c.stableIDs {
		item.Id = event.GoogleID()
	}

	c.logger.Debug("Inserting event into Google Calendar", "calendarID", c.calendarID, "title", event.Title, "date", event.StartDate)
	created, err := c.service.Events.Insert(c.calendarID, item).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if c.stableIDs && errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			c.logger.Info("Event already exists, skipping.", "title", event.Title, "date", event.StartDate, "id", item.Id)
			return nil
		}
		return &dispatch.TransportError{Op: "insert calendar event", Err: err}
	}

	c.logger.Info("Created event", "title", created.Summary, "date", event.StartDate, "id", created.Id)
	return nil
}

// toGoogleEvent converts the internal event to an all-day Google Calendar event.
func toGoogleEvent(event *models.CalendarEvent) *calendar.Event {
	item := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Start:       &calendar.EventDateTime{Date: event.StartDate.String(), TimeZone: event.TimeZone},
		End:         &calendar.EventDateTime{Date: event.EndDate.String(), TimeZone: event.TimeZone},
	}
	for _, email := range event.Attendees {
		attendee := &calendar.EventAttendee{Email: email}
		if email == event.CaregiverEmail {
			attendee.DisplayName = event.Caregiver
		}
		item.Attendees = append(item.Attendees, attendee)
	}
	return item
}
