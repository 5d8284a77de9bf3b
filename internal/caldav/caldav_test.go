package caldav

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"oppasplanner/internal/config"
	"oppasplanner/internal/dispatch"
	"oppasplanner/internal/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testEvent() *models.CalendarEvent {
	return &models.CalendarEvent{
		Title:          "Oppas – Oma Lisa",
		Description:    "Picking up at 5pm",
		StartDate:      civil.Date{Year: 2025, Month: 4, Day: 1},
		EndDate:        civil.Date{Year: 2025, Month: 4, Day: 2},
		Caregiver:      "Oma Lisa",
		CaregiverEmail: "oma.lisa@example.com",
		Attendees:      []string{"oma.lisa@example.com"},
	}
}

func TestDispatch(t *testing.T) {
	event := testEvent()
	var gotPath, gotBody, gotUser, gotType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		gotType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)

		w.Header().Set("ETag", `"1"`)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := NewClient(discard, &config.CalDAV{URL: srv.URL + "/", Username: "family@example.com", Password: "secret", Calendar: "Oppas"}, true)
	require.NoError(t, err)
	client.calendarPath = "/family/calendars/oppas/"

	require.NoError(t, client.Dispatch(context.Background(), event))
	require.Equal(t, "/family/calendars/oppas/"+event.Key().String()+".ics", gotPath)
	require.Equal(t, "family@example.com", gotUser)
	require.Contains(t, gotType, "text/calendar")
	require.Contains(t, gotBody, "BEGIN:VEVENT")
	require.Contains(t, gotBody, "DTSTART;VALUE=DATE:20250401")
	require.NotContains(t, gotBody, "METHOD:")
	require.Contains(t, gotBody, "ORGANIZER:mailto:family@example.com")
	require.Contains(t, gotBody, "ATTENDEE")
}

func TestDispatchWithoutOrganizer(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := NewClient(discard, &config.CalDAV{URL: srv.URL + "/", Username: "family", Password: "secret", Calendar: "Oppas"}, false)
	require.NoError(t, err)
	client.calendarPath = "/family/calendars/oppas/"

	require.NoError(t, client.Dispatch(context.Background(), testEvent()))
	require.NotContains(t, gotBody, "ORGANIZER")
	require.NotContains(t, gotBody, "ATTENDEE")
}

func TestDispatchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(discard, &config.CalDAV{URL: srv.URL + "/", Calendar: "Oppas"}, false)
	require.NoError(t, err)
	client.calendarPath = "/family/calendars/oppas/"

	err = client.Dispatch(context.Background(), testEvent())
	var tErr *dispatch.TransportError
	require.True(t, errors.As(err, &tErr))
}

func TestObjectPath(t *testing.T) {
	require.Equal(t, "/cal/home/abc.ics", objectPath("/cal/home/", "abc"))
	require.Equal(t, "/cal/home/abc.ics", objectPath("cal/home", "abc"))
}
