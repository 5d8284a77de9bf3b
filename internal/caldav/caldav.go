// Package caldav stores events in a CalDAV calendar such as iCloud.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"oppasplanner/internal/config"
	"oppasplanner/internal/dispatch"
	"oppasplanner/internal/invite"
	"oppasplanner/internal/models"

	"github.com/emersion/go-webdav/caldav"
)

// DefaultEndpoint is used when no CalDAV URL is configured.
const DefaultEndpoint = "https://caldav.icloud.com/"

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "oppasplanner/1.0")
	return t.Transport.RoundTrip(req)
}

// Client writes events as calendar objects into one named CalDAV calendar.
type Client struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarName string
	calendarPath string
	organizer    string
	stableUIDs   bool
	now          func() time.Time
}

// NewClient creates a CalDAV dispatcher. The calendar is looked up by Open.
// A username that is an email address, as with iCloud, becomes the organizer.
func NewClient(logger *slog.Logger, cfg *config.CalDAV, stableUIDs bool) (*Client, error) {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	transport := &customTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	var organizer string
	if strings.Contains(cfg.Username, "@") {
		organizer = cfg.Username
	}

	return &Client{
		caldavClient: caldavClient,
		logger:       logger,
		calendarName: cfg.Calendar,
		organizer:    organizer,
		stableUIDs:   stableUIDs,
		now:          time.Now,
	}, nil
}

// Open discovers the configured calendar.
func (c *Client) Open(ctx context.Context) error {
	c.logger.Info("Finding CalDAV calendar", "calendarName", c.calendarName)
	calendarPath, err := c.findCalendar(ctx, c.calendarName)
	if err != nil {
		return &dispatch.TransportError{Op: fmt.Sprintf("find calendar '%s'", c.calendarName), Err: err}
	}
	c.calendarPath = calendarPath
	c.logger.Info("Successfully found CalDAV calendar", "path", calendarPath)
	return nil
}

// Close is a no-op, every request uses its own connection from the pool.
func (c *Client) Close() error { return nil }

// Dispatch stores event as <uid>.ics in the calendar.
func (c *Client) Dispatch(ctx context.Context, event *models.CalendarEvent) error {
	var uid string
	if c.stableUIDs {
		uid = event.Key().String()
	}
	doc := invite.New(event, c.organizer, uid, c.now())

	eventPath := objectPath(c.calendarPath, doc.UID)
	c.logger.Debug("Storing event in CalDAV calendar", "title", event.Title, "path", eventPath)
	if _, err := c.caldavClient.PutCalendarObject(ctx, eventPath, doc.Calendar("")); err != nil {
		return &dispatch.TransportError{Op: "store calendar object", Err: err}
	}

	c.logger.Info("Created event", "title", event.Title, "date", event.StartDate, "uid", doc.UID)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

func objectPath(calendarPath, uid string) string {
	if !strings.HasPrefix(calendarPath, "/") {
		calendarPath = "/" + calendarPath
	}
	return path.Join(calendarPath, uid+".ics")
}
