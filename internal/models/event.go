package models

import (
	"crypto/sha1"
	"encoding/base32"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// keyNamespace scopes content-derived event keys to this application.
var keyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://oppasplanner/events"))

// CalendarEvent represents one all-day babysitting appointment.
// This is an internal representation, independent of any specific delivery mechanism.
type CalendarEvent struct {
	Title          string     // Summary or title of the event
	Description    string     // Comments copied from the schedule row
	StartDate      civil.Date // First day of the event
	EndDate        civil.Date // Exclusive end, always StartDate + 1 day
	Caregiver      string     // Caregiver name as it appears in the schedule
	CaregiverEmail string     // Resolved caregiver address, empty when unknown
	Attendees      []string   // Distinct attendee emails, never empty strings
	TimeZone       string     // IANA zone identifier attached on delivery
	Row            int        // 1-based data row the event was built from
}

// Key returns a stable identifier derived from the caregiver and the date.
// Two events built from the same caregiver on the same day share a key.
func (e *CalendarEvent) Key() uuid.UUID {
	return uuid.NewSHA1(keyNamespace, []byte(e.Caregiver+"|"+e.StartDate.String()))
}

// GoogleID renders Key in the base32hex alphabet accepted by Google Calendar event ids.
func (e *CalendarEvent) GoogleID() string {
	sum := sha1.Sum([]byte(e.Key().String()))
	enc := base32.HexEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(enc.EncodeToString(sum[:]))
}
