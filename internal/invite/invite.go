// Package invite renders calendar events as iCalendar documents.
package invite

import (
	"bytes"
	"fmt"
	"time"

	"oppasplanner/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	// ProductID identifies the generator in every document.
	ProductID = "-//oppasplanner//NONSGML v1.0//EN"

	// MethodRequest marks a document as an invitation that expects a reply.
	MethodRequest = "REQUEST"
)

// Document is a single invitation for one event. It is generated once and never updated.
type Document struct {
	UID       string
	Stamp     time.Time
	Organizer string
	Event     *models.CalendarEvent
}

// New creates a document for event. An empty uid gets a random one.
func New(event *models.CalendarEvent, organizer, uid string, now time.Time) *Document {
	if uid == "" {
		uid = GenerateUID()
	}
	return &Document{
		UID:       uid,
		Stamp:     now.UTC(),
		Organizer: organizer,
		Event:     event,
	}
}

// Calendar wraps the event in a VCALENDAR. An empty method produces a plain
// calendar object as stored on CalDAV servers.
func (d *Document) Calendar(method string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if method != "" {
		cal.Props.SetText(ical.PropMethod, method)
	}
	cal.Children = append(cal.Children, d.component())
	return cal
}

// Encode serializes the document with the given method.
func (d *Document) Encode(method string) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(d.Calendar(method)); err != nil {
		return nil, fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	return buf.Bytes(), nil
}

// component converts the event to an all-day VEVENT.
func (d *Document) component() *ical.Component {
	event := d.Event

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, d.UID)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, d.Stamp)
	ve.Props.SetDate(ical.PropDateTimeStart, event.StartDate.In(time.UTC))
	ve.Props.SetDate(ical.PropDateTimeEnd, event.EndDate.In(time.UTC))
	ve.Props.SetText(ical.PropSummary, event.Title)
	seq := ical.NewProp(ical.PropSequence)
	seq.Value = "0"
	ve.Props.Set(seq)
	ve.Props.SetText(ical.PropStatus, "CONFIRMED")
	ve.Props.SetText(ical.PropTransparency, "TRANSPARENT")

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	// Attendees are only valid next to an organizer.
	if d.Organizer == "" {
		return ve
	}
	org := ical.NewProp(ical.PropOrganizer)
	org.Value = "mailto:" + d.Organizer
	ve.Props.Add(org)
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + attendee
		if attendee == event.CaregiverEmail {
			p.Params.Set(ical.ParamCommonName, event.Caregiver)
		}
		p.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		p.Params.Set(ical.ParamParticipationStatus, "NEEDS-ACTION")
		p.Params.Set(ical.ParamRSVP, "TRUE")
		ve.Props.Add(p)
	}
	return ve
}

// GenerateUID creates a new unique identifier for an invitation.
func GenerateUID() string {
	return uuid.New().String()
}
