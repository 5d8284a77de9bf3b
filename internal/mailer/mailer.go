// Package mailer delivers events as iCalendar invitations over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"oppasplanner/internal/config"
	"oppasplanner/internal/dispatch"
	"oppasplanner/internal/invite"
	"oppasplanner/internal/models"

	"github.com/wneessen/go-mail"
)

const (
	subjectPrefix  = "Uitnodiging: "
	attachmentName = "invite.ics"
)

// sender is the part of *mail.Client the Mailer needs.
type sender interface {
	DialWithContext(ctx context.Context) error
	Send(messages ...*mail.Msg) error
	Close() error
}

// Mailer sends one invitation email per event over a single SMTP session.
type Mailer struct {
	client     sender
	from       string
	stableUIDs bool
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Mailer that authenticates with PLAIN auth after STARTTLS.
func New(logger *slog.Logger, cfg *config.SMTP, stableUIDs bool) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return newMailer(logger, client, cfg.From, stableUIDs), nil
}

func newMailer(logger *slog.Logger, client sender, from string, stableUIDs bool) *Mailer {
	return &Mailer{
		client:     client,
		from:       from,
		stableUIDs: stableUIDs,
		logger:     logger,
		now:        time.Now,
	}
}

// Open connects and authenticates to the SMTP server.
func (m *Mailer) Open(ctx context.Context) error {
	if err := m.client.DialWithContext(ctx); err != nil {
		return &dispatch.TransportError{Op: "connect to smtp server", Err: err}
	}
	m.logger.Debug("Connected to SMTP server")
	return nil
}

// Close ends the SMTP session.
func (m *Mailer) Close() error {
	if err := m.client.Close(); err != nil {
		return &dispatch.TransportError{Op: "close smtp session", Err: err}
	}
	return nil
}

// Dispatch mails an invitation to the caregiver and the default recipient.
// Events without any attendee are not sent and yield dispatch.ErrNoRecipients.
func (m *Mailer) Dispatch(ctx context.Context, event *models.CalendarEvent) error {
	if len(event.Attendees) == 0 {
		return dispatch.ErrNoRecipients
	}

	msg, err := m.message(event)
	if err != nil {
		return err
	}
	if err := m.client.Send(msg); err != nil {
		return &dispatch.TransportError{Op: "send invite", Err: err}
	}

	m.logger.Info("Sent invite", "title", event.Title, "date", event.StartDate, "to", strings.Join(event.Attendees, ", "))
	return nil
}

// message builds a multipart mail: a plain text body, the invitation as a
// text/calendar alternative and the same document attached as invite.ics.
func (m *Mailer) message(event *models.CalendarEvent) (*mail.Msg, error) {
	var uid string
	if m.stableUIDs {
		uid = event.Key().String()
	}
	doc := invite.New(event, m.from, uid, m.now())
	ics, err := doc.Encode(invite.MethodRequest)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.from, err)
	}
	if err := msg.To(event.Attendees...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subjectPrefix + event.Title)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, plainBody(event))
	msg.AddAlternativeString(mail.ContentType("text/calendar; method="+invite.MethodRequest), string(ics))
	if err := msg.AttachReader(attachmentName, bytes.NewReader(ics), mail.WithFileContentType(mail.ContentType("application/ics"))); err != nil {
		return nil, fmt.Errorf("failed to attach invite: %w", err)
	}
	return msg, nil
}

func plainBody(event *models.CalendarEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", event.Title)
	fmt.Fprintf(&b, "Datum: %s\n", event.StartDate)
	if event.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", event.Description)
	}
	return b.String()
}
