// Package config resolves the run configuration from the environment and an optional file.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Delivery modes.
const (
	ModeCalendar = "calendar"
	ModeEmail    = "email"
	ModeCalDAV   = "caldav"
)

// Recognized keys. Each is read from the environment variable of the same name.
const (
	KeyDeliveryMode   = "DELIVERY_MODE"
	KeyServiceAccount = "GOOGLE_SERVICE_ACCOUNT"
	KeyClientID       = "GOOGLE_CLIENT_ID"
	KeyClientSecret   = "GOOGLE_CLIENT_SECRET"
	KeyAccount        = "GOOGLE_ACCOUNT"
	KeySheetID        = "GOOGLE_SHEET_ID"
	KeyCSVURL         = "SHEET_CSV_URL"
	KeyCalendarID     = "GOOGLE_CALENDAR_ID"
	KeySMTPHost       = "SMTP_HOST"
	KeySMTPPort       = "SMTP_PORT"
	KeySMTPUsername   = "SMTP_USERNAME"
	KeySMTPPassword   = "SMTP_PASSWORD"
	KeySMTPFrom       = "SMTP_FROM"
	KeyCalDAVURL      = "CALDAV_URL"
	KeyCalDAVUsername = "CALDAV_USERNAME"
	KeyCalDAVPassword = "CALDAV_PASSWORD"
	KeyCalDAVCalendar = "CALDAV_CALENDAR"
	KeyUserEmail      = "USER_EMAIL"
	KeyEmailMap       = "EMAIL_MAP"
	KeyTimeZone       = "EVENT_TIMEZONE"
	KeyDedupe         = "DEDUPE_EVENTS"
	KeyLogLevel       = "LOG_LEVEL"
)

const (
	defaultTimeZone      = "Europe/Amsterdam"
	defaultSMTPPort      = 587
	defaultGoogleAccount = "default"
	defaultLogLevel      = "info"
)

// Error reports a missing or invalid setting.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Reason)
}

// Google holds credentials shared by the Sheets and Calendar APIs.
type Google struct {
	ServiceAccountJSON string
	ClientID           string
	ClientSecret       string
	Account            string
}

// SMTP holds the mail transport settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CalDAV holds the CalDAV sink settings.
type CalDAV struct {
	URL      string
	Username string
	Password string
	Calendar string
}

// Config is built once at startup and passed to every component.
type Config struct {
	Mode             string
	Google           Google
	SheetID          string
	CSVURL           string
	CalendarID       string
	SMTP             SMTP
	CalDAV           CalDAV
	DefaultRecipient string
	EmailMap         map[string]string
	TimeZone         string
	Dedupe           bool
	LogLevel         string
}

// Load reads the configuration. Environment variables win over configFile,
// which may be empty. The result is validated for the selected mode.
func Load(configFile string) (*Config, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}

	emailMap, err := emailMap(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:       strings.ToLower(strings.TrimSpace(v.GetString(KeyDeliveryMode))),
		Google:     googleSettings(v),
		SheetID:    strings.TrimSpace(v.GetString(KeySheetID)),
		CSVURL:     strings.TrimSpace(v.GetString(KeyCSVURL)),
		CalendarID: strings.TrimSpace(v.GetString(KeyCalendarID)),
		SMTP: SMTP{
			Host:     v.GetString(KeySMTPHost),
			Port:     v.GetInt(KeySMTPPort),
			Username: v.GetString(KeySMTPUsername),
			Password: v.GetString(KeySMTPPassword),
			From:     v.GetString(KeySMTPFrom),
		},
		CalDAV: CalDAV{
			URL:      v.GetString(KeyCalDAVURL),
			Username: v.GetString(KeyCalDAVUsername),
			Password: v.GetString(KeyCalDAVPassword),
			Calendar: v.GetString(KeyCalDAVCalendar),
		},
		DefaultRecipient: strings.TrimSpace(v.GetString(KeyUserEmail)),
		EmailMap:         emailMap,
		TimeZone:         v.GetString(KeyTimeZone),
		Dedupe:           v.GetBool(KeyDedupe),
		LogLevel:         v.GetString(KeyLogLevel),
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadGoogle reads only the Google credentials. The auth command uses it since
// it runs before a sheet, calendar or delivery mode has been configured.
func LoadGoogle(configFile string) (*Google, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	g := googleSettings(v)
	return &g, nil
}

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyDeliveryMode, ModeCalendar)
	v.SetDefault(KeyAccount, defaultGoogleAccount)
	v.SetDefault(KeySMTPPort, defaultSMTPPort)
	v.SetDefault(KeyTimeZone, defaultTimeZone)
	v.SetDefault(KeyDedupe, false)
	v.SetDefault(KeyLogLevel, defaultLogLevel)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", configFile, err)
		}
	}
	return v, nil
}

func googleSettings(v *viper.Viper) Google {
	return Google{
		ServiceAccountJSON: strings.TrimSpace(v.GetString(KeyServiceAccount)),
		ClientID:           strings.TrimSpace(v.GetString(KeyClientID)),
		ClientSecret:       strings.TrimSpace(v.GetString(KeyClientSecret)),
		Account:            strings.TrimSpace(v.GetString(KeyAccount)),
	}
}

// emailMap decodes EMAIL_MAP. It must be a JSON string in both the environment and
// a config file, since viper lowercases nested map keys and names match exactly.
func emailMap(v *viper.Viper) (map[string]string, error) {
	switch raw := v.Get(KeyEmailMap).(type) {
	case nil:
		return map[string]string{}, nil
	case string:
		if strings.TrimSpace(raw) == "" {
			return map[string]string{}, nil
		}
		m := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, &Error{Key: KeyEmailMap, Reason: fmt.Sprintf("must be a JSON object of names to addresses: %v", err)}
		}
		return m, nil
	default:
		return nil, &Error{Key: KeyEmailMap, Reason: "must be a JSON string"}
	}
}

// UsesCSV reports whether rows come from the public CSV export.
func (c *Config) UsesCSV() bool {
	return c.CSVURL != ""
}

// Validate checks that every setting the selected mode needs is present.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return &Error{Key: KeyTimeZone, Reason: fmt.Sprintf("invalid timezone %q", c.TimeZone)}
	}

	needsGoogle := false
	if !c.UsesCSV() {
		if c.SheetID == "" {
			return &Error{Key: KeySheetID, Reason: fmt.Sprintf("must be set when %s is not", KeyCSVURL)}
		}
		needsGoogle = true
	}

	switch c.Mode {
	case ModeCalendar:
		if c.CalendarID == "" {
			return &Error{Key: KeyCalendarID, Reason: "must be set for calendar delivery"}
		}
		needsGoogle = true
	case ModeEmail:
		if err := requireAll("email delivery",
			[2]string{KeySMTPHost, c.SMTP.Host},
			[2]string{KeySMTPUsername, c.SMTP.Username},
			[2]string{KeySMTPPassword, c.SMTP.Password},
		); err != nil {
			return err
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return &Error{Key: KeySMTPPort, Reason: fmt.Sprintf("invalid port %d", c.SMTP.Port)}
		}
	case ModeCalDAV:
		if err := requireAll("caldav delivery",
			[2]string{KeyCalDAVUsername, c.CalDAV.Username},
			[2]string{KeyCalDAVPassword, c.CalDAV.Password},
			[2]string{KeyCalDAVCalendar, c.CalDAV.Calendar},
		); err != nil {
			return err
		}
	default:
		return &Error{Key: KeyDeliveryMode, Reason: fmt.Sprintf("unknown mode %q, want %s, %s or %s", c.Mode, ModeCalendar, ModeEmail, ModeCalDAV)}
	}

	if needsGoogle && c.Google.ServiceAccountJSON != "" && !json.Valid([]byte(c.Google.ServiceAccountJSON)) {
		return &Error{Key: KeyServiceAccount, Reason: "does not contain valid JSON"}
	}
	return nil
}

// requireAll returns an *Error for the first empty key/value pair.
func requireAll(purpose string, pairs ...[2]string) error {
	for _, p := range pairs {
		if strings.TrimSpace(p[1]) == "" {
			return &Error{Key: p[0], Reason: "must be set for " + purpose}
		}
	}
	return nil
}
