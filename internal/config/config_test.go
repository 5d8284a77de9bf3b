package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	KeyDeliveryMode, KeyServiceAccount, KeyClientID, KeyClientSecret, KeyAccount,
	KeySheetID, KeyCSVURL, KeyCalendarID,
	KeySMTPHost, KeySMTPPort, KeySMTPUsername, KeySMTPPassword, KeySMTPFrom,
	KeyCalDAVURL, KeyCalDAVUsername, KeyCalDAVPassword, KeyCalDAVCalendar,
	KeyUserEmail, KeyEmailMap, KeyTimeZone, KeyDedupe, KeyLogLevel,
}

// setEnv clears every recognized key and then applies env.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
	for key, value := range env {
		t.Setenv(key, value)
	}
}

func requireConfigError(t *testing.T, err error, key string) {
	t.Helper()
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr), "want *config.Error, got %v", err)
	require.Equal(t, key, cfgErr.Key)
}

func TestLoadCalendarMode(t *testing.T) {
	setEnv(t, map[string]string{
		KeyServiceAccount: `{"type": "service_account"}`,
		KeySheetID:        "sheet-123",
		KeyCalendarID:     "family@group.calendar.google.com",
		KeyUserEmail:      " me@example.com ",
		KeyEmailMap:       `{"Oma Lisa": "oma.lisa@example.com", "Opa Piet": "opa.piet@example.com"}`,
	})

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ModeCalendar, cfg.Mode)
	require.False(t, cfg.UsesCSV())
	require.Equal(t, "sheet-123", cfg.SheetID)
	require.Equal(t, "me@example.com", cfg.DefaultRecipient)
	require.Equal(t, "oma.lisa@example.com", cfg.EmailMap["Oma Lisa"])
	require.Equal(t, "Europe/Amsterdam", cfg.TimeZone)
	require.Equal(t, "default", cfg.Google.Account)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.Dedupe)
}

func TestLoadEmailMode(t *testing.T) {
	setEnv(t, map[string]string{
		KeyDeliveryMode: "Email",
		KeyCSVURL:       "https://docs.google.com/spreadsheets/d/abc/export?format=csv",
		KeySMTPHost:     "smtp.example.com",
		KeySMTPUsername: "planner@example.com",
		KeySMTPPassword: "secret",
		KeyDedupe:       "true",
	})

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ModeEmail, cfg.Mode)
	require.True(t, cfg.UsesCSV())
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, "planner@example.com", cfg.SMTP.From)
	require.Empty(t, cfg.EmailMap)
	require.True(t, cfg.Dedupe)
}

func TestLoadErrors(t *testing.T) {
	base := map[string]string{
		KeyCSVURL:       "https://example.com/export.csv",
		KeyCalendarID:   "primary",
		KeySMTPHost:     "smtp.example.com",
		KeySMTPUsername: "planner@example.com",
		KeySMTPPassword: "secret",
	}

	cases := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{"missing calendar id", map[string]string{KeyCalendarID: ""}, KeyCalendarID},
		{"missing source", map[string]string{KeyCSVURL: ""}, KeySheetID},
		{"bad email map", map[string]string{KeyEmailMap: `["Oma Lisa"]`}, KeyEmailMap},
		{"unknown mode", map[string]string{KeyDeliveryMode: "fax"}, KeyDeliveryMode},
		{"bad timezone", map[string]string{KeyTimeZone: "Mars/Olympus"}, KeyTimeZone},
		{"missing smtp password", map[string]string{KeyDeliveryMode: ModeEmail, KeySMTPPassword: ""}, KeySMTPPassword},
		{"bad smtp port", map[string]string{KeyDeliveryMode: ModeEmail, KeySMTPPort: "70000"}, KeySMTPPort},
		{"missing caldav calendar", map[string]string{KeyDeliveryMode: ModeCalDAV, KeyCalDAVUsername: "u", KeyCalDAVPassword: "p"}, KeyCalDAVCalendar},
		{"bad service account", map[string]string{KeyCSVURL: "", KeySheetID: "s", KeyServiceAccount: "{"}, KeyServiceAccount},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range c.env {
				env[k] = v
			}
			setEnv(t, env)

			_, err := Load("")
			requireConfigError(t, err, c.key)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	setEnv(t, map[string]string{KeyCalDAVPassword: "from-env"})

	path := filepath.Join(t.TempDir(), "oppasplanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
delivery_mode: caldav
sheet_csv_url: https://example.com/export.csv
caldav_username: family
caldav_password: from-file
caldav_calendar: Oppas
email_map: '{"Oma Lisa": "oma.lisa@example.com"}'
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ModeCalDAV, cfg.Mode)
	require.Equal(t, "family", cfg.CalDAV.Username)
	require.Equal(t, "from-env", cfg.CalDAV.Password)
	require.Equal(t, "Oppas", cfg.CalDAV.Calendar)
	require.Equal(t, "oma.lisa@example.com", cfg.EmailMap["Oma Lisa"])
}

func TestLoadMissingConfigFile(t *testing.T) {
	setEnv(t, nil)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadGoogle(t *testing.T) {
	setEnv(t, map[string]string{
		KeyClientID:     "client-id",
		KeyClientSecret: "client-secret",
	})

	g, err := LoadGoogle("")
	require.NoError(t, err)
	require.Equal(t, "client-id", g.ClientID)
	require.Equal(t, "client-secret", g.ClientSecret)
	require.Equal(t, "default", g.Account)
}

func TestLoadGoogleFromFile(t *testing.T) {
	setEnv(t, map[string]string{KeyClientSecret: "from-env"})

	path := filepath.Join(t.TempDir(), "oppas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("GOOGLE_CLIENT_ID: file-id\nGOOGLE_CLIENT_SECRET: file-secret\nGOOGLE_ACCOUNT: family\n"), 0o600))

	g, err := LoadGoogle(path)
	require.NoError(t, err)
	require.Equal(t, "file-id", g.ClientID)
	require.Equal(t, "from-env", g.ClientSecret)
	require.Equal(t, "family", g.Account)
}
