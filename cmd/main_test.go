package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"oppasplanner/internal/caldav"
	"oppasplanner/internal/config"
	"oppasplanner/internal/mailer"
	"oppasplanner/internal/source"
)

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	require.True(t, setupLogger("debug").Enabled(ctx, slog.LevelDebug))
	require.False(t, setupLogger("WARN").Enabled(ctx, slog.LevelInfo))
	require.True(t, setupLogger("bogus").Enabled(ctx, slog.LevelInfo))
	require.False(t, setupLogger("bogus").Enabled(ctx, slog.LevelDebug))
}

func TestNewDispatcher(t *testing.T) {
	logger := setupLogger("error")

	t.Run("email", func(t *testing.T) {
		cfg := &config.Config{Mode: config.ModeEmail, SMTP: config.SMTP{
			Host: "smtp.example.com", Port: 587, Username: "planner@example.com", Password: "secret", From: "planner@example.com",
		}}
		d, err := newDispatcher(context.Background(), logger, cfg, nil)
		require.NoError(t, err)
		require.IsType(t, &mailer.Mailer{}, d)
	})

	t.Run("caldav", func(t *testing.T) {
		cfg := &config.Config{Mode: config.ModeCalDAV, CalDAV: config.CalDAV{Username: "u", Password: "p", Calendar: "Oppas"}}
		d, err := newDispatcher(context.Background(), logger, cfg, nil)
		require.NoError(t, err)
		require.IsType(t, &caldav.Client{}, d)
	})
}

func TestNewSourceCSV(t *testing.T) {
	cfg := &config.Config{CSVURL: "https://example.com/export.csv"}
	src, err := newSource(context.Background(), setupLogger("error"), cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &source.CSVSource{}, src)
}
