package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"oppasplanner/internal/caldav"
	"oppasplanner/internal/config"
	"oppasplanner/internal/dispatch"
	"oppasplanner/internal/google"
	"oppasplanner/internal/mailer"
	"oppasplanner/internal/models"
	"oppasplanner/internal/planner"
	"oppasplanner/internal/schedule"
	"oppasplanner/internal/source"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "oppasplanner",
		Usage: "Turn the babysitting schedule sheet into calendar invitations.",
		Commands: []*cli.Command{
			authCommand(),
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account when no service account is used.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Optional config file; environment variables take precedence."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			creds, err := config.LoadGoogle(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			oauthConfig, err := google.GetOAuthConfigForAuthFlow(creds.ClientID, creds.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Printf("Enter a name for this account (empty for '%s'): ", creds.Account)
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			if accountName == "" {
				accountName = creds.Account
			}
			tokenFile := google.TokenFile(accountName)

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Read the schedule once and send an invitation for every row.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Optional config file; environment variables take precedence."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log the events that would be sent without sending them."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := setupLogger(cfg.LogLevel)

			dryRun := c.Bool("dry-run")
			if dryRun {
				logger.Info("Performing a dry run. No invitations will be sent.")
			}

			var googleOpts []option.ClientOption
			if !cfg.UsesCSV() || cfg.Mode == config.ModeCalendar {
				googleOpts, err = google.ClientOptions(c.Context, cfg.Google.ServiceAccountJSON, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.Account)
				if err != nil {
					return fmt.Errorf("failed to set up google credentials: %w", err)
				}
			}

			src, err := newSource(c.Context, logger, cfg, googleOpts)
			if err != nil {
				return err
			}

			var dispatcher dispatch.Dispatcher
			if !dryRun {
				dispatcher, err = newDispatcher(c.Context, logger, cfg, googleOpts)
				if err != nil {
					return err
				}
			}

			builder := schedule.NewBuilder(models.EmailDirectory(cfg.EmailMap), cfg.DefaultRecipient, cfg.TimeZone)
			report, err := planner.New(logger, src, builder, dispatcher, dryRun).Run(c.Context)
			if err != nil {
				return err
			}

			if failed := report.Count(planner.StatusFailed); failed > 0 {
				logger.Warn("Some invitations could not be delivered.", "failed", failed)
			}
			return nil
		},
	}
}

func newSource(ctx context.Context, logger *slog.Logger, cfg *config.Config, googleOpts []option.ClientOption) (source.RowSource, error) {
	if cfg.UsesCSV() {
		return source.NewCSVSource(logger, cfg.CSVURL, nil), nil
	}
	src, err := source.NewSheetsSource(ctx, logger, cfg.SheetID, googleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets source: %w", err)
	}
	return src, nil
}

func newDispatcher(ctx context.Context, logger *slog.Logger, cfg *config.Config, googleOpts []option.ClientOption) (dispatch.Dispatcher, error) {
	switch cfg.Mode {
	case config.ModeEmail:
		m, err := mailer.New(logger, &cfg.SMTP, cfg.Dedupe)
		if err != nil {
			return nil, fmt.Errorf("failed to create mailer: %w", err)
		}
		return m, nil
	case config.ModeCalDAV:
		client, err := caldav.NewClient(logger, &cfg.CalDAV, cfg.Dedupe)
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		return client, nil
	default:
		client, err := google.NewCalendarClient(ctx, logger, cfg.CalendarID, cfg.Dedupe, googleOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create google calendar client: %w", err)
		}
		return client, nil
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
