package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"

	"oppasplanner/internal/models"
)

// CSVSource reads a published CSV export of the schedule over plain HTTP.
type CSVSource struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewCSVSource creates a CSV-backed row source. A nil client uses http.DefaultClient.
func NewCSVSource(logger *slog.Logger, url string, client *http.Client) *CSVSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &CSVSource{url: url, client: client, logger: logger}
}

// Rows downloads the export and returns its records keyed by the header row.
func (s *CSVSource) Rows(ctx context.Context) ([]models.ScheduleRow, error) {
	s.logger.Debug("Downloading CSV export", "url", s.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{Source: "csv export", Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: "csv export", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: "csv export", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body := bufio.NewReader(resp.Body)
	if r, _, err := body.ReadRune(); err == nil && r != '\ufeff' {
		_ = body.UnreadRune()
	}

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	table, err := reader.ReadAll()
	if err != nil {
		return nil, &FetchError{Source: "csv export", Err: fmt.Errorf("failed to parse csv: %w", err)}
	}

	rows, err := recordsToRows(table)
	if err != nil {
		return nil, &FetchError{Source: "csv export", Err: err}
	}
	s.logger.Info("Successfully fetched rows from CSV export", "count", len(rows))
	return rows, nil
}
