package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"oppasplanner/internal/models"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads the first worksheet of a Google Sheet through the Sheets API.
type SheetsSource struct {
	service *sheets.Service
	sheetID string
	logger  *slog.Logger
}

// NewSheetsSource creates a Sheets-backed row source. The client options carry
// the credentials, see google.ClientOptions.
func NewSheetsSource(ctx context.Context, logger *slog.Logger, sheetID string, opts ...option.ClientOption) (*SheetsSource, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsSource{service: service, sheetID: sheetID, logger: logger}, nil
}

// Rows returns all records of the first worksheet keyed by its header row.
func (s *SheetsSource) Rows(ctx context.Context) ([]models.ScheduleRow, error) {
	s.logger.Debug("Fetching spreadsheet metadata", "sheetID", s.sheetID)
	spreadsheet, err := s.service.Spreadsheets.Get(s.sheetID).
		Fields(googleapi.Field("sheets.properties.title")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &FetchError{Source: "google sheet " + s.sheetID, Err: err}
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return nil, &FetchError{Source: "google sheet " + s.sheetID, Err: fmt.Errorf("spreadsheet has no worksheets")}
	}
	title := spreadsheet.Sheets[0].Properties.Title

	values, err := s.service.Spreadsheets.Values.Get(s.sheetID, quoteSheetName(title)).Context(ctx).Do()
	if err != nil {
		return nil, &FetchError{Source: "google sheet " + s.sheetID, Err: err}
	}

	rows, err := recordsToRows(cellsToStrings(values.Values))
	if err != nil {
		return nil, &FetchError{Source: "google sheet " + s.sheetID, Err: err}
	}
	s.logger.Info("Successfully fetched rows from Google Sheets", "count", len(rows), "worksheet", title)
	return rows, nil
}

// quoteSheetName turns a worksheet title into an A1 range covering the whole sheet.
func quoteSheetName(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellsToStrings(values [][]interface{}) [][]string {
	table := make([][]string, len(values))
	for i, row := range values {
		table[i] = make([]string, len(row))
		for j, cell := range row {
			if cell == nil {
				continue
			}
			table[i][j] = fmt.Sprint(cell)
		}
	}
	return table
}
