// Package source fetches schedule rows from a spreadsheet.
package source

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"oppasplanner/internal/models"
)

// RowSource supplies schedule rows in sheet order.
type RowSource interface {
	Rows(ctx context.Context) ([]models.ScheduleRow, error)
}

// FetchError reports a source that could not be reached or returned unusable data.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch rows from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// recordsToRows keys every data row by the header row, the same way for both sources.
// Short rows are padded with empty cells; fully blank rows are dropped.
func recordsToRows(table [][]string) ([]models.ScheduleRow, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("sheet has no header row")
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
	}
	if !slices.Contains(header, models.ColumnDate) || !slices.Contains(header, models.ColumnCaregiver) {
		return nil, fmt.Errorf("header %q lacks %q or %q", header, models.ColumnDate, models.ColumnCaregiver)
	}

	var rows []models.ScheduleRow
	for i, cells := range table[1:] {
		record := make(map[string]string, len(header))
		blank := true
		for col, name := range header {
			if name == "" {
				continue
			}
			var value string
			if col < len(cells) {
				value = cells[col]
			}
			if strings.TrimSpace(value) != "" {
				blank = false
			}
			record[name] = value
		}
		if blank {
			continue
		}
		rows = append(rows, models.RowFromRecord(i+1, record))
	}
	return rows, nil
}
