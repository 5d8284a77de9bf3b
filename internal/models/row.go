package models

import "strings"

// Column headers of the schedule sheet.
const (
	ColumnWeek      = "Week nummer"
	ColumnDate      = "Datum"
	ColumnCaregiver = "Oppas"
	ColumnComments  = "Comments"
)

// ScheduleRow is one line of the babysitting schedule.
type ScheduleRow struct {
	Number     int // 1-based position among the data rows
	WeekNumber string
	Date       string
	Caregiver  string
	Comments   string
}

// RowFromRecord maps a header-keyed record onto a ScheduleRow.
// Surrounding whitespace is trimmed from every field except the comments.
func RowFromRecord(number int, record map[string]string) ScheduleRow {
	return ScheduleRow{
		Number:     number,
		WeekNumber: strings.TrimSpace(record[ColumnWeek]),
		Date:       strings.TrimSpace(record[ColumnDate]),
		Caregiver:  strings.TrimSpace(record[ColumnCaregiver]),
		Comments:   record[ColumnComments],
	}
}

// EmailDirectory maps caregiver names to email addresses.
type EmailDirectory map[string]string

// Lookup returns the address registered for name. Names must match exactly.
func (d EmailDirectory) Lookup(name string) (string, bool) {
	email, ok := d[name]
	email = strings.TrimSpace(email)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}
