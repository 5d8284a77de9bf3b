package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

// ParseError reports a date cell that could not be read as a calendar date.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %q as a date: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("cannot parse %q as a date", e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// numericDate matches day-month-year dates such as 24/03/2025, 24-3-25 or 24.03.2025,
// optionally followed by a time of day as Sheets renders date-time cells.
var numericDate = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})(?:\s+\d{1,2}:\d{2}(?::\d{2})?)?$`)

// dateWords are the only alphabetic tokens a date cell may contain.
var dateWords = map[string]bool{
	"st": true, "nd": true, "rd": true, "th": true,
}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		dateWords[name] = true
		dateWords[name[:3]] = true
	}
	dateWords["sept"] = true
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		dateWords[name] = true
		dateWords[name[:3]] = true
	}
}

// ParseDate reads a free-form date cell into a calendar date.
// Ambiguous numeric dates are read day first. Words other than month names,
// weekday names and ordinal suffixes make the whole cell invalid.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, &ParseError{Input: s, Err: fmt.Errorf("empty date")}
	}
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return civil.Date{}, &ParseError{Input: s, Err: fmt.Errorf("no date token")}
	}
	if word := unknownWord(s); word != "" {
		return civil.Date{}, &ParseError{Input: s, Err: fmt.Errorf("unexpected word %q", word)}
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		return dayFirst(s, m[1], m[2], m[3])
	}

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false), dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return civil.Date{}, &ParseError{Input: s, Err: err}
	}
	return civil.DateOf(t), nil
}

func dayFirst(input, day, month, year string) (civil.Date, error) {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if len(year) == 2 {
		y += 2000
	}
	// A month that cannot exist next to a valid day means the cell was written month first.
	if m > 12 && d <= 12 {
		d, m = m, d
	}

	date := civil.Date{Year: y, Month: time.Month(m), Day: d}
	if !date.IsValid() {
		return civil.Date{}, &ParseError{Input: input, Err: fmt.Errorf("day %d of month %d does not exist", d, m)}
	}
	return date, nil
}

func unknownWord(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if !dateWords[w] {
			return w
		}
	}
	return ""
}
