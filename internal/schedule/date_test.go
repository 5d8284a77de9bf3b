package schedule

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := civil.Date{Year: 2025, Month: 3, Day: 24}

	cases := []struct {
		input string
		want  civil.Date
	}{
		{"24/03/2025", want},
		{"2025-03-24", want},
		{"March 24, 2025", want},
		{"24-03-2025", want},
		{"24.03.2025", want},
		{"24/3/25", want},
		{"  24/03/2025 ", want},
		{"01/04/2025", civil.Date{Year: 2025, Month: 4, Day: 1}},
		{"05/06/2025", civil.Date{Year: 2025, Month: 6, Day: 5}},
		{"01/04/2025 10:00", civil.Date{Year: 2025, Month: 4, Day: 1}},
		{"24/03/2025 10:00", want},
		{"24/03/2025 10:00:30", want},
		{"03/24/2025", want},
		{"3/24/25", want},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			got, err := ParseDate(c.input)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	cases := []string{
		"",
		"not-a-date",
		"morgen",
		"24/03/2025 bring diapers",
		"31/02/2025",
		"24/13/2025",
		"13/13/2025",
	}

	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDate(input)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
		})
	}
}
