package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearsBetween(t *testing.T) {
	birth := Date(1998, 5, 10)

	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"day before birthday", Date(2026, 5, 9), 27},
		{"on birthday", Date(2026, 5, 10), 28},
		{"day after birthday", Date(2026, 5, 11), 28},
		{"earlier month", Date(2026, 4, 30), 27},
		{"later month", Date(2026, 6, 1), 28},
		{"same year", Date(1998, 12, 31), 0},
		{"ref before birth", Date(1990, 1, 1), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, YearsBetween(birth, tc.ref))
		})
	}
}

func TestYearsBetweenCrossTimezone(t *testing.T) {
	birth := Date(2000, 1, 1)
	// 01:30 UTC on the birthday is still the previous day in Buenos Aires.
	ref := time.Date(2026, 1, 1, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, 25, YearsBetween(birth, ref))
}

func TestStartAndEndOfMonth(t *testing.T) {
	mid := time.Date(2024, 6, 15, 14, 30, 45, 0, BuenosAiresTZ)

	start := StartOfMonth(mid)
	assert.Equal(t, Date(2024, 6, 1), start)

	end := EndOfMonth(mid)
	assert.Equal(t, 30, end.Day())
	assert.Equal(t, time.June, end.Month())
	assert.True(t, end.Before(Date(2024, 7, 1)))
}

func TestStartOfDay(t *testing.T) {
	moment := time.Date(2024, 6, 15, 23, 59, 59, 0, BuenosAiresTZ)
	assert.Equal(t, Date(2024, 6, 15), StartOfDay(moment))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/03/2024", FormatDate(Date(2024, 3, 5)))
	assert.Equal(t, "31/12/2024", FormatDate(Date(2024, 12, 31)))
}

func TestFormatDateTime(t *testing.T) {
	moment := time.Date(2024, 3, 5, 9, 7, 0, 0, BuenosAiresTZ)
	assert.Equal(t, "05/03/2024 09:07", FormatDateTime(moment))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 6, 15, 1, 0, 0, 0, BuenosAiresTZ)
	b := time.Date(2024, 6, 15, 23, 0, 0, 0, BuenosAiresTZ)
	assert.True(t, SameDay(a, b))

	// 02:00 UTC is 23:00 of the previous day in Buenos Aires.
	utc := time.Date(2024, 6, 16, 2, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(a, utc))
	assert.False(t, SameDay(a, Date(2024, 6, 16)))
}
