package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("10/06/2026")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-03-15")
	require.NoError(t, err)
	require.Equal(t, 15, d.Day())

	_, err = ParseDate("31/02/2026")
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("  ")
	require.ErrorIs(t, err, ErrInvalidDate)

	require.Nil(t, ParseOptionalDate("garbage"))
}

func TestMonth_Weekdays(t *testing.T) {
	m := Month{Year: 2026, Month: time.June}
	require.Equal(t, 30, m.Days())
	require.Len(t, m.Weekdays(), 22)
	require.Equal(t, 21, m.WorkingDays(map[int]bool{1: true, 6: true}))
}

func TestMonth_Weeks(t *testing.T) {
	// June 2026 starts on a Monday.
	m := Month{Year: 2026, Month: time.June}
	weeks := m.Weeks()
	require.Len(t, weeks, 5)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, weeks[0])
	require.Equal(t, []int{29, 30}, weeks[4])

	for i, week := range weeks {
		for _, d := range week {
			require.Equal(t, i, m.WeekOf(d), "day %d", d)
		}
	}

	// March 2026 starts on a Sunday, so the first week is a single day.
	m = Month{Year: 2026, Month: time.March}
	weeks = m.Weeks()
	require.Equal(t, []int{1}, weeks[0])
	require.Equal(t, 0, m.WeekOf(1))
	require.Equal(t, 1, m.WeekOf(2))
}

func TestNewMonth(t *testing.T) {
	_, err := NewMonth(2026, 13)
	require.Error(t, err)

	m, err := NewMonth(2026, time.March)
	require.NoError(t, err)
	require.Equal(t, "2026-03", m.Key())
	require.Equal(t, "March 2026", m.String())
}
