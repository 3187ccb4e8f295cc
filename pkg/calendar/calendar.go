// Package calendar holds the month arithmetic shared by leave expansion,
// floater calculation and the timesheet layout.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// HoursPerDay is the nominal length of a working day.
const HoursPerDay = 8

var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	time.RFC3339,
}

// ParseDate parses the HR API's day/month/year dates. ISO dates are accepted
// as well since the termination dashboard returns them.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.Wrap(ErrInvalidDate, "empty value")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return Truncate(t), nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidDate, "%q", v)
}

// ParseOptionalDate returns nil for empty or malformed values.
func ParseOptionalDate(v string) *time.Time {
	t, err := ParseDate(v)
	if err != nil {
		return nil
	}
	return &t
}

// Truncate drops the time of day and moves t to UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Month identifies a calendar month of a year.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func NewMonth(year int, month time.Month) (Month, error) {
	if month < time.January || month > time.December {
		return Month{}, errors.Errorf("month out of range: %d", month)
	}
	if year < 1970 || year > 9999 {
		return Month{}, errors.Errorf("year out of range: %d", year)
	}
	return Month{Year: year, Month: month}, nil
}

func CurrentMonth(now time.Time) Month {
	return Month{Year: now.Year(), Month: now.Month()}
}

func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

func (m Month) Days() int {
	return m.Last().Day()
}

func (m Month) Date(day int) time.Time {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
}

func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) IsWeekend(day int) bool {
	return IsWeekend(m.Date(day))
}

// Weekdays lists the Monday..Friday days of the month.
func (m Month) Weekdays() []int {
	out := make([]int, 0, 23)
	for d := 1; d <= m.Days(); d++ {
		if !m.IsWeekend(d) {
			out = append(out, d)
		}
	}
	return out
}

// WorkingDays counts weekdays that are not holidays.
func (m Month) WorkingDays(holidays map[int]bool) int {
	n := 0
	for _, d := range m.Weekdays() {
		if !holidays[d] {
			n++
		}
	}
	return n
}

// Weeks splits the month into Monday..Sunday weeks. The first and last week
// may be partial.
func (m Month) Weeks() [][]int {
	var (
		weeks   [][]int
		current []int
	)
	for d := 1; d <= m.Days(); d++ {
		current = append(current, d)
		if m.Date(d).Weekday() == time.Sunday {
			weeks = append(weeks, current)
			current = nil
		}
	}
	if len(current) > 0 {
		weeks = append(weeks, current)
	}
	return weeks
}

// WeekOf returns the zero-based index into Weeks for day.
func (m Month) WeekOf(day int) int {
	offset := (int(m.First().Weekday()) + 6) % 7 // Monday=0
	return (day - 1 + offset) / 7
}

func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) String() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}
