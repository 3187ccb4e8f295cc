// Package leave turns HR API time-off requests into per-day leave records for
// one month and distributes freed hours across an employee's project rows.
package leave

import (
	"sort"
	"strings"

	"github.com/iota-uz/leavesync/pkg/calendar"
)

type Status int

// StatusApproved is the only status whose requests produce leave days.
const StatusApproved Status = 3

func (s Status) String() string {
	switch s {
	case 1:
		return "pending"
	case 2:
		return "rejected"
	case StatusApproved:
		return "approved"
	case 4:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Duration describes how much of a boundary day a request covers.
type Duration int

const (
	DurationFull      Duration = 1
	DurationMorning   Duration = 2
	DurationAfternoon Duration = 3
)

func (d Duration) IsHalf() bool {
	return d == DurationMorning || d == DurationAfternoon
}

func (d Duration) String() string {
	switch d {
	case DurationMorning:
		return "morning"
	case DurationAfternoon:
		return "afternoon"
	default:
		return "full"
	}
}

type Request struct {
	ID            int      `json:"id"`
	EmployeeID    int      `json:"employee_id"`
	Type          string   `json:"type"`
	Status        Status   `json:"status"`
	Start         string   `json:"start"`
	End           string   `json:"end,omitempty"`
	StartDuration Duration `json:"start_duration"`
	EndDuration   Duration `json:"end_duration"`
}

func (r Request) Approved() bool {
	return r.Status == StatusApproved
}

// Day is one working day of leave inside the target month.
type Day struct {
	EmployeeID int      `json:"employee_id"`
	RequestID  int      `json:"request_id"`
	Day        int      `json:"day"`
	HalfDay    bool     `json:"half_day"`
	Part       Duration `json:"part"`
	Type       string   `json:"type"`
}

type Holiday struct {
	Day  int    `json:"day"`
	Name string `json:"name"`
}

// RawHoliday is a holiday as listed by the shared calendar.
type RawHoliday struct {
	Date string
	Name string
}

// HolidaysForMonth keeps the parseable holidays that fall inside m, one per
// day, sorted by day. Names of duplicate days are joined.
func HolidaysForMonth(raw []RawHoliday, m calendar.Month) []Holiday {
	byDay := map[int]*Holiday{}
	for _, h := range raw {
		t, err := calendar.ParseDate(h.Date)
		if err != nil || !m.Contains(t) {
			continue
		}
		name := strings.TrimSpace(h.Name)
		if existing, ok := byDay[t.Day()]; ok {
			if name != "" && !strings.Contains(existing.Name, name) {
				existing.Name = strings.TrimPrefix(existing.Name+" / "+name, " / ")
			}
			continue
		}
		byDay[t.Day()] = &Holiday{Day: t.Day(), Name: name}
	}
	out := make([]Holiday, 0, len(byDay))
	for _, h := range byDay {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func HolidaySet(holidays []Holiday) map[int]bool {
	set := make(map[int]bool, len(holidays))
	for _, h := range holidays {
		set[h.Day] = true
	}
	return set
}

// Balance is the remaining allowance of one time-off type.
type Balance struct {
	EmployeeID int     `json:"employee_id"`
	Type       string  `json:"type"`
	Unit       string  `json:"unit"`
	Balance    float64 `json:"balance"`
	Used       float64 `json:"used"`
}
