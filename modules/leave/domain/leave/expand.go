package leave

import (
	"strings"

	"github.com/iota-uz/leavesync/pkg/calendar"
)

// Expand returns the working days of m covered by an approved request.
//
// Weekends and days outside m are dropped. Only the first and last day of the
// range can be half days: the first follows StartDuration, the last follows
// EndDuration, and a single-day request looks at StartDuration only. A request
// with an unparseable date yields nothing.
func Expand(r Request, m calendar.Month) []Day {
	if !r.Approved() {
		return nil
	}
	start, err := calendar.ParseDate(r.Start)
	if err != nil {
		return nil
	}
	end := start
	if strings.TrimSpace(r.End) != "" {
		end, err = calendar.ParseDate(r.End)
		if err != nil {
			return nil
		}
	}
	if end.Before(start) {
		return nil
	}

	var out []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if calendar.IsWeekend(d) || !m.Contains(d) {
			continue
		}
		part := DurationFull
		switch {
		case d.Equal(start):
			part = r.StartDuration
		case d.Equal(end):
			part = r.EndDuration
		}
		day := Day{
			EmployeeID: r.EmployeeID,
			RequestID:  r.ID,
			Day:        d.Day(),
			Part:       DurationFull,
			Type:       r.Type,
		}
		if part.IsHalf() {
			day.HalfDay = true
			day.Part = part
		}
		out = append(out, day)
	}
	return out
}

// ExpandAll expands every request and merges days that land on the same
// employee and day: a full day wins over a half day, and a morning plus an
// afternoon make a full day.
func ExpandAll(requests []Request, m calendar.Month) []Day {
	type key struct{ employee, day int }
	index := map[key]int{}
	var out []Day
	for _, r := range requests {
		for _, d := range Expand(r, m) {
			k := key{d.EmployeeID, d.Day}
			if i, ok := index[k]; ok {
				switch {
				case !out[i].HalfDay:
				case !d.HalfDay:
					out[i] = d
				case out[i].Part != d.Part:
					out[i].HalfDay = false
					out[i].Part = DurationFull
				}
				continue
			}
			index[k] = len(out)
			out = append(out, d)
		}
	}
	return out
}

// ByEmployee groups days by employee id.
func ByEmployee(days []Day) map[int][]Day {
	out := map[int][]Day{}
	for _, d := range days {
		out[d.EmployeeID] = append(out[d.EmployeeID], d)
	}
	return out
}
