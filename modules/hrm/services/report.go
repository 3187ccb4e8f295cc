package services

import (
	"time"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// withinDays reports whether t lies at most days calendar days from now, in
// either direction.
func withinDays(t *time.Time, now time.Time, days int) bool {
	if t == nil || days < 0 {
		return false
	}
	diff := calendar.Truncate(now).Sub(*t)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}

// RecentHires keeps employees whose hire date is within days of now.
func RecentHires(employees []employee.Employee, now time.Time, days int) []employee.Employee {
	var out []employee.Employee
	for _, e := range employees {
		if withinDays(e.HireDate, now, days) {
			out = append(out, e)
		}
	}
	return out
}

// RecentTerminations keeps employees whose termination date is within days
// of now.
func RecentTerminations(employees []employee.Employee, now time.Time, days int) []employee.Employee {
	var out []employee.Employee
	for _, e := range employees {
		if withinDays(e.TerminationDate, now, days) {
			out = append(out, e)
		}
	}
	return out
}

// LeaversIn keeps employees terminated inside m.
func LeaversIn(employees []employee.Employee, m calendar.Month) []employee.Employee {
	var out []employee.Employee
	for _, e := range employees {
		if e.LeavesIn(m) {
			out = append(out, e)
		}
	}
	return out
}
