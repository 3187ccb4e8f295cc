// Package employee holds the per-run view of an HR API employee.
package employee

import (
	"time"

	"github.com/iota-uz/leavesync/pkg/calendar"
)

type Employee struct {
	ID              int        `json:"id"`
	ExternalID      string     `json:"external_id"`
	Name            string     `json:"name"`
	HireDate        *time.Time `json:"hire_date,omitempty"`
	TerminationDate *time.Time `json:"termination_date,omitempty"`
	Title           string     `json:"title,omitempty"`
	Team            string     `json:"team,omitempty"`
	Department      string     `json:"department,omitempty"`
	Status          string     `json:"status,omitempty"`
	// Error records a failed per-employee lookup. The employee is kept.
	Error string `json:"error,omitempty"`
}

// IsLeaver reports whether the termination date falls on or before the last
// day of m.
func (e Employee) IsLeaver(m calendar.Month) bool {
	return e.TerminationDate != nil && !e.TerminationDate.After(m.Last())
}

// LeavesIn reports whether the termination date falls inside m.
func (e Employee) LeavesIn(m calendar.Month) bool {
	return e.TerminationDate != nil && m.Contains(*e.TerminationDate)
}

func (e Employee) HasError() bool {
	return e.Error != ""
}

func IDs(employees []Employee) []int {
	out := make([]int, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.ID)
	}
	return out
}

func ByID(employees []Employee) map[int]Employee {
	out := make(map[int]Employee, len(employees))
	for _, e := range employees {
		out[e.ID] = e
	}
	return out
}
