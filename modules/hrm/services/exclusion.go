package services

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
)

func foldName(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// Exclusions drops shared accounts by display name, compared with Unicode
// case folding.
type Exclusions struct {
	names map[string]struct{}
}

func NewExclusions(names []string) Exclusions {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if f := foldName(n); f != "" {
			set[f] = struct{}{}
		}
	}
	return Exclusions{names: set}
}

func (x Exclusions) Excluded(name string) bool {
	_, ok := x.names[foldName(name)]
	return ok
}

func (x Exclusions) Filter(employees []employee.Employee) []employee.Employee {
	if len(x.names) == 0 {
		return employees
	}
	out := make([]employee.Employee, 0, len(employees))
	for _, e := range employees {
		if !x.Excluded(e.Name) {
			out = append(out, e)
		}
	}
	return out
}
