package services

import (
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
)

var (
	ErrNotFound       = errors.New("employee not found")
	ErrAmbiguousMatch = errors.New("ambiguous employee match")
)

// Matcher reconciles spreadsheet rows with directory employees. Lookups try
// the external id, then the case-folded name, then a unique substring match
// and finally a fuzzy ranking. Name matching is collision-prone, so any tie
// is reported as ErrAmbiguousMatch instead of guessing.
type Matcher struct {
	employees  []employee.Employee
	byExternal map[string]int
	byName     map[string][]int
	folded     []string
}

func NewMatcher(employees []employee.Employee) *Matcher {
	m := &Matcher{
		employees:  employees,
		byExternal: make(map[string]int, len(employees)),
		byName:     make(map[string][]int, len(employees)),
		folded:     make([]string, len(employees)),
	}
	for i, e := range employees {
		if ext := strings.TrimSpace(e.ExternalID); ext != "" {
			m.byExternal[ext] = i
		}
		name := foldName(e.Name)
		m.folded[i] = name
		if name != "" {
			m.byName[name] = append(m.byName[name], i)
		}
	}
	return m
}

func (m *Matcher) Find(externalID, name string) (employee.Employee, error) {
	if i, ok := m.byExternal[strings.TrimSpace(externalID)]; ok {
		return m.employees[i], nil
	}
	query := foldName(name)
	if query == "" {
		return employee.Employee{}, errors.Wrapf(ErrNotFound, "id %q", externalID)
	}

	if hits := m.byName[query]; len(hits) > 0 {
		return m.pick(hits, name)
	}

	var partial []int
	for i, candidate := range m.folded {
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
			partial = append(partial, i)
		}
	}
	if len(partial) > 0 {
		return m.pick(partial, name)
	}

	if hits := m.fuzzy(query); len(hits) > 0 {
		return m.pick(hits, name)
	}
	return employee.Employee{}, errors.Wrapf(ErrNotFound, "name %q", name)
}

// Resolve returns the internal id of the matched employee.
func (m *Matcher) Resolve(externalID, name string) (int, bool) {
	e, err := m.Find(externalID, name)
	if err != nil {
		return 0, false
	}
	return e.ID, true
}

func (m *Matcher) pick(hits []int, name string) (employee.Employee, error) {
	if len(hits) > 1 {
		return employee.Employee{}, errors.Wrapf(ErrAmbiguousMatch, "%q matches %d employees", name, len(hits))
	}
	return m.employees[hits[0]], nil
}

// fuzzy returns the indexes of the closest ranked candidates.
func (m *Matcher) fuzzy(query string) []int {
	ranks := fuzzy.RankFindNormalizedFold(query, m.folded)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)
	best := ranks[0].Distance
	var out []int
	for _, r := range ranks {
		if r.Distance != best {
			break
		}
		out = append(out, r.OriginalIndex)
	}
	return out
}
