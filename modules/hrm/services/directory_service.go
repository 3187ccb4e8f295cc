package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/pkg/calendar"
	"github.com/iota-uz/leavesync/pkg/hrapi"
)

// DirectoryAPI is the part of the HR API the directory reads.
type DirectoryAPI interface {
	Employees(ctx context.Context) ([]hrapi.Employee, error)
	Terminations(ctx context.Context) ([]hrapi.Termination, error)
	BaseData(ctx context.Context, employeeID int) (*hrapi.BaseData, error)
	Job(ctx context.Context, employeeID int) (*hrapi.Job, error)
}

// ErrorCounter is notified once per employee whose lookups failed.
type ErrorCounter interface {
	EmployeeError()
}

type DirectoryService struct {
	api        DirectoryAPI
	exclusions Exclusions
	batchSize  int
	log        *logrus.Entry
	errors     ErrorCounter
}

func NewDirectoryService(api DirectoryAPI, excluded []string, batchSize int, log *logrus.Entry) *DirectoryService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &DirectoryService{
		api:        api,
		exclusions: NewExclusions(excluded),
		batchSize:  batchSize,
		log:        log.WithField("component", "directory"),
	}
}

func (s *DirectoryService) WithErrorCounter(c ErrorCounter) *DirectoryService {
	s.errors = c
	return s
}

type enrichment struct {
	base   *hrapi.BaseData
	job    *hrapi.Job
	errors []string
}

// Fetch returns the employee directory sorted by name. Excluded accounts are
// removed before any per-employee lookup. Base data and job failures are kept
// on the employee's Error field; only the list and termination endpoints are
// fatal.
func (s *DirectoryService) Fetch(ctx context.Context) ([]employee.Employee, error) {
	raw, err := s.api.Employees(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list employees")
	}

	employees := make([]employee.Employee, 0, len(raw))
	for _, r := range raw {
		employees = append(employees, employee.Employee{
			ID:       r.ID,
			Name:     r.DisplayName(),
			HireDate: calendar.ParseOptionalDate(r.HireDate),
			Status:   r.Status,
		})
	}
	before := len(employees)
	employees = s.exclusions.Filter(employees)
	if dropped := before - len(employees); dropped > 0 {
		s.log.WithField("count", dropped).Debug("excluded employees dropped")
	}

	terminations, err := s.api.Terminations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list terminations")
	}
	terminatedAt := make(map[int]*time.Time, len(terminations))
	for _, t := range terminations {
		if d := calendar.ParseOptionalDate(t.TerminationDate); d != nil {
			terminatedAt[t.EmployeeID] = d
		}
	}

	results := hrapi.Batch(ctx, employee.IDs(employees), s.batchSize, s.enrich)
	failed := 0
	for i := range employees {
		e := &employees[i]
		e.TerminationDate = terminatedAt[e.ID]

		res := results[i]
		if res.Err != nil {
			e.Error = res.Err.Error()
		} else {
			applyEnrichment(e, res.Value)
		}
		if e.HasError() {
			failed++
			s.log.WithFields(logrus.Fields{
				"employee_id": e.ID,
				"name":        e.Name,
			}).Warn(e.Error)
			if s.errors != nil {
				s.errors.EmployeeError()
			}
		}
	}

	sort.SliceStable(employees, func(i, j int) bool {
		return strings.ToLower(employees[i].Name) < strings.ToLower(employees[j].Name)
	})
	s.log.WithFields(logrus.Fields{
		"employees":    len(employees),
		"terminations": len(terminatedAt),
		"failed":       failed,
	}).Info("directory fetched")
	return employees, nil
}

func (s *DirectoryService) enrich(ctx context.Context, id int) (enrichment, error) {
	if err := ctx.Err(); err != nil {
		return enrichment{}, err
	}
	var out enrichment
	base, err := s.api.BaseData(ctx, id)
	if err != nil {
		out.errors = append(out.errors, "base data: "+err.Error())
	} else {
		out.base = base
	}
	job, err := s.api.Job(ctx, id)
	if err != nil {
		out.errors = append(out.errors, "job: "+err.Error())
	} else {
		out.job = job
	}
	return out, nil
}

func applyEnrichment(e *employee.Employee, en enrichment) {
	if en.base != nil {
		e.ExternalID = strings.TrimSpace(en.base.EmployeeCode)
		if e.HireDate == nil {
			e.HireDate = calendar.ParseOptionalDate(en.base.HireDate)
		}
	}
	if en.job != nil {
		e.Title = strings.TrimSpace(en.job.Title)
		e.Team = strings.TrimSpace(en.job.Team)
		e.Department = strings.TrimSpace(en.job.Department)
	}
	if len(en.errors) > 0 {
		e.Error = strings.Join(en.errors, "; ")
	}
}
