package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// Renderer reads and writes month sheets of one destination: an Excel
// workbook or a Google spreadsheet.
type Renderer interface {
	// ReadSheet returns the rows of the sheet. A missing sheet is returned
	// empty and created on write.
	ReadSheet(ctx context.Context, name string) ([][]string, error)
	WriteSheet(ctx context.Context, name string, plan *grid.Plan) error
	// Finish persists the destination and returns where it was written.
	Finish(ctx context.Context) (string, error)
}

type SyncInput struct {
	Month  calendar.Month
	Sheets []string
	Grid   grid.Input
	// Employees seed the rows of a sheet that has no header yet.
	Employees []employee.Employee
}

type SheetResult struct {
	Name      string
	Rows      int
	Unmatched []grid.Row
	Counts    map[grid.Kind]int
	Err       error
}

type SyncReport struct {
	Output string
	Sheets []SheetResult
}

// Failed lists the sheets that were skipped.
func (r *SyncReport) Failed() []SheetResult {
	var out []SheetResult
	for _, s := range r.Sheets {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

type RowCounter interface {
	RowsWritten(output string, n int)
}

type TimesheetService struct {
	log     *logrus.Entry
	counter RowCounter
}

func NewTimesheetService(log *logrus.Entry) *TimesheetService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &TimesheetService{log: log.WithField("component", "timesheet")}
}

func (s *TimesheetService) WithRowCounter(c RowCounter) *TimesheetService {
	s.counter = c
	return s
}

// Sync plans and writes every sheet. A sheet whose layout does not match is
// reported and skipped; the other sheets are still written. Any other error
// aborts the run.
func (s *TimesheetService) Sync(ctx context.Context, r Renderer, output string, in SyncInput) (*SyncReport, error) {
	if len(in.Sheets) == 0 {
		in.Sheets = []string{in.Month.String()}
	}
	report := &SyncReport{}
	for _, name := range in.Sheets {
		log := s.log.WithField("sheet", name)
		res, err := s.syncSheet(ctx, r, name, in)
		if err != nil {
			if !errors.Is(err, grid.ErrLayoutMismatch) {
				return nil, errors.Wrapf(err, "sheet %q", name)
			}
			log.WithError(err).Error("sheet skipped")
			report.Sheets = append(report.Sheets, SheetResult{Name: name, Err: err})
			continue
		}
		for _, row := range res.Unmatched {
			log.WithFields(logrus.Fields{
				"line": row.Line,
				"id":   row.ExternalID,
				"name": row.Name,
			}).Warn("row does not match any employee")
		}
		log.WithFields(logrus.Fields{
			"rows":       res.Rows,
			"leave":      res.Counts[grid.KindLeave],
			"half_leave": res.Counts[grid.KindHalfLeave],
			"override":   res.Counts[grid.KindOverride],
		}).Info("sheet planned")
		if s.counter != nil {
			s.counter.RowsWritten(output, res.Rows)
		}
		report.Sheets = append(report.Sheets, *res)
	}

	dest, err := r.Finish(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "save timesheet")
	}
	report.Output = dest
	return report, nil
}

func (s *TimesheetService) syncSheet(ctx context.Context, r Renderer, name string, in SyncInput) (*SheetResult, error) {
	raw, err := r.ReadSheet(ctx, name)
	if err != nil {
		return nil, err
	}
	data := grid.FindHeader(raw)

	var (
		layout *grid.Layout
		rows   []grid.Row
		fresh  bool
	)
	if data.Empty() {
		layout = grid.NewLayout(in.Month)
		rows = SeedRows(in.Employees)
		fresh = true
	} else {
		layout, err = grid.ParseLayout(data.Header, in.Month)
		if err != nil {
			return nil, err
		}
		rows = grid.ParseRows(layout, data)
	}

	plan := grid.Apply(layout, rows, in.Grid)
	plan.NewLayout = fresh
	if err := r.WriteSheet(ctx, name, plan); err != nil {
		return nil, err
	}

	counts := map[grid.Kind]int{}
	for _, rp := range plan.Rows {
		for _, c := range rp.Cells {
			counts[c.Kind]++
		}
	}
	return &SheetResult{
		Name:      name,
		Rows:      len(plan.Rows),
		Unmatched: plan.Unmatched(),
		Counts:    counts,
	}, nil
}

// SeedRows builds one row per employee for a sheet created from scratch. Rows
// start below a header on line 1.
func SeedRows(employees []employee.Employee) []grid.Row {
	rows := make([]grid.Row, 0, len(employees))
	for i, e := range employees {
		rows = append(rows, grid.Row{
			Line:       i + 2,
			ExternalID: e.ExternalID,
			Name:       e.Name,
			Project:    e.Team,
		})
	}
	return rows
}
