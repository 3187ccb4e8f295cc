// Package allocation reads per-employee project hours for the floater
// calculation, either from a workbook of project timesheets or from a
// capacity CSV export.
package allocation

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/leavesync/modules/floater/domain/floater"
	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// Resolver maps a source row to an internal employee id.
type Resolver interface {
	Resolve(externalID, name string) (int, bool)
}

// ExcelSource sums the day cells of every project sheet of a workbook laid
// out like the month timesheets. Sheets that do not carry the month layout
// are skipped.
type ExcelSource struct {
	Path     string
	Sheets   []string
	Resolver Resolver
	Log      *logrus.Entry
}

func (s *ExcelSource) Name() string { return "allocation workbook " + s.Path }

func (s *ExcelSource) Hours(_ context.Context, m calendar.Month) (map[int]floater.Hours, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open allocation workbook %s", s.Path)
	}
	defer f.Close()

	log := s.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	sheets := s.Sheets
	if len(sheets) == 0 {
		sheets = f.GetSheetList()
	}

	out := map[int]floater.Hours{}
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, errors.Wrapf(err, "read sheet %s", name)
		}
		data := grid.FindHeader(rows)
		if data.Empty() {
			continue
		}
		layout, err := grid.ParseLayout(data.Header, m)
		if err != nil {
			log.WithError(err).WithField("sheet", name).Warn("allocation sheet skipped")
			continue
		}
		for _, row := range grid.ParseRows(layout, data) {
			id, ok := s.Resolver.Resolve(row.ExternalID, row.Name)
			if !ok {
				log.WithFields(logrus.Fields{
					"sheet": name,
					"line":  row.Line,
					"name":  row.Name,
				}).Warn("allocation row does not match any employee")
				continue
			}
			total := decimal.Zero
			for _, h := range row.Hours {
				total = total.Add(h)
			}
			out[id] = out[id].Add(floater.Allocated(total))
		}
	}
	return out, nil
}
