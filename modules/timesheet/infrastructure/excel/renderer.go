// Package excel renders timesheet plans into a copy of an Excel template.
package excel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
)

var fills = map[grid.Kind]string{
	grid.KindWeekend:   "#D9D9D9",
	grid.KindHoliday:   "#F4B183",
	grid.KindLeave:     "#A9D08E",
	grid.KindHalfLeave: "#E2EFDA",
}

// Renderer edits an in-memory copy of the template. The template file itself
// is never written; Finish saves a timestamped copy into the output
// directory.
type Renderer struct {
	file     *excelize.File
	template string
	outDir   string
	now      func() time.Time
	styles   map[grid.Kind]int
}

func Open(template, outDir string) (*Renderer, error) {
	f, err := excelize.OpenFile(template)
	if err != nil {
		return nil, errors.Wrapf(err, "open template %s", template)
	}
	return newRenderer(f, template, outDir), nil
}

// New starts from an empty workbook.
func New(name, outDir string) *Renderer {
	return newRenderer(excelize.NewFile(), name, outDir)
}

func newRenderer(f *excelize.File, template, outDir string) *Renderer {
	return &Renderer{
		file:     f,
		template: template,
		outDir:   outDir,
		now:      time.Now,
		styles:   map[grid.Kind]int{},
	}
}

func (r *Renderer) File() *excelize.File {
	return r.file
}

func (r *Renderer) hasSheet(name string) bool {
	idx, err := r.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (r *Renderer) ReadSheet(_ context.Context, name string) ([][]string, error) {
	if !r.hasSheet(name) {
		return nil, nil
	}
	rows, err := r.file.GetRows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", name)
	}
	return rows, nil
}

func (r *Renderer) style(kind grid.Kind) (int, error) {
	if id, ok := r.styles[kind]; ok {
		return id, nil
	}
	s := &excelize.Style{NumFmt: 2}
	if color, ok := fills[kind]; ok {
		s.Fill = excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	if kind == grid.KindHoliday || kind == grid.KindLeave {
		s.Font = &excelize.Font{Italic: true}
	}
	id, err := r.file.NewStyle(s)
	if err != nil {
		return 0, errors.Wrap(err, "create style")
	}
	r.styles[kind] = id
	return id, nil
}

func (r *Renderer) WriteSheet(_ context.Context, name string, plan *grid.Plan) error {
	if !r.hasSheet(name) {
		if _, err := r.file.NewSheet(name); err != nil {
			return errors.Wrapf(err, "create sheet %s", name)
		}
	}
	l := plan.Layout
	if plan.NewLayout {
		header := make([]any, len(l.Header))
		for i, h := range l.Header {
			header[i] = h
		}
		if err := r.file.SetSheetRow(name, "A1", &header); err != nil {
			return errors.Wrapf(err, "write header of %s", name)
		}
	}

	for _, rp := range plan.Rows {
		if plan.NewLayout {
			meta := map[int]string{l.ID: rp.Row.ExternalID, l.Name: rp.Row.Name, l.Project: rp.Row.Project}
			for col, v := range meta {
				if err := r.setValue(name, col, rp.Row.Line, v); err != nil {
					return err
				}
			}
		}
		for _, c := range rp.Cells {
			if c.Kind == grid.KindOverride {
				continue
			}
			if err := r.writeCell(name, l.Days[c.Day], rp.Row.Line, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) setValue(sheet string, col, line int, v any) error {
	axis, err := excelize.CoordinatesToCellName(col+1, line)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	if err := r.file.SetCellValue(sheet, axis, v); err != nil {
		return errors.Wrapf(err, "write %s!%s", sheet, axis)
	}
	return nil
}

func (r *Renderer) writeCell(sheet string, col, line int, c grid.Cell) error {
	axis, err := excelize.CoordinatesToCellName(col+1, line)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	if c.Blank {
		err = r.file.SetCellDefault(sheet, axis, "")
	} else {
		err = r.file.SetCellFloat(sheet, axis, c.Hours.InexactFloat64(), -1, 64)
	}
	if err != nil {
		return errors.Wrapf(err, "write %s!%s", sheet, axis)
	}
	style, err := r.style(c.Kind)
	if err != nil {
		return err
	}
	return r.file.SetCellStyle(sheet, axis, axis, style)
}

// OutputPath is the timestamped file name Finish writes to.
func (r *Renderer) OutputPath() string {
	base := strings.TrimSuffix(filepath.Base(r.template), filepath.Ext(r.template))
	if base == "" || base == "." {
		base = "timesheet"
	}
	return filepath.Join(r.outDir, base+"_"+r.now().Format("20060102_150405")+".xlsx")
}

func (r *Renderer) Finish(_ context.Context) (string, error) {
	path := r.OutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create output directory")
	}
	if err := r.file.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "save %s", path)
	}
	return path, r.file.Close()
}
