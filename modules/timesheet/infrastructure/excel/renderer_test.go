package excel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/leavesync/modules/leave/domain/leave"
	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

var june = calendar.Month{Year: 2026, Month: time.June}

type oneEmployee struct{}

func (oneEmployee) Resolve(externalID, name string) (int, bool) {
	return 7, externalID == "E-7"
}

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "June 2026"))
	header := grid.BuildHeader(june)
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	require.NoError(t, f.SetSheetRow("June 2026", "A2", &row))
	require.NoError(t, f.SetCellValue("June 2026", "A1", "Timesheet"))
	require.NoError(t, f.SetSheetRow("June 2026", "A3", &[]any{"E-7", "Ann Lee", "Apollo", 8}))

	l, err := grid.ParseLayout(header, june)
	require.NoError(t, err)
	override, err := excelize.CoordinatesToCellName(l.Weeks[3].Override+1, 3)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("June 2026", override, "TRUE"))
	manual, err := excelize.CoordinatesToCellName(l.Days[23]+1, 3)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("June 2026", manual, 3))

	path := filepath.Join(dir, "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func rawValue(t *testing.T, f *excelize.File, sheet string, col, line int) string {
	t.Helper()
	axis, err := excelize.CoordinatesToCellName(col+1, line)
	require.NoError(t, err)
	v, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestRenderer_WritesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir)
	out := filepath.Join(dir, "out")

	r, err := Open(template, out)
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2026, time.June, 30, 17, 4, 5, 0, time.UTC) }

	raw, err := r.ReadSheet(context.Background(), "June 2026")
	require.NoError(t, err)
	data := grid.FindHeader(raw)
	require.Equal(t, 2, data.HeaderRow)
	l, err := grid.ParseLayout(data.Header, june)
	require.NoError(t, err)
	rows := grid.ParseRows(l, data)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Override[3])

	plan := grid.Apply(l, rows, grid.Input{
		Holidays: []leave.Holiday{{Day: 24, Name: "Midsummer"}},
		Leaves: map[int][]leave.Day{7: {
			{EmployeeID: 7, Day: 10},
			{EmployeeID: 7, Day: 12, HalfDay: true, Part: leave.DurationMorning},
		}},
		Resolver: oneEmployee{},
	})
	require.NoError(t, r.WriteSheet(context.Background(), "June 2026", plan))

	path, err := r.Finish(context.Background())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "template_20260630_170405.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := "June 2026"
	require.Equal(t, "8", rawValue(t, f, sheet, l.Days[1], 3))
	require.Equal(t, "", rawValue(t, f, sheet, l.Days[6], 3), "weekend")
	require.Equal(t, "0", rawValue(t, f, sheet, l.Days[10], 3), "full leave")
	require.Equal(t, "4", rawValue(t, f, sheet, l.Days[12], 3), "half leave")
	require.Equal(t, "3", rawValue(t, f, sheet, l.Days[23], 3), "override week is untouched")
	require.Equal(t, "", rawValue(t, f, sheet, l.Days[24], 3), "override week wins over holidays")
	require.Equal(t, "8", rawValue(t, f, sheet, l.Days[29], 3))

	tpl, err := excelize.OpenFile(template)
	require.NoError(t, err)
	defer tpl.Close()
	require.Equal(t, "", rawValue(t, tpl, sheet, l.Days[10], 3), "template must stay pristine")
}

func TestRenderer_CreatesMissingSheet(t *testing.T) {
	r := New("fresh", t.TempDir())

	raw, err := r.ReadSheet(context.Background(), "June 2026")
	require.NoError(t, err)
	require.Nil(t, raw)

	l := grid.NewLayout(june)
	rows := []grid.Row{{Line: 2, ExternalID: "E-7", Name: "Ann Lee", Project: "Apollo"}}
	plan := grid.Apply(l, rows, grid.Input{Resolver: oneEmployee{}})
	plan.NewLayout = true
	require.NoError(t, r.WriteSheet(context.Background(), "June 2026", plan))

	got, err := r.File().GetRows("June 2026")
	require.NoError(t, err)
	require.Equal(t, "ID", got[0][0])
	require.Equal(t, "Validated", got[0][l.Weeks[0].Validated])
	require.Equal(t, "Ann Lee", got[1][l.Name])
	require.Equal(t, "8", rawValue(t, r.File(), "June 2026", l.Days[2], 2))
}
