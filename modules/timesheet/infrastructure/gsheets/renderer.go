// Package gsheets renders timesheet plans and flat tables into a Google
// spreadsheet through the Sheets v4 values API.
package gsheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
)

// NewService authenticates with a service account key file.
func NewService(ctx context.Context, credentialsFile string) (*sheets.Service, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errors.New("google credentials file is not configured")
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "read google credentials")
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, errors.Wrap(err, "parse google credentials")
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}
	return svc, nil
}

type Renderer struct {
	svc           *sheets.Service
	spreadsheetID string
	titles        map[string]bool
}

func New(svc *sheets.Service, spreadsheetID string) *Renderer {
	return &Renderer{svc: svc, spreadsheetID: spreadsheetID}
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func a1(sheet string, col, line int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), name, line)
}

func a1Range(sheet string, fromCol, toCol, line int) string {
	from, _ := excelize.ColumnNumberToName(fromCol + 1)
	to, _ := excelize.ColumnNumberToName(toCol + 1)
	return fmt.Sprintf("%s!%s%d:%s%d", quoteSheet(sheet), from, line, to, line)
}

func (r *Renderer) loadTitles(ctx context.Context) error {
	if r.titles != nil {
		return nil
	}
	ss, err := r.svc.Spreadsheets.Get(r.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, "get spreadsheet")
	}
	r.titles = map[string]bool{}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			r.titles[s.Properties.Title] = true
		}
	}
	return nil
}

func (r *Renderer) ensureSheet(ctx context.Context, name string) error {
	if err := r.loadTitles(ctx); err != nil {
		return err
	}
	if r.titles[name] {
		return nil
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
		}},
	}
	if _, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "add sheet %s", name)
	}
	r.titles[name] = true
	return nil
}

func (r *Renderer) ReadSheet(ctx context.Context, name string) ([][]string, error) {
	if err := r.loadTitles(ctx); err != nil {
		return nil, err
	}
	if !r.titles[name] {
		return nil, nil
	}
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, quoteSheet(name)).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", name)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}

// WriteSheet sends one batch update holding every writable cell of the plan.
// Contiguous cells of a row share a range; marker columns and override weeks
// split the ranges so that they are never overwritten.
func (r *Renderer) WriteSheet(ctx context.Context, name string, plan *grid.Plan) error {
	if err := r.ensureSheet(ctx, name); err != nil {
		return err
	}
	l := plan.Layout
	var data []*sheets.ValueRange
	if plan.NewLayout {
		header := make([]any, len(l.Header))
		for i, h := range l.Header {
			header[i] = h
		}
		data = append(data, &sheets.ValueRange{
			Range:  a1Range(name, 0, len(header)-1, 1),
			Values: [][]any{header},
		})
	}

	for _, rp := range plan.Rows {
		values := map[int]any{}
		if plan.NewLayout {
			values[l.ID] = rp.Row.ExternalID
			values[l.Name] = rp.Row.Name
			values[l.Project] = rp.Row.Project
		}
		for _, c := range rp.Cells {
			switch {
			case c.Kind == grid.KindOverride:
				continue
			case c.Blank:
				values[l.Days[c.Day]] = ""
			default:
				values[l.Days[c.Day]] = c.Hours.InexactFloat64()
			}
		}
		data = append(data, rowRanges(name, rp.Row.Line, values)...)
	}
	if len(data) == 0 {
		return nil
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := r.svc.Spreadsheets.Values.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "write sheet %s", name)
	}
	return nil
}

// rowRanges groups the values of one line into contiguous column runs.
func rowRanges(sheet string, line int, values map[int]any) []*sheets.ValueRange {
	if len(values) == 0 {
		return nil
	}
	maxCol := 0
	for col := range values {
		maxCol = max(maxCol, col)
	}
	var (
		out   []*sheets.ValueRange
		start = -1
		run   []any
	)
	flush := func(end int) {
		if start < 0 {
			return
		}
		var rng string
		if start == end {
			rng = a1(sheet, start, line)
		} else {
			rng = a1Range(sheet, start, end, line)
		}
		out = append(out, &sheets.ValueRange{Range: rng, Values: [][]any{run}})
		start, run = -1, nil
	}
	for col := 0; col <= maxCol; col++ {
		v, ok := values[col]
		if !ok {
			flush(col - 1)
			continue
		}
		if start < 0 {
			start = col
		}
		run = append(run, v)
	}
	flush(maxCol)
	return out
}

// ReplaceValues clears a sheet and writes rows starting at A1, creating the
// sheet when needed.
func (r *Renderer) ReplaceValues(ctx context.Context, name string, rows [][]string) error {
	if err := r.ensureSheet(ctx, name); err != nil {
		return err
	}
	if _, err := r.svc.Spreadsheets.Values.Clear(r.spreadsheetID, quoteSheet(name), &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "clear sheet %s", name)
	}
	if len(rows) == 0 {
		return nil
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = make([]any, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	vr := &sheets.ValueRange{Values: values}
	if _, err := r.svc.Spreadsheets.Values.Update(r.spreadsheetID, quoteSheet(name)+"!A1", vr).ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "write sheet %s", name)
	}
	return nil
}

func (r *Renderer) Finish(_ context.Context) (string, error) {
	return "https://docs.google.com/spreadsheets/d/" + r.spreadsheetID, nil
}
