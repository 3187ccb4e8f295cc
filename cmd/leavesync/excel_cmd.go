package main

import (
	"fmt"

	"github.com/spf13/cobra"

	hrmsvc "github.com/iota-uz/leavesync/modules/hrm/services"
	"github.com/iota-uz/leavesync/modules/leave/domain/leave"
	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
	tssvc "github.com/iota-uz/leavesync/modules/timesheet/services"
	"github.com/iota-uz/leavesync/modules/timesheet/infrastructure/excel"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

type excelOptions struct {
	month    int
	year     int
	template string
	output   string
	sheets   []string
	snapshot string
	useCache bool
}

func newExcelCmd(root *rootOptions) *cobra.Command {
	var opts excelOptions
	cmd := &cobra.Command{
		Use:   "excel",
		Short: "Write the month's hours into a timestamped copy of an Excel timesheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "excel", root)
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), runExcel(cmd, a, opts))
		},
	}
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month number 1-12")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year")
	cmd.Flags().StringVar(&opts.template, "template", "", "Template workbook (default from run file; empty builds a new workbook)")
	cmd.Flags().StringVar(&opts.output, "output", "output", "Output directory")
	cmd.Flags().StringSliceVar(&opts.sheets, "sheet", nil, "Sheets to fill (default from run file, then the month name)")
	cmd.Flags().StringVar(&opts.snapshot, "cache", "", "Read employees and leaves from a fetch JSON file instead of the API")
	cmd.Flags().BoolVar(&opts.useCache, "use-cache", false, "Reuse leave data cached by an earlier run with the same roster")
	return cmd
}

// gridInput builds the per-day decision input shared by the Excel and Google
// Sheets renderers.
func gridInput(a *app, snap *snapshot) (grid.Input, error) {
	strategy, err := leave.StrategyByName(a.run.Proration)
	if err != nil {
		return grid.Input{}, withCode(exitUsage, err)
	}
	return grid.Input{
		Holidays: snap.Leaves.Holidays,
		Leaves:   snap.Leaves.ByEmployee(),
		Strategy: strategy,
		Resolver: hrmsvc.NewMatcher(snap.Employees),
	}, nil
}

type sheetSummary struct {
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
	Unmatched int    `json:"unmatched"`
	Error     string `json:"error,omitempty"`
}

func summarizeSheets(report *tssvc.SyncReport) []sheetSummary {
	out := make([]sheetSummary, 0, len(report.Sheets))
	for _, s := range report.Sheets {
		sum := sheetSummary{Name: s.Name, Rows: s.Rows, Unmatched: len(s.Unmatched)}
		if s.Err != nil {
			sum.Error = s.Err.Error()
		}
		out = append(out, sum)
	}
	return out
}

func failedSheets(report *tssvc.SyncReport) error {
	if failed := report.Failed(); len(failed) > 0 {
		return withCode(exitValidation, fmt.Errorf("%d sheet(s) skipped on layout mismatch, first: %s: %w", len(failed), failed[0].Name, failed[0].Err))
	}
	return nil
}

func openWorkbook(template, outDir string, m calendar.Month) (*excel.Renderer, error) {
	if stringsTrim(template) == "" {
		return excel.New("timesheet_"+m.Key(), outDir), nil
	}
	r, err := excel.Open(template, outDir)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return r, nil
}

func runExcel(cmd *cobra.Command, a *app, opts excelOptions) error {
	ctx := cmd.Context()
	m, err := a.month(opts.month, opts.year)
	if err != nil {
		return err
	}
	template := opts.template
	if template == "" {
		template = a.run.Excel.Template
	}
	sheets := opts.sheets
	if len(sheets) == 0 {
		sheets = a.run.Excel.Sheets
	}

	snap, err := a.load(ctx, m, loadOptions{snapshotPath: opts.snapshot, useCache: opts.useCache})
	if err != nil {
		return err
	}
	in, err := gridInput(a, snap)
	if err != nil {
		return err
	}
	renderer, err := openWorkbook(template, opts.output, m)
	if err != nil {
		return err
	}

	svc := tssvc.NewTimesheetService(a.log).WithRowCounter(a.metrics)
	report, err := svc.Sync(ctx, renderer, "excel", tssvc.SyncInput{
		Month:     m,
		Sheets:    sheets,
		Grid:      in,
		Employees: snap.Employees,
	})
	if err != nil {
		return withCode(exitWrite, err)
	}

	type excelSummary struct {
		Status string         `json:"status"`
		Month  string         `json:"month"`
		Output string         `json:"output"`
		Sheets []sheetSummary `json:"sheets"`
	}
	if err := writeJSONLine(cmd.OutOrStdout(), excelSummary{
		Status: "written",
		Month:  m.Key(),
		Output: report.Output,
		Sheets: summarizeSheets(report),
	}); err != nil {
		return err
	}
	return failedSheets(report)
}
