package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/leavesync/modules/export"
	tssvc "github.com/iota-uz/leavesync/modules/timesheet/services"
	"github.com/iota-uz/leavesync/modules/timesheet/infrastructure/gsheets"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

type exportOptions struct {
	month         int
	year          int
	output        string
	credentials   string
	spreadsheetID string
	snapshot      string
	useCache      bool
	push          bool
	csvOnly       bool
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export leave requests and balances to CSV and optionally to Google Sheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "export", root)
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), runExport(cmd, a, opts))
		},
	}
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month number 1-12")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year")
	cmd.Flags().StringVar(&opts.output, "output", "output", "Output directory for CSV files")
	cmd.Flags().StringVar(&opts.credentials, "credentials", "", "Google service account JSON (default GOOGLE_CREDENTIALS_FILE)")
	cmd.Flags().StringVar(&opts.spreadsheetID, "spreadsheet", "", "Target spreadsheet id (default from run file)")
	cmd.Flags().StringVar(&opts.snapshot, "cache", "", "Read employees and leaves from a fetch JSON file instead of the API")
	cmd.Flags().BoolVar(&opts.useCache, "use-cache", false, "Reuse leave data cached by an earlier run with the same roster")
	cmd.Flags().BoolVar(&opts.push, "push", false, "Also write the tables and timesheet hours to Google Sheets")
	cmd.Flags().BoolVar(&opts.csvOnly, "csv-only", false, "Never write to Google Sheets, even with --push")
	return cmd
}

// sheetsTarget opens the Google Sheets renderer for the export and floater
// commands.
func sheetsTarget(ctx context.Context, a *app, credentials, spreadsheetID string) (*gsheets.Renderer, error) {
	if credentials == "" {
		credentials = a.cfg.Google.CredentialsFile
	}
	if spreadsheetID == "" {
		spreadsheetID = a.run.GoogleSheets.SpreadsheetID
	}
	if stringsTrim(credentials) == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--credentials or GOOGLE_CREDENTIALS_FILE is required with --push"))
	}
	if stringsTrim(spreadsheetID) == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--spreadsheet or google_sheets.spreadsheet_id is required with --push"))
	}
	svc, err := gsheets.NewService(ctx, credentials)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	return gsheets.New(svc, spreadsheetID), nil
}

func pushTable(ctx context.Context, a *app, r *gsheets.Renderer, sheet string, t export.Table) error {
	if err := r.ReplaceValues(ctx, sheet, t.Values()); err != nil {
		return withCode(exitWrite, err)
	}
	a.metrics.RowsWritten("gsheets", len(t.Rows))
	a.log.WithField("sheet", sheet).WithField("rows", len(t.Rows)).Info("table pushed")
	return nil
}

func runExport(cmd *cobra.Command, a *app, opts exportOptions) error {
	ctx := cmd.Context()
	m, err := a.month(opts.month, opts.year)
	if err != nil {
		return err
	}
	snap, err := a.load(ctx, m, loadOptions{snapshotPath: opts.snapshot, useCache: opts.useCache, balances: true})
	if err != nil {
		return err
	}

	tables := []export.Table{
		export.RequestsTable(snap.Leaves, snap.Employees),
		export.BalancesTable(snap.Leaves, snap.Employees),
	}
	var files []string
	for _, t := range tables {
		path, err := writeCSV(opts.output, t)
		if err != nil {
			return err
		}
		a.metrics.RowsWritten("csv", len(t.Rows))
		files = append(files, path)
	}

	type exportSummary struct {
		Status      string         `json:"status"`
		Month       string         `json:"month"`
		Files       []string       `json:"files"`
		Spreadsheet string         `json:"spreadsheet,omitempty"`
		Sheets      []sheetSummary `json:"sheets,omitempty"`
	}
	summary := exportSummary{Status: "exported", Month: m.Key(), Files: files}
	if !opts.push || opts.csvOnly {
		return writeJSONLine(cmd.OutOrStdout(), summary)
	}

	url, report, err := pushExport(ctx, a, m, snap, tables, opts)
	if err != nil {
		return err
	}
	summary.Spreadsheet = url
	summary.Sheets = summarizeSheets(report)
	if err := writeJSONLine(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	return failedSheets(report)
}

func pushExport(ctx context.Context, a *app, m calendar.Month, snap *snapshot, tables []export.Table, opts exportOptions) (string, *tssvc.SyncReport, error) {
	r, err := sheetsTarget(ctx, a, opts.credentials, opts.spreadsheetID)
	if err != nil {
		return "", nil, err
	}
	if err := pushTable(ctx, a, r, a.run.GoogleSheets.LeaveRequestsSheet, tables[0]); err != nil {
		return "", nil, err
	}
	if err := pushTable(ctx, a, r, a.run.GoogleSheets.BalancesSheet, tables[1]); err != nil {
		return "", nil, err
	}

	in, err := gridInput(a, snap)
	if err != nil {
		return "", nil, err
	}
	svc := tssvc.NewTimesheetService(a.log).WithRowCounter(a.metrics)
	report, err := svc.Sync(ctx, r, "gsheets", tssvc.SyncInput{
		Month:     m,
		Sheets:    a.run.GoogleSheets.Sheets,
		Grid:      in,
		Employees: snap.Employees,
	})
	if err != nil {
		return "", nil, withCode(exitWrite, err)
	}
	return report.Output, report, nil
}
