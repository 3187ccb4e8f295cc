package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iota-uz/leavesync/modules/export"
	"github.com/iota-uz/leavesync/modules/floater/infrastructure/allocation"
	floatersvc "github.com/iota-uz/leavesync/modules/floater/services"
	hrmsvc "github.com/iota-uz/leavesync/modules/hrm/services"
)

type floaterOptions struct {
	month         int
	year          int
	allocation    string
	capacity      string
	output        string
	snapshot      string
	useCache      bool
	push          bool
	credentials   string
	spreadsheetID string
}

func newFloaterCmd(root *rootOptions) *cobra.Command {
	var opts floaterOptions
	cmd := &cobra.Command{
		Use:   "floater",
		Short: "Compute floater percentages and costs from project allocations or free capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "floater", root)
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), runFloater(cmd, a, opts))
		},
	}
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month number 1-12")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year")
	cmd.Flags().StringVar(&opts.allocation, "allocation", "", "Allocation workbook with one sheet per project")
	cmd.Flags().StringVar(&opts.capacity, "capacity", "", "Capacity CSV with precomputed free hours")
	cmd.Flags().StringVar(&opts.output, "output", "output", "Output directory")
	cmd.Flags().StringVar(&opts.snapshot, "cache", "", "Read employees and leaves from a fetch JSON file instead of the API")
	cmd.Flags().BoolVar(&opts.useCache, "use-cache", false, "Reuse leave data cached by an earlier run with the same roster")
	cmd.Flags().BoolVar(&opts.push, "push", false, "Also write the floater table to Google Sheets")
	cmd.Flags().StringVar(&opts.credentials, "credentials", "", "Google service account JSON (default GOOGLE_CREDENTIALS_FILE)")
	cmd.Flags().StringVar(&opts.spreadsheetID, "spreadsheet", "", "Target spreadsheet id (default from run file)")
	cmd.MarkFlagsMutuallyExclusive("allocation", "capacity")
	return cmd
}

func floaterSource(a *app, opts floaterOptions, matcher *hrmsvc.Matcher) (floatersvc.HoursSource, error) {
	workbook, capacity := opts.allocation, opts.capacity
	if workbook == "" && capacity == "" {
		workbook, capacity = a.run.Floater.AllocationWorkbook, a.run.Floater.CapacityCSV
	}
	switch {
	case workbook != "" && capacity != "":
		return nil, withCode(exitUsage, fmt.Errorf("set either an allocation workbook or a capacity csv, not both"))
	case workbook != "":
		return &allocation.ExcelSource{Path: workbook, Resolver: matcher, Log: a.log}, nil
	case capacity != "":
		return &allocation.CapacityCSVSource{Path: capacity, Resolver: matcher}, nil
	default:
		return nil, withCode(exitUsage, fmt.Errorf("--allocation or --capacity is required"))
	}
}

func runFloater(cmd *cobra.Command, a *app, opts floaterOptions) error {
	ctx := cmd.Context()
	m, err := a.month(opts.month, opts.year)
	if err != nil {
		return err
	}
	snap, err := a.load(ctx, m, loadOptions{snapshotPath: opts.snapshot, useCache: opts.useCache})
	if err != nil {
		return err
	}
	source, err := floaterSource(a, opts, hrmsvc.NewMatcher(snap.Employees))
	if err != nil {
		return err
	}

	svc := floatersvc.NewFloaterService(a.run.Floater.AverageSalary, a.run.Floater.Currency, a.log)
	records, err := svc.Compute(ctx, floatersvc.ComputeInput{
		Month:     m,
		Employees: snap.Employees,
		Holidays:  snap.Leaves.Holidays,
		Days:      snap.Leaves.Days,
		Source:    source,
	})
	if err != nil {
		return withCode(exitValidation, err)
	}

	table := export.FloaterTable(m, records)
	csvPath, err := writeCSV(opts.output, table)
	if err != nil {
		return err
	}
	a.metrics.RowsWritten("csv", len(table.Rows))
	mdPath := filepath.Join(opts.output, table.Name+".md")
	f, err := os.Create(mdPath)
	if err != nil {
		return withCode(exitWrite, err)
	}
	if err := export.WriteFloaterMarkdown(f, m, records); err != nil {
		_ = f.Close()
		return withCode(exitWrite, err)
	}
	if err := f.Close(); err != nil {
		return withCode(exitWrite, err)
	}

	type floaterSummary struct {
		Status      string   `json:"status"`
		Month       string   `json:"month"`
		Source      string   `json:"source"`
		Employees   int      `json:"employees"`
		Files       []string `json:"files"`
		Spreadsheet string   `json:"spreadsheet,omitempty"`
	}
	summary := floaterSummary{
		Status:    "computed",
		Month:     m.Key(),
		Source:    source.Name(),
		Employees: len(records),
		Files:     []string{csvPath, mdPath},
	}
	if opts.push {
		r, err := sheetsTarget(ctx, a, opts.credentials, opts.spreadsheetID)
		if err != nil {
			return err
		}
		if err := pushTable(ctx, a, r, a.run.GoogleSheets.FloaterSheet, table); err != nil {
			return err
		}
		if summary.Spreadsheet, err = r.Finish(ctx); err != nil {
			return withCode(exitWrite, err)
		}
	}
	return writeJSONLine(cmd.OutOrStdout(), summary)
}
