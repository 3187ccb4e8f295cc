package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/leavesync/modules/export"
	hrmsvc "github.com/iota-uz/leavesync/modules/hrm/services"
)

type reportOptions struct {
	month      int
	year       int
	recentDays int
	output     string
}

func newReportCmd(root *rootOptions) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a Markdown report of recent hires, terminations and the month's leavers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "report", root)
			if err != nil {
				return err
			}
			return a.finish(cmd.Context(), runReport(cmd, a, opts))
		},
	}
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month of the leavers section, 1-12 (default from run file or current)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year of the leavers section (default from run file or current)")
	cmd.Flags().IntVar(&opts.recentDays, "recent-days", 0, "Window in days around today (default from run file)")
	cmd.Flags().StringVar(&opts.output, "output", "-", "Markdown output path, - for stdout")
	return cmd
}

func runReport(cmd *cobra.Command, a *app, opts reportOptions) error {
	days := opts.recentDays
	if days <= 0 {
		days = a.run.RecentDays
	}
	m, err := a.month(opts.month, opts.year)
	if err != nil {
		return err
	}
	employees, err := a.directory(cmd.Context())
	if err != nil {
		return err
	}
	now := a.now()
	report := export.StaffReport{
		GeneratedAt:  now,
		Days:         days,
		Hires:        hrmsvc.RecentHires(employees, now, days),
		Terminations: hrmsvc.RecentTerminations(employees, now, days),
		Month:        m,
		Leavers:      hrmsvc.LeaversIn(employees, m),
	}
	if err := writeReport(cmd.OutOrStdout(), opts.output, report); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"hires":        len(report.Hires),
		"terminations": len(report.Terminations),
		"leavers":      len(report.Leavers),
	}).Info("report written")
	return nil
}

// writeReport writes to stdout for "-" or an empty path, else to a file whose
// close error is reported like any other write failure.
func writeReport(stdout io.Writer, path string, report export.StaffReport) error {
	if path == "-" || stringsTrim(path) == "" {
		if err := report.WriteMarkdown(stdout); err != nil {
			return withCode(exitWrite, err)
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return withCode(exitWrite, err)
	}
	if err := report.WriteMarkdown(f); err != nil {
		_ = f.Close()
		return withCode(exitWrite, err)
	}
	if err := f.Close(); err != nil {
		return withCode(exitWrite, err)
	}
	return nil
}
