package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/leavesync/pkg/configuration"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	now        func() time.Time
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{now: time.Now})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "leavesync",
		Short:         "Sync HR leave data into timesheets, CSV exports and floater reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Run file (YAML or TOML)")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", configuration.DefaultEnvFiles, "Env files loaded before the environment")

	cmd.AddCommand(newFetchCmd(opts))
	cmd.AddCommand(newExcelCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newFloaterCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
