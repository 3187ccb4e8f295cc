package main

import (
	"fmt"
	"strings"

	"github.com/iota-uz/leavesync/modules/export"
)

func stringsTrim(s string) string { return strings.TrimSpace(s) }

func writeJSONFile(path string, v any) error {
	if stringsTrim(path) == "" {
		return withCode(exitUsage, fmt.Errorf("--output is required"))
	}
	if err := export.SaveJSON(path, v); err != nil {
		return withCode(exitWrite, err)
	}
	return nil
}

func readJSONFile(path string, out any) error {
	if err := export.LoadJSON(path, out); err != nil {
		return withCode(exitUsage, err)
	}
	return nil
}

func writeCSV(dir string, t export.Table) (string, error) {
	if stringsTrim(dir) == "" {
		return "", withCode(exitUsage, fmt.Errorf("--output is required"))
	}
	path, err := export.SaveCSV(dir, t)
	if err != nil {
		return "", withCode(exitWrite, err)
	}
	return path, nil
}
