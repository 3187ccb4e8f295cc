// Package export writes the flat outputs of a run: CSV tables, the JSON
// leave snapshot and Markdown reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// Table is a header plus rows of already formatted cells. The same value
// feeds CSV files and Google Sheets tabs.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Values returns the header followed by the rows.
func (t Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	return append(out, t.Rows...)
}

func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Values()); err != nil {
		return errors.Wrapf(err, "write %s csv", t.Name)
	}
	return nil
}

// SaveCSV writes t to dir/<t.Name>.csv and returns the path.
func SaveCSV(dir string, t Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "mkdir %s", dir)
	}
	path := filepath.Join(dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", path)
	}
	return path, nil
}

func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func LoadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
