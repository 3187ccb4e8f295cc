package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRunFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
month: 6
year: 2026
excluded_employees: ["Support Team", "Admin"]
proration: proportional
excel:
  template: templates/timesheet.xlsx
  sheets: ["Team A", "Team B"]
google_sheets:
  spreadsheet_id: abc123
floater:
  average_salary: 4200
  currency: usd
`), 0o644))

	r, err := LoadRunFile(path)
	require.NoError(t, err)
	require.Equal(t, 6, r.Month)
	require.Equal(t, []string{"Support Team", "Admin"}, r.ExcludedEmployees)
	require.Equal(t, "proportional", r.Proration)
	require.Equal(t, []string{"Team A", "Team B"}, r.Excel.Sheets)
	require.Equal(t, "USD", r.Floater.Currency)
	require.Equal(t, 30, r.RecentDays)
	require.Equal(t, "Leave Requests", r.GoogleSheets.LeaveRequestsSheet)
}

func TestLoadRunFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
month = 3
year = 2026
recent_days = 14

[floater]
average_salary = 3000.5
`), 0o644))

	r, err := LoadRunFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, r.Month)
	require.Equal(t, 14, r.RecentDays)
	require.InDelta(t, 3000.5, r.Floater.AverageSalary, 0.0001)
	require.Equal(t, "equal", r.Proration)
}

func TestLoadRunFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("month: 13\n"), 0o644))
	_, err := LoadRunFile(bad)
	require.Error(t, err)

	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("proration: random\n"), 0o644))
	_, err = LoadRunFile(policy)
	require.Error(t, err)

	ext := filepath.Join(dir, "run.ini")
	require.NoError(t, os.WriteFile(ext, []byte("x=1\n"), 0o644))
	_, err = LoadRunFile(ext)
	require.Error(t, err)
}

func TestLoadRunFile_Empty(t *testing.T) {
	r, err := LoadRunFile("")
	require.NoError(t, err)
	require.Equal(t, "equal", r.Proration)
	require.Equal(t, "EUR", r.Floater.Currency)
}
