package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
	"github.com/iota-uz/leavesync/pkg/hrapi"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newHRServer serves two employees and one approved request in June 2026.
func newHRServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api-token-auth/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"token": "tok"})
	})
	mux.HandleFunc("GET /employees/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"results": []map[string]any{
				{"id": 2, "full_name": "Bob Stone", "hire_date": "01/10/2026"},
				{"id": 1, "full_name": "Ann Lee", "hire_date": "15/03/2019"},
			},
			"next": nil,
		})
	})
	mux.HandleFunc("GET /dashboard/terminations/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"employee": 1, "termination_date": "2026-10-20"}})
	})
	mux.HandleFunc("GET /employees/{id}/base-data/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"employee_code": "E-" + r.PathValue("id")})
	})
	mux.HandleFunc("GET /employees/{id}/job/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"job_title": "Engineer", "team": "Apollo", "department": "R&D"})
	})
	mux.HandleFunc("GET /employees/{id}/time-off-types/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": 1, "name": "Vacation", "unit": "days", "balance": 12.5, "used": 3}})
	})
	mux.HandleFunc("GET /employees/{id}/time-off-calendar/", func(w http.ResponseWriter, r *http.Request) {
		var requests []map[string]any
		if r.PathValue("id") == "1" {
			requests = append(requests, map[string]any{
				"id": 7, "employee": 1, "status": hrapi.StatusApproved, "time_off_type_name": "Vacation",
				"effective_date": "10/06/2026", "end_date": "12/06/2026",
				"effective_date_duration": 1, "end_date_duration": 3,
			})
		}
		writeJSON(w, map[string]any{
			"time_off_requests": requests,
			"holidays":          []map[string]string{{"date": "24/06/2026", "name": "Midsummer"}},
		})
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != hrapi.TokenPath && r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("HR_API_BASE_URL", baseURL)
	t.Setenv("HR_API_SUBDOMAIN", "acme")
	t.Setenv("HR_API_USERNAME", "hr")
	t.Setenv("HR_API_PASSWORD", "pw")
	t.Setenv("CACHE_URL", t.TempDir())
	t.Setenv("LOG_LEVEL", "silent")
	t.Setenv("PUSHGATEWAY_URL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("HR_API_RATE_LIMIT", "0")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts := &rootOptions{now: func() time.Time { return time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC) }}
	cmd := newRootCmdWith(opts)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestFetchThenExcel(t *testing.T) {
	setEnv(t, newHRServer(t).URL)
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "leaves.json")

	out, err := run(t, "fetch", "--month", "6", "--year", "2026", "--output", snapPath)
	require.NoError(t, err)
	require.Contains(t, out, `"status":"fetched"`)

	var snap snapshot
	require.NoError(t, readJSONFile(snapPath, &snap))
	require.Len(t, snap.Employees, 2)
	require.Equal(t, "Ann Lee", snap.Employees[0].Name)
	require.Equal(t, "E-1", snap.Employees[0].ExternalID)
	require.Len(t, snap.Leaves.Requests, 1)
	require.Len(t, snap.Leaves.Days, 3)
	require.Len(t, snap.Leaves.Holidays, 1)
	require.Len(t, snap.Leaves.Balances, 2)

	outDir := filepath.Join(dir, "out")
	out, err = run(t, "excel", "--month", "6", "--year", "2026", "--cache", snapPath, "--output", outDir)
	require.NoError(t, err)
	require.Contains(t, out, `"status":"written"`)

	files, err := filepath.Glob(filepath.Join(outDir, "timesheet_2026-06_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	f, err := excelize.OpenFile(files[0])
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetRows("June 2026")
	require.NoError(t, err)
	require.Equal(t, grid.ColID, header[0][0])
	cell := func(axis string) string {
		v, err := f.GetCellValue("June 2026", axis, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	// Ann Lee is on line 2. June 2026 starts on a Monday, so day 10 sits
	// after the first week's two marker columns.
	require.Equal(t, "Ann Lee", cell("B2"))
	require.Equal(t, "8", cell("N2"))
	require.Equal(t, "0", cell("O2"))
	require.Equal(t, "4", cell("Q2"))
	require.Equal(t, "8", cell("N3"))
}

func TestExportCSVOnly(t *testing.T) {
	setEnv(t, newHRServer(t).URL)
	outDir := t.TempDir()
	out, err := run(t, "export", "--month", "6", "--year", "2026", "--output", outDir, "--push", "--csv-only")
	require.NoError(t, err)
	require.Contains(t, out, `"status":"exported"`)

	b, err := os.ReadFile(filepath.Join(outDir, "leave_requests_2026-06.csv"))
	require.NoError(t, err)
	require.Contains(t, string(b), "1,Ann Lee,Vacation,10/06/2026,12/06/2026,full,afternoon,approved,2.5")
	_, err = os.Stat(filepath.Join(outDir, "leave_balances_2026-06.csv"))
	require.NoError(t, err)
}

func TestFloaterCapacity(t *testing.T) {
	setEnv(t, newHRServer(t).URL)
	dir := t.TempDir()
	capacity := filepath.Join(dir, "capacity.csv")
	require.NoError(t, os.WriteFile(capacity, []byte("employee_id,name,free_hours\nE-2,Bob Stone,42\n"), 0o600))

	out, err := run(t, "floater", "--month", "6", "--year", "2026", "--capacity", capacity, "--output", dir)
	require.NoError(t, err)
	require.Contains(t, out, `"employees":2`)

	b, err := os.ReadFile(filepath.Join(dir, "floater_2026-06.csv"))
	require.NoError(t, err)
	// 21 working days after the holiday: Bob is 25% free, Ann has no record.
	require.Contains(t, string(b), "1,Ann Lee,R&D,Apollo,false,false,168,0,168.00,2.5,100.00")
	require.Contains(t, string(b), "2,Bob Stone,R&D,Apollo,false,true,168,0,42.00,0,25.00")
	_, err = os.Stat(filepath.Join(dir, "floater_2026-06.md"))
	require.NoError(t, err)

	_, err = run(t, "floater", "--month", "6", "--year", "2026", "--output", dir)
	require.Equal(t, exitUsage, exitCode(err))
}

func TestReport(t *testing.T) {
	setEnv(t, newHRServer(t).URL)
	out, err := run(t, "report", "--recent-days", "30")
	require.NoError(t, err)
	require.Contains(t, out, "## New hires (1)")
	require.Contains(t, out, "| Bob Stone | E-2 | Engineer | Apollo | 01/10/2026 |")
	require.Contains(t, out, "## Terminations (1)")
	require.Contains(t, out, "| Ann Lee | E-1 | Engineer | Apollo | 20/10/2026 |")
	require.Contains(t, out, "## Leavers in October 2026 (1)")

	out, err = run(t, "report", "--month", "9", "--year", "2026")
	require.NoError(t, err)
	require.Contains(t, out, "## Leavers in September 2026 (0)\n\nNone.")

	path := filepath.Join(t.TempDir(), "report.md")
	_, err = run(t, "report", "--output", path)
	require.NoError(t, err)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), "## Leavers in October 2026 (1)")

	_, err = run(t, "report", "--output", filepath.Join(t.TempDir(), "missing", "report.md"))
	require.Equal(t, exitWrite, exitCode(err))

	_, err = run(t, "report", "--month", "13")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestConfigurationErrors(t *testing.T) {
	setEnv(t, "")
	_, err := run(t, "fetch", "--month", "6", "--year", "2026")
	require.Error(t, err)
	require.Equal(t, exitUsage, exitCode(err))

	setEnv(t, newHRServer(t).URL)
	_, err = run(t, "fetch", "--month", "13", "--year", "2026", "--output", filepath.Join(t.TempDir(), "x.json"))
	require.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{withCode(exitWrite, fmt.Errorf("disk full")), exitWrite},
		{fmt.Errorf("sheet: %w", grid.ErrLayoutMismatch), exitValidation},
		{fmt.Errorf("login: %w", hrapi.ErrAuthentication), exitAPI},
		{&hrapi.APIError{StatusCode: 500}, exitAPI},
		{apiCode(fmt.Errorf("boom")), exitAPI},
		{apiCode(withCode(exitUsage, fmt.Errorf("bad"))), exitUsage},
		{fmt.Errorf("other"), 1},
	}
	for _, c := range cases {
		require.Equal(t, c.want, exitCode(c.err))
	}
}
