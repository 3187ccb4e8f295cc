package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRun_Counters(t *testing.T) {
	r := NewRun("fetch")
	r.ObserveRequest("/employees/", 200)
	r.ObserveRequest("/employees/", 200)
	r.ObserveRequest("/employees/:id/job/", 500)
	r.EmployeeError()
	r.LeaveDays(3, 1)
	r.RowsWritten("csv", 12)

	require.InDelta(t, 2, testutil.ToFloat64(r.apiRequests.WithLabelValues("/employees/", "200")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.apiRequests.WithLabelValues("/employees/:id/job/", "500")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.employeeErrors), 0)
	require.InDelta(t, 3, testutil.ToFloat64(r.leaveDays.WithLabelValues("full")), 0)
	require.InDelta(t, 12, testutil.ToFloat64(r.rowsWritten.WithLabelValues("csv")), 0)

	r.Finish(errors.New("failed"))
	require.Zero(t, testutil.ToFloat64(r.lastSuccess))
	r.Finish(nil)
	require.Positive(t, testutil.ToFloat64(r.lastSuccess))
}

func TestRun_Push(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRun("export")
	r.Finish(nil)
	require.NoError(t, r.Push(context.Background(), "", "leavesync"))
	require.Empty(t, gotPath)

	require.NoError(t, r.Push(context.Background(), srv.URL, "leavesync"))
	require.Equal(t, "/metrics/job/leavesync", gotPath)
}
