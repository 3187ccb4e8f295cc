// Package metrics collects per-run counters and pushes them to a Prometheus
// Pushgateway when one is configured. A sync run is a batch job, so there is
// no scrape endpoint.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "leavesync"

type Run struct {
	registry *prometheus.Registry
	started  time.Time

	apiRequests    *prometheus.CounterVec
	employeeErrors prometheus.Counter
	leaveDays      *prometheus.CounterVec
	rowsWritten    *prometheus.CounterVec
	duration       prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

func NewRun(command string) *Run {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"command": command}
	r := &Run{
		registry: reg,
		started:  time.Now(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "api_requests_total",
			Help:        "HR API requests by endpoint and status code.",
			ConstLabels: labels,
		}, []string{"endpoint", "code"}),
		employeeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "employee_errors_total",
			Help:        "Employees whose per-employee lookups failed.",
			ConstLabels: labels,
		}),
		leaveDays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "leave_days_total",
			Help:        "Expanded leave days by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rows_written_total",
			Help:        "Rows written per output.",
			ConstLabels: labels,
		}, []string{"output"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall time of the last run.",
			ConstLabels: labels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(r.apiRequests, r.employeeErrors, r.leaveDays, r.rowsWritten, r.duration, r.lastSuccess)
	return r
}

func (r *Run) ObserveRequest(endpoint string, status int) {
	r.apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func (r *Run) EmployeeError() { r.employeeErrors.Inc() }

func (r *Run) LeaveDays(full, half int) {
	r.leaveDays.WithLabelValues("full").Add(float64(full))
	r.leaveDays.WithLabelValues("half").Add(float64(half))
}

func (r *Run) RowsWritten(output string, n int) {
	r.rowsWritten.WithLabelValues(output).Add(float64(n))
}

// Finish records the run duration and, on success, the completion time.
func (r *Run) Finish(err error) {
	r.duration.Set(time.Since(r.started).Seconds())
	if err == nil {
		r.lastSuccess.SetToCurrentTime()
	}
}

func (r *Run) Registry() *prometheus.Registry { return r.registry }

// Push sends the collected metrics to the gateway. An empty url is a no-op.
func (r *Run) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(r.registry).PushContext(ctx)
}
