package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	hrmsvc "github.com/iota-uz/leavesync/modules/hrm/services"
	leavesvc "github.com/iota-uz/leavesync/modules/leave/services"
	"github.com/iota-uz/leavesync/pkg/cache"
	"github.com/iota-uz/leavesync/pkg/calendar"
	"github.com/iota-uz/leavesync/pkg/configuration"
	"github.com/iota-uz/leavesync/pkg/hrapi"
	"github.com/iota-uz/leavesync/pkg/metrics"
	"github.com/iota-uz/leavesync/pkg/tracing"
)

// app holds everything one command run needs. It is built after flags are
// parsed so that configuration errors surface before any request.
type app struct {
	name    string
	cfg     *configuration.Configuration
	run     *configuration.RunFile
	log     *logrus.Entry
	metrics *metrics.Run
	client  *hrapi.Client
	store   cache.Store
	now     func() time.Time

	span     trace.Span
	shutdown tracing.Shutdown
}

func newApp(cmd *cobra.Command, name string, opts *rootOptions) (*app, error) {
	run, err := configuration.LoadRunFile(opts.configPath)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	cfg, err := configuration.Load(opts.envFiles, cmd.ErrOrStderr())
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	shutdown, err := tracing.Setup(cmd.Context(), cfg.OTLPEndpoint, "leavesync", name)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	ctx, span := otel.Tracer("leavesync").Start(cmd.Context(), "leavesync "+name)
	cmd.SetContext(ctx)

	m := metrics.NewRun(name)
	client, err := hrapi.New(hrapi.Options{
		BaseURL:         cfg.HRAPI.BaseURL,
		Subdomain:       cfg.HRAPI.Subdomain,
		Username:        cfg.HRAPI.Username,
		Password:        cfg.HRAPI.Password,
		PageSize:        cfg.HRAPI.PageSize,
		MaxPages:        cfg.HRAPI.MaxPages,
		Timeout:         cfg.HRAPI.Timeout,
		RequestIDHeader: cfg.RequestIDHeader,
		Observer:        m,
		RateLimit:       cfg.HRAPI.RateLimit,
	})
	if err != nil {
		span.End()
		_ = shutdown(ctx)
		return nil, withCode(exitUsage, fmt.Errorf("hr api client: %w", err))
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return &app{
		name:    name,
		cfg:     cfg,
		run:     run,
		log:     logrus.NewEntry(cfg.Logger()).WithField("command", name),
		metrics: m,
		client:  client,
		now:     now,

		span:     span,
		shutdown: shutdown,
	}, nil
}

// cache opens the configured leave cache on first use.
func (a *app) cache() (cache.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := cache.Open(a.cfg.Cache.URL, a.cfg.Cache.TTL)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("open cache: %w", err))
	}
	a.store = store
	return store, nil
}

// finish records the outcome, pushes metrics when a gateway is configured
// and releases the cache. It returns err unchanged.
func (a *app) finish(ctx context.Context, err error) error {
	a.metrics.Finish(err)
	if perr := a.metrics.Push(ctx, a.cfg.PushgatewayURL, "leavesync_"+a.name); perr != nil {
		a.log.WithError(perr).Warn("metrics push failed")
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.WithError(cerr).Warn("cache close failed")
		}
	}
	if err != nil {
		a.span.RecordError(err)
		a.span.SetStatus(codes.Error, "command failed")
	}
	a.span.End()
	if serr := a.shutdown(ctx); serr != nil {
		a.log.WithError(serr).Warn("trace flush failed")
	}
	return err
}

// month resolves the target period: flags first, then the run file, then
// the current month.
func (a *app) month(month, year int) (calendar.Month, error) {
	current := calendar.CurrentMonth(a.now())
	if month == 0 {
		month = a.run.Month
	}
	if year == 0 {
		year = a.run.Year
	}
	if month == 0 {
		month = int(current.Month)
	}
	if year == 0 {
		year = current.Year
	}
	m, err := calendar.NewMonth(year, time.Month(month))
	if err != nil {
		return calendar.Month{}, withCode(exitUsage, fmt.Errorf("invalid period: %w", err))
	}
	return m, nil
}

func (a *app) directory(ctx context.Context) ([]employee.Employee, error) {
	svc := hrmsvc.NewDirectoryService(a.client, a.run.ExcludedEmployees, a.cfg.HRAPI.BatchSize, a.log).
		WithErrorCounter(a.metrics)
	employees, err := svc.Fetch(ctx)
	if err != nil {
		return nil, apiCode(err)
	}
	return employees, nil
}

// snapshot is the JSON document written by fetch and read back through
// --cache by the other commands.
type snapshot struct {
	Month     calendar.Month        `json:"month"`
	Employees []employee.Employee   `json:"employees"`
	Leaves    *leavesvc.MonthLeaves `json:"leaves"`
}

type loadOptions struct {
	snapshotPath string
	useCache     bool
	balances     bool
}

// load returns the employees and leave data of m, either from a snapshot
// file or from the HR API through the leave cache.
func (a *app) load(ctx context.Context, m calendar.Month, opts loadOptions) (*snapshot, error) {
	if strings.TrimSpace(opts.snapshotPath) != "" {
		var snap snapshot
		if err := readJSONFile(opts.snapshotPath, &snap); err != nil {
			return nil, err
		}
		if snap.Month != m {
			return nil, withCode(exitValidation, fmt.Errorf("%s holds %s, not %s", opts.snapshotPath, snap.Month, m))
		}
		if snap.Leaves == nil {
			return nil, withCode(exitValidation, fmt.Errorf("%s has no leave data", opts.snapshotPath))
		}
		a.log.WithField("path", opts.snapshotPath).Info("using snapshot")
		return &snap, nil
	}

	employees, err := a.directory(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.cache()
	if err != nil {
		return nil, err
	}
	svc := leavesvc.NewLeaveService(a.client, a.cfg.HRAPI.BatchSize, a.log).
		WithCache(store).
		WithRecorder(a.metrics)
	ml, err := svc.MonthLeaves(ctx, employee.IDs(employees), m, leavesvc.FetchOptions{
		UseCache: opts.useCache,
		Balances: opts.balances,
	})
	if err != nil {
		return nil, apiCode(err)
	}
	return &snapshot{Month: m, Employees: employees, Leaves: ml}, nil
}
