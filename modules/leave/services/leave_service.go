package services

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/leavesync/modules/leave/domain/leave"
	"github.com/iota-uz/leavesync/pkg/cache"
	"github.com/iota-uz/leavesync/pkg/calendar"
	"github.com/iota-uz/leavesync/pkg/hrapi"
)

// CalendarAPI is the part of the HR API the leave service reads.
type CalendarAPI interface {
	TimeOffCalendar(ctx context.Context, employeeID, year, month int) (*hrapi.TimeOffCalendar, error)
	TimeOffTypes(ctx context.Context, employeeID int) ([]hrapi.TimeOffType, error)
}

// Recorder receives run counters. metrics.Run implements it.
type Recorder interface {
	EmployeeError()
	LeaveDays(full, half int)
}

// MonthLeaves is everything fetched for one month. It is also the cached
// snapshot, so it must stay JSON friendly. EmployeeIDs is the sorted roster
// the data was fetched for.
type MonthLeaves struct {
	Month        calendar.Month  `json:"month"`
	FetchedAt    time.Time       `json:"fetched_at"`
	EmployeeIDs  []int           `json:"employee_ids"`
	WithBalances bool            `json:"with_balances"`
	Holidays     []leave.Holiday `json:"holidays"`
	Requests     []leave.Request `json:"requests"`
	Days         []leave.Day     `json:"days"`
	Balances     []leave.Balance `json:"balances,omitempty"`
	Errors       map[int]string  `json:"errors,omitempty"`
}

// covers reports whether the snapshot was fetched for exactly roster and
// carries balances when they are wanted.
func (m *MonthLeaves) covers(roster []int, balances bool) bool {
	if balances && !m.WithBalances {
		return false
	}
	return slices.Equal(m.EmployeeIDs, roster)
}

func sortedIDs(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func (m *MonthLeaves) ByEmployee() map[int][]leave.Day {
	return leave.ByEmployee(m.Days)
}

// RequestDays counts the days each request contributes to the month.
func (m *MonthLeaves) RequestDays() map[int]float64 {
	out := map[int]float64{}
	for _, d := range m.Days {
		if d.HalfDay {
			out[d.RequestID] += 0.5
		} else {
			out[d.RequestID]++
		}
	}
	return out
}

func CacheKey(m calendar.Month) string {
	return "leaves-" + m.Key()
}

type FetchOptions struct {
	// UseCache returns a cached snapshot when one exists for the same roster
	// and, if Balances is set, one that carries balances.
	UseCache bool
	Balances bool
}

type LeaveService struct {
	api       CalendarAPI
	batchSize int
	store     cache.Store
	recorder  Recorder
	log       *logrus.Entry
	now       func() time.Time
}

func NewLeaveService(api CalendarAPI, batchSize int, log *logrus.Entry) *LeaveService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &LeaveService{
		api:       api,
		batchSize: batchSize,
		log:       log.WithField("component", "leave"),
		now:       time.Now,
	}
}

func (s *LeaveService) WithCache(store cache.Store) *LeaveService {
	s.store = store
	return s
}

func (s *LeaveService) WithRecorder(r Recorder) *LeaveService {
	s.recorder = r
	return s
}

type calendarResult struct {
	requests []leave.Request
	holidays []leave.RawHoliday
}

// MonthLeaves fetches the time-off calendars of employeeIDs for m in
// batches and expands the approved requests into leave days. A failing
// employee is recorded in Errors and skipped. The holiday calendar is shared,
// so it is taken from the first employee whose calendar loaded.
func (s *LeaveService) MonthLeaves(ctx context.Context, employeeIDs []int, m calendar.Month, opts FetchOptions) (*MonthLeaves, error) {
	log := s.log.WithField("month", m.Key())
	roster := sortedIDs(employeeIDs)
	if opts.UseCache && s.store != nil {
		var cached MonthLeaves
		err := s.store.Load(ctx, CacheKey(m), &cached)
		switch {
		case err == nil && cached.covers(roster, opts.Balances):
			log.WithField("fetched_at", cached.FetchedAt).Info("using cached leave data")
			return &cached, nil
		case err == nil:
			log.WithField("fetched_at", cached.FetchedAt).Info("cached leave data is for another roster or lacks balances, fetching")
		case errors.Is(err, cache.ErrMiss):
			log.Debug("leave cache miss")
		default:
			log.WithError(err).Warn("leave cache unreadable, fetching")
		}
	}

	out := &MonthLeaves{
		Month:        m,
		FetchedAt:    s.now().UTC(),
		EmployeeIDs:  roster,
		WithBalances: opts.Balances,
		Errors:       map[int]string{},
	}

	results := hrapi.Batch(ctx, employeeIDs, s.batchSize, func(ctx context.Context, id int) (calendarResult, error) {
		return s.fetchCalendar(ctx, id, m)
	})
	var holidays []leave.RawHoliday
	haveHolidays := false
	seen := map[int]bool{}
	for i, res := range results {
		id := employeeIDs[i]
		if res.Err != nil {
			s.recordError(out, id, "time-off calendar", res.Err)
			continue
		}
		if !haveHolidays {
			holidays = res.Value.holidays
			haveHolidays = true
		}
		for _, r := range res.Value.requests {
			if r.ID != 0 && seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out.Requests = append(out.Requests, r)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "fetch time-off calendars")
	}
	if len(employeeIDs) > 0 && !haveHolidays {
		return nil, errors.Errorf("no time-off calendar could be fetched for %s", m)
	}

	sort.SliceStable(out.Requests, func(i, j int) bool {
		if out.Requests[i].EmployeeID != out.Requests[j].EmployeeID {
			return out.Requests[i].EmployeeID < out.Requests[j].EmployeeID
		}
		return out.Requests[i].ID < out.Requests[j].ID
	})
	out.Holidays = leave.HolidaysForMonth(holidays, m)
	out.Days = leave.ExpandAll(out.Requests, m)

	if opts.Balances {
		s.fetchBalances(ctx, out, employeeIDs)
	}

	full, half := 0, 0
	for _, d := range out.Days {
		if d.HalfDay {
			half++
		} else {
			full++
		}
	}
	if s.recorder != nil {
		s.recorder.LeaveDays(full, half)
	}
	log.WithFields(logrus.Fields{
		"employees": len(employeeIDs),
		"requests":  len(out.Requests),
		"full_days": full,
		"half_days": half,
		"holidays":  len(out.Holidays),
		"failed":    len(out.Errors),
	}).Info("leave data fetched")

	if s.store != nil {
		if err := s.store.Save(ctx, CacheKey(m), out); err != nil {
			log.WithError(err).Warn("could not cache leave data")
		}
	}
	return out, nil
}

func (s *LeaveService) fetchCalendar(ctx context.Context, id int, m calendar.Month) (calendarResult, error) {
	cal, err := s.api.TimeOffCalendar(ctx, id, m.Year, int(m.Month))
	if err != nil {
		return calendarResult{}, err
	}
	var out calendarResult
	for _, r := range cal.Requests {
		out.requests = append(out.requests, toRequest(id, r))
	}
	for _, h := range cal.Holidays {
		out.holidays = append(out.holidays, leave.RawHoliday{Date: h.Date, Name: h.Name})
	}
	return out, nil
}

func (s *LeaveService) fetchBalances(ctx context.Context, out *MonthLeaves, employeeIDs []int) {
	results := hrapi.Batch(ctx, employeeIDs, s.batchSize, s.api.TimeOffTypes)
	for i, res := range results {
		id := employeeIDs[i]
		if res.Err != nil {
			s.recordError(out, id, "time-off types", res.Err)
			continue
		}
		for _, t := range res.Value {
			out.Balances = append(out.Balances, leave.Balance{
				EmployeeID: id,
				Type:       t.Name,
				Unit:       t.Unit,
				Balance:    t.Balance,
				Used:       t.Used,
			})
		}
	}
}

func (s *LeaveService) recordError(out *MonthLeaves, id int, what string, err error) {
	msg := what + ": " + err.Error()
	if prev, ok := out.Errors[id]; ok {
		msg = prev + "; " + msg
	} else if s.recorder != nil {
		s.recorder.EmployeeError()
	}
	out.Errors[id] = msg
	s.log.WithError(err).WithField("employee_id", id).Warnf("%s lookup failed", what)
}

func toRequest(employeeID int, r hrapi.TimeOffRequest) leave.Request {
	if r.EmployeeID != 0 {
		employeeID = r.EmployeeID
	}
	end := ""
	if r.EndDate != nil {
		end = *r.EndDate
	}
	return leave.Request{
		ID:            r.ID,
		EmployeeID:    employeeID,
		Type:          r.TypeName,
		Status:        leave.Status(r.Status),
		Start:         r.EffectiveDate,
		End:           end,
		StartDuration: leave.Duration(r.EffectiveDateDuration),
		EndDuration:   leave.Duration(r.EndDateDuration),
	}
}
