package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/leavesync/pkg/cache"
	"github.com/iota-uz/leavesync/pkg/calendar"
	"github.com/iota-uz/leavesync/pkg/hrapi"
)

type fakeCalendarAPI struct {
	mu        sync.Mutex
	calendars map[int]*hrapi.TimeOffCalendar
	types     map[int][]hrapi.TimeOffType
	calls     int
}

func (f *fakeCalendarAPI) TimeOffCalendar(ctx context.Context, employeeID, year, month int) (*hrapi.TimeOffCalendar, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if year != 2026 || month != 6 {
		return nil, &hrapi.APIError{StatusCode: 400}
	}
	cal, ok := f.calendars[employeeID]
	if !ok {
		return nil, &hrapi.APIError{Method: "GET", Path: "/employees/x/time-off-calendar/", StatusCode: 404}
	}
	return cal, nil
}

func (f *fakeCalendarAPI) TimeOffTypes(ctx context.Context, employeeID int) ([]hrapi.TimeOffType, error) {
	return f.types[employeeID], nil
}

type recorder struct {
	errors     int
	full, half int
}

func (r *recorder) EmployeeError()           { r.errors++ }
func (r *recorder) LeaveDays(full, half int) { r.full += full; r.half += half }

func strPtr(s string) *string { return &s }

func newFakeCalendarAPI() *fakeCalendarAPI {
	holidays := []hrapi.Holiday{{Date: "24/06/2026", Name: "Midsummer"}}
	return &fakeCalendarAPI{
		calendars: map[int]*hrapi.TimeOffCalendar{
			1: {
				Requests: []hrapi.TimeOffRequest{
					{ID: 10, Status: hrapi.StatusApproved, TypeName: "Vacation", EffectiveDate: "10/06/2026", EndDate: strPtr("12/06/2026"), EffectiveDateDuration: 1, EndDateDuration: 2},
					{ID: 11, Status: hrapi.StatusPending, TypeName: "Vacation", EffectiveDate: "22/06/2026"},
				},
				Holidays: holidays,
			},
			2: {
				Requests: []hrapi.TimeOffRequest{
					{ID: 20, EmployeeID: 2, Status: hrapi.StatusApproved, TypeName: "Sick", EffectiveDate: "15/06/2026", EffectiveDateDuration: 3},
				},
				Holidays: holidays,
			},
		},
		types: map[int][]hrapi.TimeOffType{
			1: {{ID: 1, Name: "Vacation", Unit: "days", Balance: 12.5, Used: 3}},
		},
	}
}

var june = calendar.Month{Year: 2026, Month: time.June}

func TestLeaveService_MonthLeaves(t *testing.T) {
	api := newFakeCalendarAPI()
	rec := &recorder{}
	svc := NewLeaveService(api, 2, nil).WithRecorder(rec)

	got, err := svc.MonthLeaves(context.Background(), []int{1, 2, 3}, june, FetchOptions{Balances: true})
	require.NoError(t, err)

	require.Len(t, got.Requests, 3)
	require.Equal(t, 1, got.Requests[0].EmployeeID, "employee id falls back to the calendar owner")
	require.Len(t, got.Holidays, 1)
	require.Equal(t, 24, got.Holidays[0].Day)

	byEmployee := got.ByEmployee()
	require.Len(t, byEmployee[1], 3)
	require.True(t, byEmployee[1][2].HalfDay)
	require.Len(t, byEmployee[2], 1)
	require.True(t, byEmployee[2][0].HalfDay)

	require.Equal(t, map[int]float64{10: 2.5, 20: 0.5}, got.RequestDays())

	require.Contains(t, got.Errors, 3)
	require.Equal(t, 1, rec.errors)
	require.Equal(t, 2, rec.full)
	require.Equal(t, 2, rec.half)

	require.Len(t, got.Balances, 1)
	require.Equal(t, 12.5, got.Balances[0].Balance)
}

func TestLeaveService_AllFailing(t *testing.T) {
	svc := NewLeaveService(newFakeCalendarAPI(), 5, nil)
	_, err := svc.MonthLeaves(context.Background(), []int{7, 8}, june, FetchOptions{})
	require.Error(t, err)
}

func TestLeaveService_Cache(t *testing.T) {
	api := newFakeCalendarAPI()
	store := cache.NewFileStore(t.TempDir())
	svc := NewLeaveService(api, 5, nil).WithCache(store)

	first, err := svc.MonthLeaves(context.Background(), []int{1, 2}, june, FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, api.calls)

	second, err := svc.MonthLeaves(context.Background(), []int{1, 2}, june, FetchOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 2, api.calls, "cached snapshot must not hit the API")
	require.Equal(t, first.Days, second.Days)
	require.Equal(t, first.Holidays, second.Holidays)

	_, err = svc.MonthLeaves(context.Background(), []int{1, 2}, june, FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 4, api.calls)
}

func TestLeaveService_CacheRosterAndBalances(t *testing.T) {
	api := newFakeCalendarAPI()
	svc := NewLeaveService(api, 5, nil).WithCache(cache.NewFileStore(t.TempDir()))
	ctx := context.Background()

	_, err := svc.MonthLeaves(ctx, []int{2}, june, FetchOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 1, api.calls)

	got, err := svc.MonthLeaves(ctx, []int{1, 2}, june, FetchOptions{UseCache: true, Balances: true})
	require.NoError(t, err)
	require.Equal(t, 3, api.calls, "a snapshot of another roster must be refetched")
	require.Len(t, got.ByEmployee()[1], 3)
	require.Len(t, got.Balances, 1)
	require.Equal(t, []int{1, 2}, got.EmployeeIDs)

	_, err = svc.MonthLeaves(ctx, []int{2, 1}, june, FetchOptions{UseCache: true, Balances: true})
	require.NoError(t, err)
	require.Equal(t, 3, api.calls, "same roster in another order is a hit")

	_, err = svc.MonthLeaves(ctx, []int{1, 2}, june, FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 5, api.calls)

	_, err = svc.MonthLeaves(ctx, []int{1, 2}, june, FetchOptions{UseCache: true, Balances: true})
	require.NoError(t, err)
	require.Equal(t, 7, api.calls, "a snapshot without balances must be refetched when balances are wanted")

	_, err = svc.MonthLeaves(ctx, []int{1, 2}, june, FetchOptions{UseCache: true})
	require.NoError(t, err)
	require.Equal(t, 7, api.calls, "a snapshot with balances serves a request without them")
}

func TestLeaveService_Deterministic(t *testing.T) {
	svc := NewLeaveService(newFakeCalendarAPI(), 1, nil)
	a, err := svc.MonthLeaves(context.Background(), []int{2, 1}, june, FetchOptions{})
	require.NoError(t, err)
	b, err := svc.MonthLeaves(context.Background(), []int{2, 1}, june, FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, a.Days, b.Days)
	require.Equal(t, a.Requests, b.Requests)
}
