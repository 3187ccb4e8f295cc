package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/leavesync/modules/floater/domain/floater"
	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/modules/leave/domain/leave"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

type staticSource struct {
	hours map[int]floater.Hours
	err   error
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Hours(context.Context, calendar.Month) (map[int]floater.Hours, error) {
	return s.hours, s.err
}

var june = calendar.Month{Year: 2026, Month: time.June}

func TestFloaterService_Compute(t *testing.T) {
	svc := NewFloaterService(4000, "EUR", nil)
	records, err := svc.Compute(context.Background(), ComputeInput{
		Month:     june,
		Employees: []employee.Employee{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}},
		Holidays:  []leave.Holiday{{Day: 24}},
		Days: []leave.Day{
			{EmployeeID: 1, Day: 10},
			{EmployeeID: 1, Day: 12, HalfDay: true},
		},
		Source: staticSource{hours: map[int]floater.Hours{1: floater.Allocated(decimal.NewFromInt(126))}},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "Bob", records[0].Name)
	require.Equal(t, "100", records[0].Percent.String())
	require.Equal(t, "Ann", records[1].Name)
	require.Equal(t, "25", records[1].Percent.String())
	require.Equal(t, "1.5", records[1].LeaveDays.String())
	require.Equal(t, int64(100000), records[1].Cost.Amount())
}

func TestFloaterService_SourceError(t *testing.T) {
	svc := NewFloaterService(4000, "EUR", nil)
	_, err := svc.Compute(context.Background(), ComputeInput{
		Month:  june,
		Source: staticSource{err: errors.New("locked file")},
	})
	require.ErrorContains(t, err, "load static")
}

func TestFloaterService_NoSource(t *testing.T) {
	svc := NewFloaterService(3000, "USD", nil)
	records, err := svc.Compute(context.Background(), ComputeInput{
		Month:     june,
		Employees: []employee.Employee{{ID: 1, Name: "Ann"}},
	})
	require.NoError(t, err)
	require.Equal(t, "100", records[0].Percent.String())
	require.Equal(t, "USD", records[0].Cost.Currency().Code)
}
