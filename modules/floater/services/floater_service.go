package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/leavesync/modules/floater/domain/floater"
	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/modules/leave/domain/leave"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// HoursSource supplies allocated or free hours per employee for a month.
type HoursSource interface {
	Name() string
	Hours(ctx context.Context, m calendar.Month) (map[int]floater.Hours, error)
}

type FloaterService struct {
	averageSalary decimal.Decimal
	currency      string
	log           *logrus.Entry
}

func NewFloaterService(averageSalary float64, currency string, log *logrus.Entry) *FloaterService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FloaterService{
		averageSalary: decimal.NewFromFloat(averageSalary),
		currency:      currency,
		log:           log.WithField("component", "floater"),
	}
}

type ComputeInput struct {
	Month     calendar.Month
	Employees []employee.Employee
	Holidays  []leave.Holiday
	Days      []leave.Day
	// Source may be nil, in which case every employee is fully floating.
	Source HoursSource
}

// Compute recomputes the floater records of the month from scratch.
func (s *FloaterService) Compute(ctx context.Context, in ComputeInput) ([]floater.Record, error) {
	hours := map[int]floater.Hours{}
	if in.Source != nil {
		var err error
		hours, err = in.Source.Hours(ctx, in.Month)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", in.Source.Name())
		}
	}

	leaveDays := map[int]decimal.Decimal{}
	half := decimal.NewFromFloat(0.5)
	for _, d := range in.Days {
		inc := decimal.NewFromInt(1)
		if d.HalfDay {
			inc = half
		}
		leaveDays[d.EmployeeID] = leaveDays[d.EmployeeID].Add(inc)
	}

	records := floater.Calculate(in.Employees, hours, floater.Params{
		Month:         in.Month,
		Holidays:      leave.HolidaySet(in.Holidays),
		AverageSalary: s.averageSalary,
		Currency:      s.currency,
		LeaveDays:     leaveDays,
	})

	leavers, missing := 0, 0
	for _, r := range records {
		if r.Leaver {
			leavers++
		}
		if !r.HasRecord {
			missing++
		}
	}
	fields := logrus.Fields{
		"month":     in.Month.Key(),
		"employees": len(records),
		"leavers":   leavers,
		"no_record": missing,
		"max_hours": floater.MaxHours(in.Month, leave.HolidaySet(in.Holidays)).String(),
	}
	if in.Source != nil {
		fields["source"] = in.Source.Name()
	}
	s.log.WithFields(fields).Info("floater computed")
	return records, nil
}
