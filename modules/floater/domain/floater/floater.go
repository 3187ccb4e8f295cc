// Package floater computes how much of each employee's monthly capacity is
// not allocated to any project, and what that idle capacity costs.
package floater

import (
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

var (
	hundred     = decimal.NewFromInt(100)
	hoursPerDay = decimal.NewFromInt(calendar.HoursPerDay)
)

// Hours is one employee's record from an allocation source. Exactly one of
// the fields is set: Allocated for project allocations, Free for a
// precomputed capacity view.
type Hours struct {
	Allocated *decimal.Decimal
	Free      *decimal.Decimal
}

func Allocated(h decimal.Decimal) Hours { return Hours{Allocated: &h} }

func Free(h decimal.Decimal) Hours { return Hours{Free: &h} }

// Add merges two records of the same kind.
func (h Hours) Add(o Hours) Hours {
	sum := func(a, b *decimal.Decimal) *decimal.Decimal {
		switch {
		case a == nil:
			return b
		case b == nil:
			return a
		}
		s := a.Add(*b)
		return &s
	}
	return Hours{Allocated: sum(h.Allocated, o.Allocated), Free: sum(h.Free, o.Free)}
}

type Params struct {
	Month         calendar.Month
	Holidays      map[int]bool
	AverageSalary decimal.Decimal
	Currency      string
	// LeaveDays is informational and does not change the percentage.
	LeaveDays map[int]decimal.Decimal
}

type Record struct {
	EmployeeID int
	Name       string
	Department string
	Team       string
	Leaver     bool
	HasRecord  bool
	MaxHours   decimal.Decimal
	Allocated  decimal.Decimal
	FreeHours  decimal.Decimal
	LeaveDays  decimal.Decimal
	Percent    decimal.Decimal
	Cost       *money.Money
}

// MaxHours is the capacity of m: working days times the nominal day.
func MaxHours(m calendar.Month, holidays map[int]bool) decimal.Decimal {
	return decimal.NewFromInt(int64(m.WorkingDays(holidays))).Mul(hoursPerDay)
}

// Percent applies the floater formula to one record. Leavers and employees
// without a record are fully floating.
func Percent(maxHours decimal.Decimal, h Hours, hasRecord, leaver bool) decimal.Decimal {
	if leaver || !hasRecord || !maxHours.IsPositive() {
		return hundred
	}
	var pct decimal.Decimal
	switch {
	case h.Free != nil:
		pct = h.Free.Div(maxHours).Mul(hundred)
	case h.Allocated != nil:
		pct = decimal.Max(decimal.Zero, maxHours.Sub(*h.Allocated)).Div(maxHours).Mul(hundred)
	default:
		return hundred
	}
	return clamp(pct)
}

func clamp(pct decimal.Decimal) decimal.Decimal {
	switch {
	case pct.IsNegative():
		return decimal.Zero
	case pct.GreaterThan(hundred):
		return hundred
	default:
		return pct
	}
}

// Cost is pct of the average salary rounded to whole currency units.
func Cost(pct, averageSalary decimal.Decimal, currency string) *money.Money {
	units := pct.Div(hundred).Mul(averageSalary).Round(0)
	return money.NewFromFloat(units.InexactFloat64(), strings.ToUpper(currency))
}

// Calculate builds one record per employee, sorted with leavers last, then by
// descending percentage, then by name.
func Calculate(employees []employee.Employee, hours map[int]Hours, p Params) []Record {
	maxHours := MaxHours(p.Month, p.Holidays)
	out := make([]Record, 0, len(employees))
	for _, e := range employees {
		h, ok := hours[e.ID]
		leaver := e.IsLeaver(p.Month)
		pct := Percent(maxHours, h, ok, leaver)
		r := Record{
			EmployeeID: e.ID,
			Name:       e.Name,
			Department: e.Department,
			Team:       e.Team,
			Leaver:     leaver,
			HasRecord:  ok,
			MaxHours:   maxHours,
			LeaveDays:  p.LeaveDays[e.ID],
			Percent:    pct,
			Cost:       Cost(pct, p.AverageSalary, p.Currency),
		}
		if h.Allocated != nil {
			r.Allocated = *h.Allocated
		}
		switch {
		case h.Free != nil:
			r.FreeHours = *h.Free
		case ok:
			r.FreeHours = decimal.Max(decimal.Zero, maxHours.Sub(r.Allocated))
		default:
			r.FreeHours = maxHours
		}
		out = append(out, r)
	}
	Sort(out)
	return out
}

func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Leaver != b.Leaver {
			return !a.Leaver
		}
		if !a.Percent.Equal(b.Percent) {
			return a.Percent.GreaterThan(b.Percent)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
