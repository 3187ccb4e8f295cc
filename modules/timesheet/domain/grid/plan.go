package grid

import (
	"github.com/shopspring/decimal"

	"github.com/iota-uz/leavesync/modules/leave/domain/leave"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

type Kind int

const (
	KindWork Kind = iota
	KindWeekend
	KindHoliday
	KindLeave
	KindHalfLeave
	// KindOverride cells belong to an override week and must not be written.
	KindOverride
)

func (k Kind) String() string {
	switch k {
	case KindWeekend:
		return "weekend"
	case KindHoliday:
		return "holiday"
	case KindLeave:
		return "leave"
	case KindHalfLeave:
		return "half_leave"
	case KindOverride:
		return "override"
	default:
		return "work"
	}
}

// Cell is the decision for one day of one row. Blank cells are cleared.
type Cell struct {
	Day   int
	Kind  Kind
	Hours decimal.Decimal
	Blank bool
	Note  string
}

type RowPlan struct {
	Row        Row
	EmployeeID int
	Matched    bool
	Normal     decimal.Decimal
	Cells      []Cell
}

// Plan is the full set of decisions for one sheet. Renderers consume it
// without looking at leave data again.
type Plan struct {
	Layout *Layout
	Rows   []RowPlan
	// NewLayout is set when the header was generated and must be written.
	NewLayout bool
}

func (p *Plan) Unmatched() []Row {
	var out []Row
	for _, r := range p.Rows {
		if !r.Matched {
			out = append(out, r.Row)
		}
	}
	return out
}

// Resolver maps a sheet row to an internal employee id.
type Resolver interface {
	Resolve(externalID, name string) (int, bool)
}

type Input struct {
	Holidays []leave.Holiday
	Leaves   map[int][]leave.Day
	Strategy leave.ProrationStrategy
	Resolver Resolver
}

type dayLeave struct {
	half bool
	typ  string
}

// Apply decides every day cell of every row.
//
// Weekends are blank. Override weeks keep whatever the row holds. Holidays
// and full leave days are zero. A half leave day frees 4 hours that the
// strategy spreads over the employee's rows not in an override week. Other
// working days get the row's normal hours, except in validated weeks where an
// existing value is kept.
func Apply(l *Layout, rows []Row, in Input) *Plan {
	strategy := in.Strategy
	if strategy == nil {
		strategy = leave.EqualSplit{}
	}
	m := l.Month
	holidays := map[int]string{}
	for _, h := range in.Holidays {
		holidays[h.Day] = h.Name
	}

	plan := &Plan{Layout: l, Rows: make([]RowPlan, len(rows))}
	group := map[int][]int{}
	for i, r := range rows {
		rp := RowPlan{Row: r}
		if in.Resolver != nil {
			rp.EmployeeID, rp.Matched = in.Resolver.Resolve(r.ExternalID, r.Name)
		}
		key := rp.EmployeeID
		if !rp.Matched {
			key = -(i + 1)
		}
		group[key] = append(group[key], i)
		plan.Rows[i] = rp
	}

	for key, idx := range group {
		leaves := map[int]dayLeave{}
		if key > 0 {
			for _, d := range in.Leaves[key] {
				leaves[d.Day] = dayLeave{half: d.HalfDay, typ: d.Type}
			}
		}
		for _, i := range idx {
			plan.Rows[i].Normal = normalHours(rows[i], m, holidays, len(idx))
			plan.Rows[i].Cells = make([]Cell, 0, m.Days())
		}

		for day := 1; day <= m.Days(); day++ {
			week := m.WeekOf(day)
			lv, onLeave := leaves[day]
			var shares map[int]decimal.Decimal
			if onLeave && lv.half && !m.IsWeekend(day) {
				if _, holiday := holidays[day]; !holiday {
					shares = splitHalfDay(plan.Rows, idx, week, strategy)
				}
			}
			for _, i := range idx {
				plan.Rows[i].Cells = append(plan.Rows[i].Cells, decide(plan.Rows[i], day, week, m, holidays, lv, onLeave, shares))
			}
		}
	}
	return plan
}

func decide(rp RowPlan, day, week int, m calendar.Month, holidays map[int]string, lv dayLeave, onLeave bool, shares map[int]decimal.Decimal) Cell {
	r := rp.Row
	c := Cell{Day: day}
	existing, hasValue := r.Hours[day]
	switch {
	case m.IsWeekend(day):
		c.Kind = KindWeekend
		c.Blank = true
	case r.Locked(week):
		c.Kind = KindOverride
		c.Hours = existing
		c.Blank = !hasValue
	case hasHoliday(holidays, day):
		c.Kind = KindHoliday
		c.Note = holidays[day]
	case onLeave && !lv.half:
		c.Kind = KindLeave
		c.Note = lv.typ
	case onLeave:
		c.Kind = KindHalfLeave
		c.Note = lv.typ
		c.Hours = rp.Normal.Sub(shares[r.Line])
		if c.Hours.IsNegative() {
			c.Hours = decimal.Zero
		}
	case r.Validated[week] && hasValue:
		c.Hours = existing
	default:
		c.Hours = rp.Normal
	}
	return c
}

func hasHoliday(holidays map[int]string, day int) bool {
	_, ok := holidays[day]
	return ok
}

// splitHalfDay returns the deduction of every active row keyed by sheet line.
func splitHalfDay(rows []RowPlan, idx []int, week int, strategy leave.ProrationStrategy) map[int]decimal.Decimal {
	var (
		active []int
		normal []decimal.Decimal
	)
	for _, i := range idx {
		if rows[i].Row.Locked(week) {
			continue
		}
		active = append(active, i)
		normal = append(normal, rows[i].Normal)
	}
	if len(active) == 0 {
		return nil
	}
	shares := strategy.Split(leave.HalfDayHours, normal)
	out := make(map[int]decimal.Decimal, len(active))
	for j, i := range active {
		out[rows[i].Row.Line] = shares[j]
	}
	return out
}

// normalHours is the largest value found on a plain working day of the row.
// Rows without any value split a full day evenly with the employee's other
// rows.
func normalHours(r Row, m calendar.Month, holidays map[int]string, rowsOfEmployee int) decimal.Decimal {
	best := decimal.Zero
	for day, h := range r.Hours {
		if m.IsWeekend(day) || hasHoliday(holidays, day) {
			continue
		}
		if h.GreaterThan(best) {
			best = h
		}
	}
	if best.IsPositive() {
		return best
	}
	return leave.DayHours.DivRound(decimal.NewFromInt(int64(rowsOfEmployee)), 6)
}
