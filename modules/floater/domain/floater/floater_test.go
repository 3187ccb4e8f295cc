package floater

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// June 2026 has 22 weekdays; with one holiday that is 168 hours.
var (
	june     = calendar.Month{Year: 2026, Month: time.June}
	holidays = map[int]bool{24: true}
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestMaxHours(t *testing.T) {
	require.Equal(t, "168", MaxHours(june, holidays).String())
	require.Equal(t, "176", MaxHours(june, nil).String())
}

func TestPercent(t *testing.T) {
	capacity := dec("160")
	require.Equal(t, "25", Percent(capacity, Allocated(dec("120")), true, false).String())
	require.Equal(t, "0", Percent(capacity, Allocated(dec("200")), true, false).String(), "overallocation clamps at zero")
	require.Equal(t, "50", Percent(capacity, Free(dec("80")), true, false).String())
	require.Equal(t, "100", Percent(capacity, Free(dec("400")), true, false).String(), "free hours clamp at 100")
	require.Equal(t, "0", Percent(capacity, Free(dec("-5")), true, false).String())
	require.Equal(t, "100", Percent(capacity, Hours{}, false, false).String(), "no record")
	require.Equal(t, "100", Percent(capacity, Allocated(dec("160")), true, true).String(), "leaver")
	require.Equal(t, "100", Percent(decimal.Zero, Allocated(dec("10")), true, false).String())
}

func TestCost(t *testing.T) {
	c := Cost(dec("25"), dec("5001"), "eur")
	require.Equal(t, "EUR", c.Currency().Code)
	require.Equal(t, int64(125000), c.Amount(), "1250.25 rounds to 1250")
}

func TestCalculate(t *testing.T) {
	employees := []employee.Employee{
		{ID: 1, Name: "Busy Bee"},
		{ID: 2, Name: "Half Free"},
		{ID: 3, Name: "Bench Warmer"},
		{ID: 4, Name: "Gone Soon", TerminationDate: at(2026, time.June, 30)},
		{ID: 5, Name: "Gone Later", TerminationDate: at(2026, time.July, 1)},
		{ID: 6, Name: "Also Bench"},
	}
	hours := map[int]Hours{
		1: Allocated(dec("168")),
		2: Allocated(dec("84")),
		4: Allocated(dec("168")),
		5: Allocated(dec("168")),
	}
	records := Calculate(employees, hours, Params{
		Month:         june,
		Holidays:      holidays,
		AverageSalary: dec("4000"),
		Currency:      "EUR",
	})

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	require.Equal(t, []string{"Also Bench", "Bench Warmer", "Half Free", "Busy Bee", "Gone Later", "Gone Soon"}, names)

	byName := map[string]Record{}
	for _, r := range records {
		byName[r.Name] = r
		require.False(t, r.Percent.IsNegative())
		require.False(t, r.Percent.GreaterThan(decimal.NewFromInt(100)))
	}
	require.Equal(t, "50", byName["Half Free"].Percent.String())
	require.Equal(t, "84", byName["Half Free"].FreeHours.String())
	require.Equal(t, int64(200000), byName["Half Free"].Cost.Amount())
	require.True(t, byName["Gone Soon"].Leaver)
	require.Equal(t, "100", byName["Gone Soon"].Percent.String())
	require.False(t, byName["Gone Later"].Leaver)
	require.Equal(t, "0", byName["Gone Later"].Percent.String())
	require.False(t, byName["Bench Warmer"].HasRecord)
	require.Equal(t, "168", byName["Bench Warmer"].FreeHours.String())
}

func TestCalculate_Deterministic(t *testing.T) {
	employees := []employee.Employee{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	hours := map[int]Hours{1: Free(dec("40"))}
	p := Params{Month: june, AverageSalary: dec("3000"), Currency: "EUR"}
	require.Equal(t, Calculate(employees, hours, p), Calculate(employees, hours, p))
}

func TestHoursAdd(t *testing.T) {
	h := Allocated(dec("10")).Add(Allocated(dec("5.5")))
	require.Equal(t, "15.5", h.Allocated.String())
	require.Nil(t, h.Free)
}
