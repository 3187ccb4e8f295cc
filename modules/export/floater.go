package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/leavesync/modules/floater/domain/floater"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

var floaterHeader = []string{
	"employee_id", "name", "department", "team", "leaver", "has_record",
	"max_hours", "allocated_hours", "free_hours", "leave_days", "floater_pct", "cost", "currency",
}

func costAmount(r floater.Record) string {
	if r.Cost == nil {
		return ""
	}
	return decimal.NewFromFloat(r.Cost.AsMajorUnits()).StringFixed(2)
}

func FloaterTable(m calendar.Month, records []floater.Record) Table {
	t := Table{Name: "floater_" + m.Key(), Header: floaterHeader}
	for _, r := range records {
		currency := ""
		if r.Cost != nil {
			currency = r.Cost.Currency().Code
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.EmployeeID),
			r.Name,
			r.Department,
			r.Team,
			strconv.FormatBool(r.Leaver),
			strconv.FormatBool(r.HasRecord),
			r.MaxHours.String(),
			r.Allocated.String(),
			r.FreeHours.StringFixed(2),
			r.LeaveDays.String(),
			r.Percent.StringFixed(2),
			costAmount(r),
			currency,
		})
	}
	return t
}

// WriteFloaterMarkdown renders the floater records as a Markdown table with
// a total cost line.
func WriteFloaterMarkdown(w io.Writer, m calendar.Month, records []floater.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Floater report, %s\n\n", m)
	if len(records) == 0 {
		b.WriteString("No employees.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "Capacity: %s hours per employee.\n\n", records[0].MaxHours)
	b.WriteString("| Name | Department | Floater % | Free hours | Leave days | Cost |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	total := decimal.Zero
	for _, r := range records {
		name := escapeCell(r.Name)
		if r.Leaver {
			name += " (leaver)"
		}
		cost := ""
		if r.Cost != nil {
			cost = r.Cost.Display()
			total = total.Add(decimal.NewFromFloat(r.Cost.AsMajorUnits()))
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			name, escapeCell(r.Department), r.Percent.StringFixed(1), r.FreeHours.StringFixed(2), r.LeaveDays, cost)
	}
	if records[0].Cost != nil {
		fmt.Fprintf(&b, "\nTotal floater cost: %s %s\n", total.StringFixed(2), records[0].Cost.Currency().Code)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
