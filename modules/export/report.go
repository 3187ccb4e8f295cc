package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// StaffReport is the hire/termination summary around a reference date. When
// Month is set the report also lists the employees leaving in that month.
type StaffReport struct {
	GeneratedAt  time.Time
	Days         int
	Hires        []employee.Employee
	Terminations []employee.Employee
	Month        calendar.Month
	Leavers      []employee.Employee
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

func writeStaffTable(b *strings.Builder, title string, rows []employee.Employee, date func(employee.Employee) *time.Time) {
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(rows))
	if len(rows) == 0 {
		b.WriteString("None.\n\n")
		return
	}
	b.WriteString("| Name | ID | Title | Team | Date |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range rows {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			escapeCell(e.Name), escapeCell(e.ExternalID), escapeCell(e.Title), escapeCell(e.Team), formatDate(date(e)))
	}
	b.WriteString("\n")
}

func (r StaffReport) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Hires and terminations\n\nWithin %d days of %s.\n\n", r.Days, r.GeneratedAt.Format("02/01/2006"))
	writeStaffTable(&b, "New hires", r.Hires, func(e employee.Employee) *time.Time { return e.HireDate })
	writeStaffTable(&b, "Terminations", r.Terminations, func(e employee.Employee) *time.Time { return e.TerminationDate })
	if r.Month != (calendar.Month{}) {
		writeStaffTable(&b, "Leavers in "+r.Month.String(), r.Leavers, func(e employee.Employee) *time.Time { return e.TerminationDate })
	}
	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}
