package export

import (
	"strconv"

	"github.com/iota-uz/leavesync/modules/hrm/domain/employee"
	leavesvc "github.com/iota-uz/leavesync/modules/leave/services"
)

var (
	requestHeader = []string{
		"employee_id", "name", "type", "start", "end",
		"start_duration", "end_duration", "status", "days_in_month",
	}
	balanceHeader = []string{"employee_id", "name", "type", "unit", "balance", "used"}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nameOf(byID map[int]employee.Employee, id int) string {
	if e, ok := byID[id]; ok {
		return e.Name
	}
	return ""
}

// RequestsTable lists every fetched request of the month, approved or not,
// with the working days it contributes to the month.
func RequestsTable(ml *leavesvc.MonthLeaves, employees []employee.Employee) Table {
	byID := employee.ByID(employees)
	days := ml.RequestDays()
	t := Table{Name: "leave_requests_" + ml.Month.Key(), Header: requestHeader}
	for _, r := range ml.Requests {
		end := r.End
		if end == "" {
			end = r.Start
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.EmployeeID),
			nameOf(byID, r.EmployeeID),
			r.Type,
			r.Start,
			end,
			r.StartDuration.String(),
			r.EndDuration.String(),
			r.Status.String(),
			formatFloat(days[r.ID]),
		})
	}
	return t
}

func BalancesTable(ml *leavesvc.MonthLeaves, employees []employee.Employee) Table {
	byID := employee.ByID(employees)
	t := Table{Name: "leave_balances_" + ml.Month.Key(), Header: balanceHeader}
	for _, b := range ml.Balances {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(b.EmployeeID),
			nameOf(byID, b.EmployeeID),
			b.Type,
			b.Unit,
			formatFloat(b.Balance),
			formatFloat(b.Used),
		})
	}
	return t
}
