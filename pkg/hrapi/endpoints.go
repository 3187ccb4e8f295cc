package hrapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	EmployeesPath    = "/employees/"
	TerminationsPath = "/dashboard/terminations/"
)

// Status codes of a time-off request. Only StatusApproved is authoritative.
const (
	StatusPending   = 1
	StatusRejected  = 2
	StatusApproved  = 3
	StatusCancelled = 4
)

type Employee struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	HireDate  string `json:"hire_date"`
	Status    string `json:"status"`
}

func (e Employee) DisplayName() string {
	if name := strings.TrimSpace(e.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName))
}

type BaseData struct {
	EmployeeCode string `json:"employee_code"`
	HireDate     string `json:"hire_date"`
}

type Job struct {
	Title      string `json:"job_title"`
	Team       string `json:"team"`
	Department string `json:"department"`
}

type Termination struct {
	EmployeeID      int    `json:"employee"`
	TerminationDate string `json:"termination_date"`
	Reason          string `json:"reason"`
}

type TimeOffType struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Balance float64 `json:"balance"`
	Used    float64 `json:"used"`
}

type TimeOffRequest struct {
	ID                    int     `json:"id"`
	EmployeeID            int     `json:"employee"`
	Status                int     `json:"status"`
	TypeName              string  `json:"time_off_type_name"`
	EffectiveDate         string  `json:"effective_date"`
	EndDate               *string `json:"end_date"`
	EffectiveDateDuration int     `json:"effective_date_duration"`
	EndDateDuration       int     `json:"end_date_duration"`
}

type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type TimeOffCalendar struct {
	Requests []TimeOffRequest `json:"time_off_requests"`
	Holidays []Holiday        `json:"holidays"`
}

func employeePath(id int, suffix string) string {
	return fmt.Sprintf("%s%d/%s/", EmployeesPath, id, suffix)
}

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	return getAllInto[Employee](ctx, c, EmployeesPath, nil)
}

func (c *Client) Terminations(ctx context.Context) ([]Termination, error) {
	return getAllInto[Termination](ctx, c, TerminationsPath, nil)
}

func (c *Client) BaseData(ctx context.Context, employeeID int) (*BaseData, error) {
	var out BaseData
	if err := c.getJSON(ctx, employeePath(employeeID, "base-data"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Job(ctx context.Context, employeeID int) (*Job, error) {
	var out Job
	if err := c.getJSON(ctx, employeePath(employeeID, "job"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TimeOffTypes(ctx context.Context, employeeID int) ([]TimeOffType, error) {
	return getAllInto[TimeOffType](ctx, c, employeePath(employeeID, "time-off-types"), nil)
}

// TimeOffCalendar returns the employee's requests and the shared holiday
// calendar for one month (1-based month number).
func (c *Client) TimeOffCalendar(ctx context.Context, employeeID, year, month int) (*TimeOffCalendar, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))
	var out TimeOffCalendar
	if err := c.getJSON(ctx, employeePath(employeeID, "time-off-calendar"), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
