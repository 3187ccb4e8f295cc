// Package grid models a monthly timesheet sheet: the column layout, the
// employee rows read from it and the per-day decisions written back.
package grid

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iota-uz/leavesync/pkg/calendar"
)

const (
	ColID        = "ID"
	ColName      = "Name"
	ColProject   = "Project"
	ColValidated = "Validated"
	ColOverride  = "Override"
)

var ErrLayoutMismatch = errors.New("sheet layout mismatch")

// Week holds the columns of one Monday to Sunday week. Validated and
// Override are -1 when the sheet has no marker column for the week.
type Week struct {
	Days      []int
	Validated int
	Override  int
}

// Layout maps the logical columns of a month sheet to 0-based column
// indexes.
type Layout struct {
	Month   calendar.Month
	Header  []string
	ID      int
	Name    int
	Project int
	Days    map[int]int
	Weeks   []Week
}

func (l *Layout) Width() int {
	return len(l.Header)
}

// WeekOf returns the index into Weeks for day.
func (l *Layout) WeekOf(day int) int {
	return l.Month.WeekOf(day)
}

// BuildHeader returns a fresh header for m: metadata columns, the days of the
// month, and a Validated/Override pair after every Sunday and after the last
// day.
func BuildHeader(m calendar.Month) []string {
	header := []string{ColID, ColName, ColProject}
	last := m.Days()
	for day := 1; day <= last; day++ {
		header = append(header, strconv.Itoa(day))
		if m.Date(day).Weekday() == time.Sunday || day == last {
			header = append(header, ColValidated, ColOverride)
		}
	}
	return header
}

// NewLayout parses the layout of a freshly built header.
func NewLayout(m calendar.Month) *Layout {
	l, err := ParseLayout(BuildHeader(m), m)
	if err != nil {
		panic(err)
	}
	return l
}

func normalizeHeader(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

// ParseLayout reads an existing header row. Every metadata column and every
// day of m must be present; marker columns are attached to the week of the
// closest day column on their left.
func ParseLayout(header []string, m calendar.Month) (*Layout, error) {
	l := &Layout{
		Month:   m,
		Header:  append([]string(nil), header...),
		ID:      -1,
		Name:    -1,
		Project: -1,
		Days:    map[int]int{},
	}
	weeks := m.Weeks()
	l.Weeks = make([]Week, len(weeks))
	for i, days := range weeks {
		l.Weeks[i] = Week{Days: days, Validated: -1, Override: -1}
	}

	lastDay := 0
	for col, raw := range header {
		name := normalizeHeader(raw)
		switch name {
		case "":
			continue
		case "id":
			l.ID = col
			continue
		case "name":
			l.Name = col
			continue
		case "project":
			l.Project = col
			continue
		case "validated", "override":
			if lastDay == 0 {
				return nil, errors.Wrapf(ErrLayoutMismatch, "%s column %d precedes every day column", raw, col+1)
			}
			w := &l.Weeks[m.WeekOf(lastDay)]
			if name == "validated" {
				w.Validated = col
			} else {
				w.Override = col
			}
			continue
		}
		day, err := strconv.Atoi(name)
		if err != nil || day < 1 || day > m.Days() {
			continue
		}
		if _, dup := l.Days[day]; dup {
			return nil, errors.Wrapf(ErrLayoutMismatch, "day %d appears twice", day)
		}
		l.Days[day] = col
		lastDay = day
	}

	var missing []string
	if l.ID < 0 {
		missing = append(missing, ColID)
	}
	if l.Name < 0 {
		missing = append(missing, ColName)
	}
	if l.Project < 0 {
		missing = append(missing, ColProject)
	}
	for day := 1; day <= m.Days(); day++ {
		if _, ok := l.Days[day]; !ok {
			missing = append(missing, strconv.Itoa(day))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrLayoutMismatch, "missing columns %s for %s", strings.Join(missing, ", "), m)
	}
	return l, nil
}

// SheetData is the raw content of a sheet as renderers read it. HeaderRow is
// 1-based and zero when the sheet holds no header at all.
type SheetData struct {
	Header    []string
	HeaderRow int
	Rows      [][]string
}

func (d *SheetData) Empty() bool {
	return d.HeaderRow == 0
}

const headerScanRows = 10

// FindHeader locates the header row among the first rows of a sheet: the
// first row with both an ID and a Name cell. A sheet with content but no such
// row keeps its first non-empty row as header so that ParseLayout reports
// what is missing.
func FindHeader(rows [][]string) *SheetData {
	firstNonEmpty := -1
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		var hasID, hasName bool
		for _, c := range rows[i] {
			switch normalizeHeader(c) {
			case "id":
				hasID = true
			case "name":
				hasName = true
			case "":
				continue
			}
			if firstNonEmpty < 0 {
				firstNonEmpty = i
			}
		}
		if hasID && hasName {
			return &SheetData{Header: rows[i], HeaderRow: i + 1, Rows: rows[i+1:]}
		}
	}
	if firstNonEmpty < 0 {
		return &SheetData{}
	}
	return &SheetData{Header: rows[firstNonEmpty], HeaderRow: firstNonEmpty + 1, Rows: rows[firstNonEmpty+1:]}
}
