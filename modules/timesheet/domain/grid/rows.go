package grid

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one employee/project line of a month sheet.
type Row struct {
	// Line is the 1-based sheet row number.
	Line       int
	ExternalID string
	Name       string
	Project    string
	// Hours holds the parseable values currently in the day cells.
	Hours     map[int]decimal.Decimal
	Validated map[int]bool
	Override  map[int]bool
}

// Locked reports whether week carries the override marker. A locked week is
// never written.
func (r Row) Locked(week int) bool {
	return r.Override[week]
}

func cell(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

// ParseMarker reads a checkbox-like cell.
func ParseMarker(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "x", "yes", "y", "1", "✓", "✔":
		return true
	default:
		return false
	}
}

// ParseHours reads a numeric cell. Decimal commas are accepted; negative or
// non-numeric cells count as empty.
func ParseHours(v string) (decimal.Decimal, bool) {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// ParseRows reads the data rows below the header. Rows with neither an ID nor
// a name are skipped.
func ParseRows(l *Layout, data *SheetData) []Row {
	var out []Row
	for i, cells := range data.Rows {
		r := Row{
			Line:       data.HeaderRow + 1 + i,
			ExternalID: cell(cells, l.ID),
			Name:       cell(cells, l.Name),
			Project:    cell(cells, l.Project),
			Hours:      map[int]decimal.Decimal{},
			Validated:  map[int]bool{},
			Override:   map[int]bool{},
		}
		if r.ExternalID == "" && r.Name == "" {
			continue
		}
		for day, col := range l.Days {
			if h, ok := ParseHours(cell(cells, col)); ok {
				r.Hours[day] = h
			}
		}
		for w, week := range l.Weeks {
			r.Validated[w] = ParseMarker(cell(cells, week.Validated))
			r.Override[w] = ParseMarker(cell(cells, week.Override))
		}
		out = append(out, r)
	}
	return out
}
