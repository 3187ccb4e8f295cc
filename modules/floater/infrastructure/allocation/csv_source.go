package allocation

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/leavesync/modules/floater/domain/floater"
	"github.com/iota-uz/leavesync/pkg/calendar"
)

// CapacityCSVSource reads precomputed free hours from a CSV with the columns
// employee_id, name and free_hours. The month is implied by the export.
type CapacityCSVSource struct {
	Path     string
	Resolver Resolver
}

func (s *CapacityCSVSource) Name() string { return "capacity csv " + s.Path }

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func (s *CapacityCSVSource) Hours(_ context.Context, _ calendar.Month) (map[int]floater.Hours, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open capacity csv %s", s.Path)
	}
	defer f.Close()
	return s.read(f)
}

func (s *CapacityCSVSource) read(r io.Reader) (map[int]floater.Hours, error) {
	cr := csv.NewReader(stripUTF8BOM(bufio.NewReader(r)))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("capacity csv: missing header")
		}
		return nil, errors.Wrap(err, "capacity csv header")
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	freeCol, ok := idx["free_hours"]
	if !ok {
		return nil, errors.New("capacity csv: missing free_hours column")
	}
	idCol, hasID := idx["employee_id"]
	nameCol, hasName := idx["name"]
	if !hasID && !hasName {
		return nil, errors.New("capacity csv: needs an employee_id or name column")
	}
	field := func(rec []string, col int, ok bool) string {
		if !ok || col >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[col])
	}

	out := map[int]floater.Hours{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "capacity csv line %d", line)
		}
		raw := field(rec, freeCol, true)
		if raw == "" {
			continue
		}
		free, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return nil, errors.Wrapf(err, "capacity csv line %d: free_hours %q", line, raw)
		}
		id, ok := s.Resolver.Resolve(field(rec, idCol, hasID), field(rec, nameCol, hasName))
		if !ok {
			continue
		}
		out[id] = out[id].Add(floater.Free(free))
	}
	return out, nil
}
