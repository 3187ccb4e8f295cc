package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type ExcelOptions struct {
	Template string   `yaml:"template" toml:"template"`
	Sheets   []string `yaml:"sheets" toml:"sheets"`
}

type SheetsOptions struct {
	SpreadsheetID      string   `yaml:"spreadsheet_id" toml:"spreadsheet_id"`
	Sheets             []string `yaml:"sheets" toml:"sheets"`
	LeaveRequestsSheet string   `yaml:"leave_requests_sheet" toml:"leave_requests_sheet"`
	BalancesSheet      string   `yaml:"balances_sheet" toml:"balances_sheet"`
	FloaterSheet       string   `yaml:"floater_sheet" toml:"floater_sheet"`
}

type FloaterOptions struct {
	AverageSalary      float64 `yaml:"average_salary" toml:"average_salary" validate:"gte=0"`
	Currency           string  `yaml:"currency" toml:"currency" validate:"len=3"`
	AllocationWorkbook string  `yaml:"allocation_workbook" toml:"allocation_workbook"`
	CapacityCSV        string  `yaml:"capacity_csv" toml:"capacity_csv"`
}

// RunFile is the static per-deployment configuration: target period,
// spreadsheet identifiers and business constants.
type RunFile struct {
	Month             int            `yaml:"month" toml:"month" validate:"omitempty,min=1,max=12"`
	Year              int            `yaml:"year" toml:"year" validate:"omitempty,min=1970,max=9999"`
	ExcludedEmployees []string       `yaml:"excluded_employees" toml:"excluded_employees"`
	RecentDays        int            `yaml:"recent_days" toml:"recent_days" validate:"gte=1"`
	Proration         string         `yaml:"proration" toml:"proration" validate:"oneof=equal proportional"`
	Excel             ExcelOptions   `yaml:"excel" toml:"excel"`
	GoogleSheets      SheetsOptions  `yaml:"google_sheets" toml:"google_sheets"`
	Floater           FloaterOptions `yaml:"floater" toml:"floater"`
}

func DefaultRunFile() *RunFile {
	r := &RunFile{}
	r.applyDefaults()
	return r
}

func (r *RunFile) applyDefaults() {
	if r.RecentDays == 0 {
		r.RecentDays = 30
	}
	if strings.TrimSpace(r.Proration) == "" {
		r.Proration = "equal"
	}
	if strings.TrimSpace(r.Floater.Currency) == "" {
		r.Floater.Currency = "EUR"
	}
	r.Floater.Currency = strings.ToUpper(r.Floater.Currency)
	r.Proration = strings.ToLower(strings.TrimSpace(r.Proration))
	if r.GoogleSheets.LeaveRequestsSheet == "" {
		r.GoogleSheets.LeaveRequestsSheet = "Leave Requests"
	}
	if r.GoogleSheets.BalancesSheet == "" {
		r.GoogleSheets.BalancesSheet = "Leave Balances"
	}
	if r.GoogleSheets.FloaterSheet == "" {
		r.GoogleSheets.FloaterSheet = "Floaters"
	}
}

// LoadRunFile decodes a YAML or TOML run file, picked by extension. An empty
// path yields the defaults.
func LoadRunFile(path string) (*RunFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultRunFile(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	r := &RunFile{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(b), r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported run file extension: %s", path)
	}
	r.applyDefaults()
	if err := validator.New().Struct(r); err != nil {
		return nil, fmt.Errorf("run file %s: %w", path, describeValidation(err))
	}
	return r, nil
}
