// Package enrich implements the expense export enrichment workflow. An
// export parsed from the accounting platform is joined against a reference
// workbook to add a Department column, classified into locations by amount,
// and condensed into a ledger-ready Summary sheet grouped by expense
// account, department and location.
package enrich

import (
	"strings"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/internal/workbook"
	"expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Reference workbook sheet names.
const (
	EmployeeSheet = "Employee"
	AccountSheet  = "Account"
)

// Employee sheet columns, compared after trimming and lowercasing.
const (
	employeePayerColumn      = "spendesk names"
	employeeDepartmentColumn = "netsuite department"
)

// Account sheet columns, compared after trimming.
const (
	accountNumberColumn = "Expense Account Number"
	accountNameColumn   = "Display Name"
)

// Config holds the enrichment settings
type Config struct {
	// CentralThreshold is the exclusive upper bound below which an expense
	// is assigned the Central location.
	CentralThreshold decimal.Decimal `json:"central_threshold"`

	// Vendor names the card provider in the Summary sheet template fields.
	Vendor string `json:"vendor"`
}

// DefaultConfig returns the standard enrichment settings
func DefaultConfig() *Config {
	return &Config{
		CentralThreshold: decimal.NewFromInt(250),
		Vendor:           "Spendesk",
	}
}

// Validate checks the enrichment settings
func (c *Config) Validate() error {
	if c.CentralThreshold.LessThanOrEqual(decimal.Zero) {
		return errors.ValidationError(
			errors.CodeInvalidConfig,
			"central_threshold",
			c.CentralThreshold.String(),
			nil,
		).WithSuggestion("Set the central threshold to a positive amount")
	}

	if strings.TrimSpace(c.Vendor) == "" {
		return errors.ValidationError(
			errors.CodeInvalidConfig,
			"vendor",
			c.Vendor,
			nil,
		).WithSuggestion("Provide a vendor name for the summary template")
	}

	return nil
}

// Enricher joins expense exports against reference data and builds the
// summary sheet
type Enricher struct {
	config *Config
	logger logger.Logger
}

// NewEnricher creates an enricher with the given configuration
func NewEnricher(config *Config) (*Enricher, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Enricher{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("enricher"),
	}, nil
}

// ReferenceData holds the lookup tables loaded from the reference workbook.
// The employee mapping is resolved eagerly; the account sheet is kept as a
// table because its columns are only required once the summary is built.
type ReferenceData struct {
	departments    map[string]string
	hasDepartments bool
	accounts       *tabular.Table
}

// HasDepartments reports whether the Employee sheet carries a department
// column
func (rd *ReferenceData) HasDepartments() bool {
	return rd.hasDepartments
}

// Department returns the department mapped to a payer
func (rd *ReferenceData) Department(payer string) (string, bool) {
	department, ok := rd.departments[payer]
	return department, ok
}

// LoadReferenceData reads the Employee and Account sheets from the
// reference workbook. Both sheets must exist. The Employee sheet only
// yields a payer to department mapping when it carries both the payer and
// the department column; when the department column is absent the mapping
// is empty and every export row falls back to a blank department.
func (e *Enricher) LoadReferenceData(path string) (*ReferenceData, error) {
	employee, err := workbook.ReadSheet(path, EmployeeSheet)
	if err != nil {
		return nil, err
	}
	account, err := workbook.ReadSheet(path, AccountSheet)
	if err != nil {
		return nil, err
	}

	ref := &ReferenceData{
		departments: make(map[string]string),
		accounts:    trimHeaders(account),
	}

	departmentIdx := findNormalizedColumn(employee.Headers, employeeDepartmentColumn)
	if departmentIdx >= 0 {
		payerIdx := findNormalizedColumn(employee.Headers, employeePayerColumn)
		if payerIdx < 0 {
			return nil, errors.MissingColumnsError(EmployeeSheet, path, []string{employeePayerColumn})
		}

		ref.hasDepartments = true
		for _, row := range employee.Rows {
			payer := row[payerIdx]
			if payer == "" {
				continue
			}
			// First occurrence wins for duplicated payer entries.
			if _, ok := ref.departments[payer]; !ok {
				ref.departments[payer] = row[departmentIdx]
			}
		}
	}

	e.logger.WithFields(logger.Fields{
		"reference_file":  path,
		"employees":       len(ref.departments),
		"has_departments": ref.hasDepartments,
		"accounts":        ref.accounts.RowCount(),
	}).Info("Loaded reference workbook")

	return ref, nil
}

// Stats reports what the enrichment pass changed
type Stats struct {
	Rows              int
	DepartmentMatches int
	CentralRows       int
}

// Enrich inserts a Department column at position 0 and a Location column at
// position 1 of the export table.
//
// Departments come from the payer mapping of the reference workbook; rows
// without a mapping stay blank. The location is Central for rows whose
// signed total amount parses as a number strictly below the configured
// threshold, blank otherwise. When the export has no signed total amount
// column every location stays blank.
func (e *Enricher) Enrich(export *tabular.Table, ref *ReferenceData) (*Stats, error) {
	stats := &Stats{Rows: export.RowCount()}

	departments := make([]string, export.RowCount())
	if ref.HasDepartments() {
		payerIdx := export.ColumnIndex("Payer")
		if payerIdx < 0 {
			return nil, errors.MissingColumnsError("Export", "", []string{"Payer"})
		}
		for i, row := range export.Rows {
			if department, ok := ref.Department(row[payerIdx]); ok {
				departments[i] = department
				stats.DepartmentMatches++
			}
		}
	}
	export.InsertColumn(0, "Department", departments)

	locations := make([]string, export.RowCount())
	if amountIdx := export.FindColumn("signed total amount"); amountIdx >= 0 {
		for i, row := range export.Rows {
			amount, err := models.ParseAmount(row[amountIdx])
			if err != nil {
				continue
			}
			if amount.LessThan(e.config.CentralThreshold) {
				locations[i] = "Central"
				stats.CentralRows++
			}
		}
	}
	export.InsertColumn(1, "Location", locations)

	e.logger.WithFields(logger.Fields{
		"rows":               stats.Rows,
		"department_matches": stats.DepartmentMatches,
		"central_rows":       stats.CentralRows,
	}).Info("Enriched export with departments and locations")

	return stats, nil
}

// findNormalizedColumn locates a header by its trimmed, lowercased form
func findNormalizedColumn(headers []string, name string) int {
	for i, header := range headers {
		if strings.ToLower(strings.TrimSpace(header)) == name {
			return i
		}
	}
	return -1
}

// trimHeaders returns the table with surrounding whitespace removed from
// every header
func trimHeaders(t *tabular.Table) *tabular.Table {
	trimmed := make([]string, len(t.Headers))
	for i, header := range t.Headers {
		trimmed[i] = strings.TrimSpace(header)
	}
	return &tabular.Table{Headers: trimmed, Rows: t.Rows}
}
