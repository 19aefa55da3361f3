// Package reporter builds the presentation layer of a reconciliation run.
//
// Two artifacts are produced here. The outlier report is the side-by-side
// sheet of unmatched records, grouped by payer with per-payer subtotal rows,
// ready to be written as the Outliers sheet of the result workbook. The run
// summary is the closing console or JSON output describing record counts,
// unmatched totals and the gap between the two ledgers.
//
// Report layout for the Outliers sheet:
//
//	Payer | Bookkeeping Description | Bookkeeping Amount | Statement Description | Statement Amount | Statement Credit
//
// Payers are listed alphabetically. Each payer's unmatched bookkeeping and
// statement rows are interleaved side by side, the payer name appears only on
// the first row of its group, and every group closes with a Total row followed
// by a blank spacer row (except after the final payer).
package reporter

import (
	"fmt"
	"sort"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/tabular"

	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported run summary output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format    OutputFormat `json:"format"`
	UseColors bool         `json:"use_colors"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:    FormatConsole,
		UseColors: true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates reconciliation reports
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified
// configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// OutlierColumns is the header row of the outlier report
var OutlierColumns = []string{
	"Payer",
	"Bookkeeping Description",
	"Bookkeeping Amount",
	"Statement Description",
	"Statement Amount",
	"Statement Credit",
}

// OutlierReport is the side-by-side comparison of unmatched records
type OutlierReport struct {
	Table *tabular.Table

	// TotalRows holds the data row indices of the per-payer Total rows so
	// the workbook writer can style them.
	TotalRows []int

	BookkeepingTotal decimal.Decimal
	StatementTotal   decimal.Decimal
	PayerCount       int
}

// BuildOutlierReport creates the side-by-side outlier report from the
// unmatched records of both ledgers. Records arrive in source order and keep
// that order within their payer group.
func (rg *ReportGenerator) BuildOutlierReport(unmatchedBookkeeping, unmatchedStatement []*models.Record) *OutlierReport {
	bookByPayer := groupByPayer(unmatchedBookkeeping)
	stmtByPayer := groupByPayer(unmatchedStatement)

	payers := make([]string, 0, len(bookByPayer)+len(stmtByPayer))
	seen := make(map[string]bool)
	for _, record := range unmatchedBookkeeping {
		if !seen[record.Payer] {
			seen[record.Payer] = true
			payers = append(payers, record.Payer)
		}
	}
	for _, record := range unmatchedStatement {
		if !seen[record.Payer] {
			seen[record.Payer] = true
			payers = append(payers, record.Payer)
		}
	}
	sort.Strings(payers)

	report := &OutlierReport{
		Table:      tabular.New(OutlierColumns),
		PayerCount: len(payers),
	}

	for i, payer := range payers {
		rg.appendPayerGroup(report, payer, bookByPayer[payer], stmtByPayer[payer])

		// Spacer between payer groups, not after the last one.
		if i < len(payers)-1 {
			report.Table.AppendRow([]string{"", "", "", "", "", ""})
		}
	}

	for _, record := range unmatchedBookkeeping {
		report.BookkeepingTotal = report.BookkeepingTotal.Add(record.Amount)
	}
	for _, record := range unmatchedStatement {
		report.StatementTotal = report.StatementTotal.Add(record.Amount)
	}

	return report
}

// appendPayerGroup writes one payer's interleaved rows plus its Total row
func (rg *ReportGenerator) appendPayerGroup(report *OutlierReport, payer string, bookRows, stmtRows []*models.Record) {
	maxRows := len(bookRows)
	if len(stmtRows) > maxRows {
		maxRows = len(stmtRows)
	}

	for i := 0; i < maxRows; i++ {
		row := make([]string, len(OutlierColumns))
		if i == 0 {
			row[0] = payer
		}
		if i < len(bookRows) {
			row[1] = bookRows[i].Description
			row[2] = bookRows[i].Amount.String()
		}
		if i < len(stmtRows) {
			row[3] = stmtRows[i].Description
			row[4] = stmtRows[i].Amount.String()
			row[5] = stmtRows[i].CreditRaw
		}
		report.Table.AppendRow(row)
	}

	var bookTotal, stmtTotal, creditTotal decimal.Decimal
	for _, record := range bookRows {
		bookTotal = bookTotal.Add(record.Amount)
	}
	for _, record := range stmtRows {
		stmtTotal = stmtTotal.Add(record.Amount)
		creditTotal = creditTotal.Add(record.Credit)
	}

	report.TotalRows = append(report.TotalRows, report.Table.RowCount())
	report.Table.AppendRow([]string{
		"",
		"Total",
		formatTotal(bookTotal),
		"Total",
		formatTotal(stmtTotal),
		formatTotal(creditTotal),
	})
}

// formatTotal renders a subtotal as pounds, leaving exact zero blank
func formatTotal(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return "£" + amount.StringFixed(2)
}

func groupByPayer(records []*models.Record) map[string][]*models.Record {
	groups := make(map[string][]*models.Record)
	for _, record := range records {
		groups[record.Payer] = append(groups[record.Payer], record)
	}
	return groups
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
