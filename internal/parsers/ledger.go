// Package parsers loads the tool's input files into cleaned in-memory
// datasets: the bookkeeping and bank statement ledgers used for
// reconciliation, and the semicolon-delimited expense export used for
// enrichment.
package parsers

import (
	"strings"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/normalize"
	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/internal/workbook"
	"expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"
)

// LedgerParser loads one reconciliation input and applies the cleaning
// rules that decide which rows take part in matching.
type LedgerParser struct {
	config *LedgerConfig
	logger logger.Logger
}

// NewLedgerParser creates a new LedgerParser for the given schema
func NewLedgerParser(config *LedgerConfig) (*LedgerParser, error) {
	if config == nil {
		return nil, errors.ConfigurationError(
			errors.CodeMissingConfig,
			"ledger_config",
			nil,
			nil,
		).WithSuggestion("Provide a bookkeeping or statement schema")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"ledger_config",
			config,
			err,
		).WithSuggestion("Check the ledger schema configuration values")
	}

	log := logger.GetGlobalLogger().WithComponent("ledger_parser").
		WithField("ledger_type", config.Type.String())

	return &LedgerParser{
		config: config,
		logger: log,
	}, nil
}

// LoadStats reports what the cleaning pass did to the raw rows
type LoadStats struct {
	TotalRows        int `json:"total_rows"`
	DroppedEmpty     int `json:"dropped_empty"`
	DroppedBlankText int `json:"dropped_blank_text"`
	DroppedBadAmount int `json:"dropped_bad_amount"`
	LoadedRecords    int `json:"loaded_records"`
}

// LedgerData is the result of loading one reconciliation input. Records
// drive matching and reporting; Cleaned preserves the selected columns
// under their original header spellings for the output workbook.
type LedgerData struct {
	Records []*models.Record
	Cleaned *tabular.Table
	Stats   *LoadStats
}

// ParseFile reads the ledger file at path and cleans it. The format is
// chosen by extension (.xlsx family, legacy .xls, or CSV).
func (lp *LedgerParser) ParseFile(path string) (*LedgerData, error) {
	lp.logger.WithFields(logger.Fields{
		"file_path": path,
		"operation": "parse_ledger",
	}).Info("Loading ledger file")

	table, err := workbook.ReadTable(path)
	if err != nil {
		lp.logger.WithError(err).WithField("file_path", path).Error("Failed to read ledger file")
		return nil, err
	}

	return lp.ParseTable(table, path)
}

// ParseTable resolves the required columns against the table's headers and
// applies the cleaning rules, in order:
//
//  1. drop rows where every selected cell is empty
//  2. normalize Payer and Description text
//  3. drop rows where Payer and Description are both blank
//  4. drop rows whose designated amount cell does not parse as a number
//
// It fails when required columns are missing or no rows survive cleaning.
func (lp *LedgerParser) ParseTable(table *tabular.Table, source string) (*LedgerData, error) {
	label := lp.config.Type.Label()

	mapping, missing := table.ResolveColumns(lp.config.RequiredColumns)
	if len(missing) > 0 {
		lp.logger.WithFields(logger.Fields{
			"source":          source,
			"missing_columns": missing,
		}).Error("Required columns not found")
		return nil, errors.MissingColumnsError(label, source, missing)
	}

	actual := make([]string, len(lp.config.RequiredColumns))
	for i, name := range lp.config.RequiredColumns {
		actual[i] = mapping[name]
	}

	selected, err := table.Select(actual)
	if err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "select ledger columns", err)
	}

	payerPos := lp.config.columnPosition(ColumnPayer)
	descPos := lp.config.columnPosition(ColumnDescription)
	amountPos := lp.config.columnPosition(lp.config.AmountColumn)
	creditPos := -1
	if lp.config.CreditColumn != "" {
		creditPos = lp.config.columnPosition(lp.config.CreditColumn)
	}

	stats := &LoadStats{TotalRows: selected.RowCount()}
	cleaned := tabular.New(selected.Headers)
	var records []*models.Record

	for i, row := range selected.Rows {
		if rowIsEmpty(row) {
			stats.DroppedEmpty++
			continue
		}

		payer := normalize.Clean(row[payerPos])
		description := normalize.Clean(row[descPos])
		if normalize.BothBlank(payer, description) {
			stats.DroppedBlankText++
			continue
		}

		amount, err := models.ParseAmount(row[amountPos])
		if err != nil {
			stats.DroppedBadAmount++
			continue
		}

		record := models.NewRecord(payer, description, amount, i)
		if creditPos >= 0 {
			record.CreditRaw = row[creditPos]
			record.Credit = models.ParseAmountOrZero(row[creditPos])
		}
		records = append(records, record)

		outRow := make([]string, len(row))
		copy(outRow, row)
		outRow[payerPos] = payer
		outRow[descPos] = description
		cleaned.AppendRow(outRow)
	}

	stats.LoadedRecords = len(records)

	lp.logger.WithFields(logger.Fields{
		"source":             source,
		"total_rows":         stats.TotalRows,
		"dropped_empty":      stats.DroppedEmpty,
		"dropped_blank_text": stats.DroppedBlankText,
		"dropped_bad_amount": stats.DroppedBadAmount,
		"loaded_records":     stats.LoadedRecords,
	}).Info("Ledger cleaning complete")

	if len(records) == 0 {
		return nil, errors.EmptyAfterCleaningError(label, source)
	}

	return &LedgerData{
		Records: records,
		Cleaned: cleaned,
		Stats:   stats,
	}, nil
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
