package parsers

import (
	"encoding/csv"
	"os"
	"strings"
	"unicode/utf8"

	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"

	"golang.org/x/text/encoding/charmap"
)

// ExpenseParser loads the semicolon-delimited expense export. The export
// arrives with every value double-quoted and with trailing semicolons on
// each line, so the content is cleaned textually before CSV parsing.
type ExpenseParser struct {
	logger logger.Logger
}

// NewExpenseParser creates a new ExpenseParser
func NewExpenseParser() *ExpenseParser {
	return &ExpenseParser{
		logger: logger.GetGlobalLogger().WithComponent("expense_parser"),
	}
}

// ParseFile reads and cleans the expense export at path. Files that are
// not valid UTF-8 are decoded as Windows-1252, the encoding desktop tools
// commonly produce.
func (ep *ExpenseParser) ParseFile(path string) (*tabular.Table, error) {
	ep.logger.WithFields(logger.Fields{
		"file_path": path,
		"operation": "parse_expenses",
	}).Info("Loading expense export")

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFilePermission, path, err)
	}

	content := string(raw)
	if !utf8.Valid(raw) {
		decoded, derr := charmap.Windows1252.NewDecoder().Bytes(raw)
		if derr != nil {
			return nil, errors.ParseError(errors.CodeEncodingError, path,
				"file is neither UTF-8 nor Windows-1252", derr)
		}
		content = string(decoded)
		ep.logger.WithField("file_path", path).Warn("Export is not UTF-8, decoded as Windows-1252")
	}

	lines := cleanExport(content)
	if len(lines) == 0 {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			"export contains no data", nil)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			"failed to parse expense export", err)
	}
	if len(rows) == 0 {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			"export contains no data", nil)
	}

	table := tabular.New(rows[0])
	for _, row := range rows[1:] {
		table.AppendRow(row)
	}

	ep.logger.WithFields(logger.Fields{
		"file_path": path,
		"columns":   len(table.Headers),
		"rows":      table.RowCount(),
	}).Info("Expense export loaded")

	return table, nil
}

// cleanExport strips every double quote from the content, trims each line,
// removes trailing semicolons, and drops blank lines.
func cleanExport(content string) []string {
	content = strings.ReplaceAll(content, "\"", "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var cleaned []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cleaned = append(cleaned, strings.TrimRight(strings.TrimSpace(line), ";"))
	}
	return cleaned
}
