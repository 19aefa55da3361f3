// Package workbook reads and writes the spreadsheet formats the tool
// exchanges with accounting systems: .xlsx workbooks, legacy .xls files,
// and plain CSV. Every source surfaces as a tabular.Table whose first row
// supplies the headers.
package workbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/pkg/errors"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// ReadTable loads the first worksheet of a workbook, or the whole file for
// CSV input. The format is chosen by file extension; anything that is not
// .csv or .xls is treated as an xlsx-family workbook.
func ReadTable(path string) (*tabular.Table, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xls":
		return readXLS(path, "")
	default:
		return readExcel(path, "")
	}
}

// ReadSheet loads a named worksheet from a workbook. CSV files have no
// sheets and always fail.
func ReadSheet(path, sheet string) (*tabular.Table, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return nil, errors.ParseError(errors.CodeMissingSheet, path,
			fmt.Sprintf("CSV files have no worksheet %q", sheet), nil)
	case ".xls":
		return readXLS(path, sheet)
	default:
		return readExcel(path, sheet)
	}
}

func checkReadable(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return errors.FileError(errors.CodeFilePermission, path, err)
	}
	return nil
}

func readExcel(path, sheet string) (*tabular.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			"failed to open workbook", err)
	}
	defer f.Close()

	name := sheet
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
				"workbook contains no worksheets", nil)
		}
		name = sheets[0]
	} else {
		idx, err := f.GetSheetIndex(name)
		if err != nil || idx < 0 {
			return nil, errors.ParseError(errors.CodeMissingSheet, path,
				fmt.Sprintf("worksheet %q not found", name), err)
		}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			fmt.Sprintf("failed to read worksheet %q", name), err)
	}

	return tableFromRows(rows), nil
}

func readXLS(path, sheet string) (*tabular.Table, error) {
	wb, err := xls.OpenFile(path)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			"failed to open .xls workbook", err)
	}

	for i := 0; i < wb.GetNumberSheets(); i++ {
		sh, err := wb.GetSheet(i)
		if err != nil || sh == nil {
			continue
		}
		if sheet != "" && sh.GetName() != sheet {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(sh.GetNumberRows()); r++ {
			row, err := sh.GetRow(r)
			if err != nil || row == nil {
				continue
			}
			var cells []string
			for _, col := range row.GetCols() {
				if col != nil {
					cells = append(cells, col.GetString())
				} else {
					cells = append(cells, "")
				}
			}
			rows = append(rows, cells)
		}
		return tableFromRows(rows), nil
	}

	if sheet != "" {
		return nil, errors.ParseError(errors.CodeMissingSheet, path,
			fmt.Sprintf("worksheet %q not found", sheet), nil)
	}
	return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
		"workbook contains no worksheets", nil)
}

// readCSV parses a comma-separated file. Content that is not valid UTF-8
// is decoded as Windows-1252 first, the encoding desktop spreadsheet tools
// commonly emit.
func readCSV(path string) (*tabular.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}

	content := string(raw)
	if !utf8.Valid(raw) {
		decoded, derr := charmap.Windows1252.NewDecoder().Bytes(raw)
		if derr != nil {
			return nil, errors.ParseError(errors.CodeEncodingError, path,
				"file is neither UTF-8 nor Windows-1252", derr)
		}
		content = string(decoded)
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidWorkbook, path,
			"failed to parse CSV", err)
	}

	return tableFromRows(records), nil
}

func tableFromRows(rows [][]string) *tabular.Table {
	if len(rows) == 0 {
		return tabular.New(nil)
	}

	table := tabular.New(rows[0])
	for _, row := range rows[1:] {
		table.AppendRow(row)
	}
	return table
}
