package workbook

import (
	"os"
	"path/filepath"

	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// Fill colors matching the styling of the produced reports: light gray for
// header rows, lavender for subtotal rows.
const (
	headerFillColor = "D3D3D3"
	totalFillColor  = "E6E6FA"
)

// SheetSpec describes one worksheet of an output workbook.
type SheetSpec struct {
	// Name is the worksheet name.
	Name string
	// Table holds the header row and data rows to write.
	Table *tabular.Table
	// StyleHeader applies the bold gray header style to the first row.
	StyleHeader bool
	// TotalRows lists 0-based data row indices to render with the
	// subtotal style.
	TotalRows []int
	// ColumnWidths maps column letters ("A") to widths.
	ColumnWidths map[string]float64
}

// WriteWorkbook writes the given sheets to an xlsx file, replacing any
// existing file at path. Sheets are created in order, so the first spec
// becomes the workbook's visible default sheet.
func WriteWorkbook(path string, sheets []SheetSpec) error {
	if len(sheets) == 0 {
		return errors.ProcessingError(errors.CodeWriteFailed,
			"write workbook", nil).WithContext("path", path)
	}

	if err := checkOutputDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := newFillStyle(f, headerFillColor)
	if err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "create header style", err)
	}
	totalStyle, err := newFillStyle(f, totalFillColor)
	if err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "create total style", err)
	}

	defaultSheet := f.GetSheetName(0)
	for _, spec := range sheets {
		if err := writeSheet(f, spec, headerStyle, totalStyle); err != nil {
			return err
		}
	}

	// The implicit default sheet is not part of the report.
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "remove default sheet", err)
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return nil
}

// AppendSheet adds one worksheet to an existing workbook, replacing a
// sheet with the same name if present. The enrichment workflow writes its
// Data sheet first and appends the Summary sheet only when the summary
// stage succeeds.
func AppendSheet(path string, spec SheetSpec) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return errors.ParseError(errors.CodeInvalidWorkbook, path,
			"failed to open workbook for appending", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(spec.Name); err == nil && idx >= 0 {
		if err := f.DeleteSheet(spec.Name); err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "replace worksheet", err).
				WithContext("sheet", spec.Name)
		}
	}

	headerStyle, err := newFillStyle(f, headerFillColor)
	if err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "create header style", err)
	}
	totalStyle, err := newFillStyle(f, totalFillColor)
	if err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "create total style", err)
	}

	if err := writeSheet(f, spec, headerStyle, totalStyle); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return nil
}

func checkOutputDir(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeDirectoryNotFound, dir, err)
		}
		return errors.FileError(errors.CodeFilePermission, dir, err)
	}
	if !info.IsDir() {
		return errors.FileError(errors.CodeDirectoryNotFound, dir, nil)
	}
	return nil
}

func writeSheet(f *excelize.File, spec SheetSpec, headerStyle, totalStyle int) error {
	if _, err := f.NewSheet(spec.Name); err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "create worksheet", err).
			WithContext("sheet", spec.Name)
	}

	headers := make([]interface{}, len(spec.Table.Headers))
	for i, h := range spec.Table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(spec.Name, "A1", &headers); err != nil {
		return errors.ProcessingError(errors.CodeWriteFailed, "write header row", err).
			WithContext("sheet", spec.Name)
	}

	for r, row := range spec.Table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "compute cell name", err)
		}
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		if err := f.SetSheetRow(spec.Name, cell, &cells); err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "write data row", err).
				WithContext("sheet", spec.Name)
		}
	}

	width := len(spec.Table.Headers)
	if width > 0 && spec.StyleHeader {
		last, err := excelize.CoordinatesToCellName(width, 1)
		if err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "compute cell name", err)
		}
		if err := f.SetCellStyle(spec.Name, "A1", last, headerStyle); err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "style header row", err).
				WithContext("sheet", spec.Name)
		}
	}

	for _, rowIdx := range spec.TotalRows {
		excelRow := rowIdx + 2
		first, err := excelize.CoordinatesToCellName(1, excelRow)
		if err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "compute cell name", err)
		}
		last, err := excelize.CoordinatesToCellName(width, excelRow)
		if err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "compute cell name", err)
		}
		if err := f.SetCellStyle(spec.Name, first, last, totalStyle); err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "style total row", err).
				WithContext("sheet", spec.Name)
		}
	}

	for col, w := range spec.ColumnWidths {
		if err := f.SetColWidth(spec.Name, col, col, w); err != nil {
			return errors.ProcessingError(errors.CodeWriteFailed, "set column width", err).
				WithContext("sheet", spec.Name)
		}
	}

	return nil
}

func newFillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{color},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
}
