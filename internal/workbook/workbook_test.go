package workbook

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/pkg/errors"
)

func createTestSheets() []SheetSpec {
	outliers := tabular.New([]string{"Payer", "Bookkeeping Description", "Bookkeeping Amount"})
	outliers.AppendRow([]string{"Acme Corp", "Monthly Fee", "100"})
	outliers.AppendRow([]string{"", "Total", "£100.00"})

	bookkeeping := tabular.New([]string{"Payer", "Description", "Signed Total Amount"})
	bookkeeping.AppendRow([]string{"Acme Corp", "Monthly Fee", "100"})

	return []SheetSpec{
		{
			Name:         "Outliers",
			Table:        outliers,
			StyleHeader:  true,
			TotalRows:    []int{1},
			ColumnWidths: map[string]float64{"A": 20, "B": 30, "C": 15},
		},
		{
			Name:        "Bookkeeping",
			Table:       bookkeeping,
			StyleHeader: true,
		},
	}
}

func TestWriteAndReadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteWorkbook(path, createTestSheets()); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	// The first spec becomes the default sheet.
	first, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	expectedHeaders := []string{"Payer", "Bookkeeping Description", "Bookkeeping Amount"}
	if !reflect.DeepEqual(first.Headers, expectedHeaders) {
		t.Errorf("first sheet headers = %v, want %v", first.Headers, expectedHeaders)
	}
	if first.RowCount() != 2 {
		t.Fatalf("first sheet rows = %d, want 2", first.RowCount())
	}
	if got := first.Cell(1, "Bookkeeping Amount"); got != "£100.00" {
		t.Errorf("total cell = %q, want £100.00", got)
	}

	named, err := ReadSheet(path, "Bookkeeping")
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}
	if named.RowCount() != 1 || named.Cell(0, "Payer") != "Acme Corp" {
		t.Errorf("named sheet content unexpected: %v", named.Rows)
	}
}

func TestReadSheetMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteWorkbook(path, createTestSheets()); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	_, err := ReadSheet(path, "Employee")
	if err == nil {
		t.Fatal("expected error for missing worksheet")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.CodeMissingSheet {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.CodeMissingSheet)
	}
}

func TestReadTableFileNotFound(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "missing.xlsx"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.CodeFileNotFound {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.CodeFileNotFound)
	}
}

func TestWriteWorkbookMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "report.xlsx")

	err := WriteWorkbook(path, createTestSheets())
	if err == nil {
		t.Fatal("expected error for missing output directory")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.CodeDirectoryNotFound {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.CodeDirectoryNotFound)
	}
}

func TestAppendSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.xlsx")

	data := tabular.New([]string{"Department", "Location", "Payer"})
	data.AppendRow([]string{"Engineering", "Central", "Jane Doe"})
	if err := WriteWorkbook(path, []SheetSpec{{Name: "Data", Table: data}}); err != nil {
		t.Fatalf("WriteWorkbook failed: %v", err)
	}

	summary := tabular.New([]string{"REFERENCE", "VENDOR"})
	summary.AppendRow([]string{"Spendesk Jun-25", "Spendesk"})
	if err := AppendSheet(path, SheetSpec{Name: "Summary", Table: summary}); err != nil {
		t.Fatalf("AppendSheet failed: %v", err)
	}

	// Both sheets must survive, with Data still first.
	first, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if first.Cell(0, "Payer") != "Jane Doe" {
		t.Errorf("data sheet content unexpected: %v", first.Rows)
	}

	appended, err := ReadSheet(path, "Summary")
	if err != nil {
		t.Fatalf("ReadSheet(Summary) failed: %v", err)
	}
	if appended.Cell(0, "VENDOR") != "Spendesk" {
		t.Errorf("summary sheet content unexpected: %v", appended.Rows)
	}
}

func TestReadTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	content := "Payer,Description,Debit,Credit\nAcme Corp,Monthly Fee,100,\nBeta Ltd,Refund,,50\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if !reflect.DeepEqual(table.Headers, []string{"Payer", "Description", "Debit", "Credit"}) {
		t.Errorf("headers = %v", table.Headers)
	}
	if table.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", table.RowCount())
	}
	if got := table.Cell(1, "Credit"); got != "50" {
		t.Errorf("credit cell = %q, want 50", got)
	}
}

func TestReadTableCSVWindows1252(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")

	// "Café Royal" with the é stored as the Windows-1252 byte 0xE9, which is
	// not valid UTF-8 on its own.
	content := append([]byte("Payer,Description,Debit,Credit\nCaf"), 0xE9)
	content = append(content, []byte(" Royal,Lunch,42,\n")...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if got := table.Cell(0, "Payer"); got != "Café Royal" {
		t.Errorf("payer = %q, want decoded Windows-1252 text", got)
	}
}
