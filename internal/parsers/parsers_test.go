package parsers

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/pkg/errors"
)

// Helper function to create a temporary input file
func createTempFile(t *testing.T, pattern string, content []byte) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()

	t.Cleanup(func() {
		os.Remove(tmpFile.Name())
	})

	return tmpFile.Name()
}

func createBookkeepingTable() *tabular.Table {
	table := tabular.New([]string{"payer", "DESCRIPTION", "Signed total amount", "Receipt"})
	table.AppendRow([]string{"  Acme   Corp ", "Monthly  Fee", "100", "yes"})
	table.AppendRow([]string{"Beta Ltd", "Office Rent", "-250.50", "no"})
	return table
}

func TestLedgerConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    *LedgerConfig
		wantError bool
	}{
		{
			name:      "bookkeeping schema valid",
			config:    BookkeepingConfig,
			wantError: false,
		},
		{
			name:      "statement schema valid",
			config:    StatementConfig,
			wantError: false,
		},
		{
			name: "invalid ledger type",
			config: &LedgerConfig{
				Type:            "INVALID",
				RequiredColumns: []string{ColumnPayer, ColumnDescription, ColumnDebit},
				AmountColumn:    ColumnDebit,
			},
			wantError: true,
		},
		{
			name: "amount column outside required set",
			config: &LedgerConfig{
				Type:            models.LedgerTypeBookkeeping,
				RequiredColumns: []string{ColumnPayer, ColumnDescription},
				AmountColumn:    ColumnSignedTotalAmount,
			},
			wantError: true,
		},
		{
			name: "no required columns",
			config: &LedgerConfig{
				Type:         models.LedgerTypeBookkeeping,
				AmountColumn: ColumnSignedTotalAmount,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestGetLedgerConfig(t *testing.T) {
	if got := GetLedgerConfig(models.LedgerTypeBookkeeping); got != BookkeepingConfig {
		t.Error("expected bookkeeping schema")
	}
	if got := GetLedgerConfig(models.LedgerTypeStatement); got != StatementConfig {
		t.Error("expected statement schema")
	}
	if got := GetLedgerConfig("INVALID"); got != nil {
		t.Error("expected nil for unknown ledger type")
	}
}

func TestLedgerParser_ParseTable(t *testing.T) {
	parser, err := NewLedgerParser(BookkeepingConfig)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}

	data, err := parser.ParseTable(createBookkeepingTable(), "bookkeeping.xlsx")
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}

	if len(data.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(data.Records))
	}

	// Text is normalized and the extra Receipt column is discarded.
	first := data.Records[0]
	if first.Payer != "Acme Corp" || first.Description != "Monthly Fee" {
		t.Errorf("normalized record = %s/%s", first.Payer, first.Description)
	}
	if first.Amount.String() != "100" {
		t.Errorf("amount = %s, want 100", first.Amount.String())
	}
	if first.Position != 0 || data.Records[1].Position != 1 {
		t.Errorf("positions = %d/%d, want 0/1", first.Position, data.Records[1].Position)
	}

	// Cleaned table keeps the file's own header spellings.
	expectedHeaders := []string{"payer", "DESCRIPTION", "Signed total amount"}
	if !reflect.DeepEqual(data.Cleaned.Headers, expectedHeaders) {
		t.Errorf("cleaned headers = %v, want %v", data.Cleaned.Headers, expectedHeaders)
	}
	if got := data.Cleaned.Cell(0, "payer"); got != "Acme Corp" {
		t.Errorf("cleaned payer cell = %q, want normalized text", got)
	}
}

func TestLedgerParser_ParseTableMissingColumns(t *testing.T) {
	table := tabular.New([]string{"Payer", "Receipt"})
	table.AppendRow([]string{"Acme Corp", "yes"})

	parser, err := NewLedgerParser(StatementConfig)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}

	_, err = parser.ParseTable(table, "statement.xlsx")
	if err == nil {
		t.Fatal("expected missing columns error")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.CodeMissingColumns {
		t.Errorf("code = %s, want %s", appErr.Code, errors.CodeMissingColumns)
	}
	// Every unresolved column is reported, not just the first.
	for _, want := range []string{"Description", "Debit", "Credit"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("error message %q does not name %s", appErr.Message, want)
		}
	}
}

func TestLedgerParser_CleaningRules(t *testing.T) {
	table := tabular.New([]string{"Payer", "Description", "Signed Total Amount"})
	table.AppendRow([]string{"", "", ""})                       // every cell empty
	table.AppendRow([]string{"nan", "  ", "100"})               // both text fields blank
	table.AppendRow([]string{"", "Wire Fee", "25"})             // blank payer retained
	table.AppendRow([]string{"Acme Corp", "Fee", "£100.00"})    // currency text is non-numeric
	table.AppendRow([]string{"Acme Corp", "Fee", ""})           // missing amount
	table.AppendRow([]string{"Beta Ltd", "Rent", "1,000"})      // grouping separator is non-numeric
	table.AppendRow([]string{"Gamma GmbH", "Hosting", "49.99"}) // survives

	parser, err := NewLedgerParser(BookkeepingConfig)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}

	data, err := parser.ParseTable(table, "bookkeeping.xlsx")
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}

	if len(data.Records) != 2 {
		t.Fatalf("records = %d, want 2 (blank-payer row and clean row)", len(data.Records))
	}
	if data.Records[0].Payer != "" || data.Records[0].Description != "Wire Fee" {
		t.Errorf("first surviving record = %s/%s", data.Records[0].Payer, data.Records[0].Description)
	}
	if data.Records[0].Position != 2 {
		t.Errorf("position = %d, want original row index 2", data.Records[0].Position)
	}
	if data.Records[1].Position != 6 {
		t.Errorf("position = %d, want original row index 6", data.Records[1].Position)
	}

	stats := data.Stats
	if stats.TotalRows != 7 || stats.DroppedEmpty != 1 || stats.DroppedBlankText != 1 ||
		stats.DroppedBadAmount != 3 || stats.LoadedRecords != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLedgerParser_EmptyAfterCleaning(t *testing.T) {
	table := tabular.New([]string{"Payer", "Description", "Signed Total Amount"})
	table.AppendRow([]string{"nan", "None", "100"})
	table.AppendRow([]string{"Acme Corp", "Fee", "not-a-number"})

	parser, err := NewLedgerParser(BookkeepingConfig)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}

	_, err = parser.ParseTable(table, "bookkeeping.xlsx")
	if err == nil {
		t.Fatal("expected empty after cleaning error")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.CodeEmptyAfterCleaning {
		t.Errorf("code = %s, want %s", appErr.Code, errors.CodeEmptyAfterCleaning)
	}
}

func TestLedgerParser_StatementCredit(t *testing.T) {
	table := tabular.New([]string{"Payer", "Description", "Debit", "Credit"})
	table.AppendRow([]string{"Acme Corp", "Fee", "100", "12.50"})
	table.AppendRow([]string{"Beta Ltd", "Refund", "20", "n/a"})

	parser, err := NewLedgerParser(StatementConfig)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}

	data, err := parser.ParseTable(table, "statement.xlsx")
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}

	if got := data.Records[0].Credit.String(); got != "12.5" {
		t.Errorf("credit = %s, want 12.5", got)
	}
	if data.Records[0].CreditRaw != "12.50" {
		t.Errorf("credit raw = %q, want original cell text", data.Records[0].CreditRaw)
	}

	// Unparseable credit keeps its display text but counts as zero.
	if !data.Records[1].Credit.IsZero() {
		t.Errorf("credit = %s, want 0", data.Records[1].Credit.String())
	}
	if data.Records[1].CreditRaw != "n/a" {
		t.Errorf("credit raw = %q, want n/a", data.Records[1].CreditRaw)
	}
}

func TestLedgerParser_ParseFileCSV(t *testing.T) {
	path := createTempFile(t, "statement_*.csv",
		[]byte("Payer,Description,Debit,Credit\nAcme Corp,Monthly Fee,100,\n"))

	parser, err := NewLedgerParser(StatementConfig)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}

	data, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(data.Records) != 1 || data.Records[0].Payer != "Acme Corp" {
		t.Errorf("unexpected records: %v", data.Records)
	}
}

func TestExpenseParser_ParseFile(t *testing.T) {
	content := "\"Payer\";\"Description\";\"Signed Total Amount\";;\n" +
		"\"Jane Doe\";\"Taxi\";\"23.40\";;\n" +
		"\n" +
		";;;\n" +
		"\"John Smith\";\"Team lunch; catered\";\"120.00\";;\n"
	path := createTempFile(t, "expenses_*.csv", []byte(content))

	parser := NewExpenseParser()
	table, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if !reflect.DeepEqual(table.Headers, []string{"Payer", "Description", "Signed Total Amount"}) {
		t.Errorf("headers = %v", table.Headers)
	}
	if table.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", table.RowCount())
	}
	if got := table.Cell(0, "Payer"); got != "Jane Doe" {
		t.Errorf("payer = %q", got)
	}
	// Stripping quotes turns an embedded semicolon into a field break, so
	// the remainder of the description shifts into the next column.
	if got := table.Cell(1, "Description"); got != "Team lunch" {
		t.Errorf("description = %q, want split at embedded semicolon", got)
	}
}

func TestExpenseParser_Windows1252Fallback(t *testing.T) {
	// "Café" encoded as Windows-1252: é is byte 0xE9, invalid as UTF-8.
	content := []byte("Payer;Description;Signed Total Amount\nCaf\xe9 Ltd;Coffee;9.50\n")
	path := createTempFile(t, "expenses_*.csv", content)

	parser := NewExpenseParser()
	table, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if got := table.Cell(0, "Payer"); got != "Café Ltd" {
		t.Errorf("payer = %q, want decoded Café Ltd", got)
	}
}

func TestExpenseParser_FileNotFound(t *testing.T) {
	parser := NewExpenseParser()
	_, err := parser.ParseFile("/nonexistent/expenses.csv")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.CodeFileNotFound {
		t.Errorf("code = %s, want %s", appErr.Code, errors.CodeFileNotFound)
	}
}

func TestCleanExport(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "strips quotes and trailing semicolons",
			input:    "\"a\";\"b\";;\n\"c\";\"d\";\n",
			expected: []string{"a;b", "c;d"},
		},
		{
			name:     "drops blank lines",
			input:    "a;b\n\n   \nc;d",
			expected: []string{"a;b", "c;d"},
		},
		{
			name:     "semicolon-only lines become empty",
			input:    "a;b\n;;;\nc;d",
			expected: []string{"a;b", "", "c;d"},
		},
		{
			name:     "windows line endings",
			input:    "a;b\r\nc;d\r\n",
			expected: []string{"a;b", "c;d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanExport(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("cleanExport() = %v, want %v", got, tt.expected)
			}
		})
	}
}
