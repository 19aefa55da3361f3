package parsers

import (
	"fmt"
	"strings"

	"expense-reconciliation-service/internal/models"
)

// Canonical column names of the reconciliation schemas. Source files may
// spell these with different casing; the loader resolves them
// case-insensitively and keeps the original spellings for output.
const (
	ColumnPayer             = "Payer"
	ColumnDescription       = "Description"
	ColumnSignedTotalAmount = "Signed Total Amount"
	ColumnDebit             = "Debit"
	ColumnCredit            = "Credit"
)

// LedgerConfig describes the logical schema of one reconciliation input:
// which columns must be present and which of them is the designated amount
// column whose value must parse as a number for a row to survive cleaning.
type LedgerConfig struct {
	Type            models.LedgerType `json:"type"`
	RequiredColumns []string          `json:"required_columns"`
	AmountColumn    string            `json:"amount_column"`
	CreditColumn    string            `json:"credit_column,omitempty"`
}

// Validate checks if the ledger configuration is consistent
func (lc *LedgerConfig) Validate() error {
	if !lc.Type.IsValid() {
		return fmt.Errorf("invalid ledger type: %s", lc.Type)
	}

	if len(lc.RequiredColumns) == 0 {
		return fmt.Errorf("required columns cannot be empty")
	}

	for _, col := range lc.RequiredColumns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("required column names cannot be blank")
		}
	}

	if !lc.hasColumn(ColumnPayer) || !lc.hasColumn(ColumnDescription) {
		return fmt.Errorf("required columns must include %s and %s", ColumnPayer, ColumnDescription)
	}

	if strings.TrimSpace(lc.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}
	if !lc.hasColumn(lc.AmountColumn) {
		return fmt.Errorf("amount column %s must be part of the required columns", lc.AmountColumn)
	}

	if lc.CreditColumn != "" && !lc.hasColumn(lc.CreditColumn) {
		return fmt.Errorf("credit column %s must be part of the required columns", lc.CreditColumn)
	}

	return nil
}

func (lc *LedgerConfig) hasColumn(name string) bool {
	for _, col := range lc.RequiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

// columnPosition returns the index of a logical column within the
// required column list, or -1.
func (lc *LedgerConfig) columnPosition(name string) int {
	for i, col := range lc.RequiredColumns {
		if col == name {
			return i
		}
	}
	return -1
}

// Predefined schemas for the two reconciliation inputs
var (
	// BookkeepingConfig describes the bookkeeping export: the signed
	// total amount is the designated amount column.
	BookkeepingConfig = &LedgerConfig{
		Type:            models.LedgerTypeBookkeeping,
		RequiredColumns: []string{ColumnPayer, ColumnDescription, ColumnSignedTotalAmount},
		AmountColumn:    ColumnSignedTotalAmount,
	}

	// StatementConfig describes the bank statement: Debit is the
	// designated amount column and Credit is carried through for the
	// outlier report.
	StatementConfig = &LedgerConfig{
		Type:            models.LedgerTypeStatement,
		RequiredColumns: []string{ColumnPayer, ColumnDescription, ColumnDebit, ColumnCredit},
		AmountColumn:    ColumnDebit,
		CreditColumn:    ColumnCredit,
	}
)

// GetLedgerConfig returns the predefined schema for a ledger type
func GetLedgerConfig(t models.LedgerType) *LedgerConfig {
	switch t {
	case models.LedgerTypeBookkeeping:
		return BookkeepingConfig
	case models.LedgerTypeStatement:
		return StatementConfig
	default:
		return nil
	}
}
