package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LedgerType identifies which side of the reconciliation a record or file
// belongs to
type LedgerType string

const (
	// LedgerTypeBookkeeping represents the bookkeeping export
	LedgerTypeBookkeeping LedgerType = "bookkeeping"
	// LedgerTypeStatement represents the bank statement
	LedgerTypeStatement LedgerType = "statement"
)

// String returns the string representation of LedgerType
func (t LedgerType) String() string {
	return string(t)
}

// IsValid checks if the ledger type is valid
func (t LedgerType) IsValid() bool {
	return t == LedgerTypeBookkeeping || t == LedgerTypeStatement
}

// Label returns the human-readable file label used in diagnostics
func (t LedgerType) Label() string {
	switch t {
	case LedgerTypeBookkeeping:
		return "Bookkeeping"
	case LedgerTypeStatement:
		return "Bank Statement"
	default:
		return string(t)
	}
}

// Record is a single cleaned ledger row. Payer and Description hold
// normalized text. Amount is the designated amount column of the source
// (Signed Total Amount for bookkeeping, Debit for statements). Credit is
// populated for statement records only; CreditRaw preserves the original
// cell text for report output. Position is the row's index in the source
// file before cleaning, used to remove matched rows from the originals.
type Record struct {
	Payer       string          `json:"payer"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Credit      decimal.Decimal `json:"credit,omitempty"`
	CreditRaw   string          `json:"-"`
	Position    int             `json:"position"`
}

// NewRecord creates a new Record instance
func NewRecord(payer, description string, amount decimal.Decimal, position int) *Record {
	return &Record{
		Payer:       payer,
		Description: description,
		Amount:      amount,
		Position:    position,
	}
}

// String returns a string representation of the Record
func (r *Record) String() string {
	return fmt.Sprintf("Record{Payer: %s, Description: %s, Amount: %s, Position: %d}",
		r.Payer, r.Description, r.Amount.String(), r.Position)
}

// Key returns the exact-match key for this record. The amount component
// uses decimal's canonical string form, so numerically equal amounts
// ("100", "100.0", "1e2") produce the same key.
func (r *Record) Key() MatchKey {
	return MatchKey{
		Payer:       r.Payer,
		Description: r.Description,
		Amount:      r.Amount.String(),
	}
}

// MatchKey is the comparable (Payer, Description, Amount) triple used for
// exact matching. Text components are compared case-sensitively on
// normalized values.
type MatchKey struct {
	Payer       string
	Description string
	Amount      string
}

// String returns a string representation of the MatchKey
func (k MatchKey) String() string {
	return fmt.Sprintf("(%s, %s, %s)", k.Payer, k.Description, k.Amount)
}

// Match pairs one bookkeeping record with one statement record sharing the
// same key. Each occurrence of a key matches at most one counterpart, so a
// key present twice on one side and once on the other yields exactly one
// match.
type Match struct {
	Bookkeeping *Record `json:"bookkeeping"`
	Statement   *Record `json:"statement"`
}

// ParseAmount parses a cell value as an exact decimal. Only plain numeric
// forms are accepted (optional sign, decimal point, exponent); currency
// symbols and grouping separators are not stripped, so a cell like
// "£1,000" is non-numeric and its row is dropped during cleaning.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ParseAmountOrZero parses a cell value as a decimal, returning zero when
// the cell is empty or non-numeric. Statement Credit cells use this: their
// raw text is preserved for display while subtotals treat unparseable
// values as zero.
func ParseAmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
