package enrich

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"expense-reconciliation-service/internal/models"
	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// SummaryColumns is the header row of the Summary sheet
var SummaryColumns = []string{
	"REFERENCE",
	"VENDOR",
	"ACCOUNT GENERAL",
	"MEMO",
	"DATE",
	"POSTING PERIOD",
	"ACCOUNT SPECIFIC",
	"AMOUNT",
	"TAX CODE",
	"TAX AMOUNT",
	"GROSS AMOUNT",
	"DEPARTMENT",
	"LOCATION",
}

// Fixed values of the Summary sheet template.
const (
	accountGeneral     = "20001 Accounts Payable: Trade Creditors"
	taxCodeStandard    = "VAT:S-GB"
	taxCodeZeroRated   = "VAT:Z-GB"
	departmentFallback = "Unassigned"
	locationFallback   = "Blank"
)

// Data sheet columns resolved by case-insensitive substring match, so
// decorated export headers like "Signed Total Amount (GBP)" still resolve.
var summarySourceColumns = []string{
	"expense account",
	"net amount",
	"tax amount",
	"signed total amount",
}

type groupKey struct {
	Account    string
	Department string
	Location   string
}

type groupTotals struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// PostingPeriod returns the posting period label for the month before the
// given date, e.g. "Jul-25" for any date in August 2025.
func PostingPeriod(now time.Time) string {
	year, month := now.Year(), now.Month()
	if month == time.January {
		year--
		month = time.December
	} else {
		month--
	}
	label := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("Jan")
	return fmt.Sprintf("%s-%02d", label, year%100)
}

// BuildSummary condenses the enriched Data table into the Summary sheet.
// Rows are grouped by expense account, department and location, their net,
// tax and signed total amounts are summed, and each group becomes one
// ledger line carrying the posting template for the month before now.
//
// Blank departments group as Unassigned and blank locations as Blank. The
// tax code is VAT:S-GB when a group's tax sum is positive and VAT:Z-GB
// otherwise. The account display name comes from the Account sheet; groups
// without an entry keep their account number.
func (e *Enricher) BuildSummary(data *tabular.Table, ref *ReferenceData, now time.Time) (*tabular.Table, error) {
	indices := make(map[string]int, len(summarySourceColumns))
	var missing []string
	for _, fragment := range summarySourceColumns {
		idx := data.FindColumn(fragment)
		if idx < 0 {
			missing = append(missing, fragment)
			continue
		}
		indices[fragment] = idx
	}
	if len(missing) > 0 {
		return nil, errors.MissingColumnsError("Data", "", missing)
	}

	departmentIdx := data.ColumnIndex("Department")
	locationIdx := data.ColumnIndex("Location")
	if departmentIdx < 0 || locationIdx < 0 {
		return nil, errors.MissingColumnsError("Data", "", []string{"Department", "Location"})
	}

	expenseIdx := indices["expense account"]
	netIdx := indices["net amount"]
	taxIdx := indices["tax amount"]
	totalIdx := indices["signed total amount"]

	totals := make(map[groupKey]*groupTotals)
	for _, row := range data.Rows {
		key := groupKey{
			Account:    canonicalValue(row[expenseIdx]),
			Department: fallbackIfBlank(row[departmentIdx], departmentFallback),
			Location:   fallbackIfBlank(row[locationIdx], locationFallback),
		}

		group, ok := totals[key]
		if !ok {
			group = &groupTotals{}
			totals[key] = group
		}
		group.Net = group.Net.Add(models.ParseAmountOrZero(row[netIdx]))
		group.Tax = group.Tax.Add(models.ParseAmountOrZero(row[taxIdx]))
		group.Gross = group.Gross.Add(models.ParseAmountOrZero(row[totalIdx]))
	}

	keys := make([]groupKey, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessGroupKey(keys[i], keys[j])
	})

	displayNames, err := e.accountLookup(ref)
	if err != nil {
		return nil, err
	}

	period := PostingPeriod(now)
	reference := fmt.Sprintf("%s %s", e.config.Vendor, period)
	date := now.Format("02/01/2006")

	summary := tabular.New(SummaryColumns)
	for _, key := range keys {
		group := totals[key]

		account := key.Account
		if name, ok := displayNames[key.Account]; ok && name != "" {
			account = name
		}

		taxCode := taxCodeZeroRated
		if group.Tax.GreaterThan(decimal.Zero) {
			taxCode = taxCodeStandard
		}

		summary.AppendRow([]string{
			reference,
			e.config.Vendor,
			accountGeneral,
			reference,
			date,
			period,
			account,
			group.Net.String(),
			taxCode,
			group.Tax.String(),
			group.Gross.String(),
			key.Department,
			key.Location,
		})
	}

	e.logger.WithFields(logger.Fields{
		"groups":         summary.RowCount(),
		"posting_period": period,
	}).Info("Built summary sheet")

	return summary, nil
}

// accountLookup builds the account number to display name mapping from the
// Account sheet
func (e *Enricher) accountLookup(ref *ReferenceData) (map[string]string, error) {
	numberIdx := ref.accounts.ColumnIndex(accountNumberColumn)
	nameIdx := ref.accounts.ColumnIndex(accountNameColumn)

	var missing []string
	if numberIdx < 0 {
		missing = append(missing, accountNumberColumn)
	}
	if nameIdx < 0 {
		missing = append(missing, accountNameColumn)
	}
	if len(missing) > 0 {
		return nil, errors.MissingColumnsError(AccountSheet, "", missing)
	}

	lookup := make(map[string]string, ref.accounts.RowCount())
	for _, row := range ref.accounts.Rows {
		number := canonicalValue(row[numberIdx])
		if number == "" {
			continue
		}
		if _, ok := lookup[number]; !ok {
			lookup[number] = row[nameIdx]
		}
	}

	return lookup, nil
}

// canonicalValue normalizes a cell for grouping and joining. Numeric text
// collapses to its canonical decimal form so "60001" and "60001.0" land in
// the same group regardless of how the source stored them.
func canonicalValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if amount, err := decimal.NewFromString(trimmed); err == nil {
		return amount.String()
	}
	return value
}

func fallbackIfBlank(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func lessGroupKey(a, b groupKey) bool {
	if c := compareValues(a.Account, b.Account); c != 0 {
		return c < 0
	}
	if c := compareValues(a.Department, b.Department); c != 0 {
		return c < 0
	}
	return compareValues(a.Location, b.Location) < 0
}

// compareValues orders cell values numerically when both parse as numbers,
// lexicographically otherwise
func compareValues(a, b string) int {
	da, errA := decimal.NewFromString(strings.TrimSpace(a))
	db, errB := decimal.NewFromString(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(a, b)
}
