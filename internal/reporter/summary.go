package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// poundsPrinter renders amounts with British digit grouping, e.g. £1,234.56
var poundsPrinter = message.NewPrinter(language.BritishEnglish)

// RunSummary describes the outcome of a reconciliation run
type RunSummary struct {
	BookkeepingRecords        int             `json:"bookkeeping_records"`
	StatementRecords          int             `json:"statement_records"`
	MatchedPairs              int             `json:"matched_pairs"`
	UnmatchedBookkeeping      int             `json:"unmatched_bookkeeping"`
	UnmatchedStatement        int             `json:"unmatched_statement"`
	UnmatchedBookkeepingTotal decimal.Decimal `json:"unmatched_bookkeeping_total"`
	UnmatchedStatementTotal   decimal.Decimal `json:"unmatched_statement_total"`
	OutputFile                string          `json:"output_file"`
}

// Difference returns the absolute gap between the unmatched totals of the
// two ledgers
func (s *RunSummary) Difference() decimal.Decimal {
	return s.UnmatchedBookkeepingTotal.Sub(s.UnmatchedStatementTotal).Abs()
}

// EnrichmentSummary describes the outcome of an enrichment run
type EnrichmentSummary struct {
	ExportRows     int    `json:"export_rows"`
	CentralRows    int    `json:"central_rows"`
	SummaryRows    int    `json:"summary_rows"`
	SummarySkipped bool   `json:"summary_skipped"`
	SkipReason     string `json:"skip_reason,omitempty"`
	OutputFile     string `json:"output_file"`
}

// WriteRunSummary writes the reconciliation run summary in the configured
// format
func (rg *ReportGenerator) WriteRunSummary(summary *RunSummary, writer io.Writer) error {
	if summary == nil {
		return fmt.Errorf("run summary cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.writeJSONRunSummary(summary, writer)
	default:
		return rg.writeConsoleRunSummary(summary, writer)
	}
}

// WriteEnrichmentSummary writes the enrichment run summary in the configured
// format
func (rg *ReportGenerator) WriteEnrichmentSummary(summary *EnrichmentSummary, writer io.Writer) error {
	if summary == nil {
		return fmt.Errorf("enrichment summary cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	default:
		return rg.writeConsoleEnrichmentSummary(summary, writer)
	}
}

func (rg *ReportGenerator) writeConsoleRunSummary(s *RunSummary, writer io.Writer) error {
	rg.statusLine(writer, true, "Reconciliation completed successfully")

	fmt.Fprintf(writer, "\nSummary:\n")
	fmt.Fprintf(writer, "  Bookkeeping records: %d\n", s.BookkeepingRecords)
	fmt.Fprintf(writer, "  Statement records:   %d\n", s.StatementRecords)
	fmt.Fprintf(writer, "  Matched pairs:       %d\n", s.MatchedPairs)
	fmt.Fprintf(writer, "  Unmatched:           %d bookkeeping, %d statement\n",
		s.UnmatchedBookkeeping, s.UnmatchedStatement)

	if s.UnmatchedBookkeeping > 0 || s.UnmatchedStatement > 0 {
		fmt.Fprintf(writer, "\nUnmatched amounts:\n")
		fmt.Fprintf(writer, "  Bookkeeping: %s\n", FormatPounds(s.UnmatchedBookkeepingTotal))
		fmt.Fprintf(writer, "  Statement:   %s\n", FormatPounds(s.UnmatchedStatementTotal))
		fmt.Fprintf(writer, "  Difference:  %s\n", FormatPounds(s.Difference()))
	}

	if s.OutputFile != "" {
		fmt.Fprintf(writer, "\nReport saved to: %s\n", s.OutputFile)
	}

	return nil
}

func (rg *ReportGenerator) writeJSONRunSummary(s *RunSummary, writer io.Writer) error {
	payload := struct {
		*RunSummary
		Difference decimal.Decimal `json:"difference"`
	}{s, s.Difference()}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func (rg *ReportGenerator) writeConsoleEnrichmentSummary(s *EnrichmentSummary, writer io.Writer) error {
	rg.statusLine(writer, true, fmt.Sprintf("Saved cleaned data to: %s", s.OutputFile))

	if s.SummarySkipped {
		rg.statusLine(writer, false, s.SkipReason)
	} else {
		rg.statusLine(writer, true, "Added 'Summary' sheet grouped by account, department, and location")
	}

	fmt.Fprintf(writer, "\nSummary:\n")
	fmt.Fprintf(writer, "  Export rows:  %d\n", s.ExportRows)
	fmt.Fprintf(writer, "  Central rows: %d\n", s.CentralRows)
	if !s.SummarySkipped {
		fmt.Fprintf(writer, "  Summary rows: %d\n", s.SummaryRows)
	}

	return nil
}

// statusLine prints a ✓ or ✗ prefixed line, colored when enabled
func (rg *ReportGenerator) statusLine(writer io.Writer, ok bool, message string) {
	if rg.config.UseColors {
		if ok {
			color.New(color.FgGreen, color.Bold).Fprintf(writer, "✓ %s\n", message)
		} else {
			color.New(color.FgRed, color.Bold).Fprintf(writer, "✗ %s\n", message)
		}
		return
	}

	prefix := "✓"
	if !ok {
		prefix = "✗"
	}
	fmt.Fprintf(writer, "%s %s\n", prefix, message)
}

// FormatPounds renders an amount as pounds with thousands separators
func FormatPounds(amount decimal.Decimal) string {
	return poundsPrinter.Sprintf("£%.2f", amount.InexactFloat64())
}
