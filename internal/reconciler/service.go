// Package reconciler orchestrates the two batch workflows of the service:
// reconciling a bookkeeping export against a bank statement, and enriching
// an expense export with reference data.
//
// A reconciliation run loads and cleans both ledgers, pairs records whose
// payer, description and amount agree, and writes a three-sheet workbook:
// the side-by-side Outliers report plus the full cleaned Bookkeeping and
// Statement data. An enrichment run cleans a raw expense export, adds
// Department and Location columns from the reference workbook, writes the
// Data sheet, and appends a grouped Summary sheet when the export carries
// the columns the summary needs.
//
// Example usage:
//
//	service, err := reconciler.NewService(nil)
//	if err != nil {
//		return err
//	}
//
//	result, err := service.ProcessReconciliation(ctx, &reconciler.ReconciliationRequest{
//		BookkeepingFile: "bookkeeping.xlsx",
//		StatementFile:   "statement.xlsx",
//		OutputFile:      "reconciled.xlsx",
//	})
package reconciler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"expense-reconciliation-service/internal/enrich"
	"expense-reconciliation-service/internal/matcher"
	"expense-reconciliation-service/internal/parsers"
	"expense-reconciliation-service/internal/reporter"
	"expense-reconciliation-service/internal/workbook"
	"expense-reconciliation-service/pkg/errors"
	"expense-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
)

// Sheet names of the result workbooks.
const (
	OutliersSheet    = "Outliers"
	BookkeepingSheet = "Bookkeeping"
	StatementSheet   = "Statement"
	DataSheet        = "Data"
	SummarySheet     = "Summary"
)

// reconciliationMarker tags result file names with the run timestamp
const reconciliationMarker = "_RECONCILIATION_"

// Column widths of the reconciliation workbook sheets.
var (
	outlierColumnWidths = map[string]float64{"A": 20, "B": 30, "C": 15, "D": 30, "E": 15}
	ledgerColumnWidths  = map[string]float64{"A": 20, "B": 30, "C": 15}
)

// Config holds configuration options for the service
type Config struct {
	Enrichment *enrich.Config         `json:"enrichment"`
	Report     *reporter.ReportConfig `json:"report"`
}

// DefaultConfig returns a default configuration for the service
func DefaultConfig() *Config {
	return &Config{
		Enrichment: enrich.DefaultConfig(),
		Report:     reporter.DefaultReportConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Enrichment != nil {
		if err := c.Enrichment.Validate(); err != nil {
			return err
		}
	}
	if c.Report != nil {
		if err := c.Report.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Service coordinates parsing, matching, enrichment and workbook output
type Service struct {
	bookkeepingParser *parsers.LedgerParser
	statementParser   *parsers.LedgerParser
	expenseParser     *parsers.ExpenseParser
	matchingEngine    *matcher.MatchingEngine
	enricher          *enrich.Enricher
	reports           *reporter.ReportGenerator
	config            *Config
	logger            logger.Logger
}

// NewService creates a new service with the given configuration
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	bookkeepingParser, err := parsers.NewLedgerParser(parsers.BookkeepingConfig)
	if err != nil {
		return nil, err
	}

	statementParser, err := parsers.NewLedgerParser(parsers.StatementConfig)
	if err != nil {
		return nil, err
	}

	enricher, err := enrich.NewEnricher(config.Enrichment)
	if err != nil {
		return nil, err
	}

	reports, err := reporter.NewReportGenerator(config.Report)
	if err != nil {
		return nil, err
	}

	return &Service{
		bookkeepingParser: bookkeepingParser,
		statementParser:   statementParser,
		expenseParser:     parsers.NewExpenseParser(),
		matchingEngine:    matcher.NewMatchingEngine(),
		enricher:          enricher,
		reports:           reports,
		config:            config,
		logger:            logger.GetGlobalLogger().WithComponent("reconciliation_service"),
	}, nil
}

// Reporter returns the report generator used for run summaries
func (s *Service) Reporter() *reporter.ReportGenerator {
	return s.reports
}

// GetConfiguration returns the current configuration
func (s *Service) GetConfiguration() *Config {
	return s.config
}

// ReconciliationRequest describes one reconciliation run
type ReconciliationRequest struct {
	BookkeepingFile string `json:"bookkeeping_file"`
	StatementFile   string `json:"statement_file"`
	OutputFile      string `json:"output_file"`
}

// Validate validates the reconciliation request
func (r *ReconciliationRequest) Validate() error {
	if r.BookkeepingFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "bookkeeping_file", nil, nil).
			WithSuggestion("Provide the path of the bookkeeping export")
	}
	if r.StatementFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "statement_file", nil, nil).
			WithSuggestion("Provide the path of the bank statement")
	}
	if r.OutputFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "output_file", nil, nil).
			WithSuggestion("Provide the path of the result workbook")
	}
	return nil
}

// ReconciliationResult contains the complete results of a reconciliation run
type ReconciliationResult struct {
	RunID            string               `json:"run_id"`
	OutputFile       string               `json:"output_file"`
	Summary          *reporter.RunSummary `json:"summary"`
	BookkeepingStats *parsers.LoadStats   `json:"bookkeeping_stats"`
	StatementStats   *parsers.LoadStats   `json:"statement_stats"`
	MatchSummary     matcher.MatchSummary `json:"match_summary"`
	ProcessedAt      time.Time            `json:"processed_at"`
	Duration         time.Duration        `json:"duration"`
}

// ProcessReconciliation performs the complete reconciliation workflow
func (s *Service) ProcessReconciliation(ctx context.Context, request *ReconciliationRequest) (*ReconciliationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	startTime := time.Now()

	op := logger.NewOperationLogger("reconciliation", s.logger).WithFields(logger.Fields{
		"run_id":           runID,
		"bookkeeping_file": request.BookkeepingFile,
		"statement_file":   request.StatementFile,
	})

	op.Step("Loading bookkeeping data")
	bookkeeping, err := s.bookkeepingParser.ParseFile(request.BookkeepingFile)
	if err != nil {
		op.Error(err, "Failed to load bookkeeping data")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op.Step("Loading statement data")
	statement, err := s.statementParser.ParseFile(request.StatementFile)
	if err != nil {
		op.Error(err, "Failed to load statement data")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op.Step("Matching records")
	matchResult := s.matchingEngine.Match(bookkeeping.Records, statement.Records)

	op.Step("Building outlier report")
	outliers := s.reports.BuildOutlierReport(matchResult.UnmatchedBookkeeping, matchResult.UnmatchedStatement)

	outputFile := ReconciliationOutputPath(request.OutputFile, startTime)

	op.Step("Writing result workbook")
	sheets := []workbook.SheetSpec{
		{
			Name:         OutliersSheet,
			Table:        outliers.Table,
			StyleHeader:  true,
			TotalRows:    outliers.TotalRows,
			ColumnWidths: outlierColumnWidths,
		},
		{
			Name:         BookkeepingSheet,
			Table:        bookkeeping.Cleaned,
			StyleHeader:  true,
			ColumnWidths: ledgerColumnWidths,
		},
		{
			Name:         StatementSheet,
			Table:        statement.Cleaned,
			StyleHeader:  true,
			ColumnWidths: ledgerColumnWidths,
		},
	}
	if err := workbook.WriteWorkbook(outputFile, sheets); err != nil {
		op.Error(err, "Failed to write result workbook")
		return nil, err
	}

	result := &ReconciliationResult{
		RunID:      runID,
		OutputFile: outputFile,
		Summary: &reporter.RunSummary{
			BookkeepingRecords:        matchResult.Summary.TotalBookkeeping,
			StatementRecords:          matchResult.Summary.TotalStatement,
			MatchedPairs:              matchResult.Summary.MatchedPairs,
			UnmatchedBookkeeping:      matchResult.Summary.UnmatchedBookkeeping,
			UnmatchedStatement:        matchResult.Summary.UnmatchedStatement,
			UnmatchedBookkeepingTotal: outliers.BookkeepingTotal,
			UnmatchedStatementTotal:   outliers.StatementTotal,
			OutputFile:                outputFile,
		},
		BookkeepingStats: bookkeeping.Stats,
		StatementStats:   statement.Stats,
		MatchSummary:     matchResult.Summary,
		ProcessedAt:      startTime,
		Duration:         time.Since(startTime),
	}

	op.WithField("output_file", outputFile).Success("Reconciliation complete")
	return result, nil
}

// EnrichmentRequest describes one enrichment run
type EnrichmentRequest struct {
	ExportFile    string `json:"export_file"`
	ReferenceFile string `json:"reference_file"`
	OutputFile    string `json:"output_file"`
	SkipSummary   bool   `json:"skip_summary"`
}

// Validate validates the enrichment request
func (r *EnrichmentRequest) Validate() error {
	if r.ExportFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "export_file", nil, nil).
			WithSuggestion("Provide the path of the expense export")
	}
	if r.ReferenceFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "reference_file", nil, nil).
			WithSuggestion("Provide the path of the reference workbook")
	}
	if r.OutputFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "output_file", nil, nil).
			WithSuggestion("Provide the path of the output workbook")
	}
	return nil
}

// EnrichmentResult contains the complete results of an enrichment run
type EnrichmentResult struct {
	RunID       string                      `json:"run_id"`
	OutputFile  string                      `json:"output_file"`
	Summary     *reporter.EnrichmentSummary `json:"summary"`
	Stats       *enrich.Stats               `json:"stats"`
	ProcessedAt time.Time                   `json:"processed_at"`
	Duration    time.Duration               `json:"duration"`
}

// ProcessEnrichment performs the complete enrichment workflow. The Data
// sheet is written as soon as the export is enriched; a summary stage
// failure afterwards downgrades the run instead of failing it, so the
// enriched data always survives.
func (s *Service) ProcessEnrichment(ctx context.Context, request *EnrichmentRequest) (*EnrichmentResult, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	startTime := time.Now()

	op := logger.NewOperationLogger("enrichment", s.logger).WithFields(logger.Fields{
		"run_id":         runID,
		"export_file":    request.ExportFile,
		"reference_file": request.ReferenceFile,
	})

	op.Step("Loading reference workbook")
	ref, err := s.enricher.LoadReferenceData(request.ReferenceFile)
	if err != nil {
		op.Error(err, "Failed to load reference workbook")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op.Step("Parsing expense export")
	export, err := s.expenseParser.ParseFile(request.ExportFile)
	if err != nil {
		op.Error(err, "Failed to parse expense export")
		return nil, err
	}

	op.Step("Enriching export")
	stats, err := s.enricher.Enrich(export, ref)
	if err != nil {
		op.Error(err, "Failed to enrich export")
		return nil, err
	}

	outputFile := EnrichmentOutputPath(request.OutputFile)

	op.Step("Writing data sheet")
	dataSheet := workbook.SheetSpec{Name: DataSheet, Table: export}
	if err := workbook.WriteWorkbook(outputFile, []workbook.SheetSpec{dataSheet}); err != nil {
		op.Error(err, "Failed to write data sheet")
		return nil, err
	}

	summary := &reporter.EnrichmentSummary{
		ExportRows:  stats.Rows,
		CentralRows: stats.CentralRows,
		OutputFile:  outputFile,
	}

	if request.SkipSummary {
		summary.SummarySkipped = true
		summary.SkipReason = "Summary sheet skipped on request"
	} else {
		op.Step("Building summary sheet")
		summaryTable, err := s.enricher.BuildSummary(export, ref, startTime)
		if err == nil {
			err = workbook.AppendSheet(outputFile, workbook.SheetSpec{Name: SummarySheet, Table: summaryTable})
			if err == nil {
				summary.SummaryRows = summaryTable.RowCount()
			}
		}
		if err != nil {
			s.logger.WithError(err).Warn("Summary sheet skipped")
			summary.SummarySkipped = true
			summary.SkipReason = summarySkipReason(err)
		}
	}

	result := &EnrichmentResult{
		RunID:       runID,
		OutputFile:  outputFile,
		Summary:     summary,
		Stats:       stats,
		ProcessedAt: startTime,
		Duration:    time.Since(startTime),
	}

	op.WithField("output_file", outputFile).Success("Enrichment complete")
	return result, nil
}

// summarySkipReason translates a summary stage error into the console line
// shown to the user
func summarySkipReason(err error) string {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.CodeMissingColumns {
		return "Could not find all required columns for the summary sheet"
	}
	return fmt.Sprintf("Could not add the summary sheet: %v", err)
}

// ReconciliationOutputPath forces the .xlsx extension and stamps the file
// name with the run timestamp unless the path already carries the
// reconciliation marker.
func ReconciliationOutputPath(path string, now time.Time) string {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}

	if strings.Contains(path, reconciliationMarker) {
		return path
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	stamped := fmt.Sprintf("%s%s%s.xlsx", name, reconciliationMarker, now.Format("20060102_150405"))
	return filepath.Join(dir, stamped)
}

// EnrichmentOutputPath appends the .xlsx extension when absent
func EnrichmentOutputPath(path string) string {
	if !strings.HasSuffix(path, ".xlsx") {
		return path + ".xlsx"
	}
	return path
}
