package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"expense-reconciliation-service/cmd/expenserec/config"
	"expense-reconciliation-service/internal/reconciler"
	"expense-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	bookkeepingFile        string
	statementFile          string
	reconcileOutput        string
	reconcileSummaryFormat string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a bookkeeping export with a bank statement",
	Long: `Reconcile compares a bookkeeping export with a bank statement to find
the records present on one side only.

Both inputs need Payer and Description columns plus their designated
amount column: Signed Total Amount for the bookkeeping export, Debit for
the statement. Rows pair up when payer, description and amount agree;
everything left over lands in the Outliers sheet of the result workbook,
grouped by payer with per-payer totals, alongside the full cleaned data
of both inputs.

This command requires:
- A bookkeeping export (XLSX, XLS or CSV)
- A bank statement (XLSX, XLS or CSV)

Examples:
  # Basic reconciliation
  expenserec reconcile -b bookkeeping.xlsx -s statement.xlsx -o reconciled.xlsx

  # Machine-readable run summary on stdout
  expenserec reconcile -b book.csv -s stmt.csv -o out.xlsx --summary-format json

  # Verbose diagnostics on stderr
  expenserec reconcile -b book.xls -s stmt.xlsx -o out.xlsx --verbose`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&bookkeepingFile, "bookkeeping-file", "b", "", "path to the bookkeeping export (required)")
	reconcileCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to the bank statement (required)")
	reconcileCmd.Flags().StringVarP(&reconcileOutput, "output-file", "o", "", "path of the result workbook (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&reconcileSummaryFormat, "summary-format", "f", "console", "run summary format: console, json")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("bookkeeping-file")
	reconcileCmd.MarkFlagRequired("statement-file")
	reconcileCmd.MarkFlagRequired("output-file")

	// Bind flags to viper
	viper.BindPFlag("reconcile.bookkeeping-file", reconcileCmd.Flags().Lookup("bookkeeping-file"))
	viper.BindPFlag("reconcile.statement-file", reconcileCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("reconcile.output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("reconcile.summary-format", reconcileCmd.Flags().Lookup("summary-format"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	bookkeepingFile = viper.GetString("reconcile.bookkeeping-file")
	statementFile = viper.GetString("reconcile.statement-file")
	reconcileOutput = viper.GetString("reconcile.output-file")
	reconcileSummaryFormat = viper.GetString("reconcile.summary-format")

	// Validate required flags
	if bookkeepingFile == "" {
		return fmt.Errorf("bookkeeping-file is required")
	}
	if statementFile == "" {
		return fmt.Errorf("statement-file is required")
	}
	if reconcileOutput == "" {
		return fmt.Errorf("output-file is required")
	}

	// Validate file existence
	if err := validateFileExists(bookkeepingFile, "bookkeeping export"); err != nil {
		return err
	}
	if err := validateFileExists(statementFile, "bank statement"); err != nil {
		return err
	}

	// Validate summary format
	if !reporter.OutputFormat(reconcileSummaryFormat).IsValid() {
		return fmt.Errorf("invalid summary format '%s'. Valid formats: console, json", reconcileSummaryFormat)
	}

	// Validate output file directory exists
	return validateOutputDir(reconcileOutput)
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func validateOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Bookkeeping file: %s\n", bookkeepingFile)
		fmt.Fprintf(os.Stderr, "Statement file: %s\n", statementFile)
		fmt.Fprintf(os.Stderr, "Output file: %s\n", reconcileOutput)
	}

	// Create configurations
	reportConfig := config.CreateReportConfig(reconcileSummaryFormat, !viper.GetBool("no-color"))
	serviceConfig := config.CreateServiceConfig(nil, reportConfig)

	// Create reconciliation service
	service, err := reconciler.NewService(serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	request := &reconciler.ReconciliationRequest{
		BookkeepingFile: bookkeepingFile,
		StatementFile:   statementFile,
		OutputFile:      reconcileOutput,
	}

	result, err := service.ProcessReconciliation(ctx, request)
	if err != nil {
		return err
	}

	// Write the run summary to stdout
	if err := service.Reporter().WriteRunSummary(result.Summary, os.Stdout); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	// Show completion details
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nProcessed %d bookkeeping records and %d statement records.\n",
			result.MatchSummary.TotalBookkeeping, result.MatchSummary.TotalStatement)
		fmt.Fprintf(os.Stderr, "Found %d matched pairs, %d unmatched bookkeeping, %d unmatched statement.\n",
			result.MatchSummary.MatchedPairs, result.MatchSummary.UnmatchedBookkeeping, result.MatchSummary.UnmatchedStatement)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}
