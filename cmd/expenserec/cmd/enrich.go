package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"expense-reconciliation-service/cmd/expenserec/config"
	"expense-reconciliation-service/internal/reconciler"
	"expense-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the enrich command
var (
	exportFile          string
	referenceFile       string
	enrichOutput        string
	centralThreshold    float64
	vendorName          string
	skipSummary         bool
	enrichSummaryFormat string
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich an expense export with reference data",
	Long: `Enrich cleans a raw expense export and joins it against a reference
workbook to add Department and Location columns.

The reference workbook must carry an Employee sheet and an Account sheet.
Departments come from the Employee sheet's mapping of payer names; rows
whose amount stays below the central threshold are assigned the Central
location. The enriched rows are written to a Data sheet, and unless
--skip-summary is set, a Summary sheet grouped by expense account,
department and location is appended with ledger template fields filled
in for the previous month.

This command requires:
- An expense export (XLSX, XLS or CSV)
- A reference workbook with Employee and Account sheets

Examples:
  # Basic enrichment
  expenserec enrich -e export.csv -r reference.xlsx -o cleaned.xlsx

  # Custom location threshold and vendor name
  expenserec enrich -e export.xls -r reference.xlsx -o cleaned.xlsx \
    --central-threshold 500 --vendor "Pleo"

  # Data sheet only
  expenserec enrich -e export.csv -r reference.xlsx -o cleaned.xlsx --skip-summary`,

	PreRunE: validateEnrichFlags,
	RunE:    runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	// Required flags
	enrichCmd.Flags().StringVarP(&exportFile, "export-file", "e", "", "path to the expense export (required)")
	enrichCmd.Flags().StringVarP(&referenceFile, "reference-file", "r", "", "path to the reference workbook (required)")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output-file", "o", "", "path of the output workbook (required)")

	// Enrichment flags
	enrichCmd.Flags().Float64Var(&centralThreshold, "central-threshold", 250, "amounts below this are assigned the Central location")
	enrichCmd.Flags().StringVar(&vendorName, "vendor", "Spendesk", "vendor name for the summary template fields")
	enrichCmd.Flags().BoolVar(&skipSummary, "skip-summary", false, "write the Data sheet without the Summary sheet")

	// Output flags
	enrichCmd.Flags().StringVarP(&enrichSummaryFormat, "summary-format", "f", "console", "run summary format: console, json")

	// Mark required flags
	enrichCmd.MarkFlagRequired("export-file")
	enrichCmd.MarkFlagRequired("reference-file")
	enrichCmd.MarkFlagRequired("output-file")

	// Bind flags to viper
	viper.BindPFlag("enrich.export-file", enrichCmd.Flags().Lookup("export-file"))
	viper.BindPFlag("enrich.reference-file", enrichCmd.Flags().Lookup("reference-file"))
	viper.BindPFlag("enrich.output-file", enrichCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("enrich.central-threshold", enrichCmd.Flags().Lookup("central-threshold"))
	viper.BindPFlag("enrich.vendor", enrichCmd.Flags().Lookup("vendor"))
	viper.BindPFlag("enrich.skip-summary", enrichCmd.Flags().Lookup("skip-summary"))
	viper.BindPFlag("enrich.summary-format", enrichCmd.Flags().Lookup("summary-format"))
}

func validateEnrichFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	exportFile = viper.GetString("enrich.export-file")
	referenceFile = viper.GetString("enrich.reference-file")
	enrichOutput = viper.GetString("enrich.output-file")
	centralThreshold = viper.GetFloat64("enrich.central-threshold")
	vendorName = viper.GetString("enrich.vendor")
	skipSummary = viper.GetBool("enrich.skip-summary")
	enrichSummaryFormat = viper.GetString("enrich.summary-format")

	// Validate required flags
	if exportFile == "" {
		return fmt.Errorf("export-file is required")
	}
	if referenceFile == "" {
		return fmt.Errorf("reference-file is required")
	}
	if enrichOutput == "" {
		return fmt.Errorf("output-file is required")
	}

	// Validate file existence
	if err := validateFileExists(exportFile, "expense export"); err != nil {
		return err
	}
	if err := validateFileExists(referenceFile, "reference workbook"); err != nil {
		return err
	}

	// Validate enrichment settings
	if centralThreshold <= 0 {
		return fmt.Errorf("central threshold must be positive")
	}
	if strings.TrimSpace(vendorName) == "" {
		return fmt.Errorf("vendor cannot be blank")
	}

	// Validate summary format
	if !reporter.OutputFormat(enrichSummaryFormat).IsValid() {
		return fmt.Errorf("invalid summary format '%s'. Valid formats: console, json", enrichSummaryFormat)
	}

	// Validate output file directory exists
	return validateOutputDir(enrichOutput)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting enrichment...\n")
		fmt.Fprintf(os.Stderr, "Export file: %s\n", exportFile)
		fmt.Fprintf(os.Stderr, "Reference file: %s\n", referenceFile)
		fmt.Fprintf(os.Stderr, "Output file: %s\n", enrichOutput)
	}

	// Create configurations
	enrichmentConfig := config.CreateEnrichmentConfig(centralThreshold, vendorName)
	reportConfig := config.CreateReportConfig(enrichSummaryFormat, !viper.GetBool("no-color"))
	serviceConfig := config.CreateServiceConfig(enrichmentConfig, reportConfig)

	// Create reconciliation service
	service, err := reconciler.NewService(serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	request := &reconciler.EnrichmentRequest{
		ExportFile:    exportFile,
		ReferenceFile: referenceFile,
		OutputFile:    enrichOutput,
		SkipSummary:   skipSummary,
	}

	result, err := service.ProcessEnrichment(ctx, request)
	if err != nil {
		return err
	}

	// Write the run summary to stdout
	if err := service.Reporter().WriteEnrichmentSummary(result.Summary, os.Stdout); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	// Show completion details
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nEnriched %d export rows.\n", result.Stats.Rows)
		fmt.Fprintf(os.Stderr, "Matched %d rows to departments, assigned %d to the Central location.\n",
			result.Stats.DepartmentMatches, result.Stats.CentralRows)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}
