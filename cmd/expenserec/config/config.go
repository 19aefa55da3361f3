package config

import (
	"expense-reconciliation-service/internal/enrich"
	"expense-reconciliation-service/internal/reconciler"
	"expense-reconciliation-service/internal/reporter"

	"github.com/shopspring/decimal"
)

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, useColors bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	// Set output format
	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.UseColors = useColors
	case "json":
		config.Format = reporter.FormatJSON
		config.UseColors = false
	}

	return config
}

// CreateEnrichmentConfig creates enrichment settings from CLI values
func CreateEnrichmentConfig(centralThreshold float64, vendor string) *enrich.Config {
	config := enrich.DefaultConfig()

	// Apply CLI overrides
	config.CentralThreshold = decimal.NewFromFloat(centralThreshold)
	if vendor != "" {
		config.Vendor = vendor
	}

	return config
}

// CreateServiceConfig assembles the service configuration. Nil sections
// fall back to their defaults inside the service.
func CreateServiceConfig(enrichment *enrich.Config, report *reporter.ReportConfig) *reconciler.Config {
	return &reconciler.Config{
		Enrichment: enrichment,
		Report:     report,
	}
}
