package config

import (
	"testing"

	"expense-reconciliation-service/internal/reporter"

	"github.com/shopspring/decimal"
)

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		useColors      bool
		expectedFormat reporter.OutputFormat
		expectedColors bool
	}{
		{"console with colors", "console", true, reporter.FormatConsole, true},
		{"console without colors", "console", false, reporter.FormatConsole, false},
		{"json", "json", true, reporter.FormatJSON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateReportConfig(tt.format, tt.useColors)

			if config.Format != tt.expectedFormat {
				t.Errorf("expected format %s, got %s", tt.expectedFormat, config.Format)
			}
			if config.UseColors != tt.expectedColors {
				t.Errorf("expected UseColors %v, got %v", tt.expectedColors, config.UseColors)
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("report config should be valid: %v", err)
			}
		})
	}
}

func TestCreateEnrichmentConfig(t *testing.T) {
	config := CreateEnrichmentConfig(500, "Pleo")

	if !config.CentralThreshold.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected CentralThreshold 500, got %s", config.CentralThreshold)
	}
	if config.Vendor != "Pleo" {
		t.Errorf("expected Vendor 'Pleo', got '%s'", config.Vendor)
	}

	// Validate the configuration
	if err := config.Validate(); err != nil {
		t.Errorf("enrichment config should be valid: %v", err)
	}
}

func TestCreateEnrichmentConfig_BlankVendor(t *testing.T) {
	config := CreateEnrichmentConfig(250, "")

	// A blank vendor keeps the default
	if config.Vendor != "Spendesk" {
		t.Errorf("expected default Vendor 'Spendesk', got '%s'", config.Vendor)
	}
}

func TestCreateServiceConfig(t *testing.T) {
	enrichment := CreateEnrichmentConfig(250, "Spendesk")
	report := CreateReportConfig("console", true)

	config := CreateServiceConfig(enrichment, report)

	if config.Enrichment != enrichment {
		t.Error("expected enrichment config to be carried through")
	}
	if config.Report != report {
		t.Error("expected report config to be carried through")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("service config should be valid: %v", err)
	}
}

func TestCreateServiceConfig_NilSections(t *testing.T) {
	config := CreateServiceConfig(nil, nil)

	if err := config.Validate(); err != nil {
		t.Errorf("service config with nil sections should be valid: %v", err)
	}
}
