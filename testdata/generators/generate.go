// Command generate produces sample input files for manual runs and demos:
// a paired bookkeeping export and bank statement for the reconcile command,
// and a raw expense export plus reference workbook for the enrich command.
//
// Usage:
//
//	go run ./testdata/generators -dataset=all -output-dir=testdata/generated
//	go run ./testdata/generators -dataset=reconciliation -count=200 -match-ratio=0.9
//	go run ./testdata/generators -dataset=enrichment -seed=42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expense-reconciliation-service/internal/tabular"
	"expense-reconciliation-service/internal/workbook"

	"github.com/shopspring/decimal"
)

var employees = []struct {
	Name       string
	Department string
}{
	{"Alice Barnes", "Engineering"},
	{"Bruno Keller", "Engineering"},
	{"Carol Whitfield", "Sales"},
	{"Daniel Osei", "Marketing"},
	{"Erin Fitzgerald", "Finance"},
	{"Farid Haddad", "Operations"},
	{"Grace Lindqvist", "Engineering"},
	{"Hugo Martins", "Sales"},
}

var merchants = []string{
	"Uber",
	"Trainline",
	"Pret A Manger",
	"AWS",
	"Google Workspace",
	"Figma",
	"Heathrow Express",
	"Premier Inn",
	"Deliveroo",
	"WeWork",
}

var accounts = []struct {
	Number string
	Name   string
}{
	{"60001", "Travel Costs"},
	{"60002", "Subsistence"},
	{"60003", "Software Subscriptions"},
	{"60004", "Office Costs"},
	{"60005", "Accommodation"},
}

func main() {
	var (
		outputDir  = flag.String("output-dir", "testdata/generated", "Output directory for generated files")
		dataset    = flag.String("dataset", "all", "Dataset to generate: reconciliation, enrichment, all")
		count      = flag.Int("count", 50, "Number of bookkeeping rows to generate")
		matchRatio = flag.Float64("match-ratio", 0.8, "Fraction of bookkeeping rows mirrored in the statement")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	if *matchRatio < 0 || *matchRatio > 1 {
		log.Fatalf("match-ratio must be between 0.0 and 1.0")
	}
	if *count < 1 {
		log.Fatalf("count must be at least 1")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	switch *dataset {
	case "reconciliation":
		generateReconciliationData(rng, *outputDir, *count, *matchRatio)
	case "enrichment":
		generateEnrichmentData(rng, *outputDir, *count)
	case "all":
		generateReconciliationData(rng, *outputDir, *count, *matchRatio)
		generateEnrichmentData(rng, *outputDir, *count)
	default:
		log.Fatalf("Unknown dataset %q. Valid datasets: reconciliation, enrichment, all", *dataset)
	}

	fmt.Printf("Seed used: %d\n", *seed)
}

// generateReconciliationData writes a bookkeeping export and a bank
// statement sharing matchRatio of their rows. The leftovers on either side
// are what the reconcile command reports as outliers.
func generateReconciliationData(rng *rand.Rand, outputDir string, count int, matchRatio float64) {
	bookRows := make([][]string, 0, count)
	stmtRows := make([][]string, 0, count)

	matched := 0
	for i := 0; i < count; i++ {
		payer := employees[rng.Intn(len(employees))].Name
		description := merchants[rng.Intn(len(merchants))]
		amount := randomAmount(rng, 5, 800)

		bookRows = append(bookRows, []string{payer, description, amount.Neg().String()})

		if rng.Float64() < matchRatio {
			stmtRows = append(stmtRows, []string{payer, description, amount.Neg().String(), ""})
			matched++
		}
	}

	// Statement-only activity: card repayments arrive as credits with a
	// zero debit so they survive cleaning and show up as outliers.
	extras := count / 10
	for i := 0; i < extras; i++ {
		payer := employees[rng.Intn(len(employees))].Name
		stmtRows = append(stmtRows, []string{payer, "Card repayment", "0", randomAmount(rng, 50, 500).String()})
	}

	rng.Shuffle(len(stmtRows), func(i, j int) {
		stmtRows[i], stmtRows[j] = stmtRows[j], stmtRows[i]
	})

	bookFile := filepath.Join(outputDir, "bookkeeping.csv")
	if err := writeCSV(bookFile, []string{"Payer", "Description", "Signed Total Amount"}, bookRows); err != nil {
		log.Fatalf("Failed to write bookkeeping file: %v", err)
	}

	stmtFile := filepath.Join(outputDir, "statement.csv")
	if err := writeCSV(stmtFile, []string{"Payer", "Description", "Debit", "Credit"}, stmtRows); err != nil {
		log.Fatalf("Failed to write statement file: %v", err)
	}

	fmt.Printf("Generated %d bookkeeping rows in %s\n", len(bookRows), bookFile)
	fmt.Printf("Generated %d statement rows in %s (%d shared with the bookkeeping side)\n", len(stmtRows), stmtFile, matched)
}

// generateEnrichmentData writes a raw expense export in the platform's
// format (every value quoted, semicolon delimited, trailing semicolons)
// and the reference workbook the enrich command joins against.
func generateEnrichmentData(rng *rand.Rand, outputDir string, count int) {
	var export strings.Builder
	writeExportLine(&export, []string{
		"Payer", "Description", "Expense Account", "Net Amount", "Tax Amount", "Signed Total Amount",
	})

	for i := 0; i < count; i++ {
		employee := employees[rng.Intn(len(employees))]
		account := accounts[rng.Intn(len(accounts))]
		description := merchants[rng.Intn(len(merchants))]

		// Spread amounts around the default Central threshold so both
		// locations appear in the output.
		gross := randomAmount(rng, 10, 500)
		net := gross.Div(decimal.NewFromFloat(1.2)).Round(2)
		tax := gross.Sub(net)
		if rng.Intn(4) == 0 {
			net = gross
			tax = decimal.Zero
		}

		writeExportLine(&export, []string{
			employee.Name, description, account.Number, net.String(), tax.String(), gross.String(),
		})

		// The platform sprinkles blank lines through its exports.
		if rng.Intn(8) == 0 {
			export.WriteString("\n")
		}
	}

	exportFile := filepath.Join(outputDir, "export.csv")
	if err := os.WriteFile(exportFile, []byte(export.String()), 0644); err != nil {
		log.Fatalf("Failed to write export file: %v", err)
	}

	referenceFile := filepath.Join(outputDir, "reference.xlsx")
	if err := writeReferenceWorkbook(referenceFile); err != nil {
		log.Fatalf("Failed to write reference workbook: %v", err)
	}

	fmt.Printf("Generated %d export rows in %s\n", count, exportFile)
	fmt.Printf("Generated reference workbook in %s\n", referenceFile)
}

// writeReferenceWorkbook writes the Employee and Account sheets used by
// the enrich command.
func writeReferenceWorkbook(path string) error {
	employee := tabular.New([]string{"Spendesk Names", "NetSuite Department"})
	for _, e := range employees {
		employee.AppendRow([]string{e.Name, e.Department})
	}

	account := tabular.New([]string{"Expense Account Number", "Display Name"})
	for _, a := range accounts {
		account.AppendRow([]string{a.Number, a.Name})
	}

	return workbook.WriteWorkbook(path, []workbook.SheetSpec{
		{Name: "Employee", Table: employee, StyleHeader: true},
		{Name: "Account", Table: account, StyleHeader: true},
	})
}

// randomAmount returns a two decimal place amount in [min, max).
func randomAmount(rng *rand.Rand, min, max float64) decimal.Decimal {
	value := min + rng.Float64()*(max-min)
	return decimal.NewFromFloat(value).Round(2)
}

func writeCSV(filename string, header []string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// writeExportLine writes one line the way the expense platform does:
// every value double quoted, semicolon separated, with a trailing
// semicolon.
func writeExportLine(b *strings.Builder, values []string) {
	for _, value := range values {
		b.WriteString("\"")
		b.WriteString(value)
		b.WriteString("\";")
	}
	b.WriteString("\n")
}
