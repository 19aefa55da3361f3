package cmd

import (
	"fmt"
	"os"
	"strings"

	"expense-reconciliation-service/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expenserec",
	Short: "Expense export reconciliation tool",
	Long: `Expenserec is a command-line tool for working with expense platform
exports. It reconciles a bookkeeping export against a bank statement and
writes an outlier report, and it enriches raw expense exports with
department and location data plus a ledger-ready summary sheet.

Examples:
  expenserec reconcile -b bookkeeping.xlsx -s statement.xlsx -o reconciled.xlsx
  expenserec reconcile -b book.csv -s stmt.csv -o out.xlsx --summary-format json
  expenserec enrich -e export.csv -r reference.xlsx -o cleaned.xlsx
  expenserec enrich -e export.xls -r reference.xlsx -o cleaned.xlsx --skip-summary`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		// If a config file is specified, read it in.
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// A local .env file feeds the environment overrides below.
	if err := godotenv.Load(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Loaded environment from .env")
	}

	// Read environment variables that match
	viper.SetEnvPrefix("EXPENSEREC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configureLogging()
}

// configureLogging keeps stderr quiet during normal runs and switches the
// global logger to debug output when --verbose is set.
func configureLogging() {
	config := logger.QuietConfig()
	if viper.GetBool("verbose") {
		config = logger.DebugConfig()
	}

	log, err := logger.NewLogger(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %s\n", err)
		return
	}
	logger.SetGlobalLogger(log)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
