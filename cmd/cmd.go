// Package cmd defines the command-line interface for bidsim.
package cmd

import (
	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/core/optimizer"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(maxPointsCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(economicCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(formulasCmd)
	rootCmd.AddCommand(lotCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the lot subcommands to the parent lot command
	lotCmd.AddCommand(lotImportCmd)
	lotCmd.AddCommand(lotShowCmd)
	lotCmd.AddCommand(lotListCmd)
	lotCmd.AddCommand(lotDeleteCmd)
	lotCmd.AddCommand(lotStatusCmd)
	lotCmd.AddCommand(lotClearCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("lot-file", "", "Path to a YAML or JSON lot document (overrides the stored lot id)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent Monte Carlo workers")
	rootCmd.PersistentFlags().Uint64("seed", 0, "PRNG seed for reproducible simulations (0 = random)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Lot store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run history")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	bindFlags("root", rootCmd.PersistentFlags())

	// Bind all flags of scoreCmd to Viper
	scoreCmd.Flags().String("inputs", "", "Path to the evaluator inputs document")
	scoreCmd.Flags().Float64("discount", 0, "Offered discount in percent")
	scoreCmd.Flags().Float64("best-discount", -1, "Best known discount in percent (negative = my own price)")
	bindFlags("score", scoreCmd.Flags())

	// Bind all flags of economicCmd to Viper
	economicCmd.Flags().Float64("base", 0, "Base auction amount")
	economicCmd.Flags().Float64("offered", 0, "Offered price")
	economicCmd.Flags().Float64("best", 0, "Best known price")
	economicCmd.Flags().Float64("alpha", schema.DefaultAlpha, "Curve exponent in (0, 1]")
	economicCmd.Flags().Float64("max-econ", schema.DefaultMaxEconScore, "Economic score ceiling")
	economicCmd.Flags().String("formula", string(schema.InterpolationFormula), "Economic formula: interpolation or linear or min_price_ratio")
	bindFlags("economic", economicCmd.Flags())

	// Bind all flags of simulateCmd to Viper
	simulateCmd.Flags().Float64("my-discount", 0, "My discount in percent")
	simulateCmd.Flags().Float64("my-tech", 0, "My technical score")
	simulateCmd.Flags().Float64("comp-discount-mean", 0, "Mean competitor discount in percent")
	simulateCmd.Flags().Float64("comp-discount-std", 0, "Std of the competitor discount")
	simulateCmd.Flags().Float64("comp-tech-mean", 0, "Mean competitor technical score")
	simulateCmd.Flags().Float64("comp-tech-std", 0, "Std of the competitor technical score")
	simulateCmd.Flags().Int("iterations", montecarlo.DefaultIterations, "Number of trials (max 10000)")
	simulateCmd.Flags().Bool("keep-trials", false, "Include every trial in JSON output")
	bindFlags("simulate", simulateCmd.Flags())

	// Bind all flags of optimizeCmd to Viper
	optimizeCmd.Flags().Float64("my-tech", 0, "My technical score")
	optimizeCmd.Flags().Float64("comp-tech", 0, "Competitor technical score")
	optimizeCmd.Flags().Float64("comp-discount", 0, "Competitor discount in percent")
	optimizeCmd.Flags().Float64("market-best", 0, "Best discount seen on the market in percent")
	optimizeCmd.Flags().Float64("step", optimizer.DefaultStep, "Grid step in percentage points")
	optimizeCmd.Flags().Float64("max-discount", optimizer.DefaultMaxDiscount, "Highest discount scanned")
	optimizeCmd.Flags().Bool("validate", true, "Attach a Monte Carlo win probability to every scenario")
	optimizeCmd.Flags().Int("validation-iterations", optimizer.DefaultValidationIterations, "Trials per validated scenario")
	optimizeCmd.Flags().Float64("discount-std", optimizer.DefaultDiscountStd, "Competitor discount std used by validation")
	optimizeCmd.Flags().Float64("tech-std", optimizer.DefaultTechStd, "Competitor technical std used by validation")
	bindFlags("optimize", optimizeCmd.Flags())

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address the HTTP API listens on")
	serveCmd.Flags().String("log-format", contract.DefaultLogFormat, "Server log format: text or json")
	bindFlags("serve", serveCmd.Flags())

	// Bind all flags of lotImportCmd to Viper
	lotImportCmd.Flags().String("id", "", "Lot id (defaults to the document file name)")
	bindFlags("lot import", lotImportCmd.Flags())

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	bindFlags("runs migrate", runsMigrateCmd.Flags())
}

// bindFlags binds a flag set to Viper or exits.
func bindFlags(name string, flags *pflag.FlagSet) {
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding "+name+" flags", err)
	}
}
