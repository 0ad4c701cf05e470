package cmd

import (
	"fmt"

	"github.com/huangsam/bidsim/core"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/store"
	"github.com/huangsam/bidsim/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// lotSetup loads minimal configuration needed for lot store operations.
// This is used by commands that need the lot store without full shared setup.
func lotSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(viper.GetString("store-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize the lot store only (no run tracking for lot commands)
	if err := store.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize lot store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.LotID = viper.GetString("id")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Precision = viper.GetInt("precision")
	cfg.Width = viper.GetInt("width")
	cfg.UseColors, _ = contract.ParseBoolString(viper.GetString("color"))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}

	return nil
}

// lotSetupWrapper wraps lotSetup to provide PreRunE for lot commands.
func lotSetupWrapper(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return lotSetup()
}

// lotIDArg stores the positional lot id in the config.
func lotIDArg(args []string) {
	if len(args) == 1 {
		cfg.LotID = args[0]
	}
}

// lotCmd focused on lot store management.
//
// Note: Lot subcommands use minimal initialization (lotSetup) instead of
// the full sharedSetup used by scoring commands.
var lotCmd = &cobra.Command{
	Use:   "lot",
	Short: "Manage stored tender lots",
	Long: `Manage the lot configurations kept in the lot store.

Lots are stored by id so scoring commands can refer to them without a
document. Imported lots are normalized: derived max points and the max raw
score are recomputed.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  import - Store a lot document
  show   - Print a stored lot
  list   - List stored lots
  delete - Remove a stored lot
  status - Show lot store statistics
  clear  - Remove every stored lot

Examples:
  bidsim lot import lot.yaml --id lotto-1
  bidsim lot show lotto-1`,
}

// lotImportCmd imports a lot document.
var lotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML or JSON lot document",
	Long: `Read a lot document, normalize it and store it.

The id defaults to the file name without its extension. Configuration
diagnostics are printed as warnings.

Examples:
  bidsim lot import lotto-1.yaml
  bidsim lot import lot.json --id lotto-2`,
	Args:    cobra.ExactArgs(1),
	PreRunE: lotSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteLotImport(rootCtx, cfg, store.Manager, args[0]); err != nil {
			contract.LogFatal("Failed to import lot", err)
		}
	},
}

// lotShowCmd prints one stored lot.
var lotShowCmd = &cobra.Command{
	Use:     "show <lot-id>",
	Short:   "Print a stored lot with its requirement ceilings",
	Args:    cobra.ExactArgs(1),
	PreRunE: lotSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		lotIDArg(args)
		if err := core.ExecuteLotShow(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Failed to show lot", err)
		}
	},
}

// lotListCmd lists stored lots.
var lotListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored lots",
	PreRunE: lotSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLotList(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Failed to list lots", err)
		}
	},
}

// lotDeleteCmd removes a stored lot.
var lotDeleteCmd = &cobra.Command{
	Use:     "delete <lot-id>",
	Short:   "Remove a stored lot",
	Args:    cobra.ExactArgs(1),
	PreRunE: lotSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		lotIDArg(args)
		if err := core.ExecuteLotDelete(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Failed to delete lot", err)
		}
	},
}

// lotStatusCmd shows lot store status.
var lotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display lot store statistics and connection details",
	Long: `Show detailed information about the lot store.

Displays:
- Backend type and connection status
- Number of stored lots
- Last and oldest update timestamps
- Store size

Examples:
  bidsim lot status`,
	PreRunE: lotSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := store.Manager.GetLotStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get lot store status", err)
		}
		store.PrintLotStatus(status)
	},
}

// lotClearCmd removes every stored lot.
var lotClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored lot",
	Long: `Delete all stored lots from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the lot table

WARNING: This action cannot be undone.`,
	PreRunE: lotSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store.CloseStores()
		if err := store.ClearLots(cfg.StoreBackend, contract.GetLotDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear lots", err)
		}
		fmt.Println("Lot store cleared successfully.")
	},
}
