package core

import (
	"fmt"
	"os"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
)

// logLotHeader prints a one-line summary of the lot being scored. Headers go
// to stderr and only in text mode so structured output stays parseable.
func logLotHeader(cfg *contract.Config, resolved ResolvedLot) {
	if cfg.Output != schema.TextOut && cfg.Output != "" {
		return
	}
	lot := resolved.Lot.WithDefaults()
	fmt.Fprintf(os.Stderr, "📦 Lot: %s (id: %s, from %s)\n", lot.Name, resolved.ID, resolved.Source)
	fmt.Fprintf(os.Stderr, "💶 Base: %.2f, tech %.0f / econ %.0f, formula %s\n",
		lot.BaseAmount, lot.MaxTechScore, lot.MaxEconScore, lot.EconomicFormula)
}

// logSimulationHeader prints the size of a Monte Carlo run.
func logSimulationHeader(cfg *contract.Config) {
	if cfg.Output != schema.TextOut && cfg.Output != "" {
		return
	}
	fmt.Fprintf(os.Stderr, "🎲 Trials: %d on %d workers\n", cfg.Simulation.Iterations, cfg.Workers)
}
