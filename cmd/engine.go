package cmd

import (
	"github.com/huangsam/bidsim/core"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/store"
	"github.com/spf13/cobra"
)

// maxPointsCmd derives the raw ceiling of every requirement in a lot.
var maxPointsCmd = &cobra.Command{
	Use:   "maxpoints [lot-id]",
	Short: "Show the maximum raw points of every requirement in a lot.",
	Long: `Derive the raw point ceiling of each requirement and certification in a lot.

Resource requirements score (2 x R) + (R x C) at full staffing. References and
projects add up weighted criteria, the attestation bonus and custom metrics.
A manual max_points_override always wins over the derived value.

Configuration problems (alpha out of range, gara weights that do not add up
to the technical ceiling, duplicate ids) are printed as warnings.

Examples:
  # Inspect a lot document
  bidsim maxpoints --lot-file lot.yaml

  # Inspect a stored lot
  bidsim maxpoints lotto-1 --output csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMaxPoints(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Cannot compute max points", err)
		}
	},
}

// scoreCmd scores a bidder's technical claims and prices the bid.
var scoreCmd = &cobra.Command{
	Use:   "score [lot-id]",
	Short: "Score technical inputs and combine them with the economic score.",
	Long: `Score a bidder's technical claims against a lot and price the bid.

Every requirement is scored on its raw scale, then weighted by its gara
weight. The bid is priced at --discount and scored economically against the
best known price: the cheaper of my own price and --best-discount.

Examples:
  # Score with my own price as the best one
  bidsim score --lot-file lot.yaml --inputs inputs.yaml --discount 20

  # Assume a competitor already offered 30%
  bidsim score lotto-1 --inputs inputs.yaml --discount 20 --best-discount 30`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScore(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Cannot score bid", err)
		}
	},
}

// economicCmd scores a single price.
var economicCmd = &cobra.Command{
	Use:   "economic",
	Short: "Score an offered price against the base amount and the best price.",
	Long: `Compute the economic score of one offer with a registered formula.

Formulas:
  interpolation   - max_econ x ((base - offered) / (base - best))^alpha (default)
  linear          - interpolation with alpha fixed at 1
  min_price_ratio - max_econ x best / offered

An offer at or above the base amount scores 0.

Examples:
  bidsim economic --base 1000000 --offered 800000 --best 700000
  bidsim economic --base 1000000 --offered 800000 --best 700000 --formula linear`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEconomic(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Cannot compute economic score", err)
		}
	},
}

// simulateCmd estimates the probability of beating one competitor.
var simulateCmd = &cobra.Command{
	Use:   "simulate [lot-id]",
	Short: "Estimate the win probability against a competitor with Monte Carlo.",
	Long: `Draw a competitor discount and technical score from normal distributions
and count how often my bid strictly beats it. A tie is a loss.

Draws are clamped to 0-100% and 0 to the technical ceiling. Trials are split
across --workers goroutines; with --seed the run is reproducible.

Examples:
  # 500 trials against a competitor around 20% and 50 points
  bidsim simulate --lot-file lot.yaml --my-discount 25 --my-tech 50 \
    --comp-discount-mean 20 --comp-discount-std 5 \
    --comp-tech-mean 50 --comp-tech-std 5

  # Export every trial for DuckDB
  bidsim simulate lotto-1 --my-discount 25 --my-tech 50 --comp-discount-mean 20 \
    --comp-tech-mean 50 --iterations 10000 --output parquet --output-file trials.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSimulate(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Cannot run simulation", err)
		}
	},
}

// optimizeCmd finds the cheapest winning discount.
var optimizeCmd = &cobra.Command{
	Use:   "optimize [lot-id]",
	Short: "Find the lowest discount that beats a fixed competitor.",
	Long: `Scan discounts from 0 to --max-discount in --step increments and report the
first one whose total strictly beats the competitor, then propose four
scenarios at +0, +5, +10 and +15 points with their revenue impact.

When no discount wins, the scenarios start from the higher of the market
best and the competitor discount. With --validate every scenario also gets a
Monte Carlo win probability.

Examples:
  bidsim optimize --lot-file lot.yaml --my-tech 52.35 --comp-tech 55 --comp-discount 30
  bidsim optimize lotto-1 --my-tech 52 --comp-tech 55 --comp-discount 30 --market-best 35 --step 0.5`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteOptimize(rootCtx, cfg, store.Manager); err != nil {
			contract.LogFatal("Cannot optimize discount", err)
		}
	},
}
