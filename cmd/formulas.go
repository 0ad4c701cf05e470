package cmd

import (
	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/schema"
	"github.com/spf13/cobra"
)

var formulaDefinitions = map[schema.FormulaID]string{
	schema.InterpolationFormula: "max_econ x ((base - offered) / (base - best))^alpha",
	schema.LinearFormula:        "max_econ x (base - offered) / (base - best)",
	schema.MinPriceRatioFormula: "max_econ x best / offered",
}

// formulasCmd displays the registered economic formulas.
var formulasCmd = &cobra.Command{
	Use:   "formulas",
	Short: "Display the economic scoring formulas",
	Long: `Show every registered economic formula and its definition.

All formulas score 0 for an offer at or above the base amount and give the
full economic score to the best price. Unknown formula ids in a lot fall back
to interpolation.

Examples:
  bidsim formulas`,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, id := range algo.FormulaIDs() {
			def, ok := formulaDefinitions[id]
			if !ok {
				def = "custom formula"
			}
			cmd.Printf("%-16s %s\n", id, def)
		}
	},
}
