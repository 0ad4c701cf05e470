package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/bidsim/schema"
)

// scoreSumTolerance absorbs float noise when comparing configured totals.
const scoreSumTolerance = 1e-9

// DiagnoseLot returns non-fatal configuration problems. Every problem listed
// here is corrected by clamping during scoring.
func DiagnoseLot(lot schema.LotConfig) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if lot.BaseAmount < 0 || math.IsNaN(lot.BaseAmount) {
		warn("base_amount %v is invalid", lot.BaseAmount)
	}
	if math.IsNaN(lot.Alpha) || lot.Alpha < 0 || lot.Alpha > 1 {
		warn("alpha %v outside (0, 1], clamped", lot.Alpha)
	}
	if lot.EconomicFormula != "" && !KnownFormula(lot.EconomicFormula) {
		warn("economic_formula %q unknown, using %s", lot.EconomicFormula, schema.InterpolationFormula)
	}

	full := lot.WithDefaults()
	if math.Abs(full.MaxTechScore+full.MaxEconScore-100) > scoreSumTolerance {
		warn("max_tech_score + max_econ_score = %v, expected 100", full.MaxTechScore+full.MaxEconScore)
	}

	var garaTotal float64
	seen := make(map[string]struct{}, len(lot.Reqs))
	for _, req := range lot.Reqs {
		garaTotal += nonNegative(req.GaraWeight)
		if _, dup := seen[req.ID]; dup {
			warn("duplicate requirement id %q", req.ID)
		}
		seen[req.ID] = struct{}{}

		if _, ok := schema.ValidRequirementTypes[req.Type]; !ok {
			warn("requirement %q has unknown type %q", req.ID, req.Type)
			continue
		}
		switch req.Type {
		case schema.ResourceReq:
			if req.Resource == nil {
				warn("resource requirement %q has no resource config", req.ID)
			} else if req.Resource.ProfC > req.Resource.ProfR {
				warn("requirement %q: prof_C %d > prof_R %d, clamped", req.ID, req.Resource.ProfC, req.Resource.ProfR)
			}
		default:
			if req.Evaluation == nil {
				warn("%s requirement %q has no evaluation config", req.Type, req.ID)
			}
		}
	}
	for _, cert := range lot.CompanyCerts {
		garaTotal += nonNegative(cert.GaraWeight)
		if cert.PointsPartial != nil && *cert.PointsPartial > cert.Points {
			warn("cert %q: points_partial exceeds points, clamped", cert.Label)
		}
	}
	switch {
	case garaTotal > full.MaxTechScore+scoreSumTolerance:
		warn("gara weights sum to %v, above max_tech_score %v", garaTotal, full.MaxTechScore)
	case len(lot.Reqs)+len(lot.CompanyCerts) > 0 && garaTotal < full.MaxTechScore-scoreSumTolerance:
		warn("gara weights sum to %v, below max_tech_score %v", garaTotal, full.MaxTechScore)
	}
	return warnings
}
