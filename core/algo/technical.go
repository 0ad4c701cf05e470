package algo

import (
	"fmt"
	"slices"

	"github.com/huangsam/bidsim/schema"
)

// ScoreTechnical computes raw and weighted technical scores for a lot.
// Requirements or certs absent from inputs score zero. The total is not
// capped at MaxTechScore; over-weighting is reported as a warning instead.
func ScoreTechnical(lot schema.LotConfig, inputs schema.ScoreInputs) schema.TechnicalResult {
	lot = lot.WithDefaults()
	result := schema.TechnicalResult{
		MaxTechScore: lot.MaxTechScore,
		Breakdown:    make([]schema.RequirementScore, 0, len(lot.Reqs)+len(lot.CompanyCerts)),
		PerCategory:  make(map[string]float64),
		Warnings:     DiagnoseLot(lot),
	}

	for _, req := range lot.Reqs {
		maxPts := ComputeMaxPoints(req)
		in, ok := inputs.Requirements[req.ID]
		var raw float64
		if ok {
			raw = clamp(scorerFor(req).raw(in), 0, maxPts)
		}
		weighted := weightedScore(raw, maxPts, req.GaraWeight)
		category := string(req.Type)
		result.Breakdown = append(result.Breakdown, schema.RequirementScore{
			ID:        req.ID,
			Category:  category,
			Label:     req.Label,
			Raw:       raw,
			MaxPoints: maxPts,
			Weighted:  weighted,
			Missing:   !ok,
		})
		result.PerCategory[category] += weighted
		result.RawTotal += raw
		result.Total += weighted
	}

	for _, cert := range lot.CompanyCerts {
		status, ok := inputs.Certs[cert.Label]
		points := nonNegative(cert.Points)
		raw := certRaw(cert, status)
		weighted := weightedScore(raw, points, cert.GaraWeight)
		result.Breakdown = append(result.Breakdown, schema.RequirementScore{
			ID:        cert.Label,
			Category:  schema.CertCategory,
			Label:     cert.Label,
			Raw:       raw,
			MaxPoints: points,
			Weighted:  weighted,
			Missing:   !ok,
		})
		result.PerCategory[schema.CertCategory] += weighted
		result.RawTotal += raw
		result.Total += weighted
	}

	result.Warnings = append(result.Warnings, unknownInputWarnings(lot, inputs)...)
	return result
}

// certRaw maps a tri-state cert status to raw points.
func certRaw(cert schema.CompanyCert, status schema.CertStatus) float64 {
	points := nonNegative(cert.Points)
	switch status {
	case schema.CertAll:
		return points
	case schema.CertPartial:
		if cert.PointsPartial == nil {
			return 0
		}
		return clamp(*cert.PointsPartial, 0, points)
	default:
		return 0
	}
}

// weightedScore rescales raw onto the gara weight. A zero ceiling yields zero.
func weightedScore(raw, maxPts, garaWeight float64) float64 {
	if maxPts <= 0 {
		return 0
	}
	return raw / maxPts * nonNegative(garaWeight)
}

// unknownInputWarnings lists input keys that match nothing in the lot.
func unknownInputWarnings(lot schema.LotConfig, inputs schema.ScoreInputs) []string {
	reqIDs := make(map[string]struct{}, len(lot.Reqs))
	for _, r := range lot.Reqs {
		reqIDs[r.ID] = struct{}{}
	}
	certLabels := make(map[string]struct{}, len(lot.CompanyCerts))
	for _, c := range lot.CompanyCerts {
		certLabels[c.Label] = struct{}{}
	}

	var warnings []string
	for id := range inputs.Requirements {
		if _, ok := reqIDs[id]; !ok {
			warnings = append(warnings, fmt.Sprintf("input references unknown requirement %q", id))
		}
	}
	for label, status := range inputs.Certs {
		if _, ok := certLabels[label]; !ok {
			warnings = append(warnings, fmt.Sprintf("input references unknown cert %q", label))
			continue
		}
		if _, ok := schema.ValidCertStatuses[status]; !ok {
			warnings = append(warnings, fmt.Sprintf("cert %q has unknown status %q, scored as none", label, status))
		}
	}
	slices.Sort(warnings)
	return warnings
}
