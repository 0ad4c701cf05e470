// Package algo has the deterministic scoring math: requirement ceilings,
// technical and economic scores, and the score combiner.
package algo

import (
	"math"
	"strings"

	"github.com/huangsam/bidsim/schema"
)

// requirementScorer is implemented once per requirement variant.
type requirementScorer interface {
	// maxPoints returns the derived raw ceiling from static configuration.
	maxPoints() float64
	// raw returns the unclamped raw score for an evaluator input.
	raw(in schema.EvaluatorInput) float64
}

// resourceScorer scores professional-profile requirements.
type resourceScorer struct {
	profR float64
	profC float64
}

func newResourceScorer(spec schema.ResourceSpec) resourceScorer {
	r := float64(max(spec.ProfR, 0))
	c := min(float64(max(spec.ProfC, 0)), r)
	return resourceScorer{profR: r, profC: c}
}

func (s resourceScorer) maxPoints() float64 {
	return resourcePoints(s.profR, s.profC)
}

func (s resourceScorer) raw(in schema.EvaluatorInput) float64 {
	r := min(nonNegative(in.RVal), s.profR)
	c := min(nonNegative(in.CVal), r)
	return resourcePoints(r, c)
}

// resourcePoints is (2 x R) + (R x C).
func resourcePoints(r, c float64) float64 {
	return 2*r + r*c
}

// evaluationScorer scores reference and project requirements.
type evaluationScorer struct {
	spec schema.EvaluationSpec
}

func (s evaluationScorer) maxPoints() float64 {
	total := nonNegative(s.spec.AttestazioneScore)
	for _, c := range s.spec.SubReqs {
		total += nonNegative(c.Weight) * criterionMax(c)
	}
	for _, m := range s.spec.CustomMetrics {
		total += nonNegative(m.MaxScore)
	}
	return total
}

func (s evaluationScorer) raw(in schema.EvaluatorInput) float64 {
	var total float64
	for _, c := range s.spec.SubReqs {
		ci, ok := in.Criteria[c.ID]
		if !ok {
			continue
		}
		total += clamp(criterionValue(c, ci), 0, criterionMax(c)) * nonNegative(c.Weight)
	}
	if in.Attestazione {
		total += nonNegative(s.spec.AttestazioneScore)
	}
	for _, m := range s.spec.CustomMetrics {
		v, ok := in.CustomMetrics[m.ID]
		if !ok {
			continue
		}
		lo, hi := metricRange(m)
		total += clamp(v, lo, hi)
	}
	return total
}

// nullScorer stands in for a requirement whose variant payload is missing.
type nullScorer struct{}

func (nullScorer) maxPoints() float64                  { return 0 }
func (nullScorer) raw(_ schema.EvaluatorInput) float64 { return 0 }

// scorerFor picks the variant implementation for a requirement.
func scorerFor(req schema.Requirement) requirementScorer {
	switch req.Type {
	case schema.ResourceReq:
		if req.Resource != nil {
			return newResourceScorer(*req.Resource)
		}
	case schema.ReferenceReq, schema.ProjectReq:
		if req.Evaluation != nil {
			return evaluationScorer{spec: *req.Evaluation}
		}
	}
	return nullScorer{}
}

// criterionMax is the top judgement level when a scale exists, else MaxValue.
func criterionMax(c schema.Criterion) float64 {
	if len(c.Scale) == 0 {
		return nonNegative(c.MaxValue)
	}
	var top float64
	for _, lvl := range c.Scale {
		top = max(top, nonNegative(lvl.Value))
	}
	return top
}

// criterionValue resolves a criterion input to a number. Unknown labels score 0.
func criterionValue(c schema.Criterion, in schema.CriterionInput) float64 {
	if in.Value != nil {
		return nonNegative(*in.Value)
	}
	if in.Judgement == "" {
		return 0
	}
	scale := c.Scale
	if len(scale) == 0 {
		scale = schema.DefaultJudgementScale
	}
	want := normalizeLabel(in.Judgement)
	for _, lvl := range scale {
		if normalizeLabel(lvl.Label) == want {
			return nonNegative(lvl.Value)
		}
	}
	return 0
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "ù", "u")
}

// metricRange returns the declared range of a custom metric, floored at zero.
func metricRange(m schema.CustomMetric) (float64, float64) {
	lo, hi := nonNegative(m.MinScore), nonNegative(m.MaxScore)
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// ComputeMaxPoints returns the raw ceiling of a requirement. A manual override
// is authoritative; otherwise the ceiling is derived from the variant config.
func ComputeMaxPoints(req schema.Requirement) float64 {
	if req.MaxPointsOverride != nil {
		return nonNegative(*req.MaxPointsOverride)
	}
	return scorerFor(req).maxPoints()
}

// RecomputeMaxRawScore sums every requirement ceiling and every cert's full points.
func RecomputeMaxRawScore(lot schema.LotConfig) float64 {
	var total float64
	for _, req := range lot.Reqs {
		total += ComputeMaxPoints(req)
	}
	for _, cert := range lot.CompanyCerts {
		total += nonNegative(cert.Points)
	}
	return total
}

// NormalizeLot returns a copy of lot whose stored MaxPoints and MaxRawScore
// match what ComputeMaxPoints derives. Applying it twice changes nothing.
func NormalizeLot(lot schema.LotConfig) schema.LotConfig {
	out := lot.Clone()
	for i := range out.Reqs {
		out.Reqs[i].MaxPoints = ComputeMaxPoints(out.Reqs[i])
	}
	out.MaxRawScore = RecomputeMaxRawScore(out)
	return out
}

// MaxPoints builds the per-requirement ceiling listing for a lot.
func MaxPoints(lot schema.LotConfig) schema.MaxPointsResult {
	result := schema.MaxPointsResult{
		LotName:      lot.Name,
		Requirements: make([]schema.RequirementPoint, 0, len(lot.Reqs)),
		MaxRawScore:  RecomputeMaxRawScore(lot),
		Warnings:     DiagnoseLot(lot),
	}
	for _, req := range lot.Reqs {
		result.Requirements = append(result.Requirements, schema.RequirementPoint{
			ID:         req.ID,
			Type:       req.Type,
			Label:      req.Label,
			MaxPoints:  ComputeMaxPoints(req),
			Overridden: req.MaxPointsOverride != nil,
			GaraWeight: nonNegative(req.GaraWeight),
		})
	}
	for _, cert := range lot.CompanyCerts {
		result.CertPoints += nonNegative(cert.Points)
	}
	return result
}

// nonNegative maps NaN, infinities and negatives to zero.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// clamp bounds v to [lo, hi], mapping NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
