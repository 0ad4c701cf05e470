package algo

import (
	"math"
	"testing"

	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScoreTechnical tests the full breakdown for a consistent lot.
func TestScoreTechnical(t *testing.T) {
	res := ScoreTechnical(testLot(), testInputs())

	require.Len(t, res.Breakdown, 3)
	raw := res.PerRequirementRaw()
	weighted := res.PerRequirementWeighted()

	assert.Equal(t, 20.0, raw["R1"])
	assert.InDelta(t, 20.0/35.0*20.0, weighted["R1"], 1e-9)

	// c1: adeguato=3 x 2, c2: alto=4 x 1, attestation 3, metric 5 clamped to 3
	assert.Equal(t, 16.0, raw["REF1"])
	assert.InDelta(t, 20.0, weighted["REF1"], 1e-9)

	assert.Equal(t, 2.0, raw["ISO9001"])
	assert.InDelta(t, 7.5, weighted["ISO9001"], 1e-9)

	assert.InDelta(t, 20.0/35.0*20.0+20.0+7.5, res.Total, 1e-9)
	assert.Equal(t, 38.0, res.RawTotal)
	assert.Equal(t, 60.0, res.MaxTechScore)

	assert.InDelta(t, 20.0/35.0*20.0, res.PerCategory[string(schema.ResourceReq)], 1e-9)
	assert.InDelta(t, 20.0, res.PerCategory[string(schema.ReferenceReq)], 1e-9)
	assert.InDelta(t, 7.5, res.PerCategory[schema.CertCategory], 1e-9)
	assert.Empty(t, res.Warnings)
}

// TestScoreTechnicalMissingInputs tests that absent inputs give no credit.
func TestScoreTechnicalMissingInputs(t *testing.T) {
	res := ScoreTechnical(testLot(), schema.ScoreInputs{})

	assert.Equal(t, 0.0, res.Total)
	assert.Equal(t, 0.0, res.RawTotal)
	for _, b := range res.Breakdown {
		assert.True(t, b.Missing, b.ID)
		assert.Equal(t, 0.0, b.Weighted, b.ID)
	}
}

// TestScoreTechnicalClampsInvalidInputs tests negative and NaN claims.
func TestScoreTechnicalClampsInvalidInputs(t *testing.T) {
	in := schema.ScoreInputs{
		Requirements: map[string]schema.EvaluatorInput{
			"R1": {RVal: -4, CVal: math.NaN()},
			"REF1": {
				Criteria: map[string]schema.CriterionInput{
					"c1": {Value: ptr(-10.0)},
					"c2": {Value: ptr(math.NaN())},
				},
				CustomMetrics: map[string]float64{"m1": -2},
			},
		},
	}
	res := ScoreTechnical(testLot(), in)
	assert.Equal(t, 0.0, res.Total)
	assert.False(t, math.IsNaN(res.Total))
}

// TestScoreTechnicalCriterionValues tests judgement labels against numeric values.
func TestScoreTechnicalCriterionValues(t *testing.T) {
	tests := []struct {
		name     string
		input    schema.CriterionInput
		expected float64
	}{
		{"default scale label", schema.CriterionInput{Judgement: "ottimo"}, 10},
		{"label with spaces and accent", schema.CriterionInput{Judgement: "Più che adeguato"}, 8},
		{"unknown label", schema.CriterionInput{Judgement: "splendido"}, 0},
		{"numeric value", schema.CriterionInput{Value: ptr(2.5)}, 5},
		{"numeric value above max", schema.CriterionInput{Value: ptr(7.0)}, 10},
		{"value beats label", schema.CriterionInput{Judgement: "ottimo", Value: ptr(1.0)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := schema.ScoreInputs{Requirements: map[string]schema.EvaluatorInput{
				"REF1": {Criteria: map[string]schema.CriterionInput{"c1": tt.input}},
			}}
			res := ScoreTechnical(testLot(), in)
			assert.Equal(t, tt.expected, res.PerRequirementRaw()["REF1"])
		})
	}
}

// TestScoreTechnicalCerts tests the tri-state cert mapping.
func TestScoreTechnicalCerts(t *testing.T) {
	noPartial := testLot()
	noPartial.CompanyCerts[0].PointsPartial = nil

	tests := []struct {
		name     string
		lot      schema.LotConfig
		status   schema.CertStatus
		expected float64
	}{
		{"none", testLot(), schema.CertNone, 0},
		{"partial", testLot(), schema.CertPartial, 2},
		{"partial undefined", noPartial, schema.CertPartial, 0},
		{"all", testLot(), schema.CertAll, 4},
		{"garbage", testLot(), "maybe", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := schema.ScoreInputs{Certs: map[string]schema.CertStatus{"ISO9001": tt.status}}
			res := ScoreTechnical(tt.lot, in)
			assert.Equal(t, tt.expected, res.PerRequirementRaw()["ISO9001"])
		})
	}
}

// TestScoreTechnicalNotCapped tests that over-weighted lots are reported, not truncated.
func TestScoreTechnicalNotCapped(t *testing.T) {
	lot := testLot()
	lot.Reqs[0].GaraWeight = 40 // weights now sum to 80

	in := testInputs()
	in.Requirements["R1"] = schema.EvaluatorInput{RVal: 5, CVal: 5}
	in.Requirements["REF1"] = schema.EvaluatorInput{
		Criteria:      map[string]schema.CriterionInput{"c1": {Judgement: "ottimo"}, "c2": {Judgement: "alto"}},
		Attestazione:  true,
		CustomMetrics: map[string]float64{"m1": 3},
	}
	in.Certs["ISO9001"] = schema.CertAll

	res := ScoreTechnical(lot, in)
	assert.InDelta(t, 80.0, res.Total, 1e-9)
	assert.Greater(t, res.Total, res.MaxTechScore)
	assert.Contains(t, res.Warnings, "gara weights sum to 80, above max_tech_score 60")
}

// TestScoreTechnicalUnknownReferences tests that stray input ids are warned about.
func TestScoreTechnicalUnknownReferences(t *testing.T) {
	in := testInputs()
	in.Requirements["GHOST"] = schema.EvaluatorInput{RVal: 100}
	in.Certs["ISO27001"] = schema.CertAll

	res := ScoreTechnical(testLot(), in)
	assert.InDelta(t, 20.0/35.0*20.0+20.0+7.5, res.Total, 1e-9)
	assert.Contains(t, res.Warnings, `input references unknown requirement "GHOST"`)
	assert.Contains(t, res.Warnings, `input references unknown cert "ISO27001"`)
}

// BenchmarkScoreTechnical benchmarks technical scoring.
func BenchmarkScoreTechnical(b *testing.B) {
	lot, in := testLot(), testInputs()
	for b.Loop() {
		ScoreTechnical(lot, in)
	}
}
