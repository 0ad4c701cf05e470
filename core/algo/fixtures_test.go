package algo

import "github.com/huangsam/bidsim/schema"

func ptr[T any](v T) *T { return &v }

// testLot returns a consistent lot: one resource, one reference and one cert
// whose gara weights add up to max_tech_score.
func testLot() schema.LotConfig {
	return schema.LotConfig{
		Name:         "Lotto 1",
		BaseAmount:   1_000_000,
		MaxTechScore: 60,
		MaxEconScore: 40,
		Alpha:        0.3,
		CompanyCerts: []schema.CompanyCert{
			{Label: "ISO9001", Points: 4, PointsPartial: ptr(2.0), GaraWeight: 15},
		},
		Reqs: []schema.Requirement{
			{
				ID:         "R1",
				Type:       schema.ResourceReq,
				Label:      "Project manager",
				GaraWeight: 20,
				Resource:   &schema.ResourceSpec{ProfR: 5, ProfC: 5},
			},
			{
				ID:         "REF1",
				Type:       schema.ReferenceReq,
				Label:      "Similar contracts",
				GaraWeight: 25,
				Evaluation: &schema.EvaluationSpec{
					SubReqs: []schema.Criterion{
						{ID: "c1", Weight: 2, MaxValue: 5},
						{ID: "c2", Weight: 1, MaxValue: 99, Scale: []schema.JudgementLevel{
							{Label: "basso", Value: 1},
							{Label: "alto", Value: 4},
						}},
					},
					AttestazioneScore: 3,
					CustomMetrics:     []schema.CustomMetric{{ID: "m1", MinScore: 0, MaxScore: 3}},
				},
			},
		},
	}
}

// testInputs scores R1 at (4, 3), REF1 at 16 raw and the cert as partial.
func testInputs() schema.ScoreInputs {
	return schema.ScoreInputs{
		Requirements: map[string]schema.EvaluatorInput{
			"R1": {RVal: 4, CVal: 3},
			"REF1": {
				Criteria: map[string]schema.CriterionInput{
					"c1": {Judgement: "adeguato"},
					"c2": {Judgement: "alto"},
				},
				Attestazione:  true,
				CustomMetrics: map[string]float64{"m1": 5},
			},
		},
		Certs: map[string]schema.CertStatus{"ISO9001": schema.CertPartial},
	}
}
