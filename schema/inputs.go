package schema

import "encoding/json"

// ScoreInputs holds everything the bidder supplies at scoring time.
// Requirements are keyed by requirement id and certs by cert label.
type ScoreInputs struct {
	Requirements map[string]EvaluatorInput `json:"requirements"`
	Certs        map[string]CertStatus     `json:"certs"`
}

// EvaluatorInput is the bidder's claim for a single requirement.
// Resource requirements read RVal/CVal, the others read the remaining fields.
type EvaluatorInput struct {
	RVal float64 `json:"r_val,omitempty"`
	CVal float64 `json:"c_val,omitempty"`

	Criteria      map[string]CriterionInput `json:"criteria,omitempty"`
	Attestazione  bool                      `json:"attestazione,omitempty"`
	CustomMetrics map[string]float64        `json:"custom_metrics,omitempty"`
}

// CriterionInput is either a judgement label or a raw numeric value.
// When both are set the numeric value wins.
type CriterionInput struct {
	Judgement string   `json:"judgement,omitempty"`
	Value     *float64 `json:"value,omitempty"`
}

// UnmarshalJSON accepts a bare judgement label or a bare number as well as
// the object form.
func (c *CriterionInput) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*c = CriterionInput{Judgement: label}
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*c = CriterionInput{Value: &value}
		return nil
	}
	type plain CriterionInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CriterionInput(p)
	return nil
}

// NormalDist is a normal distribution, in percentage points or score points.
type NormalDist struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// CompetitorProfile is one sampled or fixed competitor. It is never persisted.
type CompetitorProfile struct {
	Discount       float64 `json:"discount"`
	TechnicalScore float64 `json:"technical_score"`
}

// SimulationParams are the inputs of one Monte Carlo run. Discounts are 0-100.
type SimulationParams struct {
	MyDiscount         float64    `json:"my_discount"`
	MyTechScore        float64    `json:"my_tech_score"`
	CompetitorDiscount NormalDist `json:"competitor_discount"`
	CompetitorTech     NormalDist `json:"competitor_tech"`
	Iterations         int        `json:"iterations"`
}

// OptimizeParams are the inputs of the discount optimizer. Discounts are 0-100.
type OptimizeParams struct {
	MyTechScore         float64 `json:"my_tech_score"`
	CompetitorTechScore float64 `json:"competitor_tech_score"`
	CompetitorDiscount  float64 `json:"competitor_discount"`
	MarketBestDiscount  float64 `json:"market_best_discount"`
}
