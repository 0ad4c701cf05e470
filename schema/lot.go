// Package schema holds the data model shared by the engine, storage and output layers.
package schema

import "math"

// Defaults applied to a LotConfig when fields are left unset.
const (
	DefaultMaxTechScore = 60.0
	DefaultMaxEconScore = 40.0
	DefaultAlpha        = 0.3
)

// LotConfig describes one tender lot. The engine treats it as read-only.
type LotConfig struct {
	Name            string        `json:"name"`
	BaseAmount      float64       `json:"base_amount"`
	MaxTechScore    float64       `json:"max_tech_score"`
	MaxEconScore    float64       `json:"max_econ_score"`
	MaxRawScore     float64       `json:"max_raw_score"`
	Alpha           float64       `json:"alpha"`
	EconomicFormula FormulaID     `json:"economic_formula,omitempty"`
	CompanyCerts    []CompanyCert `json:"company_certs"`
	Reqs            []Requirement `json:"reqs"`
}

// CompanyCert is a company-level certification worth technical points.
type CompanyCert struct {
	Label         string   `json:"label"`
	Points        float64  `json:"points"`
	PointsPartial *float64 `json:"points_partial,omitempty"`
	GaraWeight    float64  `json:"gara_weight"`
}

// Requirement is a tagged union over RequirementType. Exactly one of
// Resource or Evaluation is expected to be set, matching Type.
type Requirement struct {
	ID         string          `json:"id"`
	Type       RequirementType `json:"type"`
	Label      string          `json:"label"`
	MaxPoints  float64         `json:"max_points"`
	GaraWeight float64         `json:"gara_weight"`

	// MaxPointsOverride, when set, is authoritative over the derived ceiling.
	MaxPointsOverride *float64 `json:"max_points_override,omitempty"`

	Resource   *ResourceSpec   `json:"resource,omitempty"`
	Evaluation *EvaluationSpec `json:"evaluation,omitempty"`
}

// ResourceSpec configures a resource requirement (professional profiles).
type ResourceSpec struct {
	ProfR             int      `json:"prof_R"`
	ProfC             int      `json:"prof_C"`
	SelectedProfCerts []string `json:"selected_prof_certs,omitempty"`
}

// EvaluationSpec configures a reference or project requirement.
type EvaluationSpec struct {
	SubReqs           []Criterion    `json:"sub_reqs"`
	AttestazioneScore float64        `json:"attestazione_score"`
	CustomMetrics     []CustomMetric `json:"custom_metrics,omitempty"`
}

// Criterion is one weighted sub-requirement of a reference or project.
type Criterion struct {
	ID       string           `json:"id"`
	Label    string           `json:"label,omitempty"`
	Weight   float64          `json:"weight"`
	MaxValue float64          `json:"max_value"`
	Scale    []JudgementLevel `json:"scale,omitempty"`
}

// JudgementLevel is one step of a discrete judgement scale.
type JudgementLevel struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CustomMetric is a free-form metric with a declared score range.
type CustomMetric struct {
	ID       string  `json:"id"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
}

// DefaultJudgementScale is used when a criterion value is given as a label
// and the criterion declares no scale of its own.
var DefaultJudgementScale = []JudgementLevel{
	{Label: "assente", Value: 0},
	{Label: "parzialmente_adeguato", Value: 2},
	{Label: "adeguato", Value: 3},
	{Label: "piu_che_adeguato", Value: 4},
	{Label: "ottimo", Value: 5},
}

// WithDefaults returns a copy of the lot with unset score ceilings and alpha
// filled in. Non-finite ceilings count as unset. Reqs and certs are shared
// with the receiver.
func (l LotConfig) WithDefaults() LotConfig {
	if l.MaxTechScore == 0 || !isFinite(l.MaxTechScore) {
		l.MaxTechScore = DefaultMaxTechScore
	}
	if l.MaxEconScore == 0 || !isFinite(l.MaxEconScore) {
		l.MaxEconScore = DefaultMaxEconScore
	}
	if l.Alpha == 0 {
		l.Alpha = DefaultAlpha
	}
	if l.EconomicFormula == "" {
		l.EconomicFormula = InterpolationFormula
	}
	return l
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clone returns a deep copy of the lot.
func (l LotConfig) Clone() LotConfig {
	clone := l
	if l.CompanyCerts != nil {
		clone.CompanyCerts = make([]CompanyCert, len(l.CompanyCerts))
		for i, c := range l.CompanyCerts {
			if c.PointsPartial != nil {
				p := *c.PointsPartial
				c.PointsPartial = &p
			}
			clone.CompanyCerts[i] = c
		}
	}
	if l.Reqs != nil {
		clone.Reqs = make([]Requirement, len(l.Reqs))
		for i, r := range l.Reqs {
			clone.Reqs[i] = r.Clone()
		}
	}
	return clone
}

// Clone returns a deep copy of the requirement.
func (r Requirement) Clone() Requirement {
	clone := r
	if r.MaxPointsOverride != nil {
		v := *r.MaxPointsOverride
		clone.MaxPointsOverride = &v
	}
	if r.Resource != nil {
		res := *r.Resource
		res.SelectedProfCerts = append([]string(nil), r.Resource.SelectedProfCerts...)
		clone.Resource = &res
	}
	if r.Evaluation != nil {
		ev := *r.Evaluation
		ev.SubReqs = make([]Criterion, len(r.Evaluation.SubReqs))
		for i, c := range r.Evaluation.SubReqs {
			c.Scale = append([]JudgementLevel(nil), c.Scale...)
			ev.SubReqs[i] = c
		}
		ev.CustomMetrics = append([]CustomMetric(nil), r.Evaluation.CustomMetrics...)
		clone.Evaluation = &ev
	}
	return clone
}
