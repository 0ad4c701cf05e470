package schema

// MaxPointsResult lists the derived ceiling of every requirement in a lot.
type MaxPointsResult struct {
	LotName      string             `json:"lot_name"`
	Requirements []RequirementPoint `json:"requirements"`
	CertPoints   float64            `json:"cert_points"`
	MaxRawScore  float64            `json:"max_raw_score"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// RequirementPoint is the ceiling of one requirement.
type RequirementPoint struct {
	ID         string          `json:"id"`
	Type       RequirementType `json:"type"`
	Label      string          `json:"label"`
	MaxPoints  float64         `json:"max_points"`
	Overridden bool            `json:"overridden"`
	GaraWeight float64         `json:"gara_weight"`
}

// RequirementScore is the per-requirement (or per-cert) technical breakdown.
type RequirementScore struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Label     string  `json:"label"`
	Raw       float64 `json:"raw"`
	MaxPoints float64 `json:"max_points"`
	Weighted  float64 `json:"weighted"`
	Missing   bool    `json:"missing,omitempty"`
}

// TechnicalResult is the output of the technical scorer.
type TechnicalResult struct {
	Total        float64            `json:"total"`
	RawTotal     float64            `json:"raw_total"`
	MaxTechScore float64            `json:"max_tech_score"`
	Breakdown    []RequirementScore `json:"breakdown"`
	PerCategory  map[string]float64 `json:"per_category"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// PerRequirementRaw returns the raw score keyed by requirement or cert id.
func (t TechnicalResult) PerRequirementRaw() map[string]float64 {
	out := make(map[string]float64, len(t.Breakdown))
	for _, b := range t.Breakdown {
		out[b.ID] = b.Raw
	}
	return out
}

// PerRequirementWeighted returns the weighted score keyed by requirement or cert id.
func (t TechnicalResult) PerRequirementWeighted() map[string]float64 {
	out := make(map[string]float64, len(t.Breakdown))
	for _, b := range t.Breakdown {
		out[b.ID] = b.Weighted
	}
	return out
}

// EconomicResult is the output of a standalone economic scoring call.
type EconomicResult struct {
	Formula      FormulaID `json:"formula"`
	BaseAmount   float64   `json:"base_amount"`
	OfferedPrice float64   `json:"offered_price"`
	BestPrice    float64   `json:"best_price"`
	Alpha        float64   `json:"alpha"`
	MaxEconScore float64   `json:"max_econ_score"`
	Score        float64   `json:"score"`
}

// BidScore combines the technical and economic scores for a single bid.
type BidScore struct {
	Discount  float64 `json:"discount"`
	Price     float64 `json:"price"`
	Technical float64 `json:"technical"`
	Economic  float64 `json:"economic"`
	Total     float64 `json:"total"`
}

// TrialRecord is a single Monte Carlo trial.
type TrialRecord struct {
	Trial              int     `json:"trial"`
	CompetitorDiscount float64 `json:"competitor_discount"`
	CompetitorTech     float64 `json:"competitor_tech"`
	BestPrice          float64 `json:"best_price"`
	MyEconomic         float64 `json:"my_economic"`
	CompetitorEconomic float64 `json:"competitor_economic"`
	MyTotal            float64 `json:"my_total"`
	CompetitorTotal    float64 `json:"competitor_total"`
	Win                bool    `json:"win"`
}

// SummaryStats describes one side of a Monte Carlo run.
type SummaryStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
	Median float64 `json:"median"`
}

// HistogramBin counts totals falling in [Lower, Upper).
type HistogramBin struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Mine       int     `json:"mine"`
	Competitor int     `json:"competitor"`
}

// SimulationResult is the output of a Monte Carlo run.
type SimulationResult struct {
	LotName        string           `json:"lot_name"`
	Params         SimulationParams `json:"params"`
	Iterations     int              `json:"iterations"`
	Wins           int              `json:"wins"`
	WinProbability float64          `json:"win_probability"`
	My             SummaryStats     `json:"my"`
	Competitor     SummaryStats     `json:"competitor"`
	// CompetitorThreshold is the competitor total exceeded in only 5% of trials.
	CompetitorThreshold float64        `json:"competitor_threshold"`
	MyScore             BidScore       `json:"my_score"`
	Histogram           []HistogramBin `json:"histogram"`
	Trials              []TrialRecord  `json:"trials,omitempty"`
	Seed                uint64         `json:"seed"`
	Workers             int            `json:"workers"`
}

// Scenario is one graduated discount proposal from the optimizer.
type Scenario struct {
	Name           string   `json:"name"`
	Discount       float64  `json:"discount"`
	Price          float64  `json:"price"`
	My             BidScore `json:"my"`
	Competitor     BidScore `json:"competitor"`
	Margin         float64  `json:"margin"`
	Beats          bool     `json:"beats"`
	WinProbability *float64 `json:"win_probability,omitempty"`
	// RevenueDelta is the revenue given up relative to the first scenario.
	RevenueDelta float64 `json:"revenue_delta"`
}

// OptimizationResult is the output of the discount optimizer. When Achievable
// is false MinDiscount is nil and scenarios derive from BestOfferDiscount.
type OptimizationResult struct {
	LotName           string         `json:"lot_name"`
	Params            OptimizeParams `json:"params"`
	Achievable        bool           `json:"achievable"`
	MinDiscount       *float64       `json:"min_discount,omitempty"`
	BestOfferDiscount float64        `json:"best_offer_discount"`
	Step              float64        `json:"step"`
	GridPoints        int            `json:"grid_points"`
	Scenarios         []Scenario     `json:"scenarios"`
}

// ScoreReport is the technical breakdown of a bid plus, when a discount is
// given, its economic and total score.
type ScoreReport struct {
	LotName   string          `json:"lot_name"`
	Technical TechnicalResult `json:"technical"`
	Bid       *BidScore       `json:"bid,omitempty"`
}
