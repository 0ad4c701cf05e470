package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/huangsam/bidsim/core"
	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/store"
	"github.com/huangsam/bidsim/schema"
)

var validate = newValidator()

// newValidator adds a "formula" tag that accepts any registered economic
// formula, including ones registered after startup.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("formula", func(fl validator.FieldLevel) bool {
		return algo.KnownFormula(schema.FormulaID(fl.Field().String()))
	})
	return v
}

type handler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	log     *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type lotResponse struct {
	ID        string           `json:"id"`
	Lot       schema.LotConfig `json:"lot"`
	UpdatedAt time.Time        `json:"updated_at"`
	Warnings  []string         `json:"warnings,omitempty"`
}

type scoreRequest struct {
	Inputs       schema.ScoreInputs `json:"inputs"`
	Discount     float64            `json:"discount" validate:"gte=0,lte=100"`
	BestDiscount *float64           `json:"best_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type economicRequest struct {
	Base    float64          `json:"base" validate:"gte=0"`
	Offered float64          `json:"offered" validate:"gte=0"`
	Best    float64          `json:"best" validate:"gte=0"`
	Alpha   *float64         `json:"alpha,omitempty" validate:"omitempty,gt=0,lte=1"`
	MaxEcon *float64         `json:"max_econ,omitempty" validate:"omitempty,gte=0"`
	Formula schema.FormulaID `json:"formula,omitempty" validate:"omitempty,formula"`
}

type simulateRequest struct {
	MyDiscount         float64           `json:"my_discount" validate:"gte=0,lte=100"`
	MyTechScore        float64           `json:"my_tech_score" validate:"gte=0"`
	CompetitorDiscount schema.NormalDist `json:"competitor_discount"`
	CompetitorTech     schema.NormalDist `json:"competitor_tech"`
	Iterations         int               `json:"iterations" validate:"gte=0"`
	Seed               uint64            `json:"seed"`
}

type optimizeRequest struct {
	MyTechScore         float64  `json:"my_tech_score" validate:"gte=0"`
	CompetitorTechScore float64  `json:"competitor_tech_score" validate:"gte=0"`
	CompetitorDiscount  float64  `json:"competitor_discount" validate:"gte=0,lte=100"`
	MarketBestDiscount  float64  `json:"market_best_discount" validate:"gte=0,lte=100"`
	Step                float64  `json:"step" validate:"gte=0"`
	MaxDiscount         float64  `json:"max_discount" validate:"gte=0,lte=100"`
	Validate            *bool    `json:"validate,omitempty"`
	Seed                uint64   `json:"seed"`
	DiscountStd         *float64 `json:"discount_std,omitempty" validate:"omitempty,gt=0"`
	TechStd             *float64 `json:"tech_std,omitempty" validate:"omitempty,gt=0"`
}

// requestConfig clones the base config for one request against the lot in the URL.
func (h *handler) requestConfig(r *http.Request) *contract.Config {
	cfg := h.baseCfg.Clone()
	cfg.Output = schema.JSONOut
	cfg.LotFile = ""
	cfg.LotID = chi.URLParam(r, "lotID")
	return cfg
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *handler) listLots(w http.ResponseWriter, r *http.Request) {
	lots, err := core.ListLots(h.mgr)
	if err != nil {
		h.fail(w, r, "handler.lots.List", err)
		return
	}
	if lots == nil {
		lots = []schema.LotSummary{}
	}
	render.JSON(w, r, lots)
}

func (h *handler) getLot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "lotID")
	lot, updatedAt, err := core.GetLot(h.mgr, id)
	if err != nil {
		h.fail(w, r, "handler.lots.Get", err)
		return
	}
	render.JSON(w, r, lotResponse{ID: id, Lot: lot, UpdatedAt: updatedAt, Warnings: algo.DiagnoseLot(lot)})
}

func (h *handler) putLot(w http.ResponseWriter, r *http.Request) {
	var lot schema.LotConfig
	if err := render.DecodeJSON(r.Body, &lot); err != nil {
		h.badRequest(w, r, err)
		return
	}
	id := chi.URLParam(r, "lotID")
	normalized, warnings, err := core.StoreLot(h.mgr, id, lot)
	if err != nil {
		h.fail(w, r, "handler.lots.Put", err)
		return
	}
	render.JSON(w, r, lotResponse{ID: id, Lot: normalized, UpdatedAt: time.Now(), Warnings: warnings})
}

func (h *handler) deleteLot(w http.ResponseWriter, r *http.Request) {
	if err := core.DeleteLot(h.mgr, chi.URLParam(r, "lotID")); err != nil {
		h.fail(w, r, "handler.lots.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) maxPoints(w http.ResponseWriter, r *http.Request) {
	result, _, err := core.GetMaxPointsResults(core.WithSuppressHeader(r.Context()), h.requestConfig(r), h.mgr)
	if err != nil {
		h.fail(w, r, "handler.MaxPoints", err)
		return
	}
	render.JSON(w, r, result)
}

func (h *handler) requirementMaxPoints(w http.ResponseWriter, r *http.Request) {
	var req schema.Requirement
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	render.JSON(w, r, schema.RequirementPoint{
		ID:         req.ID,
		Type:       req.Type,
		Label:      req.Label,
		MaxPoints:  algo.ComputeMaxPoints(req),
		Overridden: req.MaxPointsOverride != nil,
		GaraWeight: req.GaraWeight,
	})
}

func (h *handler) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg := h.requestConfig(r)
	cfg.Discount = req.Discount
	cfg.BestDiscount = -1
	if req.BestDiscount != nil {
		cfg.BestDiscount = *req.BestDiscount
	}

	report, _, err := core.GetScoreResultsWithInputs(core.WithSuppressHeader(r.Context()), cfg, h.mgr, req.Inputs)
	if err != nil {
		h.fail(w, r, "handler.Score", err)
		return
	}
	render.JSON(w, r, report)
}

func (h *handler) scoreEconomic(w http.ResponseWriter, r *http.Request) {
	var req economicRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg := h.baseCfg.Clone()
	cfg.Economic = contract.EconomicInput{
		Base:    req.Base,
		Offered: req.Offered,
		Best:    req.Best,
		Alpha:   schema.DefaultAlpha,
		MaxEcon: schema.DefaultMaxEconScore,
		Formula: req.Formula,
	}
	if req.Alpha != nil {
		cfg.Economic.Alpha = *req.Alpha
	}
	if req.MaxEcon != nil {
		cfg.Economic.MaxEcon = *req.MaxEcon
	}

	result, err := core.GetEconomicResults(r.Context(), cfg)
	if err != nil {
		h.fail(w, r, "handler.Economic", err)
		return
	}
	render.JSON(w, r, result)
}

func (h *handler) simulate(w http.ResponseWriter, r *http.Request) {
	req := simulateRequest{Iterations: montecarlo.DefaultIterations}
	if !h.decode(w, r, &req) {
		return
	}
	cfg := h.requestConfig(r)
	cfg.KeepTrials = false
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	cfg.Simulation = schema.SimulationParams{
		MyDiscount:         req.MyDiscount,
		MyTechScore:        req.MyTechScore,
		CompetitorDiscount: req.CompetitorDiscount,
		CompetitorTech:     req.CompetitorTech,
		Iterations:         req.Iterations,
	}

	result, _, err := core.GetSimulationResults(core.WithSuppressHeader(r.Context()), cfg, h.mgr)
	if err != nil {
		h.fail(w, r, "handler.Simulate", err)
		return
	}
	render.JSON(w, r, result)
}

func (h *handler) optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg := h.requestConfig(r)
	cfg.Optimize = schema.OptimizeParams{
		MyTechScore:         req.MyTechScore,
		CompetitorTechScore: req.CompetitorTechScore,
		CompetitorDiscount:  req.CompetitorDiscount,
		MarketBestDiscount:  req.MarketBestDiscount,
	}
	if req.Step > 0 {
		cfg.Step = req.Step
	}
	if req.MaxDiscount > 0 {
		cfg.MaxDiscount = req.MaxDiscount
	}
	if req.Validate != nil {
		cfg.Validate = *req.Validate
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.DiscountStd != nil {
		cfg.DiscountStd = *req.DiscountStd
	}
	if req.TechStd != nil {
		cfg.TechStd = *req.TechStd
	}

	result, _, err := core.GetOptimizationResults(core.WithSuppressHeader(r.Context()), cfg, h.mgr)
	if err != nil {
		h.fail(w, r, "handler.Optimize", err)
		return
	}
	render.JSON(w, r, result)
}

// decode reads and validates a JSON body, answering 400 on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		h.badRequest(w, r, err)
		return false
	}
	if err := validate.Struct(v); err != nil {
		h.badRequest(w, r, err)
		return false
	}
	return true
}

func (h *handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

// fail maps an engine or store error onto a status code and logs server faults.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrLotNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrLotStoreDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoLot),
		errors.Is(err, algo.ErrNegativeBase),
		errors.Is(err, montecarlo.ErrInvalidIterations):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
