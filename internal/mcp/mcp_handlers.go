package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/bidsim/core"
	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/lotfile"
	"github.com/huangsam/bidsim/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// configFor clones the base config and applies the lot arguments shared by every lot tool.
func (h *toolHandler) configFor(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	cfg.LotID = request.GetString("lot_id", "")
	cfg.LotFile = request.GetString("lot_file", "")
	if seed := request.GetInt("seed", 0); seed > 0 {
		cfg.Seed = uint64(seed)
	}
	return cfg
}

func (h *toolHandler) handleComputeMaxPoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if raw, ok := request.GetArguments()["requirement"]; ok {
		var req schema.Requirement
		if err := decodeArgument(raw, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid requirement: %v", err)), nil
		}
		return jsonResult(map[string]any{
			"id":         req.ID,
			"max_points": algo.ComputeMaxPoints(req),
		})
	}

	result, _, err := core.GetMaxPointsResults(core.WithSuppressHeader(ctx), h.configFor(request), h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("max points failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleScoreTechnical(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.configFor(request)
	cfg.InputsFile = request.GetString("inputs_file", "")
	cfg.Discount = algo.ClampDiscount(request.GetFloat("discount", 0))
	cfg.BestDiscount = request.GetFloat("best_discount", -1)

	// inline inputs win over a file
	if raw, ok := request.GetArguments()["inputs"]; ok {
		data, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid inputs: %v", err)), nil
		}
		inputs, warnings, err := lotfile.ParseInputs(data)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid inputs: %v", err)), nil
		}
		report, _, err := core.GetScoreResultsWithInputs(core.WithSuppressHeader(ctx), cfg, h.mgr, inputs)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
		}
		report.Technical.Warnings = append(warnings, report.Technical.Warnings...)
		return jsonResult(report)
	}

	report, _, err := core.GetScoreResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleScoreEconomic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Economic = contract.EconomicInput{
		Base:    request.GetFloat("base", 0),
		Offered: request.GetFloat("offered", 0),
		Best:    request.GetFloat("best", 0),
		Alpha:   request.GetFloat("alpha", schema.DefaultAlpha),
		MaxEcon: request.GetFloat("max_econ", schema.DefaultMaxEconScore),
		Formula: schema.FormulaID(request.GetString("formula", string(schema.InterpolationFormula))),
	}
	if cfg.Economic.Base < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid economic inputs: %v", algo.ErrNegativeBase)), nil
	}
	if !algo.KnownFormula(cfg.Economic.Formula) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown formula %q", cfg.Economic.Formula)), nil
	}

	result, err := core.GetEconomicResults(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("economic scoring failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.configFor(request)
	cfg.KeepTrials = false
	cfg.Simulation = schema.SimulationParams{
		MyDiscount:  request.GetFloat("my_discount", 0),
		MyTechScore: request.GetFloat("my_tech", 0),
		CompetitorDiscount: schema.NormalDist{
			Mean: request.GetFloat("comp_discount_mean", 0),
			Std:  request.GetFloat("comp_discount_std", 0),
		},
		CompetitorTech: schema.NormalDist{
			Mean: request.GetFloat("comp_tech_mean", 0),
			Std:  request.GetFloat("comp_tech_std", 0),
		},
		Iterations: request.GetInt("iterations", montecarlo.DefaultIterations),
	}

	result, _, err := core.GetSimulationResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleOptimizeDiscount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.configFor(request)
	cfg.Optimize = schema.OptimizeParams{
		MyTechScore:         request.GetFloat("my_tech", 0),
		CompetitorTechScore: request.GetFloat("comp_tech", 0),
		CompetitorDiscount:  request.GetFloat("comp_discount", 0),
		MarketBestDiscount:  request.GetFloat("market_best", 0),
	}
	cfg.Validate = request.GetBool("validate", cfg.Validate)
	if step := request.GetFloat("step", 0); step > 0 {
		cfg.Step = step
	}

	result, _, err := core.GetOptimizationResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("optimization failed: %v", err)), nil
	}
	return jsonResult(result)
}

// decodeArgument converts a loosely typed tool argument into a struct via JSON.
func decodeArgument(raw any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
