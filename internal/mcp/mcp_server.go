// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the bid scoring MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Bid Scoring Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	lotID := mcp.WithString("lot_id", mcp.Description("Id of a stored lot."))
	lotFile := mcp.WithString("lot_file", mcp.Description("Path to a YAML or JSON lot document (overrides lot_id)."))

	// --- 1. Tool: compute_max_points ---
	s.AddTool(mcp.NewTool("compute_max_points",
		mcp.WithDescription("Derive the maximum raw points of a single requirement, or of every requirement in a lot."),
		mcp.WithObject("requirement", mcp.Description("A single requirement object (id, type, resource or evaluation). When set, the lot is ignored.")),
		lotID,
		lotFile,
	), h.handleComputeMaxPoints)

	// --- 2. Tool: score_technical ---
	s.AddTool(mcp.NewTool("score_technical",
		mcp.WithDescription("Score a bidder's technical claims against a lot and price the bid at a discount."),
		lotID,
		lotFile,
		mcp.WithObject("inputs", mcp.Description("Evaluator inputs: {requirements: {id: {...}}, certs: {label: none|partial|all}}.")),
		mcp.WithString("inputs_file", mcp.Description("Path to an evaluator inputs document (used when inputs is absent).")),
		mcp.WithNumber("discount", mcp.Description("Offered discount in percent (0-100).")),
		mcp.WithNumber("best_discount", mcp.Description("Best known discount in percent; negative means the bidder's own price.")),
	), h.handleScoreTechnical)

	// --- 3. Tool: score_economic ---
	s.AddTool(mcp.NewTool("score_economic",
		mcp.WithDescription("Score an offered price against the base amount and the best known price."),
		mcp.WithNumber("base", mcp.Description("Base auction amount."), mcp.Required()),
		mcp.WithNumber("offered", mcp.Description("Offered price."), mcp.Required()),
		mcp.WithNumber("best", mcp.Description("Best known price."), mcp.Required()),
		mcp.WithNumber("alpha", mcp.Description("Curve exponent in (0, 1]. Defaults to 0.3.")),
		mcp.WithNumber("max_econ", mcp.Description("Economic score ceiling. Defaults to 40.")),
		mcp.WithString("formula", mcp.Description("Economic formula."), mcp.Enum("interpolation", "linear", "min_price_ratio")),
	), h.handleScoreEconomic)

	// --- 4. Tool: simulate ---
	s.AddTool(mcp.NewTool("simulate",
		mcp.WithDescription("Estimate the probability of beating one competitor drawn from normal distributions."),
		lotID,
		lotFile,
		mcp.WithNumber("my_discount", mcp.Description("My discount in percent."), mcp.Required()),
		mcp.WithNumber("my_tech", mcp.Description("My technical score."), mcp.Required()),
		mcp.WithNumber("comp_discount_mean", mcp.Description("Mean competitor discount in percent."), mcp.Required()),
		mcp.WithNumber("comp_discount_std", mcp.Description("Std of the competitor discount.")),
		mcp.WithNumber("comp_tech_mean", mcp.Description("Mean competitor technical score."), mcp.Required()),
		mcp.WithNumber("comp_tech_std", mcp.Description("Std of the competitor technical score.")),
		mcp.WithNumber("iterations", mcp.Description("Number of trials (default 500, max 10000).")),
		mcp.WithNumber("seed", mcp.Description("PRNG seed for reproducible runs.")),
	), h.handleSimulate)

	// --- 5. Tool: optimize_discount ---
	s.AddTool(mcp.NewTool("optimize_discount",
		mcp.WithDescription("Find the lowest discount that beats a fixed competitor and propose graduated scenarios."),
		lotID,
		lotFile,
		mcp.WithNumber("my_tech", mcp.Description("My technical score."), mcp.Required()),
		mcp.WithNumber("comp_tech", mcp.Description("Competitor technical score."), mcp.Required()),
		mcp.WithNumber("comp_discount", mcp.Description("Competitor discount in percent."), mcp.Required()),
		mcp.WithNumber("market_best", mcp.Description("Best discount seen on the market in percent.")),
		mcp.WithNumber("step", mcp.Description("Grid step in percentage points.")),
		mcp.WithBoolean("validate", mcp.Description("Attach a Monte Carlo win probability to every scenario.")),
		mcp.WithNumber("seed", mcp.Description("PRNG seed for the validation runs.")),
	), h.handleOptimizeDiscount)

	return s
}

// StartMCPServer starts the bid scoring MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
