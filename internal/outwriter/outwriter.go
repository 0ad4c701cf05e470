// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteMaxPoints prints requirement ceilings using the configured output format.
func (ow *OutWriter) WriteMaxPoints(result schema.MaxPointsResult, cfg *contract.Config) error {
	return WriteMaxPointsResults(result, cfg)
}

// WriteScore prints a technical breakdown and optional bid total.
func (ow *OutWriter) WriteScore(report schema.ScoreReport, cfg *contract.Config) error {
	return WriteScoreResults(report, cfg)
}

// WriteEconomic prints a standalone economic score.
func (ow *OutWriter) WriteEconomic(result schema.EconomicResult, cfg *contract.Config) error {
	return WriteEconomicResults(result, cfg)
}

// WriteSimulation prints Monte Carlo results.
func (ow *OutWriter) WriteSimulation(result schema.SimulationResult, cfg *contract.Config, duration time.Duration) error {
	return WriteSimulationResults(result, cfg, duration)
}

// WriteOptimization prints optimizer results.
func (ow *OutWriter) WriteOptimization(result schema.OptimizationResult, cfg *contract.Config, duration time.Duration) error {
	return WriteOptimizationResults(result, cfg, duration)
}

// WriteLots prints the stored lot listing.
func (ow *OutWriter) WriteLots(lots []schema.LotSummary, cfg *contract.Config) error {
	return WriteLotList(lots, cfg)
}

// WriteLot prints one stored lot.
func (ow *OutWriter) WriteLot(lotID string, lot schema.LotConfig, updatedAt time.Time, cfg *contract.Config) error {
	return WriteLotDetail(lotID, lot, updatedAt, cfg)
}
