package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/internal/lotfile"
	"github.com/huangsam/bidsim/internal/outwriter"
	"github.com/huangsam/bidsim/schema"
)

// ErrNoLot is returned when neither a lot id nor a lot document was given.
var ErrNoLot = errors.New("a lot id or --lot-file is required")

// ErrLotStoreDisabled is returned when a stored lot is requested without a lot store.
var ErrLotStoreDisabled = errors.New("lot store is not available")

// ResolvedLot is a lot ready for scoring, with where it came from.
type ResolvedLot struct {
	ID       string
	Lot      schema.LotConfig
	Source   string
	Warnings []string
}

// ResolveLot loads the lot named by the config. A lot document takes
// precedence over a stored lot id.
func ResolveLot(cfg *contract.Config, mgr contract.StoreManager) (ResolvedLot, error) {
	if cfg.LotFile != "" {
		lot, warnings, err := lotfile.LoadLot(cfg.LotFile)
		if err != nil {
			return ResolvedLot{}, err
		}
		id := cfg.LotID
		if id == "" {
			id = contract.LotIDFromPath(cfg.LotFile)
		}
		return ResolvedLot{ID: id, Lot: lot, Source: cfg.LotFile, Warnings: warnings}, nil
	}
	if cfg.LotID == "" {
		return ResolvedLot{}, ErrNoLot
	}
	lots, err := lotStore(mgr)
	if err != nil {
		return ResolvedLot{}, err
	}
	lot, _, err := lots.Get(cfg.LotID)
	if err != nil {
		return ResolvedLot{}, fmt.Errorf("failed to load lot: %w", err)
	}
	return ResolvedLot{ID: cfg.LotID, Lot: lot, Source: "store"}, nil
}

// ImportLot reads a lot document, normalizes it and stores it. The id
// defaults to the document file name.
func ImportLot(cfg *contract.Config, mgr contract.StoreManager, path string) (string, schema.LotConfig, []string, error) {
	if _, err := lotStore(mgr); err != nil {
		return "", schema.LotConfig{}, nil, err
	}
	lot, warnings, err := lotfile.LoadLot(path)
	if err != nil {
		return "", schema.LotConfig{}, nil, err
	}
	id := cfg.LotID
	if id == "" {
		id = contract.LotIDFromPath(path)
	}
	normalized, diagnostics, err := StoreLot(mgr, id, lot)
	if err != nil {
		return "", schema.LotConfig{}, nil, err
	}
	return id, normalized, append(warnings, diagnostics...), nil
}

// StoreLot normalizes a lot and writes it under id. The returned warnings
// are the configuration diagnostics of the stored lot.
func StoreLot(mgr contract.StoreManager, id string, lot schema.LotConfig) (schema.LotConfig, []string, error) {
	if id == "" {
		return schema.LotConfig{}, nil, ErrNoLot
	}
	lots, err := lotStore(mgr)
	if err != nil {
		return schema.LotConfig{}, nil, err
	}
	normalized := algo.NormalizeLot(lot)
	if err := lots.Put(id, normalized, time.Now()); err != nil {
		return schema.LotConfig{}, nil, fmt.Errorf("failed to store lot %q: %w", id, err)
	}
	return normalized, algo.DiagnoseLot(normalized), nil
}

// GetLot returns a stored lot and when it was last written.
func GetLot(mgr contract.StoreManager, id string) (schema.LotConfig, time.Time, error) {
	if id == "" {
		return schema.LotConfig{}, time.Time{}, ErrNoLot
	}
	lots, err := lotStore(mgr)
	if err != nil {
		return schema.LotConfig{}, time.Time{}, err
	}
	return lots.Get(id)
}

// ListLots returns a summary of every stored lot.
func ListLots(mgr contract.StoreManager) ([]schema.LotSummary, error) {
	lots, err := lotStore(mgr)
	if err != nil {
		return nil, err
	}
	return lots.List()
}

// DeleteLot removes a stored lot.
func DeleteLot(mgr contract.StoreManager, id string) error {
	if id == "" {
		return ErrNoLot
	}
	lots, err := lotStore(mgr)
	if err != nil {
		return err
	}
	return lots.Delete(id)
}

// ExecuteLotImport imports a lot document into the lot store.
func ExecuteLotImport(_ context.Context, cfg *contract.Config, mgr contract.StoreManager, path string) error {
	id, lot, warnings, err := ImportLot(cfg, mgr, path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		contract.LogWarn("Lot "+id, errors.New(w))
	}
	fmt.Fprintf(os.Stderr, "💾 Imported lot %q (%s, %d requirements, max raw score %.2f)\n",
		id, lot.Name, len(lot.Reqs), lot.MaxRawScore)
	return nil
}

// ExecuteLotShow prints one stored lot.
func ExecuteLotShow(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	lot, updatedAt, err := GetLot(mgr, cfg.LotID)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteLot(cfg.LotID, lot, updatedAt, cfg)
}

// ExecuteLotList prints every stored lot.
func ExecuteLotList(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	summaries, err := ListLots(mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteLots(summaries, cfg)
}

// ExecuteLotDelete removes a stored lot.
func ExecuteLotDelete(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := DeleteLot(mgr, cfg.LotID); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "🗑️  Deleted lot %q\n", cfg.LotID)
	return nil
}

func lotStore(mgr contract.StoreManager) (contract.LotStore, error) {
	if mgr == nil {
		return nil, ErrLotStoreDisabled
	}
	lots := mgr.GetLotStore()
	if lots == nil {
		return nil, ErrLotStoreDisabled
	}
	return lots, nil
}
