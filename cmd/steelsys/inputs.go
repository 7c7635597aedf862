package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/piwi3910/SteelSys/internal/importer"
	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/piwi3910/SteelSys/internal/project"
)

// checkImport logs the warnings of an import and turns its errors into one error.
func checkImport(path string, res importer.ImportResult) error {
	for _, w := range res.Warnings {
		logger.Warn("Import warning", zap.String("file", path), zap.String("warning", w))
	}
	if res.OK() {
		return nil
	}
	return fmt.Errorf("%s: %d import errors:\n  %s", path, len(res.Errors), strings.Join(res.Errors, "\n  "))
}

func loadDemand(path, defaultProfile string) ([]model.RequiredPiece, error) {
	res := importer.ImportDemandFile(path, defaultProfile)
	if err := checkImport(path, res); err != nil {
		return nil, err
	}
	if len(res.Pieces) == 0 {
		return nil, fmt.Errorf("%s: no pieces found", path)
	}
	logger.Info("Demand loaded", zap.String("file", path), zap.Int("pieces", len(res.Pieces)))
	return res.Pieces, nil
}

// inventoryStore is a repository plus the steps that persist and release it.
type inventoryStore struct {
	repo  inventory.Repository
	save  func(ctx context.Context) error
	close func() error
}

// openInventory opens the JSON inventory file at path, or the configured
// database when path is empty.
func openInventory(ctx context.Context, path string) (*inventoryStore, error) {
	if path != "" {
		repo, err := project.LoadRepository(ctx, path)
		if err != nil {
			return nil, err
		}
		return &inventoryStore{
			repo: repo,
			save: func(ctx context.Context) error {
				contents, err := repo.Contents(ctx)
				if err != nil {
					return err
				}
				return project.SaveInventory(path, contents)
			},
			close: func() error { return nil },
		}, nil
	}

	repo, err := inventory.Open(appCfg.DatabaseDriver, appCfg.DatabaseDSN, logger.Named("inventory"))
	if err != nil {
		return nil, err
	}
	return &inventoryStore{
		repo:  repo,
		save:  func(context.Context) error { return nil },
		close: repo.Close,
	}, nil
}

// addStockFile imports a stock list into repo.
func addStockFile(ctx context.Context, repo inventory.Repository, path string) error {
	res := importer.ImportStockFile(path)
	if err := checkImport(path, res); err != nil {
		return err
	}
	if err := repo.AddStock(ctx, res.Stock...); err != nil {
		return err
	}
	if err := repo.AddRemnants(ctx, res.Remnants...); err != nil {
		return err
	}
	logger.Info("Stock loaded",
		zap.String("file", path),
		zap.Int("bars", len(res.Stock)),
		zap.Int("remnants", len(res.Remnants)))
	return nil
}

// planningSources gathers the sources to optimize against: the available
// items of repo (nil for none) plus the stock list at stockPath. Both are
// combined in a scratch repository, so repo itself is never written and an
// ID listed in both is reported as inventory.ErrDuplicateID.
func planningSources(ctx context.Context, repo inventory.Repository, stockPath string, profiles []string) ([]model.StockItem, []model.RemnantItem, error) {
	scratch := inventory.NewMemoryRepository()
	if repo != nil {
		stock, remnants, err := availableSources(ctx, repo, profiles)
		if err != nil {
			return nil, nil, err
		}
		if err := scratch.AddStock(ctx, stock...); err != nil {
			return nil, nil, err
		}
		if err := scratch.AddRemnants(ctx, remnants...); err != nil {
			return nil, nil, err
		}
	}
	if stockPath != "" {
		if err := addStockFile(ctx, scratch, stockPath); err != nil {
			return nil, nil, err
		}
	}
	return availableSources(ctx, scratch, profiles)
}

// availableSources collects the available stock and remnants of the given
// profiles from repo.
func availableSources(ctx context.Context, repo inventory.Repository, profiles []string) ([]model.StockItem, []model.RemnantItem, error) {
	var stock []model.StockItem
	var remnants []model.RemnantItem
	for _, p := range profiles {
		snap, err := repo.Snapshot(ctx, p)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot %s: %w", p, err)
		}
		stock = append(stock, snap.Stock...)
		remnants = append(remnants, snap.Remnants...)
	}
	return stock, remnants, nil
}

func demandProfiles(demand []model.RequiredPiece) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range demand {
		if !seen[d.Profile] {
			seen[d.Profile] = true
			out = append(out, d.Profile)
		}
	}
	return out
}

var errNoSources = errors.New("no stock given: use --stock and/or --inventory")
