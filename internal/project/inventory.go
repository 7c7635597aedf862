package project

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/SteelSys/internal/inventory"
)

// DefaultInventoryPath returns the default file path for the offline
// inventory file, ~/.steelsys/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes stock and remnants to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv inventory.Contents) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads an inventory file. A missing file is an empty inventory.
func LoadInventory(path string) (inventory.Contents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return inventory.Contents{}, nil
		}
		return inventory.Contents{}, err
	}
	var inv inventory.Contents
	if err := json.Unmarshal(data, &inv); err != nil {
		return inventory.Contents{}, err
	}
	return inv, nil
}

// ImportInventory imports an inventory from a JSON file, merging it with
// the existing inventory. Duplicate IDs are skipped.
func ImportInventory(path string, existing inventory.Contents) (inventory.Contents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported inventory.Contents
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	return MergeInventory(existing, imported), nil
}

// MergeInventory appends the items of imported whose IDs are not in existing.
// Stock bars and remnants share one ID space.
func MergeInventory(existing, imported inventory.Contents) inventory.Contents {
	ids := make(map[string]bool, len(existing.Stock)+len(existing.Remnants))
	for _, s := range existing.Stock {
		ids[s.ID] = true
	}
	for _, r := range existing.Remnants {
		ids[r.ID] = true
	}

	for _, s := range imported.Stock {
		if !ids[s.ID] {
			existing.Stock = append(existing.Stock, s)
			ids[s.ID] = true
		}
	}
	for _, r := range imported.Remnants {
		if !ids[r.ID] {
			existing.Remnants = append(existing.Remnants, r)
			ids[r.ID] = true
		}
	}
	return existing
}

// LoadRepository fills a new in-memory repository from an inventory file.
func LoadRepository(ctx context.Context, path string) (*inventory.MemoryRepository, error) {
	inv, err := LoadInventory(path)
	if err != nil {
		return nil, err
	}
	repo := inventory.NewMemoryRepository()
	if err := Restore(ctx, repo, inv); err != nil {
		return nil, err
	}
	return repo, nil
}

// Restore adds every item of inv to repo.
func Restore(ctx context.Context, repo inventory.Repository, inv inventory.Contents) error {
	if len(inv.Stock) > 0 {
		if err := repo.AddStock(ctx, inv.Stock...); err != nil {
			return err
		}
	}
	if len(inv.Remnants) > 0 {
		if err := repo.AddRemnants(ctx, inv.Remnants...); err != nil {
			return err
		}
	}
	return nil
}
