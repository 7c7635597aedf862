package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogPath returns the default file path for the profile catalog.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultConfigDir(), "catalog.yaml")
}

// catalogFile is the on-disk catalog. Decimals are kept as strings so
// weights and prices round-trip exactly.
type catalogFile struct {
	Profiles []catalogEntry `yaml:"profiles"`
}

type catalogEntry struct {
	Name           string  `yaml:"name"`
	Family         string  `yaml:"family,omitempty"`
	WeightPerMetre string  `yaml:"weight_per_metre"` // kg/m
	PricePerKg     string  `yaml:"price_per_kg"`
	StockLength    float64 `yaml:"stock_length"` // mm
}

// SaveCatalog writes the catalog to a YAML file.
func SaveCatalog(path string, catalog model.Catalog) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var file catalogFile
	for _, p := range catalog.Profiles {
		file.Profiles = append(file.Profiles, catalogEntry{
			Name:           p.Name,
			Family:         p.Family,
			WeightPerMetre: p.WeightPerMetre.String(),
			PricePerKg:     p.PricePerKg.String(),
			StockLength:    p.StockLength,
		})
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCatalog reads a YAML catalog and merges it over DefaultCatalog:
// profiles in the file replace built-in profiles of the same name.
// Returns DefaultCatalog if the file does not exist.
func LoadCatalog(path string) (model.Catalog, error) {
	catalog := model.DefaultCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return catalog, nil
		}
		return model.Catalog{}, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return model.Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	for i, e := range file.Profiles {
		p, err := e.profile()
		if err != nil {
			return model.Catalog{}, fmt.Errorf("catalog %s: profile %d: %w", path, i+1, err)
		}
		catalog.Upsert(p)
	}
	return catalog, nil
}

func (e catalogEntry) profile() (model.Profile, error) {
	if e.Name == "" {
		return model.Profile{}, errors.New("profile has no name")
	}
	weight, err := parseDecimal(e.WeightPerMetre)
	if err != nil {
		return model.Profile{}, fmt.Errorf("%s: weight_per_metre: %w", e.Name, err)
	}
	price, err := parseDecimal(e.PricePerKg)
	if err != nil {
		return model.Profile{}, fmt.Errorf("%s: price_per_kg: %w", e.Name, err)
	}
	if weight.IsNegative() || price.IsNegative() || e.StockLength < 0 {
		return model.Profile{}, fmt.Errorf("%s: negative catalog value", e.Name)
	}
	return model.Profile{
		Name:           e.Name,
		Family:         e.Family,
		WeightPerMetre: weight,
		PricePerKg:     price,
		StockLength:    e.StockLength,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
