package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Profile describes a steel section and how it is bought.
type Profile struct {
	Name           string          `json:"name" yaml:"name"`     // e.g. "HEA200"
	Family         string          `json:"family" yaml:"family"` // e.g. "HEA", "IPE", "RHS"
	WeightPerMetre decimal.Decimal `json:"weight_per_metre" yaml:"-"`
	PricePerKg     decimal.Decimal `json:"price_per_kg" yaml:"-"`
	StockLength    float64         `json:"stock_length" yaml:"stock_length"` // Standard bar length in mm
}

// NewProfile creates a profile from catalog figures.
func NewProfile(name, family string, kgPerMetre, pricePerKg, stockLength float64) Profile {
	return Profile{
		Name:           name,
		Family:         family,
		WeightPerMetre: decimal.NewFromFloat(kgPerMetre),
		PricePerKg:     decimal.NewFromFloat(pricePerKg),
		StockLength:    stockLength,
	}
}

// Catalog is the shop's list of known profiles.
type Catalog struct {
	Profiles []Profile `json:"profiles"`
}

// DefaultCatalog returns a catalog with common European sections.
func DefaultCatalog() Catalog {
	return Catalog{
		Profiles: []Profile{
			NewProfile("HEA100", "HEA", 16.7, 1.35, 12000),
			NewProfile("HEA200", "HEA", 42.3, 1.35, 12000),
			NewProfile("HEB200", "HEB", 61.3, 1.35, 12000),
			NewProfile("IPE200", "IPE", 22.4, 1.30, 12000),
			NewProfile("IPE300", "IPE", 42.2, 1.30, 12000),
			NewProfile("UPN100", "UPN", 10.6, 1.40, 6000),
			NewProfile("RHS100x50x4", "RHS", 8.59, 1.60, 6000),
			NewProfile("SHS80x80x5", "SHS", 11.3, 1.60, 6000),
			NewProfile("FL100x10", "FL", 7.85, 1.20, 6000),
			NewProfile("L50x50x5", "L", 3.77, 1.45, 6000),
		},
	}
}

// Find returns a pointer to the profile with the given name, or nil.
// Matching ignores case and surrounding spaces.
func (c *Catalog) Find(name string) *Profile {
	key := normalizeProfileName(name)
	for i := range c.Profiles {
		if normalizeProfileName(c.Profiles[i].Name) == key {
			return &c.Profiles[i]
		}
	}
	return nil
}

// Names returns the profile names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Profiles))
	for i, p := range c.Profiles {
		names[i] = p.Name
	}
	return names
}

// Upsert adds a profile or replaces the one with the same name.
func (c *Catalog) Upsert(p Profile) {
	if existing := c.Find(p.Name); existing != nil {
		*existing = p
		return
	}
	c.Profiles = append(c.Profiles, p)
}

func normalizeProfileName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}
