package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCatalogFindIgnoresCaseAndSpaces(t *testing.T) {
	c := DefaultCatalog()
	p := c.Find(" hea 200 ")
	if p == nil {
		t.Fatal("expected HEA200 to be found")
	}
	if p.Family != "HEA" {
		t.Errorf("expected family HEA, got %s", p.Family)
	}
	if c.Find("W8x31") != nil {
		t.Error("expected unknown profile to return nil")
	}
}

func TestCatalogUpsert(t *testing.T) {
	c := DefaultCatalog()
	before := len(c.Profiles)

	c.Upsert(NewProfile("HEA200", "HEA", 42.3, 1.50, 12000))
	if len(c.Profiles) != before {
		t.Errorf("expected replace, catalog grew to %d", len(c.Profiles))
	}
	if !c.Find("HEA200").PricePerKg.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("expected updated price, got %s", c.Find("HEA200").PricePerKg)
	}

	c.Upsert(NewProfile("CHS48x3", "CHS", 3.33, 1.7, 6000))
	if len(c.Profiles) != before+1 {
		t.Errorf("expected %d profiles, got %d", before+1, len(c.Profiles))
	}
	names := c.Names()
	if names[len(names)-1] != "CHS48x3" {
		t.Errorf("expected new profile last, got %s", names[len(names)-1])
	}
}

func TestProfileWeightAndCost(t *testing.T) {
	p := NewProfile("HEA200", "HEA", 42.3, 1.35, 12000)
	// 2.5 m * 42.3 kg/m = 105.75 kg
	if got := p.WeightFor(2500); !got.Equal(decimal.RequireFromString("105.75")) {
		t.Errorf("expected 105.75 kg, got %s", got)
	}
	// 105.75 * 1.35 = 142.7625 -> 142.76
	if got := p.CostFor(2500); !got.Equal(decimal.RequireFromString("142.76")) {
		t.Errorf("expected 142.76, got %s", got)
	}
}
