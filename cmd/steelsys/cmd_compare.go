package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SteelSys/internal/engine"
	"github.com/piwi3910/SteelSys/internal/inventory"
)

var (
	cmpDemand    string
	cmpStock     string
	cmpInventory string
	cmpProfile   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare what-if scenarios for a demand list",
	Long: `Optimize the same demand with the current settings and a few variations
(half kerf, keeping every leftover, fresh stock only) and show the results
side by side.`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&cmpDemand, "demand", "d", "", "Demand list (.csv, .xlsx or .dxf)")
	f.StringVarP(&cmpStock, "stock", "s", "", "Stock list (.csv or .xlsx)")
	f.StringVar(&cmpInventory, "inventory", "", "JSON inventory file")
	f.StringVarP(&cmpProfile, "profile", "p", "", "Profile for rows or drawing entities without one")
	_ = compareCmd.MarkFlagRequired("demand")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cmpStock == "" && cmpInventory == "" {
		return errNoSources
	}

	demand, err := loadDemand(cmpDemand, cmpProfile)
	if err != nil {
		return err
	}
	var stored inventory.Repository
	if cmpInventory != "" {
		store, err := openInventory(ctx, cmpInventory)
		if err != nil {
			return err
		}
		defer store.close()
		stored = store.repo
	}
	stock, remnants, err := planningSources(ctx, stored, cmpStock, demandProfiles(demand))
	if err != nil {
		return err
	}

	scenarios := engine.BuildDefaultScenarios(appCfg.Settings())
	results, err := engine.CompareScenarios(ctx, scenarios, stock, remnants, demand)
	if err != nil {
		return err
	}

	t := newTable("Scenario", "Bars", "Remnants used", "Remnants made", "Waste", "Waste %", "Not placed")
	for _, r := range results {
		t.Row(r.Scenario.Name, strconv.Itoa(r.BarsUsed), strconv.Itoa(r.RemnantsUsed),
			strconv.Itoa(r.RemnantsProduced), mm(r.WasteLength), pct(r.WastePercent),
			strconv.Itoa(r.UnassignedCount))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
