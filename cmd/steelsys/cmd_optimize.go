package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/SteelSys/internal/engine"
	"github.com/piwi3910/SteelSys/internal/export"
	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
)

var (
	optDemand     string
	optStock      string
	optInventory  string
	optUseDB      bool
	optProfile    string
	optKerf       float64
	optMinRemnant float64
	optNoRemnants bool
	optPDF        string
	optExcel      string
	optLabels     string
	optReference  string
	optApply      bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Plan the cuts for a demand list",
	Long: `Plan the cuts for a demand list against stock bars and remnants.

Sources come from a stock list (--stock), a JSON inventory file (--inventory),
the configured database (--db), or a combination of the list with one of the
stores. The stores are only read unless --apply is given: then the listed
bars are added to the store, consumed sources are marked and produced
remnants added.`,
	Example: `  steelsys optimize --demand frame.csv --stock bars.xlsx --pdf plan.pdf
  steelsys optimize --demand drawing.dxf --profile HEA200 --inventory shop.json --apply --ref WO-17`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	f := optimizeCmd.Flags()
	f.StringVarP(&optDemand, "demand", "d", "", "Demand list (.csv, .xlsx or .dxf)")
	f.StringVarP(&optStock, "stock", "s", "", "Stock list (.csv or .xlsx)")
	f.StringVar(&optInventory, "inventory", "", "JSON inventory file")
	f.BoolVar(&optUseDB, "db", false, "Use the configured inventory database")
	f.StringVarP(&optProfile, "profile", "p", "", "Profile for rows or drawing entities without one")
	f.Float64Var(&optKerf, "kerf", 0, "Saw blade width in mm (default from config)")
	f.Float64Var(&optMinRemnant, "min-remnant", 0, "Shortest leftover kept as remnant in mm (default from config)")
	f.BoolVar(&optNoRemnants, "no-remnants", false, "Plan against fresh stock only")
	f.StringVar(&optPDF, "pdf", "", "Write cut diagrams to this PDF")
	f.StringVar(&optExcel, "xlsx", "", "Write the cut list to this Excel workbook")
	f.StringVar(&optLabels, "labels", "", "Write QR piece labels to this PDF")
	f.StringVar(&optReference, "ref", "", "Work order reference for labels and --apply")
	f.BoolVar(&optApply, "apply", false, "Apply the plan to the inventory store")
	_ = optimizeCmd.MarkFlagRequired("demand")
}

// cutSettings merges the command line overrides into the configured settings.
func cutSettings(cmd *cobra.Command) model.CutSettings {
	settings := appCfg.Settings()
	if cmd.Flags().Changed("kerf") {
		settings.Kerf = optKerf
	}
	if cmd.Flags().Changed("min-remnant") {
		settings.MinUsableRemnant = optMinRemnant
	}
	if optNoRemnants {
		settings.UseRemnants = false
	}
	return settings
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if optStock == "" && optInventory == "" && !optUseDB {
		return errNoSources
	}
	if optApply && optInventory == "" && !optUseDB {
		return fmt.Errorf("--apply needs --inventory or --db")
	}
	if optApply && optReference == "" {
		return fmt.Errorf("--apply needs --ref")
	}

	demand, err := loadDemand(optDemand, optProfile)
	if err != nil {
		return err
	}

	var store *inventoryStore
	var stored inventory.Repository
	if optInventory != "" || optUseDB {
		store, err = openInventory(ctx, optInventory)
		if err != nil {
			return err
		}
		defer store.close()
		stored = store.repo
	}

	stock, remnants, err := planningSources(ctx, stored, optStock, demandProfiles(demand))
	if err != nil {
		return err
	}

	settings := cutSettings(cmd)
	logger.Info("Optimizing",
		zap.Int("demand", len(demand)),
		zap.Int("stock", len(stock)),
		zap.Int("remnants", len(remnants)),
		zap.Float64("kerf", settings.Kerf),
		zap.Float64("min_remnant", settings.MinUsableRemnant))

	result, err := engine.New(settings).Optimize(ctx, stock, remnants, demand)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)

	if err := writeExports(result, optPDF, optExcel, optLabels, optReference); err != nil {
		return err
	}

	if optApply {
		// Listed bars join the store only once a plan consumes them.
		if optStock != "" {
			if err := addStockFile(ctx, store.repo, optStock); err != nil {
				return err
			}
		}
		if err := store.repo.ApplyPlan(ctx, optReference, result.Plans...); err != nil {
			return fmt.Errorf("failed to apply plan: %w", err)
		}
		if err := store.save(ctx); err != nil {
			return err
		}
		logger.Info("Plan applied", zap.String("ref", optReference))
	}
	return nil
}

func writeExports(result model.OptimizeResult, pdfPath, excelPath, labelsPath, ref string) error {
	if pdfPath != "" {
		if err := export.ExportPDF(pdfPath, result, catalog); err != nil {
			return err
		}
		logger.Info("PDF written", zap.String("file", pdfPath))
	}
	if excelPath != "" {
		if err := export.ExportExcel(excelPath, result, catalog); err != nil {
			return err
		}
		logger.Info("Workbook written", zap.String("file", excelPath))
	}
	if labelsPath != "" {
		if err := export.ExportLabels(labelsPath, result, ref); err != nil {
			return err
		}
		logger.Info("Labels written", zap.String("file", labelsPath))
	}
	return nil
}
