package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/piwi3910/SteelSys/internal/project"
)

var (
	invFile string

	addProfile  string
	addLength   float64
	addQuantity int
	addHeat     string
	addLocation string
	addRemnant  bool

	listAll bool

	restoreConfig bool
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Manage stock bars and remnants",
	Long: `Manage stock bars and remnants.

By default the configured database is used; --file works on a JSON
inventory file instead.`,
}

var inventoryListCmd = &cobra.Command{
	Use:   "list [profile...]",
	Short: "List available stock and remnants",
	RunE:  runInventoryList,
}

var inventoryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add stock bars or remnants",
	Args:  cobra.NoArgs,
	RunE:  runInventoryAdd,
}

var inventoryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a stock list (.csv, .xlsx) or inventory file (.json)",
	Long: `Import a stock list (.csv, .xlsx) or an inventory file (.json).

Items of a JSON inventory whose IDs already exist are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runInventoryImport,
}

var inventoryExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the whole inventory to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventoryExport,
}

var inventoryBackupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Back up config, catalog and inventory to one JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventoryBackup,
}

var inventoryRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the inventory and catalog from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventoryRestore,
}

func init() {
	inventoryCmd.PersistentFlags().StringVarP(&invFile, "file", "f", "", "JSON inventory file instead of the database")

	f := inventoryAddCmd.Flags()
	f.StringVarP(&addProfile, "profile", "p", "", "Profile name")
	f.Float64VarP(&addLength, "length", "l", 0, "Length in mm (default the catalog stock length)")
	f.IntVarP(&addQuantity, "qty", "q", 1, "Number of items")
	f.StringVar(&addHeat, "heat", "", "Heat number from the mill certificate")
	f.StringVar(&addLocation, "location", "", "Storage location")
	f.BoolVar(&addRemnant, "remnant", false, "Add remnants instead of stock bars")
	_ = inventoryAddCmd.MarkFlagRequired("profile")

	inventoryListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include reserved and consumed items")
	inventoryRestoreCmd.Flags().BoolVar(&restoreConfig, "config", false, "Also write the backed up config to the config file")

	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryAddCmd)
	inventoryCmd.AddCommand(inventoryImportCmd)
	inventoryCmd.AddCommand(inventoryExportCmd)
	inventoryCmd.AddCommand(inventoryBackupCmd)
	inventoryCmd.AddCommand(inventoryRestoreCmd)
}

func runInventoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openInventory(ctx, invFile)
	if err != nil {
		return err
	}
	defer store.close()

	contents, err := store.repo.Contents(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(args))
	for _, a := range args {
		wanted[strings.ToUpper(a)] = true
	}
	keep := func(profile string, status model.Status) bool {
		if len(wanted) > 0 && !wanted[strings.ToUpper(profile)] {
			return false
		}
		return listAll || status == model.StatusAvailable
	}

	t := newTable("ID", "Kind", "Profile", "Length", "Status", "Heat", "Location / origin")
	n := 0
	for _, s := range contents.Stock {
		if keep(s.Profile, s.Status) {
			t.Row(s.ID, "stock", s.Profile, mm(s.Length), string(s.Status), s.HeatNumber, s.Location)
			n++
		}
	}
	for _, r := range contents.Remnants {
		if keep(r.Profile, r.Status) {
			origin := r.Origin.SourceID
			if r.Origin.WorkOrderID != "" {
				origin += " / " + r.Origin.WorkOrderID
			}
			t.Row(r.ID, "remnant", r.Profile, mm(r.Length), string(r.Status), r.HeatNumber, origin)
			n++
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	fmt.Fprintf(cmd.OutOrStdout(), "%d items\n", n)
	return nil
}

func runInventoryAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if addQuantity < 1 {
		return model.Invalid("qty", "quantity must be at least 1, got %d", addQuantity)
	}
	length := addLength
	if length == 0 {
		p := catalog.Find(addProfile)
		if p == nil || p.StockLength <= 0 {
			return fmt.Errorf("no --length given and profile %s has no stock length in the catalog", addProfile)
		}
		length = p.StockLength
	}

	store, err := openInventory(ctx, invFile)
	if err != nil {
		return err
	}
	defer store.close()

	if addRemnant {
		items := make([]model.RemnantItem, addQuantity)
		for i := range items {
			items[i] = model.NewRemnantItem(addProfile, length, model.RemnantOrigin{})
			items[i].HeatNumber = addHeat
			items[i].Location = addLocation
		}
		err = store.repo.AddRemnants(ctx, items...)
	} else {
		items := make([]model.StockItem, addQuantity)
		for i := range items {
			items[i] = model.NewStockItem(addProfile, length)
			items[i].HeatNumber = addHeat
			items[i].Location = addLocation
		}
		err = store.repo.AddStock(ctx, items...)
	}
	if err != nil {
		return err
	}
	if err := store.save(ctx); err != nil {
		return err
	}
	logger.Info("Inventory added",
		zap.String("profile", addProfile),
		zap.Float64("length", length),
		zap.Int("qty", addQuantity),
		zap.Bool("remnant", addRemnant))
	return nil
}

func runInventoryImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]
	store, err := openInventory(ctx, invFile)
	if err != nil {
		return err
	}
	defer store.close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		existing, err := store.repo.Contents(ctx)
		if err != nil {
			return err
		}
		merged, err := project.ImportInventory(path, existing)
		if err != nil {
			return err
		}
		added := inventory.Contents{
			Stock:    merged.Stock[len(existing.Stock):],
			Remnants: merged.Remnants[len(existing.Remnants):],
		}
		if err := project.Restore(ctx, store.repo, added); err != nil {
			return err
		}
		logger.Info("Inventory imported",
			zap.String("file", path),
			zap.Int("bars", len(added.Stock)),
			zap.Int("remnants", len(added.Remnants)))
	} else if err := addStockFile(ctx, store.repo, path); err != nil {
		return err
	}
	return store.save(ctx)
}

func runInventoryExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openInventory(ctx, invFile)
	if err != nil {
		return err
	}
	defer store.close()

	contents, err := store.repo.Contents(ctx)
	if err != nil {
		return err
	}
	return project.SaveInventory(args[0], contents)
}

func runInventoryBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openInventory(ctx, invFile)
	if err != nil {
		return err
	}
	defer store.close()

	if err := project.ExportAllData(ctx, args[0], appCfg, catalog, store.repo); err != nil {
		return err
	}
	logger.Info("Backup written", zap.String("file", args[0]))
	return nil
}

func runInventoryRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	backup, err := project.ImportAllData(args[0])
	if err != nil {
		return err
	}

	store, err := openInventory(ctx, invFile)
	if err != nil {
		return err
	}
	defer store.close()

	if err := project.Restore(ctx, store.repo, backup.Inventory); err != nil {
		return err
	}
	if err := store.save(ctx); err != nil {
		return err
	}

	catPath := resolveCatalogPath()
	sort.Slice(backup.Catalog.Profiles, func(i, j int) bool {
		return backup.Catalog.Profiles[i].Name < backup.Catalog.Profiles[j].Name
	})
	if err := project.SaveCatalog(catPath, backup.Catalog); err != nil {
		return err
	}

	if restoreConfig {
		if err := project.SaveAppConfig(resolveConfigPath(), backup.Config); err != nil {
			return err
		}
	}
	logger.Info("Backup restored",
		zap.String("file", args[0]),
		zap.String("version", backup.Version),
		zap.Int("bars", len(backup.Inventory.Stock)),
		zap.Int("remnants", len(backup.Inventory.Remnants)),
		zap.Int("profiles", len(backup.Catalog.Profiles)))
	return nil
}
