// SteelSys plans how steel profile bars are cut.
//
// Demand lists (CSV, Excel or DXF drawings) are matched against fresh stock
// bars and stored remnants per profile. The resulting cut plans can be
// exported as PDF diagrams, Excel workbooks and QR piece labels, or applied
// to the shop inventory through a work order.
//
// Build:
//
//	go build -o steelsys ./cmd/steelsys
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/piwi3910/SteelSys/internal/project"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	catalogPath string

	// Loaded in PersistentPreRunE
	logger  *zap.Logger
	appCfg  model.AppConfig
	catalog model.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "steelsys",
	Short: "SteelSys - steel profile cutting optimizer",
	Long: `SteelSys plans how steel profile bars are cut.

Required pieces are grouped by profile and placed on stored remnants first,
then on fresh stock bars. Leftovers long enough to reuse go back to the
inventory as remnants; everything else is scrap.

Configuration is read from ~/.steelsys/config.json (or --config) and can be
overridden with STEELSYS_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := resolveConfigPath()
		cfg, err := project.LoadAppConfig(path)
		if err != nil {
			return err
		}
		appCfg = cfg

		logger, err = newLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		catPath := resolveCatalogPath()
		catalog, err = project.LoadCatalog(catPath)
		if err != nil {
			return err
		}
		logger.Debug("Configuration loaded",
			zap.String("config", path),
			zap.String("catalog", catPath),
			zap.Int("profiles", len(catalog.Profiles)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return project.DefaultConfigPath()
}

// resolveCatalogPath prefers --catalog, then the configured path.
func resolveCatalogPath() string {
	if catalogPath != "" {
		return catalogPath
	}
	if appCfg.CatalogPath != "" {
		return appCfg.CatalogPath
	}
	return project.DefaultCatalogPath()
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.steelsys/config.json)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Profile catalog file (default ~/.steelsys/catalog.yaml)")

	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(importDXFCmd)
	rootCmd.AddCommand(workOrderCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(jobsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
