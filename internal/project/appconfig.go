// Package project persists application configuration, the profile catalog,
// offline inventory files and backups.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STEELSYS_DEFAULT_KERF.
const EnvPrefix = "STEELSYS"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.steelsys/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".steelsys")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadAppConfig reads an AppConfig from the given path. The file may be
// JSON, YAML or TOML, picked by extension. STEELSYS_* environment variables
// override file values. If the file does not exist, the defaults plus
// environment overrides are returned with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return model.AppConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config model.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

// NewViper returns a viper instance preloaded with the AppConfig defaults
// and bound to the STEELSYS_ environment. Command line flags can be bound
// to it before Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := model.DefaultAppConfig()
	// AutomaticEnv only sees keys viper knows about, so every key gets a default.
	defaults := map[string]any{
		"default_kerf":               d.DefaultKerf,
		"default_min_usable_remnant": d.DefaultMinUsableRemnant,
		"parallelism":                d.Parallelism,
		"use_remnants":               d.UseRemnants,
		"max_apply_attempts":         d.MaxApplyAttempts,
		"database_driver":            d.DatabaseDriver,
		"database_dsn":               d.DatabaseDSN,
		"badger_dir":                 d.BadgerDir,
		"catalog_path":               d.CatalogPath,
		"workers":                    d.Workers,
		"queue_size":                 d.QueueSize,
		"log_level":                  d.LogLevel,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
}
