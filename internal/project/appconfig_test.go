package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SteelSys/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultKerf = 2.5
	cfg.DefaultMinUsableRemnant = 300
	cfg.UseRemnants = false
	cfg.DatabaseDriver = "postgres"
	cfg.DatabaseDSN = "host=db user=steel dbname=shop"
	cfg.Workers = 6

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded != cfg {
		t.Errorf("loaded config differs:\n got  %+v\n want %+v", loaded, cfg)
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	if cfg != model.DefaultAppConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadAppConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_kerf: 1.8\nlog_level: debug\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if cfg.DefaultKerf != 1.8 {
		t.Errorf("expected kerf 1.8, got %v", cfg.DefaultKerf)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	defaults := model.DefaultAppConfig()
	if cfg.MaxApplyAttempts != defaults.MaxApplyAttempts || cfg.DatabaseDriver != defaults.DatabaseDriver {
		t.Errorf("expected untouched keys to keep defaults, got %+v", cfg)
	}
}

func TestLoadAppConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := model.DefaultAppConfig()
	cfg.Workers = 3
	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	t.Setenv("STEELSYS_WORKERS", "9")
	t.Setenv("STEELSYS_DATABASE_DRIVER", "postgres")

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if loaded.Workers != 9 {
		t.Errorf("expected env to override workers, got %d", loaded.Workers)
	}
	if loaded.DatabaseDriver != "postgres" {
		t.Errorf("expected env database driver, got %s", loaded.DatabaseDriver)
	}
}

func TestLoadAppConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestAppConfigSettings(t *testing.T) {
	cfg := model.DefaultAppConfig()
	cfg.DefaultKerf = 4
	cfg.UseRemnants = false

	s := cfg.Settings()
	if s.Kerf != 4 || s.UseRemnants {
		t.Errorf("expected config values in settings, got %+v", s)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if filepath.Base(DefaultConfigPath()) != "config.json" {
		t.Errorf("unexpected config path %s", DefaultConfigPath())
	}
	if filepath.Base(DefaultConfigDir()) != ".steelsys" {
		t.Errorf("unexpected config dir %s", DefaultConfigDir())
	}
}
