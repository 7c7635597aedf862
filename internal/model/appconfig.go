package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default cutting settings applied to new optimizations
	DefaultKerf             float64 `json:"default_kerf" mapstructure:"default_kerf"`
	DefaultMinUsableRemnant float64 `json:"default_min_usable_remnant" mapstructure:"default_min_usable_remnant"`
	Parallelism             int     `json:"parallelism" mapstructure:"parallelism"`
	UseRemnants             bool    `json:"use_remnants" mapstructure:"use_remnants"`

	// Work order planning
	MaxApplyAttempts int `json:"max_apply_attempts" mapstructure:"max_apply_attempts"`

	// Storage
	DatabaseDriver string `json:"database_driver" mapstructure:"database_driver"` // "postgres" or "sqlite"
	DatabaseDSN    string `json:"database_dsn" mapstructure:"database_dsn"`
	BadgerDir      string `json:"badger_dir" mapstructure:"badger_dir"` // "" = in-memory job store
	CatalogPath    string `json:"catalog_path" mapstructure:"catalog_path"`

	// Background jobs
	Workers   int `json:"workers" mapstructure:"workers"`
	QueueSize int `json:"queue_size" mapstructure:"queue_size"`

	LogLevel string `json:"log_level" mapstructure:"log_level"` // "debug", "info", "warn", "error"
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultKerf:             defaults.Kerf,
		DefaultMinUsableRemnant: defaults.MinUsableRemnant,
		Parallelism:             defaults.Parallelism,
		UseRemnants:             defaults.UseRemnants,
		MaxApplyAttempts:        3,
		DatabaseDriver:          "sqlite",
		DatabaseDSN:             "steelsys.db",
		Workers:                 2,
		QueueSize:               64,
		LogLevel:                "info",
	}
}

// ApplyToSettings copies the default values from AppConfig into a CutSettings struct.
func (c AppConfig) ApplyToSettings(s *CutSettings) {
	s.Kerf = c.DefaultKerf
	s.MinUsableRemnant = c.DefaultMinUsableRemnant
	s.UseRemnants = c.UseRemnants
	if c.Parallelism > 0 {
		s.Parallelism = c.Parallelism
	}
}

// Settings returns the cutting settings described by the config.
func (c AppConfig) Settings() CutSettings {
	s := DefaultSettings()
	c.ApplyToSettings(&s)
	return s
}
