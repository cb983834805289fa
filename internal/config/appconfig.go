// Package config holds the costing engine's persisted preferences and
// the rate-book loader that turns a CSV or XLSX price list into a
// rates.Book.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/metalforge/sheetcost/internal/model"
)

// AppConfig holds application-wide defaults for new costing jobs. A
// caller starts a job from these values and overrides only what the
// specific order or quotation requires.
type AppConfig struct {
	DefaultAllocationModel model.AllocationModel `json:"default_allocation_model"`
	DefaultBufferFactor    float64               `json:"default_buffer_factor"`
	DefaultOperationalCost float64               `json:"default_operational_cost_per_sheet_pln"`
	DefaultIncludePiercing bool                  `json:"default_include_piercing"`
	DefaultIncludePunch    bool                  `json:"default_include_punch"`
	ThicknessTolerance     float64               `json:"thickness_tolerance"`
	FoilThresholdMM        float64               `json:"foil_threshold_mm"`
	RecentRateBooks        []string              `json:"recent_rate_books"`
}

// DefaultAppConfig returns an AppConfig populated with the same
// defaults model.DefaultJobOverrides uses, so a fresh install behaves
// identically whether or not a config file exists yet.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultAllocationModel: model.AllocationOccupiedArea,
		DefaultBufferFactor:    1.25,
		DefaultOperationalCost: 40,
		DefaultIncludePiercing: true,
		DefaultIncludePunch:    false,
		ThicknessTolerance:     0.20,
		FoilThresholdMM:        5.0,
		RecentRateBooks:        []string{},
	}
}

// ApplyToOverrides copies the config's defaults into a fresh
// model.JobOverrides, so a caller can start from the persisted
// preferences rather than model.DefaultJobOverrides.
func (c AppConfig) ApplyToOverrides(o *model.JobOverrides) {
	o.AllocationModel = c.DefaultAllocationModel
	o.BufferFactor = c.DefaultBufferFactor
	o.OperationalCostPerSheet = c.DefaultOperationalCost
	o.IncludePiercing = c.DefaultIncludePiercing
	o.IncludePunch = c.DefaultIncludePunch
}

// DefaultConfigDir returns ~/.sheetcost, the directory that holds the
// persisted AppConfig and any cached rate books.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sheetcost")
}

// DefaultConfigPath returns the default path for the persisted
// AppConfig file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Save persists an AppConfig to path as indented JSON, creating any
// missing parent directories.
func Save(path string, cfg AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads an AppConfig from path. A missing file is not an error —
// it returns DefaultAppConfig so first run works without setup.
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultAppConfig(), nil
		}
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	if cfg.RecentRateBooks == nil {
		cfg.RecentRateBooks = []string{}
	}
	return cfg, nil
}

// RememberRateBook puts path at the front of RecentRateBooks, deduplicating and
// keeping only the most recent limit entries (most recent first).
func (c *AppConfig) RememberRateBook(path string, limit int) {
	filtered := make([]string, 0, limit)
	filtered = append(filtered, path)
	for _, p := range c.RecentRateBooks {
		if p == path {
			continue
		}
		filtered = append(filtered, p)
		if len(filtered) >= limit {
			break
		}
	}
	c.RecentRateBooks = filtered
}
