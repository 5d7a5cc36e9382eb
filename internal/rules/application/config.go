package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	rules "odcv-analytics/internal/rules/domain"
)

// ProfileConfig defines one timing profile in minutes, as operators
// write them.
type ProfileConfig struct {
	UnoccupiedToStandbyMinutes float64 `yaml:"unoccupied_to_standby_minutes"`
	OccupiedToActiveMinutes    float64 `yaml:"occupied_to_active_minutes"`
	StandbyToleranceMinutes    float64 `yaml:"standby_tolerance_minutes"`
	ActiveToleranceMinutes     float64 `yaml:"active_tolerance_minutes"`
}

// ReportingConfig defines expected reporting cadence per device kind
// and the gap-detection multiplier.
type ReportingConfig struct {
	SensorIntervalSeconds int     `yaml:"sensor_interval_seconds"`
	ZoneIntervalSeconds   int     `yaml:"zone_interval_seconds"`
	GapMultiplier         float64 `yaml:"gap_multiplier"`
}

// DriftValidatorConfig toggles the occupancy correlation validator.
type DriftValidatorConfig struct {
	Enabled         bool    `yaml:"enabled"`
	MaxDriftPercent float64 `yaml:"max_drift_percent"`
	MinTransitions  int     `yaml:"min_transitions"`
}

// CatalogConfig overrides device naming patterns.
type CatalogConfig struct {
	SensorSubstring string            `yaml:"sensor_substring"`
	ZonePrefix      string            `yaml:"zone_prefix"`
	Overrides       map[string]string `yaml:"overrides"`
}

// Config is the engine's data-only configuration surface: profiles,
// reporting intervals, the gap multiplier, validator toggles, and an
// optional explicit sensor-to-zone mapping.
type Config struct {
	Profiles  map[string]ProfileConfig `yaml:"profiles"`
	Reporting ReportingConfig          `yaml:"reporting"`
	Drift     DriftValidatorConfig     `yaml:"occupancy_drift"`
	Catalog   CatalogConfig            `yaml:"catalog"`
	Mapping   map[string]string        `yaml:"mapping"`
}

// LoadConfig loads configuration from the yaml file named by
// ODCV_CONFIG, falling back to built-in defaults when unset.
func LoadConfig() (Config, error) {
	cfg := Config{
		Reporting: ReportingConfig{
			SensorIntervalSeconds: 30,
			ZoneIntervalSeconds:   60,
			GapMultiplier:         5,
		},
		Drift: DriftValidatorConfig{
			MaxDriftPercent: 20,
			MinTransitions:  10,
		},
	}

	if path := os.Getenv("ODCV_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Reporting.SensorIntervalSeconds <= 0 {
		return cfg, fmt.Errorf("rules config: sensor interval must be positive")
	}
	if cfg.Reporting.ZoneIntervalSeconds <= 0 {
		return cfg, fmt.Errorf("rules config: zone interval must be positive")
	}
	if cfg.Reporting.GapMultiplier <= 0 {
		return cfg, fmt.Errorf("rules config: gap multiplier must be positive")
	}
	return cfg, nil
}

// ProfileSet builds the immutable profile catalog from configuration.
func (c Config) ProfileSet() (*rules.ProfileSet, error) {
	profiles := make([]rules.Profile, 0, len(c.Profiles))
	for name, pc := range c.Profiles {
		profiles = append(profiles, rules.Profile{
			Name:                name,
			UnoccupiedToStandby: minutes(pc.UnoccupiedToStandbyMinutes),
			OccupiedToActive:    minutes(pc.OccupiedToActiveMinutes),
			StandbyTolerance:    minutes(pc.StandbyToleranceMinutes),
			ActiveTolerance:     minutes(pc.ActiveToleranceMinutes),
		})
	}
	return rules.NewProfileSet(profiles...)
}

// SensorInterval returns the expected sensor reporting interval.
func (c Config) SensorInterval() time.Duration {
	return time.Duration(c.Reporting.SensorIntervalSeconds) * time.Second
}

// ZoneInterval returns the expected zone reporting interval.
func (c Config) ZoneInterval() time.Duration {
	return time.Duration(c.Reporting.ZoneIntervalSeconds) * time.Second
}

func minutes(value float64) time.Duration {
	return time.Duration(value * float64(time.Minute))
}
