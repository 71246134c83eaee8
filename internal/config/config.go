// Package config loads godseed configuration: embedded defaults, then an
// optional user YAML file, then GODSEED_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/godseed/internal/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// EnvPrefix prefixes every environment override, e.g. GODSEED_SLOT or
// GODSEED_SIMULATE_SEED.
const EnvPrefix = "GODSEED_"

// Config holds every tunable.
type Config struct {
	Database string         `yaml:"database" env:"DATABASE"`
	Slot     string         `yaml:"slot" env:"SLOT"`
	Content  ContentConfig  `yaml:"content" envPrefix:"CONTENT_"`
	Loop     LoopConfig     `yaml:"loop" envPrefix:"LOOP_"`
	Simulate SimulateConfig `yaml:"simulate" envPrefix:"SIMULATE_"`
	Settings SettingsConfig `yaml:"settings" envPrefix:"SETTINGS_"`
}

// ContentConfig points at optional content files. Empty paths use the
// built-in content.
type ContentConfig struct {
	Story      string `yaml:"story" env:"STORY"`
	Corruption string `yaml:"corruption" env:"CORRUPTION"`
	Cues       string `yaml:"cues" env:"CUES"`
	LoopMeta   string `yaml:"loop_meta" env:"LOOP_META"`
}

// LoopConfig drives batch loop analysis.
type LoopConfig struct {
	AssetsDir string `yaml:"assets_dir" env:"ASSETS_DIR"`
	Output    string `yaml:"output" env:"OUTPUT"`
}

// SimulateConfig drives the headless runner.
type SimulateConfig struct {
	Frames          int     `yaml:"frames" env:"FRAMES"`
	FrameMs         int     `yaml:"frame_ms" env:"FRAME_MS"`
	Seed            uint64  `yaml:"seed" env:"SEED"`
	ClicksPerSecond float64 `yaml:"clicks_per_second" env:"CLICKS_PER_SECOND"`
	Telemetry       string  `yaml:"telemetry" env:"TELEMETRY"`       // CSV path, empty disables
	SampleEvery     int     `yaml:"sample_every" env:"SAMPLE_EVERY"` // frames per telemetry row
}

// FrameInterval returns FrameMs as a duration.
func (s SimulateConfig) FrameInterval() time.Duration {
	return time.Duration(s.FrameMs) * time.Millisecond
}

// SettingsConfig holds listener and viewer preferences.
type SettingsConfig struct {
	MasterVolume float64 `yaml:"master_volume" env:"MASTER_VOLUME"`
	Muted        bool    `yaml:"muted" env:"MUTED"`
	ReduceMotion bool    `yaml:"reduce_motion" env:"REDUCE_MOTION"`
}

// Defaults returns the embedded defaults.
func Defaults() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("parsing embedded defaults: %v", err))
	}
	return cfg
}

// Load reads the defaults, lays the file at path over them and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Unset variables leave the field alone.
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveSlot returns Slot as a domain.Slot.
func (c *Config) SaveSlot() domain.Slot {
	return domain.Slot(c.Slot)
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if _, err := domain.ParseSlot(c.Slot); err != nil {
		errs = append(errs, fmt.Errorf("slot: %w", err))
	}
	if v := c.Settings.MasterVolume; v < 0 || v > 1 {
		errs = append(errs, fmt.Errorf("settings.master_volume: %v outside [0,1]", v))
	}
	if c.Simulate.Frames < 0 {
		errs = append(errs, fmt.Errorf("simulate.frames: must not be negative"))
	}
	if c.Simulate.FrameMs <= 0 {
		errs = append(errs, fmt.Errorf("simulate.frame_ms: must be positive"))
	}
	if c.Simulate.ClicksPerSecond < 0 {
		errs = append(errs, fmt.Errorf("simulate.clicks_per_second: must not be negative"))
	}
	if c.Simulate.SampleEvery <= 0 {
		errs = append(errs, fmt.Errorf("simulate.sample_every: must be positive"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database: must be set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// WriteYAML saves the configuration.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
