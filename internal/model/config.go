package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SourceConfig holds the configuration for a single mail source.
type SourceConfig struct {
	// ID is the unique identifier for this source instance.
	ID string `mapstructure:"id" yaml:"id"`

	// Type identifies the source kind (currently only "imap").
	Type string `mapstructure:"type" yaml:"type"`

	// Name is the user-defined label for this source instance.
	Name string `mapstructure:"name" yaml:"name"`

	// Enabled controls whether this source is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PollIntervalSec is how often (in seconds) to fetch updates.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Config holds source-specific key-value settings
	// (e.g., imap_host, imap_port, username, mailbox).
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// TargetConfig declares one triage target zone. Declaration order in the
// Targets slice is the priority order used to break ties between
// overlapping activation zones.
type TargetConfig struct {
	// ID names the target ("unsubscribe", "done", "reply", "mic").
	ID string `mapstructure:"id" yaml:"id"`

	// Offset is the target's horizontal distance from the row center,
	// in engine cells.
	Offset float64 `mapstructure:"offset" yaml:"offset"`

	// ActivationRadius is the maximum distance at which a trigger fires.
	ActivationRadius float64 `mapstructure:"activation_radius" yaml:"activation_radius"`

	// ProximityRadius is the larger radius used for visual feedback scaling.
	ProximityRadius float64 `mapstructure:"proximity_radius" yaml:"proximity_radius"`

	// Action is the triage action bound to this target.
	Action TriageAction `mapstructure:"action" yaml:"action"`
}

// EngineConfig holds the static triage engine configuration: the target
// list and the row geometry constants that place the active row on
// screen independent of measuring the rendered element.
type EngineConfig struct {
	Targets      []TargetConfig `mapstructure:"targets" yaml:"targets"`
	RowHeight    float64        `mapstructure:"row_height" yaml:"row_height"`
	HeaderOffset float64        `mapstructure:"header_offset" yaml:"header_offset"`
	TopPadding   float64        `mapstructure:"top_padding" yaml:"top_padding"`
}

// RecorderConfig holds settings for the voice note collaborator.
type RecorderConfig struct {
	// CaptureCommand is the external command started on the mic target.
	// Its stdout is captured as the note transcript.
	CaptureCommand string `mapstructure:"capture_command" yaml:"capture_command"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Sources  []SourceConfig `mapstructure:"sources" yaml:"sources"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailsweep/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailsweep", "config.yaml")
}

// DefaultTargets returns the built-in triage target layout. Order
// matters: it is the tie-break priority for overlapping zones.
func DefaultTargets() []TargetConfig {
	return []TargetConfig{
		{ID: "unsubscribe", Offset: -100, ActivationRadius: 30, ProximityRadius: 60, Action: ActionUnsubscribe},
		{ID: "done", Offset: 0, ActivationRadius: 30, ProximityRadius: 60, Action: ActionDone},
		{ID: "reply", Offset: 80, ActivationRadius: 30, ProximityRadius: 60, Action: ActionReplyNeeded},
		{ID: "mic", Offset: 160, ActivationRadius: 30, ProximityRadius: 60, Action: ActionRecord},
	}
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sources: []SourceConfig{},
		Engine: EngineConfig{
			Targets:      DefaultTargets(),
			RowHeight:    76,
			HeaderOffset: 52,
			TopPadding:   8,
		},
		Recorder: RecorderConfig{},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("engine.row_height", 76)
	v.SetDefault("engine.header_offset", 52)
	v.SetDefault("engine.top_padding", 8)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// An empty target list falls back to the built-in layout.
	if len(cfg.Engine.Targets) == 0 {
		cfg.Engine.Targets = DefaultTargets()
	}

	// Apply defaults for each source entry.
	for i := range cfg.Sources {
		if cfg.Sources[i].PollIntervalSec == 0 {
			cfg.Sources[i].PollIntervalSec = 120
		}
		if !cfg.Sources[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset as true.
			key := fmt.Sprintf("sources.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Sources[i].Enabled = true
			}
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("sources", cfg.Sources)
	v.Set("engine", cfg.Engine)
	v.Set("recorder", cfg.Recorder)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
