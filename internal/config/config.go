// Package config loads formcoach settings from TOML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/form"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/rep"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Thresholds ThresholdConfig `toml:"thresholds"`
	Server     ServerConfig    `toml:"server"`
	Store      StoreConfig     `toml:"store"`
	Speech     SpeechConfig    `toml:"speech"`
	MQTT       MQTTConfig      `toml:"mqtt"`
	Exercise   ExerciseConfig  `toml:"exercise"`
}

// ThresholdConfig holds every tunable angle and distance, in degrees or
// normalized image units.
type ThresholdConfig struct {
	BottomAngle        float64 `toml:"bottom_angle"`
	TopAngle           float64 `toml:"top_angle"`
	RestAngle          float64 `toml:"rest_angle"`
	BackRounding       float64 `toml:"back_rounding"`
	BackHyperextension float64 `toml:"back_hyperextension"`
	ValgusOffset       float64 `toml:"valgus_offset"`
	HistorySize        int     `toml:"history_size"`
	DepthVariation     float64 `toml:"depth_variation"`
	DepthShortfall     float64 `toml:"depth_shortfall"`
	DepthTarget        float64 `toml:"depth_target"`
	MinDepthSamples    int     `toml:"min_depth_samples"`
	MinVisibility      float64 `toml:"min_visibility"`
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir,omitempty"`
}

type StoreConfig struct {
	Path string `toml:"path"` // sqlite database file
}

type SpeechConfig struct {
	Enabled   bool   `toml:"enabled"`
	Plugin    string `toml:"plugin"`
	Action    string `toml:"action"`
	PluginDir string `toml:"plugin_dir"`
	TimeoutMs int    `toml:"timeout_ms"`
}

type MQTTConfig struct {
	Broker      string `toml:"broker,omitempty"` // empty disables publishing
	ClientID    string `toml:"client_id,omitempty"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         byte   `toml:"qos"`
}

type ExerciseConfig struct {
	Name string `toml:"name"`
}

// Dir returns ~/.formcoach, the default home of the config, database and plugins.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formcoach"
	}
	return filepath.Join(home, ".formcoach")
}

// DefaultPath returns ~/.formcoach/config.toml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() Config {
	r := rep.DefaultThresholds()
	f := form.DefaultThresholds()
	dir := Dir()

	return Config{
		Thresholds: ThresholdConfig{
			BottomAngle:        r.BottomAngle,
			TopAngle:           r.TopAngle,
			RestAngle:          r.RestAngle,
			BackRounding:       f.BackRounding,
			BackHyperextension: f.BackHyperextension,
			ValgusOffset:       f.ValgusOffset,
			HistorySize:        r.HistorySize,
			DepthVariation:     f.DepthVariation,
			DepthShortfall:     f.DepthShortfall,
			DepthTarget:        f.DepthTarget,
			MinDepthSamples:    f.MinDepthSamples,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "formcoach.db"),
		},
		Speech: SpeechConfig{
			Enabled:   true,
			Plugin:    "speech",
			Action:    "speak",
			PluginDir: filepath.Join(dir, "plugins"),
			TimeoutMs: 10000,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "formcoach",
			QoS:         1,
		},
		Exercise: ExerciseConfig{
			Name: "squat",
		},
	}
}

// Load reads a TOML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Speech.PluginDir = expandHome(cfg.Speech.PluginDir)
	cfg.Server.StaticDir = expandHome(cfg.Server.StaticDir)

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadEnv loads .env files (if any) into the process environment and applies
// FORMCOACH_* overrides to cfg. Missing .env files are not an error.
func LoadEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading env: %w", err)
	}
	return ApplyEnv(cfg, os.LookupEnv)
}

// ApplyEnv applies FORMCOACH_* overrides read through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("FORMCOACH_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := lookup("FORMCOACH_DB"); ok {
		cfg.Store.Path = expandHome(v)
	}
	if v, ok := lookup("FORMCOACH_PLUGIN_DIR"); ok {
		cfg.Speech.PluginDir = expandHome(v)
	}
	if v, ok := lookup("FORMCOACH_MQTT_BROKER"); ok {
		cfg.MQTT.Broker = v
	}
	if v, ok := lookup("FORMCOACH_EXERCISE"); ok {
		cfg.Exercise.Name = v
	}
	if v, ok := lookup("FORMCOACH_SPEECH"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FORMCOACH_SPEECH: %w", err)
		}
		cfg.Speech.Enabled = enabled
	}
	return nil
}

// Validate rejects thresholds that would make the rep machine or detectors
// misbehave.
func (c Config) Validate() error {
	t := c.Thresholds
	switch {
	case t.BottomAngle <= 0:
		return fmt.Errorf("%w: bottom_angle must be positive", ErrInvalid)
	case t.BottomAngle >= t.TopAngle:
		return fmt.Errorf("%w: bottom_angle %.1f must be below top_angle %.1f", ErrInvalid, t.BottomAngle, t.TopAngle)
	case t.TopAngle > t.RestAngle:
		return fmt.Errorf("%w: top_angle %.1f must not exceed rest_angle %.1f", ErrInvalid, t.TopAngle, t.RestAngle)
	case t.BackRounding >= t.BackHyperextension:
		return fmt.Errorf("%w: back_rounding must be below back_hyperextension", ErrInvalid)
	case t.ValgusOffset <= 0:
		return fmt.Errorf("%w: valgus_offset must be positive", ErrInvalid)
	case t.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be at least 1", ErrInvalid)
	case t.DepthVariation <= 0 || t.DepthShortfall < 0:
		return fmt.Errorf("%w: depth thresholds must be positive", ErrInvalid)
	case t.MinVisibility < 0 || t.MinVisibility > 1:
		return fmt.Errorf("%w: min_visibility must be within [0,1]", ErrInvalid)
	case c.MQTT.QoS > 2:
		return fmt.Errorf("%w: mqtt qos must be 0, 1 or 2", ErrInvalid)
	}
	return nil
}

// RepThresholds converts to state machine thresholds.
func (c Config) RepThresholds() rep.Thresholds {
	return rep.Thresholds{
		BottomAngle:   c.Thresholds.BottomAngle,
		TopAngle:      c.Thresholds.TopAngle,
		RestAngle:     c.Thresholds.RestAngle,
		HistorySize:   c.Thresholds.HistorySize,
		MinVisibility: c.Thresholds.MinVisibility,
	}
}

// FormThresholds converts to detector thresholds.
func (c Config) FormThresholds() form.Thresholds {
	return form.Thresholds{
		ValgusOffset:       c.Thresholds.ValgusOffset,
		BackHyperextension: c.Thresholds.BackHyperextension,
		BackRounding:       c.Thresholds.BackRounding,
		DepthVariation:     c.Thresholds.DepthVariation,
		DepthShortfall:     c.Thresholds.DepthShortfall,
		DepthTarget:        c.Thresholds.DepthTarget,
		MinDepthSamples:    c.Thresholds.MinDepthSamples,
	}
}

// Save writes cfg to path as TOML, creating the directory if needed.
func Save(path string, cfg Config) error {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
