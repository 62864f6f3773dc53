package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/form"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/rep"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if got := cfg.RepThresholds(); got != rep.DefaultThresholds() {
		t.Errorf("RepThresholds() = %+v, want %+v", got, rep.DefaultThresholds())
	}
	if got := cfg.FormThresholds(); got != form.DefaultThresholds() {
		t.Errorf("FormThresholds() = %+v, want %+v", got, form.DefaultThresholds())
	}
	if cfg.Exercise.Name != "squat" {
		t.Errorf("default exercise = %q", cfg.Exercise.Name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[thresholds]
bottom_angle = 85.0
valgus_offset = 0.1
history_size = 8

[server]
addr = "127.0.0.1:9000"

[mqtt]
broker = "tcp://localhost:1883"
qos = 2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Thresholds.BottomAngle != 85 || cfg.Thresholds.ValgusOffset != 0.1 || cfg.Thresholds.HistorySize != 8 {
		t.Errorf("thresholds not loaded: %+v", cfg.Thresholds)
	}
	if cfg.Thresholds.TopAngle != rep.DefaultTopAngle {
		t.Errorf("expected unset top_angle to keep its default, got %.1f", cfg.Thresholds.TopAngle)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.MQTT.TopicPrefix != "formcoach" {
		t.Errorf("expected default topic prefix, got %q", cfg.MQTT.TopicPrefix)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[thresholds\nbottom_angle = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("expected defaults, got %+v", cfg.Server)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Thresholds.RestAngle = 170
	cfg.Speech.Enabled = false
	cfg.Exercise.Name = "squat"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Thresholds.RestAngle != 170 || got.Speech.Enabled {
		t.Errorf("saved values not loaded back: %+v %+v", got.Thresholds, got.Speech)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FORMCOACH_ADDR":        ":9999",
		"FORMCOACH_DB":          "/tmp/test.db",
		"FORMCOACH_MQTT_BROKER": "tcp://broker:1883",
		"FORMCOACH_EXERCISE":    "squat",
		"FORMCOACH_SPEECH":      "false",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.Addr != ":9999" || cfg.Store.Path != "/tmp/test.db" || cfg.MQTT.Broker != "tcp://broker:1883" || cfg.Speech.Enabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	env["FORMCOACH_SPEECH"] = "maybe"
	if err := ApplyEnv(&cfg, lookup); err == nil {
		t.Error("expected error for a non-boolean FORMCOACH_SPEECH")
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FORMCOACH_PLUGIN_DIR=/opt/formcoach/plugins\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORMCOACH_PLUGIN_DIR", "")
	os.Unsetenv("FORMCOACH_PLUGIN_DIR")

	cfg := Default()
	if err := LoadEnv(&cfg, path); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if cfg.Speech.PluginDir != "/opt/formcoach/plugins" {
		t.Errorf("PluginDir = %q", cfg.Speech.PluginDir)
	}

	if err := LoadEnv(&cfg, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected missing env file to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"non-positive bottom", func(c *Config) { c.Thresholds.BottomAngle = 0 }},
		{"bottom above top", func(c *Config) { c.Thresholds.BottomAngle = 150 }},
		{"top above rest", func(c *Config) { c.Thresholds.TopAngle = 170 }},
		{"rounding above hyperextension", func(c *Config) { c.Thresholds.BackRounding = 200 }},
		{"zero valgus", func(c *Config) { c.Thresholds.ValgusOffset = 0 }},
		{"empty history", func(c *Config) { c.Thresholds.HistorySize = 0 }},
		{"negative shortfall", func(c *Config) { c.Thresholds.DepthShortfall = -1 }},
		{"visibility above one", func(c *Config) { c.Thresholds.MinVisibility = 1.5 }},
		{"qos", func(c *Config) { c.MQTT.QoS = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}
