package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Workers", cfg.Workers, 5},
		{"BaseCost", cfg.BaseCost, 60},
		{"StepCost", cfg.StepCost, 1},
		{"Readiness", cfg.Readiness, "scan"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"TelemetryPath", cfg.TelemetryPath, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "workers",
			envKey: "SLEIGH_WORKERS",
			envVal: "2",
			field:  func(c Config) any { return c.Workers },
			want:   2,
		},
		{
			name:   "base_cost",
			envKey: "SLEIGH_BASE_COST",
			envVal: "0",
			field:  func(c Config) any { return c.BaseCost },
			want:   0,
		},
		{
			name:   "step_cost",
			envKey: "SLEIGH_STEP_COST",
			envVal: "3",
			field:  func(c Config) any { return c.StepCost },
			want:   3,
		},
		{
			name:   "readiness",
			envKey: "SLEIGH_READINESS",
			envVal: "queue",
			field:  func(c Config) any { return c.Readiness },
			want:   "queue",
		},
		{
			name:   "log_format",
			envKey: "SLEIGH_LOG_FORMAT",
			envVal: "json",
			field:  func(c Config) any { return c.LogFormat },
			want:   "json",
		},
		{
			name:   "telemetry_path",
			envKey: "SLEIGH_TELEMETRY_PATH",
			envVal: "/tmp/events.jsonl",
			field:  func(c Config) any { return c.TelemetryPath },
			want:   "/tmp/events.jsonl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Set env prefix so SLEIGH_* env vars map to config keys.
			viper.SetEnvPrefix("SLEIGH")
			viper.AutomaticEnv()

			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	resetViper()
	path := filepath.Join(t.TempDir(), ".sleigh.yaml")
	content := "workers: 2\nbase_cost: 0\nreadiness: queue\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Workers != 2 || cfg.BaseCost != 0 || cfg.StepCost != 1 || cfg.Readiness != "queue" {
		t.Errorf("cfg = %+v, want workers 2, base 0, step 1, readiness queue", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantMsg string
	}{
		{"zero workers", "workers", 0, "workers must be at least 1"},
		{"negative base", "base_cost", -1, "base_cost must not be negative"},
		{"zero cost", "step_cost", 0, "must be at least 1"},
		{"readiness", "readiness", "heap", "unknown readiness mode"},
		{"log level", "log_level", "loud", "invalid log level"},
		{"log format", "log_format", "xml", "log_format must be text or json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.value)
			if tt.key == "step_cost" {
				viper.Set("base_cost", 0)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
