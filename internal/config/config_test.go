package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Store.MaxPasses != 1000 {
		t.Errorf("MaxPasses = %d, want 1000", cfg.Store.MaxPasses)
	}
	if cfg.Array.KeyStyle != KeyStyleUUID {
		t.Errorf("KeyStyle = %q, want uuid", cfg.Array.KeyStyle)
	}
	if cfg.Watch.Debounce.Duration != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want 100ms", cfg.Watch.Debounce)
	}
}

func TestLoadFromReader(t *testing.T) {
	t.Setenv("SCRIPTREE_LOG_LEVEL", "")

	cfg, err := LoadFromReader(strings.NewReader(`
[store]
coalesce = true
max_passes = 50

[array]
strict_placement = true
key_style = "short"

[script]
call_limit = 500
timeout = "2s"

[logging]
level = "debug"
format = "json"
`))
	if err != nil {
		t.Fatalf("LoadFromReader error: %v", err)
	}

	if !cfg.Store.Coalesce || cfg.Store.MaxPasses != 50 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if !cfg.Array.StrictPlacement || cfg.Array.KeyStyle != KeyStyleShort {
		t.Errorf("Array = %+v", cfg.Array)
	}
	if cfg.Script.CallLimit != 500 || cfg.Script.Timeout.Duration != 2*time.Second {
		t.Errorf("Script = %+v", cfg.Script)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != FormatJSON {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	// Untouched sections keep defaults.
	if cfg.Watch.Debounce.Duration != 100*time.Millisecond {
		t.Errorf("Debounce = %v, want default", cfg.Watch.Debounce)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load missing file error: %v", err)
	}
	if cfg.Store.MaxPasses != 1000 {
		t.Errorf("MaxPasses = %d, want default", cfg.Store.MaxPasses)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptree.toml")
	if err := os.WriteFile(path, []byte("[watch]\ndebounce = \"1s\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Watch.Debounce.Duration != time.Second {
		t.Errorf("Debounce = %v, want 1s", cfg.Watch.Debounce)
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"syntax", "[store\ncoalesce = true"},
		{"unknown setting", "[store]\nbogus = 1"},
		{"wrong type", "[store]\nmax_passes = \"many\""},
		{"bad duration", "[script]\ntimeout = \"soon\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if perr.Path != "<reader>" {
				t.Errorf("Path = %q, want <reader>", perr.Path)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{"max passes", func(c *Config) { c.Store.MaxPasses = 0 }, "store.max_passes"},
		{"key style", func(c *Config) { c.Array.KeyStyle = "ulid" }, "array.key_style"},
		{"call limit", func(c *Config) { c.Script.CallLimit = -1 }, "script.call_limit"},
		{"timeout", func(c *Config) { c.Script.Timeout.Duration = -time.Second }, "script.timeout"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"debounce", func(c *Config) { c.Watch.Debounce.Duration = -1 }, "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Setting != tt.setting {
				t.Errorf("Setting = %v, want %s", err, tt.setting)
			}
		})
	}
}

func TestEnvLoader(t *testing.T) {
	env := map[string]string{
		"SCRIPTREE_STORE_COALESCE":         "yes",
		"SCRIPTREE_STORE_MAX_PASSES":       "7",
		"SCRIPTREE_ARRAY_KEY_STYLE":        "SHORT",
		"SCRIPTREE_SCRIPT_TIMEOUT":         "250ms",
		"SCRIPTREE_LOG_LEVEL":              "warn",
		"SCRIPTREE_ARRAY_STRICT_PLACEMENT": "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := NewEnvLoaderWithLookup(EnvPrefix, lookup).Apply(cfg); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	if !cfg.Store.Coalesce || cfg.Store.MaxPasses != 7 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Array.KeyStyle != KeyStyleShort || cfg.Array.StrictPlacement {
		t.Errorf("Array = %+v", cfg.Array)
	}
	if cfg.Script.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("Timeout = %v", cfg.Script.Timeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestEnvLoader_BadValue(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "SCRIPTREE_STORE_COALESCE" {
			return "maybe", true
		}
		return "", false
	}

	err := NewEnvLoaderWithLookup(EnvPrefix, lookup).Apply(Default())
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Path != "$SCRIPTREE_STORE_COALESCE" {
		t.Errorf("error = %v, want ParseError for SCRIPTREE_STORE_COALESCE", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SCRIPTREE_STORE_MAX_PASSES", "3")

	cfg, err := LoadFromReader(strings.NewReader("[store]\nmax_passes = 50\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.MaxPasses != 3 {
		t.Errorf("MaxPasses = %d, want 3", cfg.Store.MaxPasses)
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Array.KeyStyle = KeyStyleShort

	if got := len(cfg.StoreOptions(nil)); got != 4 {
		t.Errorf("len(StoreOptions(nil)) = %d, want 4", got)
	}
	if got := len(cfg.StoreOptions(slog.Default())); got != 5 {
		t.Errorf("len(StoreOptions(logger)) = %d, want 5", got)
	}
	if key := cfg.KeyGenerator()(); len(key) != 12 {
		t.Errorf("short key %q has length %d, want 12", key, len(key))
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		contain string
		silent  bool
	}{
		{"text", LoggingConfig{Level: "info", Format: FormatText}, "msg=hello", false},
		{"json", LoggingConfig{Level: "info", Format: FormatJSON}, `"msg":"hello"`, false},
		{"filtered", LoggingConfig{Level: "error", Format: FormatText}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(tt.cfg, &buf).Info("hello")
			out := buf.String()
			if tt.silent {
				if out != "" {
					t.Errorf("output = %q, want empty", out)
				}
				return
			}
			if !strings.Contains(out, tt.contain) {
				t.Errorf("output = %q, want to contain %q", out, tt.contain)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}
