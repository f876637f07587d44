package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/scriptree/internal/script"
	"github.com/dshills/scriptree/internal/store"
)

// Key styles for generated element keys.
const (
	KeyStyleUUID  = "uuid"
	KeyStyleShort = "short"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds every scriptree setting.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Array   ArrayConfig   `toml:"array"`
	Script  ScriptConfig  `toml:"script"`
	Logging LoggingConfig `toml:"logging"`
	Watch   WatchConfig   `toml:"watch"`
}

// StoreConfig controls change dispatch.
type StoreConfig struct {
	Coalesce  bool `toml:"coalesce"`
	MaxPasses int  `toml:"max_passes"`
}

// ArrayConfig controls keyed-array inserts.
type ArrayConfig struct {
	StrictPlacement bool   `toml:"strict_placement"`
	KeyStyle        string `toml:"key_style"`
}

// ScriptConfig bounds script execution.
type ScriptConfig struct {
	CallLimit int      `toml:"call_limit"`
	Timeout   Duration `toml:"timeout"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// WatchConfig controls file watching.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			MaxPasses: store.DefaultMaxPasses,
		},
		Array: ArrayConfig{
			KeyStyle: KeyStyleUUID,
		},
		Script: ScriptConfig{
			CallLimit: script.DefaultCallLimit,
			Timeout:   Duration{script.DefaultTimeout},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: FormatText,
		},
		Watch: WatchConfig{
			Debounce: Duration{100 * time.Millisecond},
		},
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Store.MaxPasses < 1 {
		return &ValidationError{Setting: "store.max_passes", Value: c.Store.MaxPasses, Message: "must be at least 1"}
	}
	switch c.Array.KeyStyle {
	case KeyStyleUUID, KeyStyleShort:
	default:
		return &ValidationError{Setting: "array.key_style", Value: c.Array.KeyStyle, Message: `must be "uuid" or "short"`}
	}
	if c.Script.CallLimit < 0 {
		return &ValidationError{Setting: "script.call_limit", Value: c.Script.CallLimit, Message: "must not be negative"}
	}
	if c.Script.Timeout.Duration < 0 {
		return &ValidationError{Setting: "script.timeout", Value: c.Script.Timeout, Message: "must not be negative"}
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Setting: "logging.level", Value: c.Logging.Level, Message: err.Error()}
	}
	switch strings.ToLower(c.Logging.Format) {
	case FormatText, FormatJSON:
	default:
		return &ValidationError{Setting: "logging.format", Value: c.Logging.Format, Message: `must be "text" or "json"`}
	}
	if c.Watch.Debounce.Duration < 0 {
		return &ValidationError{Setting: "watch.debounce", Value: c.Watch.Debounce, Message: "must not be negative"}
	}
	return nil
}

// KeyGenerator returns the generator selected by array.key_style.
func (c *Config) KeyGenerator() store.KeyGenerator {
	if c.Array.KeyStyle == KeyStyleShort {
		return store.ShortKeys()
	}
	return store.UUIDKeys()
}

// StoreOptions converts the settings into store options.
func (c *Config) StoreOptions(logger *slog.Logger) []store.Option {
	opts := []store.Option{
		store.WithKeyGenerator(c.KeyGenerator()),
		store.WithStrictPlacement(c.Array.StrictPlacement),
		store.WithCoalescing(c.Store.Coalesce),
		store.WithMaxPasses(c.Store.MaxPasses),
	}
	if logger != nil {
		opts = append(opts, store.WithLogger(logger))
	}
	return opts
}

// ScriptOptions converts the settings into script engine options.
func (c *Config) ScriptOptions(logger *slog.Logger) []script.Option {
	opts := []script.Option{
		script.WithCallLimit(c.Script.CallLimit),
		script.WithTimeout(c.Script.Timeout.Duration),
	}
	if logger != nil {
		opts = append(opts, script.WithLogger(logger))
	}
	return opts
}

// String summarizes the effective settings for debug logs.
func (c *Config) String() string {
	return fmt.Sprintf("store{coalesce=%t max_passes=%d} array{strict=%t keys=%s} script{calls=%d timeout=%s} logging{%s %s} watch{debounce=%s}",
		c.Store.Coalesce, c.Store.MaxPasses,
		c.Array.StrictPlacement, c.Array.KeyStyle,
		c.Script.CallLimit, c.Script.Timeout,
		c.Logging.Level, c.Logging.Format,
		c.Watch.Debounce)
}
