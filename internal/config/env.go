package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvLoader applies environment variable overrides.
type EnvLoader struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvLoader creates a loader reading variables with the given prefix
// from the process environment.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: os.LookupEnv}
}

// NewEnvLoaderWithLookup creates a loader reading from lookup instead of
// the process environment.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: lookup}
}

type envSetting struct {
	name  string // variable name without prefix
	apply func(c *Config, v string) error
}

var envSettings = []envSetting{
	{"STORE_COALESCE", func(c *Config, v string) error { return parseBool(v, &c.Store.Coalesce) }},
	{"STORE_MAX_PASSES", func(c *Config, v string) error { return parseInt(v, &c.Store.MaxPasses) }},
	{"ARRAY_STRICT_PLACEMENT", func(c *Config, v string) error { return parseBool(v, &c.Array.StrictPlacement) }},
	{"ARRAY_KEY_STYLE", func(c *Config, v string) error { c.Array.KeyStyle = strings.ToLower(v); return nil }},
	{"SCRIPT_CALL_LIMIT", func(c *Config, v string) error { return parseInt(v, &c.Script.CallLimit) }},
	{"SCRIPT_TIMEOUT", func(c *Config, v string) error { return parseDuration(v, &c.Script.Timeout) }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
	{"WATCH_DEBOUNCE", func(c *Config, v string) error { return parseDuration(v, &c.Watch.Debounce) }},
}

// Apply overlays every set variable onto cfg.
// Empty values are treated as unset.
func (l *EnvLoader) Apply(cfg *Config) error {
	for _, s := range envSettings {
		name := l.prefix + s.name
		v, ok := l.lookup(name)
		if !ok || v == "" {
			continue
		}
		if err := s.apply(cfg, v); err != nil {
			return &ParseError{Path: "$" + name, Message: err.Error(), Err: err}
		}
	}
	return nil
}

func parseBool(s string, dst *bool) error {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	default:
		return fmt.Errorf("not a boolean: %q", s)
	}
	return nil
}

func parseInt(s string, dst *int) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = i
	return nil
}

func parseDuration(s string, dst *Duration) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	dst.Duration = d
	return nil
}
