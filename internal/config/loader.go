package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCRIPTREE_"

// Load builds a configuration from defaults, the TOML file at path and the
// environment, then validates it.
// An empty path or a file that does not exist contributes nothing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// File doesn't exist, not an error
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := decode(cfg, path, data); err != nil {
				return nil, err
			}
		}
	}

	return finish(cfg)
}

// LoadFromReader is Load for TOML read from r.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := decode(cfg, "<reader>", data); err != nil {
		return nil, err
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := NewEnvLoader(EnvPrefix).Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays TOML data onto cfg. Settings absent from data keep
// their current values. Unknown settings are rejected.
func decode(cfg *Config, source string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		msg := err.Error()
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			msg = fmt.Sprintf("line %d, column %d: %s", row, col, derr.Error())
		}
		return &ParseError{
			Path:    source,
			Message: msg,
			Err:     err,
		}
	}
	return nil
}
