// Package config loads scriptree settings.
//
// Configuration is layered, higher layers overriding lower:
//
//	4. command-line flags        (applied by the caller)
//	3. environment variables     SCRIPTREE_<SECTION>_<NAME>
//	2. TOML file                 e.g. scriptree.toml
//	1. built-in defaults
//
// A file looks like:
//
//	[store]
//	coalesce = true
//	max_passes = 1000
//
//	[array]
//	strict_placement = false
//	key_style = "uuid"       # or "short"
//
//	[script]
//	call_limit = 100000
//	timeout = "5s"
//
//	[logging]
//	level = "info"           # debug, info, warn, error
//	format = "text"          # or "json"
//
//	[watch]
//	debounce = "100ms"
//
// Usage:
//
//	cfg, err := config.Load("scriptree.toml")
//	if err != nil {
//	    return err
//	}
//	logger := config.NewLogger(cfg.Logging, os.Stderr)
//	s := store.New(doc, cfg.StoreOptions(logger)...)
package config
