// Package app wires configuration, the document store, the script engine
// and the file watcher into the scriptree command.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/scriptree/internal/config"
	"github.com/dshills/scriptree/internal/docio"
	"github.com/dshills/scriptree/internal/script"
	"github.com/dshills/scriptree/internal/store"
	"github.com/dshills/scriptree/internal/tree"
	"github.com/dshills/scriptree/internal/watcher"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// DocPath is the JSON document to load. Empty starts from a blank document.
	DocPath string

	// ScriptPath is a Lua script to run against the document.
	ScriptPath string

	// GetPath is the dotted path to print after each run. Empty prints the root.
	GetPath string

	// Watch reloads the document and reruns the script on change.
	Watch bool

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Color is "auto", "always" or "never".
	Color string

	// Stdout receives script output and printed documents.
	Stdout io.Writer

	// Stderr receives logs.
	Stderr io.Writer
}

// Application runs scripts against one document store.
type Application struct {
	opts   Options
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	format docio.Format
	get    tree.Path

	mu     sync.Mutex
	engine *script.Engine
	closed bool
}

// New creates an application and loads its document.
func New(opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.LogLevel != "" {
		cfg.Logging.Level = app.opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}
	app.cfg = cfg

	// 2. Logging
	app.logger = config.NewLogger(cfg.Logging, app.opts.Stderr)
	app.logger.Debug("configuration loaded", "config", cfg.String())

	// 3. Output
	out, _ := app.opts.Stdout.(*os.File)
	app.format, err = docio.ColorFormat(app.opts.Color, out)
	if err != nil {
		return &InitError{Component: "output", Err: err}
	}
	app.get, err = tree.ParsePath(app.opts.GetPath)
	if err != nil {
		return &InitError{Component: "output", Err: err}
	}

	// 4. Document store
	doc, err := app.loadDocument()
	if err != nil {
		return &InitError{Component: "document", Err: err}
	}
	app.store = store.New(doc, cfg.StoreOptions(app.logger)...)

	return nil
}

func (app *Application) loadDocument() (any, error) {
	if app.opts.DocPath == "" {
		return docio.Empty(), nil
	}
	return docio.ReadFile(app.opts.DocPath)
}

// Store returns the document store.
func (app *Application) Store() *store.Store {
	return app.store
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Run executes the script and prints the result. In watch mode it then
// repeats on every change to the document or script until ctx is done.
func (app *Application) Run(ctx context.Context) error {
	if err := app.runOnce(ctx); err != nil {
		return err
	}
	if !app.opts.Watch {
		return nil
	}
	return app.watch(ctx)
}

// runOnce runs the script in a fresh engine and prints the document.
func (app *Application) runOnce(ctx context.Context) error {
	if app.opts.ScriptPath != "" {
		eng, err := app.resetEngine()
		if err != nil {
			return err
		}
		if err := eng.RunFile(ctx, app.opts.ScriptPath); err != nil {
			return &OperationError{Op: "script", Target: app.opts.ScriptPath, Err: err}
		}
	}
	return app.print()
}

// resetEngine replaces the script engine. Closing the old one removes
// every observer its scripts registered.
func (app *Application) resetEngine() (*script.Engine, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil, ErrShutdown
	}
	if app.engine != nil {
		_ = app.engine.Close()
	}
	opts := append(app.cfg.ScriptOptions(app.logger), script.WithOutput(app.opts.Stdout))
	app.engine = script.New(app.store, opts...)
	return app.engine, nil
}

func (app *Application) print() error {
	out, err := docio.Query(app.store.Value(), app.get, app.format)
	if err != nil {
		return &OperationError{Op: "print", Target: app.get.String(), Err: err}
	}
	if _, err := app.opts.Stdout.Write(out); err != nil {
		return &OperationError{Op: "print", Err: err}
	}
	return nil
}

// watch reloads on file changes. Everything runs in this goroutine so that
// store dispatch never reaches the Lua state concurrently.
func (app *Application) watch(ctx context.Context) error {
	if app.opts.DocPath == "" {
		return ErrNothingToWatch
	}

	w, err := watcher.New(
		watcher.WithDebounce(app.cfg.Watch.Debounce.Duration),
		watcher.WithLogger(app.logger),
	)
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	defer w.Close()

	docPath, _ := filepath.Abs(app.opts.DocPath)
	for _, p := range []string{app.opts.DocPath, app.opts.ScriptPath} {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
	}
	app.logger.Info("watching for changes", "files", w.Files())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Op.Has(watcher.OpRemove) && !fileExists(ev.Path) {
				app.logger.Warn("watched file removed", "path", ev.Path)
				continue
			}
			if ev.Path == docPath {
				if err := app.reload(); err != nil {
					app.logger.Warn("reload failed", "error", err)
					continue
				}
			}
			if err := app.runOnce(ctx); err != nil {
				app.logger.Warn("run failed", "error", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			app.logger.Warn("watch error", "error", err)
		}
	}
}

// reload replaces the whole document. A root write notifies every observer.
func (app *Application) reload() error {
	doc, err := app.loadDocument()
	if err != nil {
		return &OperationError{Op: "reload", Target: app.opts.DocPath, Err: err}
	}
	app.logger.Info("document reloaded", "path", app.opts.DocPath)
	return app.store.Set(nil, doc)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Shutdown releases the script engine. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return
	}
	app.closed = true
	if app.engine != nil {
		_ = app.engine.Close()
	}
}
