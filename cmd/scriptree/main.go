// Package main is the entry point for the scriptree command.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/scriptree/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua script to run against the document")
	flag.StringVar(&opts.ScriptPath, "s", "", "Lua script to run against the document (shorthand)")
	flag.StringVar(&opts.GetPath, "get", "", "Dotted path to print (default: whole document)")
	flag.BoolVar(&opts.Watch, "watch", false, "Rerun when the document or script changes")
	flag.BoolVar(&opts.Watch, "w", false, "Rerun when the document or script changes (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.Color, "color", "auto", "Colorize output (auto, always, never)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "scriptree - scriptable document tree\n\n")
		fmt.Fprintf(os.Stderr, "Usage: scriptree [options] [document.json]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  scriptree doc.json                       Print a document\n")
		fmt.Fprintf(os.Stderr, "  scriptree -get procs doc.json            Print one subtree\n")
		fmt.Fprintf(os.Stderr, "  scriptree -s edit.lua doc.json           Run a script, then print\n")
		fmt.Fprintf(os.Stderr, "  scriptree -w -s edit.lua doc.json        Rerun on every change\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("scriptree %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	switch flag.NArg() {
	case 0:
	case 1:
		opts.DocPath = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one document, got %d\n", flag.NArg())
		os.Exit(1)
	}

	return opts
}
