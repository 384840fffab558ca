package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
	"github.com/vovakirdan/neuropong/internal/storage"
)

// exitf prints an error and exits with status 1.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the config file and applies the global overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	return cfg, nil
}

// newLogger builds the command logger. Full-screen commands log nowhere
// unless --log-file is set, since stderr shares the terminal with the TUI.
// The returned func closes the log file, if any.
func newLogger(fullscreen bool) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	case fullscreen:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "neuropong",
		Level:           level,
	})
	return logger, closeFn, nil
}

// openStore opens the model database, logging and returning nil when it
// cannot be opened. Callers run without persistence in that case.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Warn("could not open model database", "path", cfg.Storage.Path, "error", err)
		return nil
	}
	return store
}

// runtimeConfig sizes the host to the current terminal.
func runtimeConfig() core.RuntimeConfig {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}
}
