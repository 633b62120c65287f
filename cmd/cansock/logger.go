package main

import (
	"io"
	"log/slog"

	"github.com/kstaniek/go-cansock/internal/logging"
)

// setupLogger builds the process logger from cfg and installs it globally.
// The returned func closes the log file, if any.
func setupLogger(cfg *appConfig, stderr io.Writer) (*slog.Logger, func(), error) {
	lvl, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, nil, err
	}
	w, closeFn := stderr, func() {}
	if cfg.logFile != "" {
		rf := logging.RotatingFile(cfg.logFile, logFileMaxSizeMB, logFileMaxBackups)
		w, closeFn = rf, func() { _ = rf.Close() }
	}
	l := logging.New(cfg.logFormat, lvl, w).With("app", "cansock")
	logging.Set(l)
	return l, closeFn, nil
}
