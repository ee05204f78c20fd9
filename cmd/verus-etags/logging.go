package main

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"verus-etags/internal/config"
	"verus-etags/internal/errors"
	"verus-etags/internal/slogutil"
)

// logLevel picks the level from -V/-q when given and from the
// configuration otherwise.
func logLevel(cfg *config.Config, verbosity int, quiet bool) slog.Level {
	if quiet || verbosity > 0 {
		return slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	level, _ := slogutil.LevelFromString(cfg.Logging.Level)
	return level
}

// newLogger builds the run logger writing to stderr and, when configured,
// to a log file. The returned func closes the log file.
func newLogger(cfg *config.Config, verbosity int, quiet bool, stderr io.Writer) (*slog.Logger, func(), error) {
	level := logLevel(cfg, verbosity, quiet)
	var handler slog.Handler = slogutil.NewHandler(stderr, &slogutil.Options{Level: level})

	closer := func() {}
	if cfg.Logging.File != "" {
		fileHandler, f, err := slogutil.NewFileHandler(cfg.Logging.File, slog.LevelDebug)
		if err != nil {
			return nil, nil, errors.ForPath(errors.ConfigInvalid, cfg.Logging.File, "cannot open log file", err)
		}
		handler = slogutil.NewTeeHandler(handler, fileHandler)
		closer = func() { f.Close() }
	}

	logger := slog.New(handler).With("run", uuid.New().String())
	return logger, closer, nil
}
