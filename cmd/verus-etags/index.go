package main

import (
	"context"
	"log/slog"
	"os"

	"verus-etags/internal/cache"
	"verus-etags/internal/config"
	"verus-etags/internal/discover"
	"verus-etags/internal/errors"
	"verus-etags/internal/indexer"
	"verus-etags/internal/scipexport"
	"verus-etags/internal/tags"
)

// indexRun is the outcome of one invocation: the indexer result and the
// table that was written.
type indexRun struct {
	Result *indexer.Result
	Table  *tags.Table
}

// runIndex indexes paths and writes the tag table described by cfg.
// Per-file problems are logged and skipped; only output and configuration
// failures are returned.
func runIndex(ctx context.Context, cfg *config.Config, paths []string, logger *slog.Logger) (*indexRun, error) {
	mode, err := tags.ParseSortMode(cfg.Sort)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid sort mode", err)
	}

	var existing *tags.Table
	if cfg.Append {
		if _, err := os.Stat(cfg.Output); err == nil {
			logger.Info("Appending to existing tags file", "path", cfg.Output)
		}
		existing, err = tags.ReadFile(cfg.Output)
		if err != nil {
			return nil, err
		}
	}

	opts := indexer.Options{
		Discover: discover.Options{
			Recurse:        cfg.Recurse,
			FollowSymlinks: cfg.FollowSymlinks,
			Extensions:     cfg.Extensions,
			Ignore:         cfg.Ignore,
		},
		Macros:  cfg.Macros,
		Sort:    mode,
		Workers: cfg.Workers,
	}
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path, logger)
		if err != nil {
			logger.Warn("Tag cache disabled", "error", err)
		} else {
			defer c.Close()
			opts.Cache = c
		}
	}

	res, err := indexer.New(indexer.DefaultChain(), opts, logger).Run(ctx, paths)
	if err != nil {
		return nil, err
	}

	table := res.Table
	if existing != nil {
		table = tags.Merge(existing, res.Table)
	}
	if err := tags.WriteFile(cfg.Output, table); err != nil {
		return nil, err
	}

	if cfg.Scip.Output != "" {
		index := scipexport.Build(res.Table, ".", paths)
		if err := scipexport.WriteFile(cfg.Scip.Output, index); err != nil {
			return nil, err
		}
		logger.Info("Wrote SCIP index", "path", cfg.Scip.Output, "documents", len(index.Documents))
	}

	logger.Info("Generated tags file", "path", cfg.Output, "files", len(table.Sections))
	logger.Debug("Index statistics",
		"tags", res.Stats.Tags,
		"skipped", res.Stats.Skipped,
		"cacheHits", res.Stats.CacheHits,
		"macroErrors", res.Stats.MacroErrors,
		"duration", res.Stats.Duration.String(),
	)
	return &indexRun{Result: res, Table: table}, nil
}
