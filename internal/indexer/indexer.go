// Package indexer runs discovery, parsing, extraction and ordering over a
// set of input paths and assembles the resulting tag table.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"verus-etags/internal/cache"
	"verus-etags/internal/discover"
	"verus-etags/internal/errors"
	"verus-etags/internal/syntax"
	"verus-etags/internal/syntax/treesitter"
	"verus-etags/internal/syntax/verus"
	"verus-etags/internal/tags"
)

// DefaultChain returns the Verus parser followed by the tree-sitter Rust
// grammar.
func DefaultChain() syntax.Chain {
	return syntax.Chain{verus.New(), treesitter.New()}
}

// Options configure an Indexer.
type Options struct {
	Discover discover.Options
	// Macros names the macros whose bodies are tagged. Nil means
	// tags.DefaultMacros.
	Macros []string
	Sort   tags.SortMode
	// Workers bounds concurrent file processing. Zero means GOMAXPROCS.
	Workers int
	// Cache is optional.
	Cache *cache.Cache
}

// Skipped records an input that contributed no section.
type Skipped struct {
	Path string
	Err  error
}

// Stats summarizes a run.
type Stats struct {
	Files       int
	Tags        int
	Skipped     int
	CacheHits   int
	MacroErrors int
	ByParser    map[string]int
	Duration    time.Duration
}

// Result is the outcome of a run. Table holds one section per processed
// file in discovery order, including files without tags.
type Result struct {
	Table   *tags.Table
	Skipped []Skipped
	Stats   Stats
}

// Indexer builds tag tables.
type Indexer struct {
	chain     syntax.Chain
	extractor *tags.Extractor
	macros    []string
	opts      Options
	logger    *slog.Logger
}

// New creates an Indexer using chain for both files and macro bodies.
func New(chain syntax.Chain, opts Options, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	macros := opts.Macros
	if macros == nil {
		macros = tags.DefaultMacros
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Indexer{
		chain:     chain,
		extractor: tags.NewExtractor(chain, macros),
		macros:    macros,
		opts:      opts,
		logger:    logger,
	}
}

type fileResult struct {
	section     tags.Section
	parser      string
	cached      bool
	macroErrors int
	err         error
}

// Run indexes paths. File-level failures are reported in Result.Skipped;
// the returned error is non-nil only when ctx is canceled.
func (ix *Indexer) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	found := discover.Files(paths, ix.opts.Discover)
	res := &Result{
		Table: &tags.Table{},
		Stats: Stats{ByParser: make(map[string]int)},
	}
	for _, err := range found.Errors {
		res.Skipped = append(res.Skipped, Skipped{Path: errors.PathOf(err), Err: err})
		ix.logger.Warn("Skipping path", "path", errors.PathOf(err), "error", err)
	}

	results := make([]fileResult, len(found.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for i, path := range found.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ix.file(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, r := range results {
		if r.err != nil {
			res.Skipped = append(res.Skipped, Skipped{Path: found.Files[i], Err: r.err})
			continue
		}
		res.Table.Sections = append(res.Table.Sections, r.section)
		res.Stats.Files++
		res.Stats.Tags += len(r.section.Tags)
		res.Stats.MacroErrors += r.macroErrors
		res.Stats.ByParser[r.parser]++
		if r.cached {
			res.Stats.CacheHits++
		}
	}
	res.Stats.Skipped = len(res.Skipped)
	res.Stats.Duration = time.Since(start)
	return res, nil
}

// file processes one discovered file.
func (ix *Indexer) file(ctx context.Context, path string) fileResult {
	ix.logger.Info("Processing file", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return ix.skip(path, errors.ForPath(errors.FileUnreadable, path, "cannot read file", err))
	}
	if !utf8.Valid(src) {
		return ix.skip(path, errors.ForPath(errors.FileUnreadable, path, "file is not valid UTF-8", nil))
	}

	var fp string
	if ix.opts.Cache != nil {
		fp = cache.Fingerprint(src, ix.macros)
		entry, ok, err := ix.opts.Cache.Get(path, fp)
		if err != nil {
			ix.logger.Warn("Tag cache lookup failed", "path", path, "error", err)
		} else if ok {
			ix.logger.Debug("Tag cache hit", "path", path, "parser", entry.Parser)
			list := entry.Tags
			tags.Order(list, ix.opts.Sort)
			return fileResult{section: tags.Section{Path: path, Tags: list}, parser: entry.Parser, cached: true}
		}
	}

	file, parser, err := ix.chain.Parse(ctx, src)
	if err != nil {
		return ix.skip(path, errors.ForPath(errors.ParseFailed, path, "no grammar accepted the file", err))
	}

	list, macroErrs := ix.extractor.Extract(ctx, src, file)
	for _, merr := range macroErrs {
		ix.logger.Debug("Macro body not tagged", "path", path, "error", merr)
	}

	if ix.opts.Cache != nil {
		if err := ix.opts.Cache.Put(path, fp, parser, list); err != nil {
			ix.logger.Warn("Tag cache write failed", "path", path, "error", err)
		}
	}

	tags.Order(list, ix.opts.Sort)
	return fileResult{
		section:     tags.Section{Path: path, Tags: list},
		parser:      parser,
		macroErrors: len(macroErrs),
	}
}

func (ix *Indexer) skip(path string, err error) fileResult {
	ix.logger.Warn("Skipping file", "path", path, "error", err)
	return fileResult{err: err}
}
