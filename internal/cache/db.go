// Package cache stores extracted tags in SQLite, keyed by file path and
// validated by a fingerprint of the file content.
package cache

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"verus-etags/internal/errors"
	"verus-etags/internal/version"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS file_tags (
	path        TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	parser      TEXT NOT NULL,
	tags_json   TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Cache is a tag cache backed by a SQLite database file.
type Cache struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
}

// Open opens or creates the cache database at path. Entries written by a
// different tool version are dropped. Failures carry CACHE_UNAVAILABLE.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.ForPath(errors.CacheUnavailable, path, "failed to create cache directory", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.ForPath(errors.CacheUnavailable, path, "failed to open database", err)
	}
	// A single connection serializes writers from the worker pool.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.ForPath(errors.CacheUnavailable, path, "failed to set pragma", err)
		}
	}

	c := &Cache{conn: conn, logger: logger, path: path}
	if err := c.initialize(); err != nil {
		conn.Close()
		return nil, errors.ForPath(errors.CacheUnavailable, path, "failed to initialize schema", err)
	}
	return c, nil
}

// initialize creates the schema and clears entries from other versions.
func (c *Cache) initialize() error {
	if _, err := c.conn.Exec(schema); err != nil {
		return err
	}

	want := version.CacheKey()
	var have string
	err := c.conn.QueryRow(`SELECT value FROM meta WHERE key = 'tool_version'`).Scan(&have)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if have == want {
		return nil
	}

	tx, err := c.conn.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM file_tags`); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('tool_version', ?)`, want); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if have != "" {
		c.logger.Info("Tag cache invalidated", "path", c.path, "from", have, "to", want)
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
