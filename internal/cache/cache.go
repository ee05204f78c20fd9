package cache

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"verus-etags/internal/errors"
	"verus-etags/internal/tags"
)

// Entry is a cached extraction result.
type Entry struct {
	Fingerprint string
	Parser      string
	Tags        []tags.Tag
	UpdatedAt   time.Time
}

// Fingerprint returns the hex BLAKE2b-256 digest of content together with
// the recognized macro names. The macro set is order-insensitive.
func Fingerprint(content []byte, macros []string) string {
	h, _ := blake2b.New256(nil)
	h.Write(content)

	sorted := append([]string(nil), macros...)
	sort.Strings(sorted)
	for _, m := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(m))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the entry for path when its fingerprint matches.
func (c *Cache) Get(path, fingerprint string) (*Entry, bool, error) {
	var (
		parser    string
		tagsJSON  string
		updatedAt string
	)
	err := c.conn.QueryRow(`
		SELECT parser, tags_json, updated_at
		FROM file_tags
		WHERE path = ? AND fingerprint = ?
	`, path, fingerprint).Scan(&parser, &tagsJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.ForPath(errors.CacheUnavailable, path, "cache lookup failed", err)
	}

	e := &Entry{Fingerprint: fingerprint, Parser: parser}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return nil, false, errors.ForPath(errors.CacheUnavailable, path, "corrupt cache entry", err)
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		e.UpdatedAt = ts
	}
	return e, true, nil
}

// Put stores the extraction result for path, replacing any previous entry.
func (c *Cache) Put(path, fingerprint, parser string, list []tags.Tag) error {
	if list == nil {
		list = []tags.Tag{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return errors.ForPath(errors.CacheUnavailable, path, "failed to encode tags", err)
	}
	_, err = c.conn.Exec(`
		INSERT OR REPLACE INTO file_tags (path, fingerprint, parser, tags_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, path, fingerprint, parser, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.ForPath(errors.CacheUnavailable, path, "cache write failed", err)
	}
	return nil
}

// Len returns the number of cached files.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.conn.QueryRow(`SELECT COUNT(*) FROM file_tags`).Scan(&n); err != nil {
		return 0, errors.New(errors.CacheUnavailable, "count failed", err)
	}
	return n, nil
}
