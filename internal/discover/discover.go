// Package discover expands command-line paths into the list of source files
// to index.
package discover

import (
	"os"
	"path/filepath"
	"strings"

	"verus-etags/internal/errors"
)

// Options control discovery.
type Options struct {
	// Recurse walks directories to any depth; otherwise only the files
	// directly inside a directory argument are taken.
	Recurse bool
	// FollowSymlinks follows symbolic links to files and directories.
	FollowSymlinks bool
	// Extensions lists the accepted file extensions, with or without the
	// leading dot. Empty means ".rs".
	Extensions []string
	// Ignore lists directory names that are never entered.
	Ignore []string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Recurse: true, FollowSymlinks: true, Extensions: []string{".rs"}}
}

// Result is the outcome of a discovery run. Errors hold one *errors.Error
// per path that could not be examined; they never stop the walk.
type Result struct {
	Files  []string
	Errors []error
}

type walker struct {
	opts   Options
	exts   map[string]bool
	ignore map[string]bool
	res    Result
}

// Files expands paths in order. Directories are walked in lexical order
// and file paths are built by appending entry names to the argument as
// given, so "." yields "./main.rs".
func Files(paths []string, opts Options) Result {
	w := &walker{
		opts:   opts,
		exts:   make(map[string]bool),
		ignore: make(map[string]bool, len(opts.Ignore)),
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".rs"}
	}
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		w.exts[e] = true
	}
	for _, name := range opts.Ignore {
		w.ignore[name] = true
	}

	for _, p := range paths {
		w.root(p)
	}
	return w.res
}

func (w *walker) fail(path, msg string, err error) {
	w.res.Errors = append(w.res.Errors, errors.ForPath(errors.FileUnreadable, path, msg, err))
}

// root handles one command-line argument. Arguments are never subject to
// the hidden-entry filter.
func (w *walker) root(path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.fail(path, "cannot access input path", err)
		return
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() && w.accepts(filepath.Base(path)) {
			w.res.Files = append(w.res.Files, path)
		}
		return
	}
	w.dir(path, []os.FileInfo{info})
}

// dir lists one directory. ancestors holds the directories on the current
// path, including dir itself, for symlink cycle detection.
func (w *walker) dir(path string, ancestors []os.FileInfo) {
	entries, err := os.ReadDir(path)
	if err != nil {
		w.fail(path, "cannot read directory", err)
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || IsEditorTemp(name) {
			continue
		}
		full := join(path, name)

		mode := e.Type()
		var info os.FileInfo
		if mode&os.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				continue
			}
			info, err = os.Stat(full)
			if err != nil {
				w.fail(full, "broken symbolic link", err)
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if !w.opts.Recurse || w.ignore[name] {
				continue
			}
			if info == nil {
				if info, err = e.Info(); err != nil {
					w.fail(full, "cannot stat directory", err)
					continue
				}
			}
			if inCycle(info, ancestors) {
				continue
			}
			w.dir(full, append(ancestors[:len(ancestors):len(ancestors)], info))
		case mode.IsRegular():
			if w.accepts(name) {
				w.res.Files = append(w.res.Files, full)
			}
		}
	}
}

func (w *walker) accepts(name string) bool {
	return !IsEditorTemp(name) && w.exts[filepath.Ext(name)]
}

// IsEditorTemp reports whether name is an Emacs lock (.#x), backup (x~) or
// auto-save (#x#) file.
func IsEditorTemp(name string) bool {
	return strings.HasPrefix(name, ".#") ||
		strings.HasSuffix(name, "~") ||
		(strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#"))
}

func inCycle(info os.FileInfo, ancestors []os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(a, info) {
			return true
		}
	}
	return false
}

func join(dir, name string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}
