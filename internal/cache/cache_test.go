package cache

import (
	"path/filepath"
	"reflect"
	"testing"

	"verus-etags/internal/errors"
	"verus-etags/internal/slogutil"
	"verus-etags/internal/tags"
	"verus-etags/internal/version"
)

func openTest(t *testing.T, path string) *Cache {
	t.Helper()
	c, err := Open(path, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint([]byte("fn f() {}"), []string{"verus", "verus_"})
	if len(base) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(base))
	}

	tests := []struct {
		name    string
		content string
		macros  []string
		same    bool
	}{
		{"identical", "fn f() {}", []string{"verus", "verus_"}, true},
		{"macro order", "fn f() {}", []string{"verus_", "verus"}, true},
		{"content changed", "fn g() {}", []string{"verus", "verus_"}, false},
		{"macro set changed", "fn f() {}", []string{"verus"}, false},
		{"boundary shift", "fn f() {}verus", []string{"verus_"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint([]byte(tt.content), tt.macros)
			if (got == base) != tt.same {
				t.Errorf("Fingerprint equal = %v, want %v", got == base, tt.same)
			}
		})
	}
}

func TestCache_GetPut(t *testing.T) {
	c := openTest(t, filepath.Join(t.TempDir(), "cache.db"))
	list := []tags.Tag{
		{Name: "f", Line: 1, Offset: 0, Pattern: "fn f() {}", Column: 4, Kind: tags.KindFunction},
		{Name: "S", Line: 2, Offset: 10, Pattern: "struct S;", Column: 8, Kind: tags.KindStruct},
	}

	t.Run("miss on empty cache", func(t *testing.T) {
		_, found, err := c.Get("a.rs", "fp1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Error("expected miss")
		}
	})

	if err := c.Put("a.rs", "fp1", "verus", list); err != nil {
		t.Fatalf("Put: %v", err)
	}

	t.Run("hit", func(t *testing.T) {
		e, found, err := c.Get("a.rs", "fp1")
		if err != nil || !found {
			t.Fatalf("Get = %v, %v", found, err)
		}
		if e.Parser != "verus" {
			t.Errorf("parser = %q, want verus", e.Parser)
		}
		if !reflect.DeepEqual(e.Tags, list) {
			t.Errorf("tags = %+v, want %+v", e.Tags, list)
		}
		if e.UpdatedAt.IsZero() {
			t.Error("expected UpdatedAt to be set")
		}
	})

	t.Run("stale fingerprint", func(t *testing.T) {
		if _, found, _ := c.Get("a.rs", "fp2"); found {
			t.Error("expected miss for changed fingerprint")
		}
	})

	t.Run("replace", func(t *testing.T) {
		if err := c.Put("a.rs", "fp2", "tree-sitter", nil); err != nil {
			t.Fatalf("Put: %v", err)
		}
		e, found, err := c.Get("a.rs", "fp2")
		if err != nil || !found {
			t.Fatalf("Get = %v, %v", found, err)
		}
		if len(e.Tags) != 0 || e.Parser != "tree-sitter" {
			t.Errorf("entry = %+v", e)
		}
		if n, _ := c.Len(); n != 1 {
			t.Errorf("Len = %d, want 1", n)
		}
	})
}

func TestCache_VersionInvalidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("a.rs", "fp", "verus", []tags.Tag{{Name: "f", Line: 1}}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c = openTest(t, path)
	if _, found, _ := c.Get("a.rs", "fp"); !found {
		t.Fatal("expected entry to survive reopen with the same version")
	}
	c.Close()

	old := version.Version
	version.Version = old + "-next"
	t.Cleanup(func() { version.Version = old })

	c = openTest(t, path)
	if _, found, _ := c.Get("a.rs", "fp"); found {
		t.Error("expected entry to be dropped after a version change")
	}
}

func TestOpen_Unavailable(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be opened as a database file.
	_, err := Open(dir, slogutil.NewDiscardLogger())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.CacheUnavailable) {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.CacheUnavailable)
	}
}
