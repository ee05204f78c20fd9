package discover

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"verus-etags/internal/errors"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, r)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("fn x() {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestIsEditorTemp(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"main.rs", false},
		{".#main.rs", true},
		{"main.rs~", true},
		{"#main.rs#", true},
		{"#main.rs", false},
		{"lib#.rs", false},
	}
	for _, tt := range tests {
		if got := IsEditorTemp(tt.name); got != tt.want {
			t.Errorf("IsEditorTemp(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFiles_Recursive(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"b.rs",
		"a.rs",
		"notes.txt",
		"main.rs~",
		"#auto.rs#",
		".hidden.rs",
		".git/config.rs",
		"src/lib.rs",
		"src/util/mod.rs",
		"target/debug/gen.rs",
	)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "default",
			opts: DefaultOptions(),
			want: []string{"a.rs", "b.rs", "src/lib.rs", "src/util/mod.rs", "target/debug/gen.rs"},
		},
		{
			name: "ignore target",
			opts: Options{Recurse: true, Ignore: []string{"target"}},
			want: []string{"a.rs", "b.rs", "src/lib.rs", "src/util/mod.rs"},
		},
		{
			name: "no recurse",
			opts: Options{Recurse: false},
			want: []string{"a.rs", "b.rs"},
		},
		{
			name: "extra extension without dot",
			opts: Options{Recurse: false, Extensions: []string{"rs", "txt"}},
			want: []string{"a.rs", "b.rs", "notes.txt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Files([]string{root}, tt.opts)
			if len(res.Errors) != 0 {
				t.Fatalf("unexpected errors: %v", res.Errors)
			}
			if got := rel(t, root, res.Files); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("files = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFiles_RawJoin(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.rs")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	sep := string(filepath.Separator)
	tests := []struct {
		arg  string
		want string
	}{
		{".", "." + sep + "a.rs"},
		{"." + sep, "." + sep + "a.rs"},
		{"a.rs", "a.rs"},
	}
	for _, tt := range tests {
		res := Files([]string{tt.arg}, DefaultOptions())
		if len(res.Files) != 1 || res.Files[0] != tt.want {
			t.Errorf("Files(%q) = %v, want [%s]", tt.arg, res.Files, tt.want)
		}
	}
}

func TestFiles_RootNeverFiltered(t *testing.T) {
	root := t.TempDir()
	touch(t, root, ".config/a.rs", ".config/.inner/b.rs", ".x.rs")

	res := Files([]string{filepath.Join(root, ".config"), filepath.Join(root, ".x.rs")}, DefaultOptions())
	want := []string{".config/a.rs", ".x.rs"}
	if got := rel(t, root, res.Files); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestFiles_InputOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "z/z.rs", "a/a.rs", "m.rs")

	res := Files([]string{
		filepath.Join(root, "z"),
		filepath.Join(root, "m.rs"),
		filepath.Join(root, "a"),
	}, DefaultOptions())
	want := []string{"z/z.rs", "m.rs", "a/a.rs"}
	if got := rel(t, root, res.Files); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestFiles_Missing(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.rs")
	missing := filepath.Join(root, "nope")

	res := Files([]string{missing, filepath.Join(root, "a.rs")}, DefaultOptions())
	if len(res.Files) != 1 {
		t.Errorf("files = %v, want one", res.Files)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want one", res.Errors)
	}
	if !errors.HasCode(res.Errors[0], errors.FileUnreadable) {
		t.Errorf("error code = %s, want %s", errors.CodeOf(res.Errors[0]), errors.FileUnreadable)
	}
}

func TestFiles_Symlinks(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "real/a.rs", "other/b.rs")
	if err := os.Symlink(filepath.Join(root, "other"), filepath.Join(root, "real", "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "real", "loop")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "gone.rs"), filepath.Join(root, "real", "broken.rs")); err != nil {
		t.Fatal(err)
	}

	t.Run("follow", func(t *testing.T) {
		res := Files([]string{filepath.Join(root, "real")}, DefaultOptions())
		want := []string{"real/a.rs", "real/link/b.rs"}
		if got := rel(t, root, res.Files); !reflect.DeepEqual(got, want) {
			t.Errorf("files = %v, want %v", got, want)
		}
		if len(res.Errors) != 1 || !errors.HasCode(res.Errors[0], errors.FileUnreadable) {
			t.Errorf("errors = %v, want one broken link", res.Errors)
		}
	})

	t.Run("no follow", func(t *testing.T) {
		opts := DefaultOptions()
		opts.FollowSymlinks = false
		res := Files([]string{filepath.Join(root, "real")}, opts)
		want := []string{"real/a.rs"}
		if got := rel(t, root, res.Files); !reflect.DeepEqual(got, want) {
			t.Errorf("files = %v, want %v", got, want)
		}
		if len(res.Errors) != 0 {
			t.Errorf("errors = %v, want none", res.Errors)
		}
	})
}
