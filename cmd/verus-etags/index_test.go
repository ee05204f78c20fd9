package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"verus-etags/internal/config"
	"verus-etags/internal/errors"
	"verus-etags/internal/slogutil"
	"verus-etags/internal/tags"
)

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output = filepath.Join(dir, "TAGS")
	return cfg
}

func TestRunIndex_WritesTable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "main.rs")
	writeSource(t, src, "fn main() {}\n")
	writeSource(t, filepath.Join(dir, "src", "broken.rs"), "fn broken( {\n")

	cfg := testConfig(dir)
	run, err := runIndex(context.Background(), cfg, []string{filepath.Join(dir, "src")}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("runIndex: %v", err)
	}
	if len(run.Result.Skipped) != 1 {
		t.Errorf("skipped = %+v, want the broken file", run.Result.Skipped)
	}

	got, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	want := "\x0c\n" + src + ",22\nfn main() {}\x7fmain\x011,0\n"
	if string(got) != want {
		t.Errorf("TAGS = %q, want %q", got, want)
	}
}

func TestRunIndex_Append(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.rs")
	b := filepath.Join(dir, "b.rs")
	writeSource(t, a, "fn one() {}\n")
	writeSource(t, b, "fn two() {}\n")

	cfg := testConfig(dir)
	logger := slogutil.NewDiscardLogger()
	if _, err := runIndex(context.Background(), cfg, []string{a, b}, logger); err != nil {
		t.Fatal(err)
	}

	writeSource(t, a, "fn uno() {}\nfn one() {}\n")
	c := filepath.Join(dir, "c.rs")
	writeSource(t, c, "struct Three;\n")

	cfg.Append = true
	if _, err := runIndex(context.Background(), cfg, []string{c, a}, logger); err != nil {
		t.Fatal(err)
	}

	table, err := tags.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range table.Sections {
		var names []string
		for _, tg := range s.Tags {
			names = append(names, tg.Name)
		}
		got = append(got, filepath.Base(s.Path)+"="+strings.Join(names, ","))
	}
	want := "a.rs=uno,one b.rs=two c.rs=Three"
	if strings.Join(got, " ") != want {
		t.Errorf("sections = %s, want %s", strings.Join(got, " "), want)
	}
}

func TestRunIndex_AppendMalformed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.rs")
	writeSource(t, src, "fn a() {}\n")

	cfg := testConfig(dir)
	cfg.Append = true
	if err := os.WriteFile(cfg.Output, []byte("not a tags file"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runIndex(context.Background(), cfg, []string{src}, slogutil.NewDiscardLogger())
	if !errors.HasCode(err, errors.TagsMalformed) {
		t.Fatalf("error = %v, want %s", err, errors.TagsMalformed)
	}
	data, _ := os.ReadFile(cfg.Output)
	if string(data) != "not a tags file" {
		t.Error("malformed table must be left untouched")
	}
}

func TestRunIndex_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.rs")
	writeSource(t, src, "fn a() {}\n")

	cfg := testConfig(dir)
	cfg.Output = filepath.Join(dir, "missing", "TAGS")
	_, err := runIndex(context.Background(), cfg, []string{src}, slogutil.NewDiscardLogger())
	if !errors.HasCode(err, errors.OutputUnwritable) || !errors.IsFatal(err) {
		t.Errorf("error = %v, want fatal %s", err, errors.OutputUnwritable)
	}
}

func TestRunIndex_CacheAndScip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "lib.rs")
	writeSource(t, src, "verus! {\nspec fn inv() -> bool { true }\n}\n")

	cfg := testConfig(dir)
	cfg.Cache.Enabled = true
	cfg.Cache.Path = filepath.Join(dir, "cache", "tags.db")
	cfg.Scip.Output = filepath.Join(dir, "index.scip")
	logger := slogutil.NewDiscardLogger()

	first, err := runIndex(context.Background(), cfg, []string{src}, logger)
	if err != nil {
		t.Fatal(err)
	}
	second, err := runIndex(context.Background(), cfg, []string{src}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if first.Result.Stats.CacheHits != 0 || second.Result.Stats.CacheHits != 1 {
		t.Errorf("cache hits = %d then %d, want 0 then 1",
			first.Result.Stats.CacheHits, second.Result.Stats.CacheHits)
	}

	data, err := os.ReadFile(cfg.Scip.Output)
	if err != nil {
		t.Fatal(err)
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		t.Fatal(err)
	}
	if len(index.Documents) != 1 || len(index.Documents[0].Occurrences) != 1 {
		t.Fatalf("index = %v", &index)
	}
	if sym := index.Documents[0].Symbols[0].DisplayName; sym != "inv" {
		t.Errorf("symbol = %q, want inv", sym)
	}
}

func TestLogLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"

	tests := []struct {
		name      string
		verbosity int
		quiet     bool
		want      string
	}{
		{"config level", 0, false, "ERROR"},
		{"verbose wins", 1, false, "INFO"},
		{"debug", 2, false, "DEBUG"},
		{"quiet", 0, true, slogutil.LevelSilent.String()},
	}
	for _, tt := range tests {
		if got := logLevel(cfg, tt.verbosity, tt.quiet).String(); got != tt.want {
			t.Errorf("%s: level = %s, want %s", tt.name, got, tt.want)
		}
	}
}
