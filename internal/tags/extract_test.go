package tags

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"verus-etags/internal/errors"
	"verus-etags/internal/syntax"
	"verus-etags/internal/syntax/verus"
)

var testChain = syntax.Chain{verus.New()}

func extract(t *testing.T, src string) ([]Tag, []error) {
	t.Helper()
	f, _, err := testChain.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	return NewExtractor(testChain, DefaultMacros).Extract(context.Background(), []byte(src), f)
}

func names(tags []Tag) string {
	out := make([]string, len(tags))
	for i, tg := range tags {
		out[i] = fmt.Sprintf("%s@%d", tg.Name, tg.Line)
	}
	return strings.Join(out, " ")
}

func TestExtract_Declarations(t *testing.T) {
	src := `enum Color { Red, Green }
trait Shape {
    fn area(&self) -> u32;
}
impl Shape for geo::Square {
    fn area(&self) -> u32 { 1 }
}
impl<T> Wrapper<T> {}
impl Shape for &Circle {
    fn area(&self) -> u32 { 2 }
}
const _: () = ();
static COUNT: u8 = 0;
type Id = u64;
mod inner {
    struct Hidden;
}
macro_rules! square { ($x:expr) => { $x * $x } }
fn outer() {
    fn nested() {}
}
`
	tags, errs := extract(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := "Color@1 Color::Red@1 Color::Green@1 Shape@2 area@3 " +
		"impl Shape for Square@5 area@6 impl Wrapper@8 area@10 " +
		"_@12 COUNT@13 Id@14 inner@15 Hidden@16 square@18 outer@19 nested@20"
	if got := names(tags); got != want {
		t.Errorf("tags =\n%s\nwant\n%s", got, want)
	}
}

func TestExtract_Locations(t *testing.T) {
	src := "// header\nimpl Foo {\n    fn bar(&self,\n           x: u8) {}\n}\n"
	tags, _ := extract(t, src)
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2: %s", len(tags), names(tags))
	}

	impl := tags[0]
	if impl.Name != "impl Foo" || impl.Line != 2 || impl.Offset != 10 || impl.Column != 6 {
		t.Errorf("impl tag = %+v", impl)
	}
	if impl.Pattern != "impl Foo {" || impl.Kind != KindImpl {
		t.Errorf("impl pattern/kind = %q/%q", impl.Pattern, impl.Kind)
	}

	bar := tags[1]
	if bar.Line != 3 || bar.Offset != 21 || bar.Kind != KindMethod {
		t.Errorf("bar tag = %+v", bar)
	}
	if bar.Pattern != "bar" {
		t.Errorf("multi-line header pattern = %q, want bare name", bar.Pattern)
	}

	for _, tg := range tags {
		if tg.Offset > 0 && src[tg.Offset-1] != '\n' {
			t.Errorf("%s: offset %d does not follow a newline", tg.Name, tg.Offset)
		}
		if !strings.HasPrefix(src[tg.Offset:], tg.Pattern) && tg.Pattern != tg.Name {
			t.Errorf("%s: pattern %q is not a prefix of its line", tg.Name, tg.Pattern)
		}
	}
}

func TestExtract_VerusMacro(t *testing.T) {
	src := `use vstd::prelude::*;

fn before() {}

verus! {

pub open spec fn double(x: int) -> int { 2 * x }

pub enum Tree { Leaf, Node(Box<Tree>) }

impl View for Tree {
    closed spec fn view(&self) -> int { 0 }
}

broadcast group tree_lemmas { lemma_a }

pub assume_specification<T> [ Vec::<T>::len ] (v: &Vec<T>) -> usize;

}

fn after() {}
`
	tags, errs := extract(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// File-scope tags come first, then the macro body.
	want := "before@3 after@21 double@7 Tree@9 Tree::Leaf@9 Tree::Node@9 " +
		"impl View for Tree@11 view@12 tree_lemmas@15 assume_specification len@17"
	if got := names(tags); got != want {
		t.Errorf("tags =\n%s\nwant\n%s", got, want)
	}

	for _, tg := range tags {
		if tg.Name == "double" {
			if tg.Column != 18 || tg.Pattern != "pub open spec fn double(x: int) -> int { 2 * x }" {
				t.Errorf("double = %+v", tg)
			}
			if tg.Offset != LineStart([]byte(src), 7) {
				t.Errorf("double offset = %d, want %d", tg.Offset, LineStart([]byte(src), 7))
			}
		}
	}
}

func TestExtract_MacroSameAsPlain(t *testing.T) {
	plain := "\nstruct Point { x: u8 }\nfn origin() -> Point { Point { x: 0 } }\n"
	wrapped := "verus!{" + plain + "}\n"

	a, _ := extract(t, plain)
	b, _ := extract(t, wrapped)
	if len(a) != len(b) {
		t.Fatalf("plain gave %d tags, macro gave %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Line != b[i].Line || a[i].Kind != b[i].Kind {
			t.Errorf("tag %d: plain %+v, macro %+v", i, a[i], b[i])
		}
	}
}

func TestExtract_MacroFirstLineColumn(t *testing.T) {
	tags, _ := extract(t, "verus! { fn f() {} }\n")
	if len(tags) != 1 {
		t.Fatalf("got %s", names(tags))
	}
	if tags[0].Line != 1 || tags[0].Column != 13 || tags[0].Offset != 0 {
		t.Errorf("tag = %+v, want line 1 column 13", tags[0])
	}
}

func TestExtract_MacroBracedClauses(t *testing.T) {
	tests := []struct {
		name   string
		clause string
	}{
		{"ensures if else", "ensures if x { r == 1 } else { r == 0 },"},
		{"requires match", "requires match y { Some(v) => v > 0, None => true },"},
		{"struct literal", "ensures r == S { a: 1 },"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "verus! {\nfn f(x: bool, y: Option<u8>) -> (r: u8)\n    " + tt.clause +
				"\n{ if x { 1 } else { 0 } }\nfn g() {}\n}\n"
			tags, errs := extract(t, src)
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if got := names(tags); got != "f@2 g@5" {
				t.Errorf("tags = %s, want f@2 g@5", got)
			}
		})
	}
}

func TestExtract_MacroSelection(t *testing.T) {
	src := "verus_! { fn a() {} }\nvstd::verus_impl! { fn b() {} }\nother! { fn c() {} }\n"
	tags, _ := extract(t, src)
	if got := names(tags); got != "a@1 b@2" {
		t.Errorf("tags = %s, want a@1 b@2", got)
	}

	f, _, _ := testChain.Parse(context.Background(), []byte(src))
	tags, _ = NewExtractor(testChain, []string{"other"}).Extract(context.Background(), []byte(src), f)
	if got := names(tags); got != "c@3" {
		t.Errorf("with custom macro set, tags = %s, want c@3", got)
	}
}

func TestExtract_BrokenMacroBody(t *testing.T) {
	src := "fn keep() {}\nverus! {\n    fn ok() {}\n    let broken = ;\n}\n"
	tags, errs := extract(t, src)
	if got := names(tags); got != "keep@1" {
		t.Errorf("tags = %s, want keep@1 only", got)
	}
	if len(errs) != 1 || !errors.HasCode(errs[0], errors.MacroParseFailed) {
		t.Errorf("errs = %v, want one MACRO_PARSE_FAILED", errs)
	}
}

func TestExtract_SampleFixture(t *testing.T) {
	src, err := os.ReadFile("../../testdata/sample.rs")
	if err != nil {
		t.Fatal(err)
	}
	tags, errs := extract(t, string(src))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{
		"factorial", "lemma_factorial_positive", "compute_factorial", "Counter",
		"impl Counter", "inv", "new", "increment", "Summable", "sum",
		"Result", "Result::Ok", "Result::Err", "MyResult", "MAX_SIZE",
		"GLOBAL_SPEC", "my_lemmas",
	}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags (%s), want %d", len(tags), names(tags), len(want))
	}
	for i, w := range want {
		if tags[i].Name != w {
			t.Errorf("tag %d = %q, want %q", i, tags[i].Name, w)
		}
	}
}
