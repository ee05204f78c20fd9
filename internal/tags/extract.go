package tags

import (
	"context"
	"fmt"

	"verus-etags/internal/errors"
	"verus-etags/internal/syntax"
)

// DefaultMacros are the macros whose bodies hold Verus declarations.
var DefaultMacros = []string{"verus", "verus_", "verus_impl"}

// Extractor walks parsed files and emits one tag per declaration.
type Extractor struct {
	chain  syntax.Chain
	macros map[string]bool
}

// NewExtractor creates an Extractor. Bodies of file-scope invocations of the
// named macros (matched on the last path segment) are re-parsed with chain
// and tagged like top-level code.
func NewExtractor(chain syntax.Chain, macros []string) *Extractor {
	set := make(map[string]bool, len(macros))
	for _, m := range macros {
		set[m] = true
	}
	return &Extractor{chain: chain, macros: set}
}

// Extract returns the tags for file, parsed from src, in emission order:
// the file tree depth first, then the bodies of recognized macro
// invocations in the order they appear. Macro bodies that fail to parse
// contribute no tags and are reported in the returned errors; a failure
// never discards tags found elsewhere.
func (e *Extractor) Extract(ctx context.Context, src []byte, file *syntax.File) ([]Tag, []error) {
	x := &extraction{src: src, lines: NewLineIndex(src)}
	x.items(file.Items)

	var errs []error
	for _, it := range file.Items {
		call, ok := it.(*syntax.MacroCall)
		if !ok || !e.macros[call.LastSegment()] {
			continue
		}
		body, _, err := e.chain.Parse(ctx, []byte(call.Body))
		if err != nil {
			errs = append(errs, errors.New(errors.MacroParseFailed,
				fmt.Sprintf("%s! body at %d:%d", call.LastSegment(), call.Pos.Line, call.Pos.Column), err))
			continue
		}
		inner := &extraction{src: src, lines: x.lines, base: &call.BodyPos, tags: x.tags}
		inner.items(body.Items)
		x.tags = inner.tags
	}
	return x.tags, errs
}

// extraction is the state of one walk: the file source, its line
// index, and for macro bodies the position of the body in the file.
type extraction struct {
	src   []byte
	lines *LineIndex
	base  *syntax.Pos
	tags  []Tag
}

func (x *extraction) add(name string, id syntax.Ident, kind Kind) {
	p := id.Pos
	if x.base != nil {
		p = p.Shift(*x.base)
	}
	off := x.lines.Start(p.Line)
	x.tags = append(x.tags, Tag{
		Name:    name,
		Line:    p.Line,
		Offset:  off,
		Pattern: Pattern(x.src, off, name),
		Column:  p.Column,
		Kind:    kind,
	})
}

func (x *extraction) items(items []syntax.Item) {
	for _, it := range items {
		x.item(it)
	}
}

func (x *extraction) item(it syntax.Item) {
	switch v := it.(type) {
	case *syntax.Fn:
		x.fn(v, KindFunction)
	case *syntax.Struct:
		x.add(v.Name.Name, v.Name, KindStruct)
	case *syntax.Enum:
		x.add(v.Name.Name, v.Name, KindEnum)
		for _, variant := range v.Variants {
			x.add(v.Name.Name+"::"+variant.Name, variant, KindVariant)
		}
	case *syntax.Trait:
		x.add(v.Name.Name, v.Name, KindTrait)
		for _, fn := range v.Fns {
			x.fn(fn, KindMethod)
		}
	case *syntax.Impl:
		if v.SelfType != nil {
			x.add(implName(v), *v.SelfType, KindImpl)
		}
		for _, fn := range v.Fns {
			x.fn(fn, KindMethod)
		}
	case *syntax.Const:
		x.add(v.Name.Name, v.Name, KindConst)
	case *syntax.Static:
		x.add(v.Name.Name, v.Name, KindStatic)
	case *syntax.TypeAlias:
		x.add(v.Name.Name, v.Name, KindType)
	case *syntax.Mod:
		x.add(v.Name.Name, v.Name, KindModule)
		x.items(v.Items)
	case *syntax.MacroRules:
		x.add(v.Name.Name, v.Name, KindMacro)
	case *syntax.BroadcastGroup:
		x.add(v.Name.Name, v.Name, KindBroadcastGroup)
	case *syntax.AssumeSpec:
		x.add("assume_specification "+v.Target.Name, v.Target, KindAssumeSpec)
	case *syntax.MacroCall:
		// expanded after the walk
	}
}

func (x *extraction) fn(fn *syntax.Fn, kind Kind) {
	x.add(fn.Name.Name, fn.Name, kind)
	x.items(fn.Body)
}

func implName(im *syntax.Impl) string {
	if im.Trait != nil {
		return "impl " + im.Trait.Name + " for " + im.SelfType.Name
	}
	return "impl " + im.SelfType.Name
}
