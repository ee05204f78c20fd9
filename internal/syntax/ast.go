// Package syntax defines the declaration-level syntax model shared by the
// parsers and the tag extractor.
//
// The model only keeps what tagging needs: declaration names with their
// positions, and the nesting that can hold further declarations. Everything
// else in a source file (expressions, types, generics) is dropped by the
// parsers.
package syntax

// Pos is a 1-based source position. Column counts bytes.
type Pos struct {
	Line   int
	Column int
}

// Shift translates a position found inside a macro body whose first byte is
// at base back into the coordinates of the enclosing file.
func (p Pos) Shift(base Pos) Pos {
	if p.Line == 1 {
		return Pos{Line: base.Line, Column: base.Column + p.Column - 1}
	}
	return Pos{Line: base.Line + p.Line - 1, Column: p.Column}
}

// Ident is a declaration name and where it appears.
type Ident struct {
	Name string
	Pos  Pos
}

// File is a parsed source file or macro body.
type File struct {
	Items []Item
}

// Item is one declaration. The concrete types below are the only
// implementations.
type Item interface {
	item()
}

// Fn is a function, method or associated function. Body holds the items
// declared inside the function body.
type Fn struct {
	Name Ident
	Body []Item
}

// Struct is a struct declaration.
type Struct struct {
	Name Ident
}

// Enum is an enum declaration with its variants in source order.
type Enum struct {
	Name     Ident
	Variants []Ident
}

// Trait is a trait declaration with the functions declared in its body.
type Trait struct {
	Name Ident
	Fns  []*Fn
}

// Impl is an impl block. Trait is nil for inherent impls. SelfType is the
// last path segment of the implementing type, nil when that type is not a
// plain path (references, tuples, slices, trait objects).
type Impl struct {
	Trait    *Ident
	SelfType *Ident
	Fns      []*Fn
}

// Const is a const item. The name may be "_".
type Const struct {
	Name Ident
}

// Static is a static item.
type Static struct {
	Name Ident
}

// TypeAlias is a type alias.
type TypeAlias struct {
	Name Ident
}

// Mod is a module. Items is empty for out-of-line modules (mod foo;).
type Mod struct {
	Name  Ident
	Items []Item
}

// MacroRules is a macro_rules! definition.
type MacroRules struct {
	Name Ident
}

// MacroCall is an item-position macro invocation. Body is the raw text
// between the delimiters and BodyPos the position of its first byte.
type MacroCall struct {
	Path    []string
	Pos     Pos
	Body    string
	BodyPos Pos
}

// BroadcastGroup is a `broadcast group` declaration.
type BroadcastGroup struct {
	Name Ident
}

// AssumeSpec is an assume_specification declaration. Target is the last
// segment of the specified function path.
type AssumeSpec struct {
	Target Ident
}

func (*Fn) item()             {}
func (*Struct) item()         {}
func (*Enum) item()           {}
func (*Trait) item()          {}
func (*Impl) item()           {}
func (*Const) item()          {}
func (*Static) item()         {}
func (*TypeAlias) item()      {}
func (*Mod) item()            {}
func (*MacroRules) item()     {}
func (*MacroCall) item()      {}
func (*BroadcastGroup) item() {}
func (*AssumeSpec) item()     {}

// LastSegment returns the final path segment of a macro call, or "".
func (m *MacroCall) LastSegment() string {
	if len(m.Path) == 0 {
		return ""
	}
	return m.Path[len(m.Path)-1]
}
