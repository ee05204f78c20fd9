// Package tags turns parsed declarations into etags records and reads and
// writes the etags table format.
package tags

// Kind classifies the declaration behind a tag. It is not part of the etags
// format and is lost when a table is read back.
type Kind string

const (
	KindFunction       Kind = "function"
	KindMethod         Kind = "method"
	KindStruct         Kind = "struct"
	KindEnum           Kind = "enum"
	KindVariant        Kind = "variant"
	KindTrait          Kind = "trait"
	KindImpl           Kind = "impl"
	KindConst          Kind = "const"
	KindStatic         Kind = "static"
	KindType           Kind = "type"
	KindModule         Kind = "module"
	KindMacro          Kind = "macro"
	KindBroadcastGroup Kind = "broadcast_group"
	KindAssumeSpec     Kind = "assume_specification"
)

// Tag is one navigation entry.
type Tag struct {
	// Name is the display name, composed for compound constructs
	// (Enum::Variant, impl Trait for Type, assume_specification f).
	Name string `json:"name" yaml:"name" toml:"name"`
	// Line is the 1-based line of the identifier naming the declaration.
	Line int `json:"line" yaml:"line" toml:"line"`
	// Offset is the byte offset of the first byte of Line.
	Offset int `json:"offset" yaml:"offset" toml:"offset"`
	// Pattern is the source line without trailing whitespace, or Name when
	// the declaration header spans several lines.
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern"`
	// Column is the 1-based byte column of the identifier, 0 when unknown.
	Column int `json:"column,omitempty" yaml:"column,omitempty" toml:"column,omitempty"`
	// Kind is empty when unknown.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
}

// Section holds the tags of one file. Path is kept exactly as it was given
// on input.
type Section struct {
	Path string `json:"path" yaml:"path" toml:"path"`
	Tags []Tag  `json:"tags" yaml:"tags" toml:"tags"`
}

// Table is an ordered list of sections.
type Table struct {
	Sections []Section `json:"sections" yaml:"sections" toml:"sections"`
}

// Len returns the total number of tags in the table.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Tags)
	}
	return n
}
