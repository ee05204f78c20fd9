// Package lexer splits Rust and Verus source into delimiter-balanced token
// trees. It recognizes just enough of the lexical grammar to find item
// boundaries: literal and comment contents never leak into the token stream.
package lexer

import "strings"

// Kind is the category of a token.
type Kind uint8

const (
	// Ident is an identifier or keyword. Raw identifiers (r#type) have the
	// prefix removed and Raw set.
	Ident Kind = iota
	// Lifetime is a lifetime or label such as 'a.
	Lifetime
	// Literal is a string, character or numeric literal.
	Literal
	// Punct is punctuation. `::`, `->` and `=>` are single tokens; all other
	// punctuation is one byte per token.
	Punct
	// Group is a delimited token tree: (), [] or {}.
	Group
)

var kindNames = [...]string{
	Ident:    "identifier",
	Lifetime: "lifetime",
	Literal:  "literal",
	Punct:    "punctuation",
	Group:    "group",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one lexical token. Line and Column are 1-based, Column in bytes.
type Token struct {
	Kind   Kind
	Text   string
	Raw    bool
	Offset int
	Line   int
	Column int

	// Delim is the opening delimiter of a Group: '(', '[' or '{'.
	Delim byte
	// Children are the tokens between the delimiters of a Group.
	Children []Token
	// End is the offset just past the closing delimiter of a Group, or past
	// the last byte of any other token.
	End int
}

// Is reports whether the token is an identifier with the given text.
func (t Token) Is(word string) bool {
	return t.Kind == Ident && !t.Raw && t.Text == word
}

// IsPunct reports whether the token is the given punctuation.
func (t Token) IsPunct(p string) bool {
	return t.Kind == Punct && t.Text == p
}

// IsGroup reports whether the token is a group opened by delim.
func (t Token) IsGroup(delim byte) bool {
	return t.Kind == Group && t.Delim == delim
}

// Inner returns the source text between a group's delimiters.
func (t Token) Inner(src []byte) string {
	if t.Kind != Group || t.End-1 < t.Offset+1 {
		return ""
	}
	return string(src[t.Offset+1 : t.End-1])
}

func (t Token) String() string {
	if t.Kind == Group {
		return string(t.Delim) + "…" + string(closer(t.Delim))
	}
	if t.Kind == Literal && len(t.Text) > 20 {
		return t.Text[:17] + "..."
	}
	return strings.TrimSpace(t.Text)
}

func closer(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}
