package verus

import (
	"verus-etags/internal/syntax"
	"verus-etags/internal/syntax/lexer"
)

// cutWhere drops a trailing where clause from an impl header.
func cutWhere(header []lexer.Token) []lexer.Token {
	depth := 0
	for i, t := range header {
		switch {
		case t.IsPunct("<"):
			depth++
		case t.IsPunct(">"):
			depth--
		case depth == 0 && t.Is("where"):
			return header[:i]
		}
	}
	return header
}

// splitFor splits `Trait for Type` at the top-level `for`. A `for` that
// opens higher-ranked bounds (for<'a>) does not split; a qualified self type
// such as `<T as Iterator>::Item` does.
func splitFor(header []lexer.Token) (trait, self []lexer.Token, ok bool) {
	depth := 0
	for i, t := range header {
		switch {
		case t.IsPunct("<"):
			depth++
		case t.IsPunct(">"):
			depth--
		case depth == 0 && t.Is("for") && i > 0:
			if higherRanked(header[i+1:]) {
				continue
			}
			return header[:i], header[i+1:], true
		}
	}
	return nil, nil, false
}

// higherRanked reports whether toks open a for<'a, ..> binder.
func higherRanked(toks []lexer.Token) bool {
	if len(toks) < 2 || !toks[0].IsPunct("<") {
		return false
	}
	return toks[1].Kind == lexer.Lifetime || toks[1].IsPunct(">")
}

// traitSegment names the implemented trait, ignoring negative and const
// markers.
func traitSegment(toks []lexer.Token) *syntax.Ident {
	for len(toks) > 0 && (toks[0].IsPunct("!") || toks[0].IsPunct("?") || toks[0].Is("const")) {
		toks = toks[1:]
	}
	return lastSegment(toks)
}

// nonPathTypes start a type that is not a plain path.
var nonPathTypes = map[string]bool{
	"dyn":    true,
	"impl":   true,
	"fn":     true,
	"unsafe": true,
	"extern": true,
	"_":      true,
}

// typeSegment returns the last segment of a path type, qualified or not, or
// nil for any other
// kind of type (references, pointers, tuples, slices, trait objects).
func typeSegment(toks []lexer.Token) *syntax.Ident {
	if len(toks) == 0 {
		return nil
	}
	first := toks[0]
	switch {
	case first.IsPunct("::"), first.IsPunct("<"):
	case first.Kind != lexer.Ident:
		return nil
	case !first.Raw && nonPathTypes[first.Text]:
		return nil
	}
	return lastSegment(toks)
}

// lastSegment returns the last identifier outside angle brackets.
func lastSegment(toks []lexer.Token) *syntax.Ident {
	depth := 0
	var last *syntax.Ident
	for _, t := range toks {
		switch {
		case t.IsPunct("<"):
			depth++
		case t.IsPunct(">"):
			depth--
		case depth == 0 && t.Kind == lexer.Ident && !t.Is("as"):
			id := identOf(t)
			last = &id
		}
	}
	return last
}
