// Package treesitter parses plain Rust with the tree-sitter grammar and
// converts the result into the syntax model. It is the fallback grammar
// for files the Verus declaration parser cannot handle.
package treesitter

import (
	"errors"
	"fmt"

	"verus-etags/internal/syntax"
)

// Name is the parser name reported in logs and the tag cache.
const Name = "tree-sitter"

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("tree-sitter grammar unavailable (built without cgo)")

// SyntaxError reports the first error or missing node in a parse tree.
type SyntaxError struct {
	Pos syntax.Pos
	// Missing is true when the grammar inserted a missing token rather than
	// wrapping unexpected input in an error node.
	Missing bool
}

func (e *SyntaxError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%d:%d: missing token", e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%d:%d: syntax error", e.Pos.Line, e.Pos.Column)
}
