package verus

import (
	"fmt"

	"verus-etags/internal/syntax"
	"verus-etags/internal/syntax/lexer"
)

// SyntaxError is a declaration-level parse error.
type SyntaxError struct {
	Pos syntax.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// cursor walks one level of a token tree.
type cursor struct {
	src  []byte
	toks []lexer.Token
	i    int
	// end is reported for errors past the last token.
	end syntax.Pos
}

func newCursor(src []byte, toks []lexer.Token, end syntax.Pos) *cursor {
	return &cursor{src: src, toks: toks, end: end}
}

func (c *cursor) done() bool { return c.i >= len(c.toks) }

// peek returns the token n places away (negative looks back). Out of range
// it returns a punctuation token with empty text, which matches no test.
func (c *cursor) peek(n int) lexer.Token {
	if j := c.i + n; j >= 0 && j < len(c.toks) {
		return c.toks[j]
	}
	return lexer.Token{Kind: lexer.Punct}
}

func (c *cursor) at(word string) bool { return c.peek(0).Is(word) }
func (c *cursor) atPunct(p string) bool { return c.peek(0).IsPunct(p) }
func (c *cursor) atGroup(delim byte) bool { return c.peek(0).IsGroup(delim) }
func (c *cursor) peekIdent(n int) bool { return c.peek(n).Kind == lexer.Ident }
func (c *cursor) peekWord(n int, w string) bool { return c.peek(n).Is(w) }

func (c *cursor) next() lexer.Token {
	t := c.peek(0)
	c.i++
	return t
}

func (c *cursor) errorf(format string, args ...interface{}) error {
	pos := c.end
	if !c.done() {
		t := c.toks[c.i]
		pos = syntax.Pos{Line: t.Line, Column: t.Column}
	}
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// expectIdent consumes an identifier. Raw identifiers keep their r# prefix
// in the returned name.
func (c *cursor) expectIdent(what string) (syntax.Ident, error) {
	t := c.peek(0)
	if c.done() || t.Kind != lexer.Ident {
		return syntax.Ident{}, c.errorf("expected %s, found %s", what, describe(c))
	}
	c.i++
	return identOf(t), nil
}

func (c *cursor) expectGroup(delim byte, what string) (lexer.Token, error) {
	if !c.atGroup(delim) {
		return lexer.Token{}, c.errorf("expected %s, found %s", what, describe(c))
	}
	return c.next(), nil
}

// skipTo consumes tokens through the next top-level semicolon.
func (c *cursor) skipTo(what string) error {
	for !c.done() {
		if c.next().IsPunct(";") {
			return nil
		}
	}
	return c.errorf("expected `;` after %s", what)
}

// skipAngles consumes a balanced <...> run starting at the current `<`.
func (c *cursor) skipAngles() error {
	depth := 0
	for !c.done() {
		t := c.next()
		switch {
		case t.IsPunct("<"):
			depth++
		case t.IsPunct(">"):
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return c.errorf("unbalanced `<` in generics")
}

func identOf(t lexer.Token) syntax.Ident {
	name := t.Text
	if t.Raw {
		name = "r#" + name
	}
	return syntax.Ident{Name: name, Pos: syntax.Pos{Line: t.Line, Column: t.Column}}
}

func describe(c *cursor) string {
	if c.done() {
		return "end of input"
	}
	t := c.peek(0)
	return fmt.Sprintf("%s `%s`", t.Kind, t)
}

// groupEnd is the position of a group's closing delimiter, used for errors
// reported after its last child.
func groupEnd(src []byte, g lexer.Token) syntax.Pos {
	line, col := g.Line, g.Column
	for i := g.Offset; i < g.End-1 && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return syntax.Pos{Line: line, Column: col}
}
