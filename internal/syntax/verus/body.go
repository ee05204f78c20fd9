package verus

import (
	"verus-etags/internal/syntax"
	"verus-etags/internal/syntax/lexer"
)

// itemStarts are the words that may open an item inside a function body.
var itemStarts = map[string]bool{
	"fn":          true,
	"struct":      true,
	"enum":        true,
	"trait":       true,
	"impl":        true,
	"const":       true,
	"static":      true,
	"type":        true,
	"mod":         true,
	"use":         true,
	"pub":         true,
	"unsafe":      true,
	"async":       true,
	"extern":      true,
	"macro_rules": true,
	"spec":        true,
	"proof":       true,
	"exec":        true,
	"open":        true,
	"closed":      true,
	"broadcast":   true,
}

// scanBody collects the items declared inside a function body. It never
// fails: statements and expressions are skipped, and an item that does not
// parse is treated as ordinary tokens. block is true when toks open a new
// statement list.
func scanBody(src []byte, toks []lexer.Token, block bool) []syntax.Item {
	var items []syntax.Item
	c := newCursor(src, toks, syntax.Pos{})
	stmtStart := block
	for !c.done() {
		if stmtStart && startsItem(c) {
			save := c.i
			it, err := parseItem(c)
			if err == nil {
				if it != nil {
					items = append(items, it)
				}
				continue
			}
			c.i = save
		}

		t := c.next()
		switch {
		case t.Kind == lexer.Group:
			items = append(items, scanBody(src, t.Children, t.Delim == '{')...)
			stmtStart = t.Delim == '{'
		case t.IsPunct(";"):
			stmtStart = true
		default:
			stmtStart = false
		}
	}
	return items
}

func startsItem(c *cursor) bool {
	t := c.peek(0)
	if t.IsPunct("#") {
		return true
	}
	return t.Kind == lexer.Ident && !t.Raw && itemStarts[t.Text]
}
