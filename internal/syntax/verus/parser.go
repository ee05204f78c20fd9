// Package verus parses Rust source extended with the Verus verification
// dialect down to the declaration level.
//
// The parser works on lexer token trees. It recognizes item headers and the
// bodies that can hold further items (modules, traits, impls, functions),
// and skips everything else by delimiter balance. Item level sequences are
// parsed strictly: a token that cannot start an item fails the parse, so
// that input the parser does not understand falls through to the next
// grammar in a syntax.Chain. Function bodies are scanned leniently for
// nested items.
package verus

import (
	"context"
	"strings"

	"verus-etags/internal/syntax"
	"verus-etags/internal/syntax/lexer"
)

// Name is the parser name reported in logs and the tag cache.
const Name = "verus"

// Parser is the Verus-aware declaration parser.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Name implements syntax.Parser.
func (*Parser) Name() string { return Name }

// Parse implements syntax.Parser.
func (*Parser) Parse(ctx context.Context, src []byte) (*syntax.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	end := syntax.Pos{Line: 1, Column: 1}
	if n := len(toks); n > 0 {
		end = syntax.Pos{Line: toks[n-1].Line, Column: toks[n-1].Column}
	}
	items, err := parseItems(newCursor(src, toks, end))
	if err != nil {
		return nil, err
	}
	return &syntax.File{Items: items}, nil
}

// parseItems parses a strict item sequence until the cursor is exhausted.
func parseItems(c *cursor) ([]syntax.Item, error) {
	var items []syntax.Item
	for !c.done() {
		if c.atPunct(";") {
			c.i++
			continue
		}
		if c.atPunct("#") && c.peek(1).IsPunct("!") && c.peek(2).IsGroup('[') {
			c.i += 3
			continue
		}
		it, err := parseItem(c)
		if err != nil {
			return nil, err
		}
		if it != nil {
			items = append(items, it)
		}
	}
	return items, nil
}

// parseGroupItems parses the strict item sequence inside a brace group.
func parseGroupItems(c *cursor, g lexer.Token) ([]syntax.Item, error) {
	return parseItems(newCursor(c.src, g.Children, groupEnd(c.src, g)))
}

// parseItem parses one item. Items that never produce tags return nil.
func parseItem(c *cursor) (syntax.Item, error) {
	if err := skipAttributes(c); err != nil {
		return nil, err
	}
	skipVisibility(c)
	skipModifiers(c)

	if c.done() {
		return nil, c.errorf("expected item after attributes or modifiers")
	}
	t := c.peek(0)
	if t.IsPunct("::") {
		return parseMacroCall(c)
	}
	if t.Kind != lexer.Ident || t.Raw {
		return nil, c.errorf("expected item, found %s", describe(c))
	}

	switch t.Text {
	case "fn":
		return parseFn(c)
	case "struct":
		return parseStruct(c)
	case "enum":
		return parseEnum(c)
	case "trait":
		return parseTrait(c)
	case "impl":
		return parseImpl(c)
	case "const":
		if !c.peek(1).IsGroup('{') {
			return parseConst(c)
		}
	case "static":
		return parseStatic(c)
	case "type":
		return parseTypeAlias(c)
	case "mod":
		return parseMod(c)
	case "use":
		return nil, c.skipTo("use declaration")
	case "extern":
		return nil, skipExtern(c)
	case "global":
		return nil, c.skipTo("global declaration")
	case "assume_specification":
		return parseAssumeSpec(c)
	case "union":
		if c.peekIdent(1) {
			c.i++
			if _, err := c.expectIdent("union name"); err != nil {
				return nil, err
			}
			return nil, skipStructBody(c, "union")
		}
	case "macro_rules":
		if c.peek(1).IsPunct("!") {
			return parseMacroRules(c)
		}
	case "macro":
		if c.peekIdent(1) {
			return nil, skipMacro2(c)
		}
	case "broadcast":
		switch {
		case c.peekWord(1, "group"):
			return parseBroadcastGroup(c)
		case c.peekWord(1, "use"):
			return nil, c.skipTo("broadcast use")
		}
	}

	if c.peek(1).IsPunct("!") || c.peek(1).IsPunct("::") {
		return parseMacroCall(c)
	}
	return nil, c.errorf("expected item, found %s", describe(c))
}

func skipAttributes(c *cursor) error {
	for c.atPunct("#") {
		switch {
		case c.peek(1).IsPunct("!") && c.peek(2).IsGroup('['):
			c.i += 3
		case c.peek(1).IsGroup('['):
			c.i += 2
		default:
			return c.errorf("malformed attribute")
		}
	}
	return nil
}

// skipVisibility consumes pub, pub(...) and the legacy crate visibility.
func skipVisibility(c *cursor) {
	switch {
	case c.at("pub"):
		c.i++
		if c.atGroup('(') {
			c.i++
		}
	case c.at("crate") && c.peekIdent(1):
		c.i++
	}
}

// modes are the qualifiers that may precede an item keyword. Each is only
// consumed when another word follows, so `unsafe { .. }` blocks and macro
// calls named like a mode are left alone.
var modes = map[string]bool{
	"default":  true,
	"unsafe":   true,
	"async":    true,
	"auto":     true,
	"open":     true,
	"closed":   true,
	"spec":     true,
	"proof":    true,
	"exec":     true,
	"tracked":  true,
	"ghost":    true,
	"axiom":    true,
	"uninterp": true,
}

// parenModes may carry an argument group, as in spec(checked) or open(crate).
var parenModes = map[string]bool{"spec": true, "open": true, "closed": true}

func skipModifiers(c *cursor) {
	for !c.done() {
		t := c.peek(0)
		if t.Kind != lexer.Ident || t.Raw {
			return
		}
		switch {
		case modes[t.Text] && c.peekIdent(1):
			c.i++
		case parenModes[t.Text] && c.peek(1).IsGroup('(') && c.peekIdent(2):
			c.i += 2
		case t.Text == "const" && (c.peekWord(1, "fn") || c.peekWord(1, "unsafe") ||
			c.peekWord(1, "async") || c.peekWord(1, "extern")):
			c.i++
		case t.Text == "broadcast" && c.peekIdent(1) && !c.peekWord(1, "group") && !c.peekWord(1, "use"):
			c.i++
		case t.Text == "extern" && c.peekWord(1, "fn"):
			c.i++
		case t.Text == "extern" && c.peek(1).Kind == lexer.Literal && c.peekWord(2, "fn"):
			c.i += 2
		default:
			return
		}
	}
}

// skipModeQualifier consumes a ghost or tracked marker between a const or
// static keyword and its name.
func skipModeQualifier(c *cursor) {
	if (c.at("ghost") || c.at("tracked")) && c.peekIdent(1) {
		c.i++
	}
}

func parseFn(c *cursor) (syntax.Item, error) {
	c.i++
	name, err := c.expectIdent("function name")
	if err != nil {
		return nil, err
	}
	fn := &syntax.Fn{Name: name}
	var last *lexer.Token
	for !c.done() {
		t := c.next()
		if t.IsPunct(";") {
			return fn, nil
		}
		if !t.IsGroup('{') {
			continue
		}
		// Braces inside requires/ensures clauses (if/else, match, struct
		// literals) are followed by more clause tokens.
		if !continuesClause(c) {
			fn.Body = scanBody(c.src, t.Children, true)
			return fn, nil
		}
		last = &t
	}
	if last != nil {
		fn.Body = scanBody(c.src, last.Children, true)
		return fn, nil
	}
	return nil, c.errorf("expected body or `;` for function `%s`", name.Name)
}

// continuesClause reports whether the token after a brace group extends a
// specification clause: `else`, `as`, a comma or operator, or the function
// body itself.
func continuesClause(c *cursor) bool {
	if c.done() {
		return false
	}
	t := c.peek(0)
	switch t.Kind {
	case lexer.Group:
		return t.Delim == '{'
	case lexer.Punct:
		return !t.IsPunct(";") && !t.IsPunct("#") && !t.IsPunct("::")
	case lexer.Ident:
		return !t.Raw && (t.Text == "else" || t.Text == "as")
	}
	return false
}

func parseStruct(c *cursor) (syntax.Item, error) {
	c.i++
	name, err := c.expectIdent("struct name")
	if err != nil {
		return nil, err
	}
	if err := skipStructBody(c, "struct"); err != nil {
		return nil, err
	}
	return &syntax.Struct{Name: name}, nil
}

// skipStructBody consumes generics, where clauses and the field list of a
// struct or union.
func skipStructBody(c *cursor, what string) error {
	for !c.done() {
		t := c.next()
		if t.IsPunct(";") || t.IsGroup('{') {
			return nil
		}
	}
	return c.errorf("expected fields or `;` for %s", what)
}

func parseEnum(c *cursor) (syntax.Item, error) {
	c.i++
	name, err := c.expectIdent("enum name")
	if err != nil {
		return nil, err
	}
	body, err := scanToBrace(c, "enum variants")
	if err != nil {
		return nil, err
	}
	variants, err := parseVariants(newCursor(c.src, body.Children, groupEnd(c.src, body)))
	if err != nil {
		return nil, err
	}
	return &syntax.Enum{Name: name, Variants: variants}, nil
}

// parseVariants reads the comma-separated variant list of an enum body.
func parseVariants(c *cursor) ([]syntax.Ident, error) {
	var variants []syntax.Ident
	for !c.done() {
		if c.atPunct(",") {
			c.i++
			continue
		}
		if err := skipAttributes(c); err != nil {
			return nil, err
		}
		skipVisibility(c)
		v, err := c.expectIdent("variant name")
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
		for !c.done() && !c.atPunct(",") {
			c.i++
		}
	}
	return variants, nil
}

// scanToBrace consumes header tokens up to and including the first
// top-level brace group.
func scanToBrace(c *cursor, what string) (lexer.Token, error) {
	for !c.done() {
		t := c.next()
		if t.IsGroup('{') {
			return t, nil
		}
		if t.IsPunct(";") {
			c.i--
			break
		}
	}
	return lexer.Token{}, c.errorf("expected `{` for %s", what)
}

func parseTrait(c *cursor) (syntax.Item, error) {
	c.i++
	name, err := c.expectIdent("trait name")
	if err != nil {
		return nil, err
	}
	tr := &syntax.Trait{Name: name}
	for !c.done() {
		t := c.next()
		if t.IsPunct(";") {
			// trait aliases are not tagged
			return nil, nil
		}
		if !t.IsGroup('{') {
			continue
		}
		items, err := parseGroupItems(c, t)
		if err != nil {
			return nil, err
		}
		tr.Fns = fnsOf(items)
		return tr, nil
	}
	return nil, c.errorf("expected body for trait `%s`", name.Name)
}

func parseImpl(c *cursor) (syntax.Item, error) {
	c.i++
	if c.atPunct("<") {
		if err := c.skipAngles(); err != nil {
			return nil, err
		}
	}
	var header []lexer.Token
	var body lexer.Token
	for {
		if c.done() {
			return nil, c.errorf("expected `{` for impl block")
		}
		t := c.next()
		if t.IsGroup('{') {
			body = t
			break
		}
		header = append(header, t)
	}

	header = cutWhere(header)
	im := &syntax.Impl{}
	if traitPart, selfPart, ok := splitFor(header); ok {
		im.Trait = traitSegment(traitPart)
		im.SelfType = typeSegment(selfPart)
	} else {
		im.SelfType = typeSegment(header)
	}

	items, err := parseGroupItems(c, body)
	if err != nil {
		return nil, err
	}
	im.Fns = fnsOf(items)
	return im, nil
}

func parseConst(c *cursor) (syntax.Item, error) {
	c.i++
	skipModeQualifier(c)
	name, err := c.expectIdent("const name")
	if err != nil {
		return nil, err
	}
	if err := skipInitializer(c, "const"); err != nil {
		return nil, err
	}
	return &syntax.Const{Name: name}, nil
}

func parseStatic(c *cursor) (syntax.Item, error) {
	c.i++
	if c.at("mut") {
		c.i++
	}
	skipModeQualifier(c)
	name, err := c.expectIdent("static name")
	if err != nil {
		return nil, err
	}
	if err := skipInitializer(c, "static"); err != nil {
		return nil, err
	}
	return &syntax.Static{Name: name}, nil
}

// skipInitializer consumes the rest of a const or static item. It ends at
// `;`, or at a block body when no `=` initializer precedes it, as in
// `exec const X: u64 ensures X == 1 { 1 }`.
func skipInitializer(c *cursor, what string) error {
	assigned := false
	for !c.done() {
		prev := c.peek(-1)
		t := c.next()
		switch {
		case t.IsPunct(";"):
			return nil
		case t.IsGroup('{') && !assigned:
			if c.atPunct(";") {
				c.i++
			}
			return nil
		case t.IsPunct("=") && isAssignment(prev, c.peek(0)):
			assigned = true
		}
	}
	return c.errorf("expected `;` after %s", what)
}

// isAssignment tells a lone `=` from one that is part of ==, !=, <=, >=,
// ==> or <==>.
func isAssignment(prev, next lexer.Token) bool {
	if prev.Kind == lexer.Punct {
		switch prev.Text {
		case "=", "!", "<", ">":
			return false
		}
	}
	return !next.IsPunct("=") && !next.IsPunct("=>")
}

func parseTypeAlias(c *cursor) (syntax.Item, error) {
	c.i++
	name, err := c.expectIdent("type name")
	if err != nil {
		return nil, err
	}
	if err := c.skipTo("type alias"); err != nil {
		return nil, err
	}
	return &syntax.TypeAlias{Name: name}, nil
}

func parseMod(c *cursor) (syntax.Item, error) {
	c.i++
	name, err := c.expectIdent("module name")
	if err != nil {
		return nil, err
	}
	m := &syntax.Mod{Name: name}
	switch {
	case c.atPunct(";"):
		c.i++
		return m, nil
	case c.atGroup('{'):
		body := c.next()
		items, err := parseGroupItems(c, body)
		if err != nil {
			return nil, err
		}
		m.Items = items
		return m, nil
	}
	return nil, c.errorf("expected `;` or `{` after module `%s`", name.Name)
}

// skipExtern consumes extern crate declarations and extern blocks.
func skipExtern(c *cursor) error {
	c.i++
	if c.at("crate") {
		return c.skipTo("extern crate")
	}
	if c.peek(0).Kind == lexer.Literal {
		c.i++
	}
	_, err := c.expectGroup('{', "extern block")
	return err
}

func parseMacroRules(c *cursor) (syntax.Item, error) {
	c.i += 2
	name, err := c.expectIdent("macro name")
	if err != nil {
		return nil, err
	}
	t := c.peek(0)
	if t.Kind != lexer.Group {
		return nil, c.errorf("expected macro rules for `%s`", name.Name)
	}
	c.i++
	if t.Delim != '{' && c.atPunct(";") {
		c.i++
	}
	return &syntax.MacroRules{Name: name}, nil
}

// skipMacro2 consumes a declarative macro 2.0 definition.
func skipMacro2(c *cursor) error {
	c.i += 2
	if c.atGroup('(') {
		c.i++
	}
	_, err := c.expectGroup('{', "macro body")
	return err
}

func parseBroadcastGroup(c *cursor) (syntax.Item, error) {
	c.i += 2
	name, err := c.expectIdent("broadcast group name")
	if err != nil {
		return nil, err
	}
	if _, err := c.expectGroup('{', "broadcast group members"); err != nil {
		return nil, err
	}
	return &syntax.BroadcastGroup{Name: name}, nil
}

func parseAssumeSpec(c *cursor) (syntax.Item, error) {
	c.i++
	if c.atPunct("<") {
		if err := c.skipAngles(); err != nil {
			return nil, err
		}
	}
	g, err := c.expectGroup('[', "`[` with the specified function")
	if err != nil {
		return nil, err
	}
	target := lastSegment(g.Children)
	if target == nil {
		return nil, c.errorf("expected function path in assume_specification")
	}
	if err := c.skipTo("assume_specification"); err != nil {
		return nil, err
	}
	return &syntax.AssumeSpec{Target: *target}, nil
}

func parseMacroCall(c *cursor) (syntax.Item, error) {
	start := c.peek(0)
	if c.atPunct("::") {
		c.i++
	}
	var path []string
	for {
		seg, err := c.expectIdent("macro path")
		if err != nil {
			return nil, err
		}
		path = append(path, seg.Name)
		if !c.atPunct("::") {
			break
		}
		c.i++
	}
	if !c.atPunct("!") {
		return nil, c.errorf("expected item, found path `%s`", joinPath(path))
	}
	c.i++
	if c.peekIdent(0) {
		c.i++
	}
	g := c.peek(0)
	if g.Kind != lexer.Group {
		return nil, c.errorf("expected macro arguments for `%s!`", joinPath(path))
	}
	c.i++
	if g.Delim != '{' && c.atPunct(";") {
		c.i++
	}
	return &syntax.MacroCall{
		Path:    path,
		Pos:     syntax.Pos{Line: start.Line, Column: start.Column},
		Body:    g.Inner(c.src),
		BodyPos: syntax.Pos{Line: g.Line, Column: g.Column + 1},
	}, nil
}

func fnsOf(items []syntax.Item) []*syntax.Fn {
	var fns []*syntax.Fn
	for _, it := range items {
		if fn, ok := it.(*syntax.Fn); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func joinPath(path []string) string {
	return strings.Join(path, "::")
}
