package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Error is a lexical error at a source position.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

type scanner struct {
	src       []byte
	off       int
	line      int
	lineStart int
}

// Tokenize lexes src into a token tree. The returned slice holds the
// top-level tokens; groups carry their contents as children.
func Tokenize(src []byte) ([]Token, error) {
	s := &scanner{src: src, line: 1}
	s.skipShebang()

	type frame struct {
		open   Token
		tokens []Token
	}
	stack := []frame{{}}

	for {
		if err := s.skipTrivia(); err != nil {
			return nil, err
		}
		if s.off >= len(s.src) {
			break
		}
		c := s.src[s.off]
		switch c {
		case '(', '[', '{':
			tok := s.start(Group)
			tok.Delim = c
			s.off++
			stack = append(stack, frame{open: tok})
			continue
		case ')', ']', '}':
			if len(stack) == 1 {
				return nil, s.errorf("unexpected closing delimiter %q", c)
			}
			top := stack[len(stack)-1]
			if want := closer(top.open.Delim); want != c {
				return nil, s.errorf("mismatched closing delimiter %q, expected %q (opened at %d:%d)",
					c, want, top.open.Line, top.open.Column)
			}
			s.off++
			g := top.open
			g.Children = top.tokens
			g.End = s.off
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.tokens = append(parent.tokens, g)
			continue
		}

		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		top := &stack[len(stack)-1]
		top.tokens = append(top.tokens, tok)
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1].open
		return nil, &Error{Line: open.Line, Column: open.Column,
			Msg: fmt.Sprintf("unclosed delimiter %q", open.Delim)}
	}
	return stack[0].tokens, nil
}

func (s *scanner) start(kind Kind) Token {
	return Token{Kind: kind, Offset: s.off, Line: s.line, Column: s.off - s.lineStart + 1}
}

func (s *scanner) errorf(format string, args ...interface{}) error {
	return &Error{Line: s.line, Column: s.off - s.lineStart + 1, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) peek(n int) byte {
	if s.off+n < len(s.src) {
		return s.src[s.off+n]
	}
	return 0
}

// advance moves past n bytes, keeping line bookkeeping current.
func (s *scanner) advance(n int) {
	for i := 0; i < n && s.off < len(s.src); i++ {
		if s.src[s.off] == '\n' {
			s.line++
			s.lineStart = s.off + 1
		}
		s.off++
	}
}

func (s *scanner) skipShebang() {
	if len(s.src) >= 3 && s.src[0] == 0xEF && s.src[1] == 0xBB && s.src[2] == 0xBF {
		s.off = 3
	}
	if len(s.src) < s.off+2 || s.src[s.off] != '#' || s.src[s.off+1] != '!' {
		return
	}
	// #![attr] is an inner attribute, not a shebang.
	for i := s.off + 2; i < len(s.src) && s.src[i] != '\n'; i++ {
		if s.src[i] == ' ' || s.src[i] == '\t' {
			continue
		}
		if s.src[i] == '[' {
			return
		}
		break
	}
	for s.off < len(s.src) && s.src[s.off] != '\n' {
		s.off++
	}
}

func (s *scanner) skipTrivia() error {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == '\n':
			s.advance(1)
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			s.off++
		case c == '/' && s.peek(1) == '/':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.off++
			}
		case c == '/' && s.peek(1) == '*':
			if err := s.skipBlockComment(); err != nil {
				return err
			}
		case c >= utf8.RuneSelf:
			r, size := utf8.DecodeRune(s.src[s.off:])
			if !unicode.IsSpace(r) {
				return nil
			}
			s.off += size
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) skipBlockComment() error {
	line, col := s.line, s.off-s.lineStart+1
	depth := 0
	for s.off < len(s.src) {
		switch {
		case s.src[s.off] == '/' && s.peek(1) == '*':
			depth++
			s.off += 2
		case s.src[s.off] == '*' && s.peek(1) == '/':
			depth--
			s.off += 2
			if depth == 0 {
				return nil
			}
		default:
			s.advance(1)
		}
	}
	return &Error{Line: line, Column: col, Msg: "unterminated block comment"}
}

// next lexes one non-delimiter token at the current offset.
func (s *scanner) next() (Token, error) {
	c := s.src[s.off]

	switch {
	case c == '"':
		return s.quoted(s.start(Literal))
	case c == '\'':
		return s.charOrLifetime()
	case c >= '0' && c <= '9':
		return s.number(), nil
	case isIdentStart(s.src[s.off:]):
		if tok, ok, err := s.prefixedLiteral(); ok || err != nil {
			return tok, err
		}
		return s.ident(), nil
	}

	tok := s.start(Punct)
	switch {
	case c == ':' && s.peek(1) == ':', c == '-' && s.peek(1) == '>', c == '=' && s.peek(1) == '>':
		s.off += 2
	case c >= utf8.RuneSelf:
		_, size := utf8.DecodeRune(s.src[s.off:])
		s.off += size
	default:
		s.off++
	}
	tok.Text = string(s.src[tok.Offset:s.off])
	tok.End = s.off
	return tok, nil
}

// prefixedLiteral handles r"..", r#".."#, b'..', b"..", br"..", c"..", cr"..".
func (s *scanner) prefixedLiteral() (Token, bool, error) {
	tok := s.start(Literal)
	i := 0
	switch s.src[s.off] {
	case 'b':
		i = 1
		if s.peek(1) == '\'' {
			s.off++
			t, err := s.charLiteral(tok)
			return t, true, err
		}
	case 'c':
		i = 1
	case 'r':
	default:
		return Token{}, false, nil
	}
	if s.peek(i) == '"' && i == 1 {
		s.off += i
		t, err := s.quoted(tok)
		return t, true, err
	}
	if s.peek(i) != 'r' {
		return Token{}, false, nil
	}
	// Raw string: r, then hashes, then a quote.
	j := i + 1
	hashes := 0
	for s.peek(j) == '#' {
		hashes++
		j++
	}
	if s.peek(j) != '"' {
		return Token{}, false, nil
	}
	s.off += j
	t, err := s.raw(tok, hashes)
	return t, true, err
}

// quoted lexes a "..." literal starting at the current quote.
func (s *scanner) quoted(tok Token) (Token, error) {
	s.off++
	for s.off < len(s.src) {
		switch s.src[s.off] {
		case '\\':
			s.advance(2)
		case '"':
			s.off++
			s.suffix()
			tok.Text = string(s.src[tok.Offset:s.off])
			tok.End = s.off
			return tok, nil
		default:
			s.advance(1)
		}
	}
	return Token{}, &Error{Line: tok.Line, Column: tok.Column, Msg: "unterminated string literal"}
}

// raw lexes the remainder of a raw string starting at its opening quote.
func (s *scanner) raw(tok Token, hashes int) (Token, error) {
	s.off++
	for s.off < len(s.src) {
		if s.src[s.off] == '"' {
			n := 0
			for n < hashes && s.peek(1+n) == '#' {
				n++
			}
			if n == hashes {
				s.off += 1 + hashes
				s.suffix()
				tok.Text = string(s.src[tok.Offset:s.off])
				tok.End = s.off
				return tok, nil
			}
		}
		s.advance(1)
	}
	return Token{}, &Error{Line: tok.Line, Column: tok.Column, Msg: "unterminated raw string literal"}
}

func (s *scanner) charOrLifetime() (Token, error) {
	tok := s.start(Literal)
	if s.peek(1) == '\\' {
		return s.charLiteral(tok)
	}
	r, size := utf8.DecodeRune(s.src[min(s.off+1, len(s.src)):])
	if s.off+1 < len(s.src) && s.peek(1+size) == '\'' && r != '\'' {
		return s.charLiteral(tok)
	}
	if s.off+1 < len(s.src) && isIdentStart(s.src[s.off+1:]) {
		tok.Kind = Lifetime
		s.off++
		s.identTail()
		tok.Text = string(s.src[tok.Offset:s.off])
		tok.End = s.off
		return tok, nil
	}
	return Token{}, s.errorf("unterminated character literal")
}

// charLiteral lexes '..' starting at the current quote.
func (s *scanner) charLiteral(tok Token) (Token, error) {
	s.off++
	for s.off < len(s.src) && s.src[s.off] != '\n' {
		switch s.src[s.off] {
		case '\\':
			s.off += 2
		case '\'':
			s.off++
			tok.Text = string(s.src[tok.Offset:s.off])
			tok.End = s.off
			return tok, nil
		default:
			s.off++
		}
	}
	return Token{}, &Error{Line: tok.Line, Column: tok.Column, Msg: "unterminated character literal"}
}

func (s *scanner) number() Token {
	tok := s.start(Literal)
	hex := s.src[s.off] == '0' && (s.peek(1) == 'x' || s.peek(1) == 'X')
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case isAlnum(c):
			s.off++
			if !hex && (c == 'e' || c == 'E') && (s.peek(0) == '+' || s.peek(0) == '-') {
				s.off++
			}
		case c == '.' && s.peek(1) >= '0' && s.peek(1) <= '9':
			s.off++
		default:
			tok.Text = string(s.src[tok.Offset:s.off])
			tok.End = s.off
			return tok
		}
	}
	tok.Text = string(s.src[tok.Offset:s.off])
	tok.End = s.off
	return tok
}

func (s *scanner) ident() Token {
	tok := s.start(Ident)
	if s.src[s.off] == 'r' && s.peek(1) == '#' && s.off+2 < len(s.src) && isIdentStart(s.src[s.off+2:]) {
		s.off += 2
		tok.Raw = true
	}
	nameStart := s.off
	s.identTail()
	tok.Text = string(s.src[nameStart:s.off])
	tok.End = s.off
	return tok
}

func (s *scanner) identTail() {
	for s.off < len(s.src) {
		c := s.src[s.off]
		if isAlnum(c) {
			s.off++
			continue
		}
		if c < utf8.RuneSelf {
			return
		}
		r, size := utf8.DecodeRune(s.src[s.off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) {
			return
		}
		s.off += size
	}
}

// suffix consumes a literal suffix such as the u8 in b'a'u8.
func (s *scanner) suffix() {
	if s.off < len(s.src) && isIdentStart(s.src[s.off:]) {
		s.identTail()
	}
}

func isIdentStart(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	c := b[0]
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	if c < utf8.RuneSelf {
		return false
	}
	r, _ := utf8.DecodeRune(b)
	return unicode.IsLetter(r)
}

func isAlnum(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
