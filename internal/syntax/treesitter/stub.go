//go:build !cgo

package treesitter

import (
	"context"

	"verus-etags/internal/syntax"
)

// Parser is a stub used when cgo is not available. Every parse reports
// ErrUnavailable so a syntax.Chain moves on.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Name implements syntax.Parser.
func (*Parser) Name() string { return Name }

// Parse implements syntax.Parser.
func (*Parser) Parse(_ context.Context, _ []byte) (*syntax.File, error) {
	return nil, ErrUnavailable
}

// Available reports whether the grammar is compiled in.
func Available() bool { return false }
