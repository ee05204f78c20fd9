//go:build cgo

package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"verus-etags/internal/syntax"
)

// Parser wraps the tree-sitter Rust grammar. It holds no tree-sitter state,
// so one Parser may be shared by concurrent workers.
type Parser struct {
	lang *sitter.Language
}

// New creates a Parser.
func New() *Parser {
	return &Parser{lang: rust.GetLanguage()}
}

// Name implements syntax.Parser.
func (*Parser) Name() string { return Name }

// Available reports whether the grammar is compiled in.
func Available() bool { return true }

// Parse implements syntax.Parser. A tree containing any error or missing
// node is rejected.
func (p *Parser) Parse(ctx context.Context, src []byte) (*syntax.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root)
	}
	c := &converter{src: src}
	return &syntax.File{Items: c.items(root)}, nil
}

func firstError(n *sitter.Node) error {
	if n.IsError() || n.IsMissing() {
		return &SyntaxError{Pos: pos(n), Missing: n.IsMissing()}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstError(child)
		}
	}
	return &SyntaxError{Pos: pos(n)}
}

func pos(n *sitter.Node) syntax.Pos {
	p := n.StartPoint()
	return syntax.Pos{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}
