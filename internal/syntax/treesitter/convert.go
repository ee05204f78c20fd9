//go:build cgo

package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"verus-etags/internal/syntax"
)

type converter struct {
	src []byte
}

// items converts the declarations directly inside a source_file or
// declaration_list.
func (c *converter) items(parent *sitter.Node) []syntax.Item {
	var out []syntax.Item
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		n := parent.NamedChild(i)
		if n == nil {
			continue
		}
		if n.Type() == "expression_statement" && n.NamedChildCount() == 1 {
			n = n.NamedChild(0)
		}
		if it := c.item(n, true); it != nil {
			out = append(out, it)
		}
	}
	return out
}

// item converts one declaration node. Macro invocations are only kept at
// item level; inside function bodies they are ordinary expressions.
func (c *converter) item(n *sitter.Node, itemLevel bool) syntax.Item {
	switch n.Type() {
	case "function_item", "function_signature_item":
		return c.fn(n)
	case "struct_item":
		if name := c.ident(n.ChildByFieldName("name")); name != nil {
			return &syntax.Struct{Name: *name}
		}
	case "enum_item":
		return c.enum(n)
	case "trait_item":
		name := c.ident(n.ChildByFieldName("name"))
		if name == nil {
			return nil
		}
		return &syntax.Trait{Name: *name, Fns: c.fns(n.ChildByFieldName("body"))}
	case "impl_item":
		return c.impl(n)
	case "const_item":
		if name := c.ident(n.ChildByFieldName("name")); name != nil {
			return &syntax.Const{Name: *name}
		}
	case "static_item":
		if name := c.ident(n.ChildByFieldName("name")); name != nil {
			return &syntax.Static{Name: *name}
		}
	case "type_item":
		if name := c.ident(n.ChildByFieldName("name")); name != nil {
			return &syntax.TypeAlias{Name: *name}
		}
	case "mod_item":
		name := c.ident(n.ChildByFieldName("name"))
		if name == nil {
			return nil
		}
		m := &syntax.Mod{Name: *name}
		if body := n.ChildByFieldName("body"); body != nil {
			m.Items = c.items(body)
		}
		return m
	case "macro_definition":
		if name := c.ident(n.ChildByFieldName("name")); name != nil {
			return &syntax.MacroRules{Name: *name}
		}
	case "macro_invocation":
		if itemLevel {
			return c.macroCall(n)
		}
	}
	return nil
}

func (c *converter) ident(n *sitter.Node) *syntax.Ident {
	if n == nil {
		return nil
	}
	return &syntax.Ident{Name: n.Content(c.src), Pos: pos(n)}
}

func (c *converter) fn(n *sitter.Node) syntax.Item {
	name := c.ident(n.ChildByFieldName("name"))
	if name == nil {
		return nil
	}
	fn := &syntax.Fn{Name: *name}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = c.nested(body)
	}
	return fn
}

// nested finds the items declared anywhere below a function body.
func (c *converter) nested(n *sitter.Node) []syntax.Item {
	var out []syntax.Item
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "token_tree" {
			continue
		}
		if it := c.item(child, false); it != nil {
			out = append(out, it)
			continue
		}
		out = append(out, c.nested(child)...)
	}
	return out
}

func (c *converter) enum(n *sitter.Node) syntax.Item {
	name := c.ident(n.ChildByFieldName("name"))
	if name == nil {
		return nil
	}
	e := &syntax.Enum{Name: *name}
	body := n.ChildByFieldName("body")
	if body == nil {
		return e
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		v := body.NamedChild(i)
		if v == nil || v.Type() != "enum_variant" {
			continue
		}
		if id := c.ident(v.ChildByFieldName("name")); id != nil {
			e.Variants = append(e.Variants, *id)
		}
	}
	return e
}

func (c *converter) fns(body *sitter.Node) []*syntax.Fn {
	if body == nil {
		return nil
	}
	var out []*syntax.Fn
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_item", "function_signature_item":
			if fn, ok := c.fn(child).(*syntax.Fn); ok {
				out = append(out, fn)
			}
		}
	}
	return out
}

func (c *converter) impl(n *sitter.Node) syntax.Item {
	im := &syntax.Impl{
		Trait:    c.segment(n.ChildByFieldName("trait")),
		SelfType: c.segment(n.ChildByFieldName("type")),
		Fns:      c.fns(n.ChildByFieldName("body")),
	}
	return im
}

// segment returns the last path segment of a path type, or nil for any
// other type.
func (c *converter) segment(n *sitter.Node) *syntax.Ident {
	for n != nil {
		switch n.Type() {
		case "type_identifier", "primitive_type", "identifier":
			return c.ident(n)
		case "scoped_type_identifier", "scoped_identifier":
			n = n.ChildByFieldName("name")
		case "generic_type":
			n = n.ChildByFieldName("type")
		default:
			return nil
		}
	}
	return nil
}

func (c *converter) macroCall(n *sitter.Node) syntax.Item {
	var body *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil && child.Type() == "token_tree" {
			body = child
		}
	}
	if body == nil {
		return nil
	}
	call := &syntax.MacroCall{
		Path: c.path(n.ChildByFieldName("macro")),
		Pos:  pos(n),
	}
	if start, end := body.StartByte()+1, body.EndByte()-1; end >= start {
		call.Body = string(c.src[start:end])
	}
	bp := pos(body)
	call.BodyPos = syntax.Pos{Line: bp.Line, Column: bp.Column + 1}
	return call
}

// path flattens a macro name such as vstd::prelude::verus.
func (c *converter) path(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	if n.Type() != "scoped_identifier" {
		return []string{n.Content(c.src)}
	}
	var out []string
	if p := n.ChildByFieldName("path"); p != nil {
		out = c.path(p)
	}
	if name := n.ChildByFieldName("name"); name != nil {
		out = append(out, name.Content(c.src))
	}
	return out
}
