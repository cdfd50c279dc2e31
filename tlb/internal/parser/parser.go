package parser

import (
	"fmt"
	"strconv"

	"github.com/wippyai/tlb-abi/tlb/ast"
	"github.com/wippyai/tlb-abi/tlb/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse reads constructor declarations until the input is exhausted.
func (p *Parser) Parse() (*ast.Schema, error) {
	schema := &ast.Schema{}
	for p.peek() != nil {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		schema.Decls = append(schema.Decls, d)
	}
	return schema, nil
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) is(typ token.Type) bool {
	t := p.peek()
	return t != nil && t.Type == typ
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, fmt.Errorf("line %d: expected %v, got %q", t.Line, typ, t.Value)
	}
	return t, nil
}

func (p *Parser) parseDecl() (*ast.Decl, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	d := &ast.Decl{Name: name.Value, Line: name.Line}
	if d.Name == "_" {
		d.Name = ""
	}

	if p.is(token.Tag) {
		tag, err := parseTag(p.next())
		if err != nil {
			return nil, err
		}
		d.Tag = tag
	}

	d.Fields, err = p.parseFields(token.Equals)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}

	result, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	d.Result = result.Value

	for !p.is(token.Semicolon) {
		if p.peek() == nil {
			return nil, fmt.Errorf("line %d: unterminated declaration of %s", d.Line, d.Result)
		}
		arg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		d.Args = append(d.Args, arg)
	}
	p.next()
	return d, nil
}

// parseFields reads constructor body elements up to, not including, end.
func (p *Parser) parseFields(end token.Type) ([]*ast.Field, error) {
	var fields []*ast.Field
	for !p.is(end) {
		t := p.peek()
		if t == nil {
			return nil, fmt.Errorf("unexpected end of input, expected %v", end)
		}

		if t.Type == token.LBrace {
			f, err := p.parseBrace()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
			continue
		}

		f := &ast.Field{Kind: ast.FieldRegular, Line: t.Line}
		if t.Type == token.Ident {
			if colon := p.peekAt(1); colon != nil && colon.Type == token.Colon {
				f.Name = t.Value
				p.pos += 2
			}
		}
		typ, err := p.parseFieldType()
		if err != nil {
			return nil, err
		}
		f.Type = typ
		fields = append(fields, f)
	}
	return fields, nil
}

func (p *Parser) parseBrace() (*ast.Field, error) {
	open := p.next()
	f := &ast.Field{Line: open.Line}

	name, colon := p.peek(), p.peekAt(1)
	if name != nil && colon != nil && name.Type == token.Ident && colon.Type == token.Colon {
		p.pos += 2
		typ, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		f.Kind = ast.FieldImplicit
		f.Name = name.Value
		f.Type = typ
	} else {
		rel, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		if b, ok := rel.(*ast.Binary); !ok || !isRelation(b.Op) {
			return nil, fmt.Errorf("line %d: constraint %s is not a relation", open.Line, rel)
		}
		f.Kind = ast.FieldConstraint
		f.Type = rel
	}

	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *Parser) parseFieldType() (ast.Expr, error) {
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.is(token.Dot) || p.is(token.Question) {
		return p.parseCondTail(t)
	}
	return t, nil
}

func (p *Parser) parseCondTail(cond ast.Expr) (ast.Expr, error) {
	c := &ast.Cond{Cond: cond, Bit: -1}
	if p.is(token.Dot) {
		p.next()
		n, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		bit, err := strconv.Atoi(n.Value)
		if err != nil || bit > 63 {
			return nil, fmt.Errorf("line %d: invalid bit index %q", n.Line, n.Value)
		}
		c.Bit = bit
	}
	if _, err := p.expect(token.Question); err != nil {
		return nil, err
	}
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	c.X = x
	return c, nil
}

func (p *Parser) parseCompare() (ast.Expr, error) {
	x, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t != nil && isRelation(t.Value) {
		p.next()
		y, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: t.Value, X: x, Y: y}, nil
	}
	return x, nil
}

func (p *Parser) parseSum() (ast.Expr, error) {
	x, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.is(token.Plus) {
		p.next()
		y, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: "+", X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseProduct() (ast.Expr, error) {
	x, err := p.parseApp()
	if err != nil {
		return nil, err
	}
	for p.is(token.Star) {
		p.next()
		y, err := p.parseApp()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{Op: "*", X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseApp() (ast.Expr, error) {
	t := p.peek()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected expression")
	}

	switch t.Type {
	case token.DoubleHash:
		p.next()
		w, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.NatWidth{Width: w}, nil
	case token.HashLe:
		p.next()
		m, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.NatLeq{Max: m}, nil
	case token.HashLt:
		p.next()
		m, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.NatLess{Bound: m}, nil
	}

	head, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if id, ok := head.(*ast.Ident); ok && p.startsTerm() {
		app := &ast.Apply{Func: id.Name}
		for p.startsTerm() {
			arg, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			app.Args = append(app.Args, arg)
		}
		head = app
	}
	if p.is(token.Dot) || p.is(token.Question) {
		return p.parseCondTail(head)
	}
	return head, nil
}

func (p *Parser) startsTerm() bool {
	t := p.peek()
	if t == nil {
		return false
	}
	switch t.Type {
	case token.Ident, token.Number, token.LParen, token.Caret, token.Tilde, token.LBracket, token.Hash:
		return true
	}
	return false
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected type expression")
	}

	switch t.Type {
	case token.Ident:
		return &ast.Ident{Name: t.Value}, nil
	case token.Number:
		v, err := strconv.ParseUint(t.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid number: %s", t.Line, t.Value)
		}
		return &ast.Number{Value: v}, nil
	case token.Hash:
		return &ast.NatType{}, nil
	case token.Caret:
		x, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.Ref{X: x}, nil
	case token.Tilde:
		x, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.Tilde{X: x}, nil
	case token.DoubleHash, token.HashLe, token.HashLt:
		p.pos--
		return p.parseApp()
	case token.LParen:
		e, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBracket:
		fields, err := p.parseFields(token.RBracket)
		if err != nil {
			return nil, err
		}
		p.next()
		return &ast.Anon{Fields: fields}, nil
	}
	return nil, fmt.Errorf("line %d: unexpected %v %q", t.Line, t.Type, t.Value)
}

func isRelation(op string) bool {
	switch op {
	case "=", "<=", "<", ">=", ">":
		return true
	}
	return false
}
