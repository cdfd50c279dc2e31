// Package ast holds the syntax tree of a TL-B schema.
package ast

import (
	"strconv"
	"strings"
)

// Schema is a parsed TL-B source: constructor declarations in source order.
type Schema struct {
	Decls []*Decl
}

// Tag is a constructor tag. Len 0 means the constructor has no tag bits.
type Tag struct {
	Bits uint64
	Len  int
}

func (t Tag) String() string {
	if t.Len == 0 {
		return "#_"
	}
	if t.Len%4 == 0 {
		s := strconv.FormatUint(t.Bits, 16)
		return "#" + strings.Repeat("0", t.Len/4-len(s)) + s
	}
	s := strconv.FormatUint(t.Bits, 2)
	return "$" + strings.Repeat("0", t.Len-len(s)) + s
}

// Decl is one constructor: name#tag fields = Result args;
type Decl struct {
	Name   string
	Tag    Tag
	Fields []*Field
	Result string
	Args   []Expr
	Line   int
}

type FieldKind int

const (
	FieldRegular    FieldKind = iota // name:Type or an anonymous Type
	FieldImplicit                    // {name:Type} or {name:#}
	FieldConstraint                  // {a <= b}, {n = (~m) + l}
)

// Field is an element of a constructor body.
type Field struct {
	Kind FieldKind
	Name string // empty for anonymous and constraint fields
	Type Expr   // field or implicit parameter type; the relation for constraints
	Line int
}

// Expr is a type or natural-number expression. Which one an expression is
// depends on where it is used.
type Expr interface {
	expr()
	String() string
}

// Ident names a type, a type parameter or a natural variable.
type Ident struct {
	Name string
}

// Number is a natural literal.
type Number struct {
	Value uint64
}

// Apply is a type application such as "Hashmap n X" or "uint 8".
type Apply struct {
	Func string
	Args []Expr
}

// Tilde marks an output natural: ~n.
type Tilde struct {
	X Expr
}

// Binary is an arithmetic or relational expression. "*" with a type on the
// right is an array type.
type Binary struct {
	Op   string
	X, Y Expr
}

// Ref is a cell reference: ^T.
type Ref struct {
	X Expr
}

// Anon is an anonymous constructor: [ fields ].
type Anon struct {
	Fields []*Field
}

// Cond is a conditional field: n?T, or n.bit?T when Bit >= 0.
type Cond struct {
	Cond Expr
	Bit  int
	X    Expr
}

// NatType is "#", an unsigned 32-bit natural.
type NatType struct{}

// NatWidth is "## n", a natural stored in n bits.
type NatWidth struct {
	Width Expr
}

// NatLeq is "#<= m".
type NatLeq struct {
	Max Expr
}

// NatLess is "#< m".
type NatLess struct {
	Bound Expr
}

func (*Ident) expr()    {}
func (*Number) expr()   {}
func (*Apply) expr()    {}
func (*Tilde) expr()    {}
func (*Binary) expr()   {}
func (*Ref) expr()      {}
func (*Anon) expr()     {}
func (*Cond) expr()     {}
func (*NatType) expr()  {}
func (*NatWidth) expr() {}
func (*NatLeq) expr()   {}
func (*NatLess) expr()  {}

func (e *Ident) String() string  { return e.Name }
func (e *Number) String() string { return strconv.FormatUint(e.Value, 10) }
func (e *Tilde) String() string  { return "~" + e.X.String() }
func (e *Ref) String() string    { return "^" + e.X.String() }
func (e *NatType) String() string {
	return "#"
}
func (e *NatWidth) String() string { return "(## " + e.Width.String() + ")" }
func (e *NatLeq) String() string   { return "(#<= " + e.Max.String() + ")" }
func (e *NatLess) String() string  { return "(#< " + e.Bound.String() + ")" }

func (e *Apply) String() string {
	parts := make([]string, 0, len(e.Args)+1)
	parts = append(parts, e.Func)
	for _, a := range e.Args {
		parts = append(parts, a.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (e *Binary) String() string {
	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

func (e *Anon) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (e *Cond) String() string {
	if e.Bit >= 0 {
		return e.Cond.String() + "." + strconv.Itoa(e.Bit) + "?" + e.X.String()
	}
	return e.Cond.String() + "?" + e.X.String()
}

func (f *Field) String() string {
	switch f.Kind {
	case FieldImplicit:
		return "{" + f.Name + ":" + f.Type.String() + "}"
	case FieldConstraint:
		return "{" + f.Type.String() + "}"
	}
	if f.Name == "" {
		return f.Type.String()
	}
	return f.Name + ":" + f.Type.String()
}

// Walk calls fn for e and every sub-expression, depth first.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *Apply:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case *Tilde:
		Walk(x.X, fn)
	case *Binary:
		Walk(x.X, fn)
		Walk(x.Y, fn)
	case *Ref:
		Walk(x.X, fn)
	case *Anon:
		for _, f := range x.Fields {
			Walk(f.Type, fn)
		}
	case *Cond:
		Walk(x.Cond, fn)
		Walk(x.X, fn)
	case *NatWidth:
		Walk(x.Width, fn)
	case *NatLeq:
		Walk(x.Max, fn)
	case *NatLess:
		Walk(x.Bound, fn)
	}
}
