package tlb

import (
	"regexp"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb/ast"
	"github.com/wippyai/tlb-abi/tlb/internal/parser"
)

const defaultMaxDepth = 1024

// ParamKind says whether a type parameter is a natural or a type.
type ParamKind int

const (
	ParamNat ParamKind = iota
	ParamType
)

// Type is a named TL-B type and its constructors in declaration order.
type Type struct {
	Name         string
	Constructors []*Constructor
	Params       []ParamKind
}

// Constructor is one alternative of a Type.
type Constructor struct {
	Name   string
	Tag    ast.Tag
	Fields []*ast.Field
	Args   []ast.Expr
	Type   *Type
}

// Program is a compiled schema. It is immutable and safe for concurrent use.
type Program struct {
	source   string
	base     *Program
	types    map[string]*Type
	order    []string
	payload  map[string]bool
	maxDepth int
}

type config struct {
	base     *Program
	payload  []string
	maxDepth int
}

// Option configures Compile.
type Option func(*config)

// WithBase makes every type of base visible to the compiled source. Types
// the source declares itself shadow base types of the same name.
func WithBase(base *Program) Option {
	return func(c *config) { c.base = base }
}

// WithPayloadTypes marks types whose decoded values are embeddable payload
// regions rather than records.
func WithPayloadTypes(names ...string) Option {
	return func(c *config) { c.payload = append(c.payload, names...) }
}

// WithMaxDepth bounds the nesting of type applications during decoding.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

var widthName = regexp.MustCompile(`^(uint|int|bits)([0-9]+)$`)

var builtinNames = map[string]bool{
	"Bool":          true,
	"Cell":          true,
	"Any":           true,
	"Grams":         true,
	"MsgAddress":    true,
	"MsgAddressInt": true,
	"MsgAddressExt": true,
	"Bit":           true,
}

var builtinApply = map[string]bool{
	"uint":        true,
	"int":         true,
	"bits":        true,
	"VarUInteger": true,
	"VarInteger":  true,
}

// IsBuiltin reports whether name is a type the interpreter knows without a
// declaration.
func IsBuiltin(name string) bool {
	return builtinNames[name] || builtinApply[name] || widthName.MatchString(name)
}

// Compile parses and checks a TL-B source.
func Compile(source string, opts ...Option) (*Program, error) {
	cfg := config{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	schema, err := parser.Parse(source)
	if err != nil {
		return nil, errors.ParseFailed("schema", err)
	}

	p := &Program{
		source:   source,
		base:     cfg.base,
		types:    make(map[string]*Type),
		payload:  make(map[string]bool),
		maxDepth: cfg.maxDepth,
	}
	if cfg.base != nil {
		for name := range cfg.base.payload {
			p.payload[name] = true
		}
	}
	for _, name := range cfg.payload {
		p.payload[name] = true
	}

	for _, d := range schema.Decls {
		t := p.types[d.Result]
		if t == nil {
			t = &Type{Name: d.Result}
			p.types[d.Result] = t
			p.order = append(p.order, d.Result)
		}
		if len(t.Constructors) > 0 && len(t.Constructors[0].Args) != len(d.Args) {
			return nil, errors.New(errors.PhaseCompile, errors.KindInvalidData).
				TLBType(d.Result).
				Detail("line %d: constructor %s has %d parameters, earlier constructors have %d",
					d.Line, d.Name, len(d.Args), len(t.Constructors[0].Args)).
				Build()
		}
		t.Constructors = append(t.Constructors, &Constructor{
			Name:   d.Name,
			Tag:    d.Tag,
			Fields: d.Fields,
			Args:   d.Args,
			Type:   t,
		})
	}

	for _, name := range p.order {
		t := p.types[name]
		t.Params = paramKinds(t)
		for _, c := range t.Constructors {
			if err := p.check(c); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level program variables in generated code.
func MustCompile(source string, opts ...Option) *Program {
	p, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func paramKinds(t *Type) []ParamKind {
	kinds := make([]ParamKind, len(t.Constructors[0].Args))
	for _, c := range t.Constructors {
		implicitTypes := make(map[string]bool)
		for _, f := range c.Fields {
			if f.Kind != ast.FieldImplicit {
				continue
			}
			if id, ok := f.Type.(*ast.Ident); ok && id.Name == "Type" {
				implicitTypes[f.Name] = true
			}
		}
		for i, a := range c.Args {
			if id, ok := a.(*ast.Ident); ok && implicitTypes[id.Name] {
				kinds[i] = ParamType
			}
		}
	}
	return kinds
}

// check verifies that every name a constructor uses is declared somewhere.
func (p *Program) check(c *Constructor) error {
	scope := make(map[string]bool)
	var collect func(fields []*ast.Field)
	collect = func(fields []*ast.Field) {
		for _, f := range fields {
			if f.Name != "" {
				scope[f.Name] = true
			}
			if a, ok := f.Type.(*ast.Ref); ok {
				if anon, ok := a.X.(*ast.Anon); ok {
					collect(anon.Fields)
				}
			}
			if anon, ok := f.Type.(*ast.Anon); ok {
				collect(anon.Fields)
			}
		}
	}
	collect(c.Fields)

	var bad string
	visit := func(e ast.Expr) {
		if bad != "" {
			return
		}
		switch x := e.(type) {
		case *ast.Ident:
			if !scope[x.Name] && p.Lookup(x.Name) == nil && !IsBuiltin(x.Name) {
				bad = x.Name
			}
		case *ast.Apply:
			if p.Lookup(x.Func) == nil && !builtinApply[x.Func] {
				bad = x.Func
			}
		}
	}
	for _, f := range c.Fields {
		if f.Kind == ast.FieldImplicit {
			continue
		}
		ast.Walk(f.Type, visit)
	}
	for _, a := range c.Args {
		ast.Walk(a, visit)
	}
	if bad != "" {
		return errors.New(errors.PhaseCompile, errors.KindNotFound).
			TLBType(c.Type.Name).
			Detail("constructor %s references undeclared %q", displayName(c.Name), bad).
			Build()
	}

	for i, a := range c.Args {
		if _, isIdent := a.(*ast.Ident); c.Type.Params[i] == ParamType && !isIdent {
			return errors.New(errors.PhaseCompile, errors.KindInvalidData).
				TLBType(c.Type.Name).
				Detail("parameter %d of %s must be a type variable in every constructor", i, c.Type.Name).
				Build()
		}
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "_"
	}
	return name
}

// Lookup returns the named type, preferring this program's own declarations
// over the base.
func (p *Program) Lookup(name string) *Type {
	if t, ok := p.types[name]; ok {
		return t
	}
	if p.base != nil {
		return p.base.Lookup(name)
	}
	return nil
}

// Types lists every visible type: base types first, then the program's own
// types in declaration order. Shadowed base types are omitted.
func (p *Program) Types() []*Type {
	var out []*Type
	if p.base != nil {
		for _, t := range p.base.Types() {
			if _, shadowed := p.types[t.Name]; !shadowed {
				out = append(out, t)
			}
		}
	}
	return append(out, p.LocalTypes()...)
}

// LocalTypes lists the types declared by this program's own source.
func (p *Program) LocalTypes() []*Type {
	out := make([]*Type, len(p.order))
	for i, name := range p.order {
		out[i] = p.types[name]
	}
	return out
}

// Source returns the program's own source text.
func (p *Program) Source() string {
	return p.source
}

// Base returns the program passed to WithBase, if any.
func (p *Program) Base() *Program {
	return p.base
}

// IsPayload reports whether values of the named type decode to *Payload.
func (p *Program) IsPayload(name string) bool {
	return p.payload[name]
}

// PayloadTypes returns the payload type names in no particular order.
func (p *Program) PayloadTypes() []string {
	out := make([]string, 0, len(p.payload))
	for name := range p.payload {
		out = append(out, name)
	}
	return out
}

// Decode reads a value of the named parameterless type from s. On error the
// slice position is unspecified; callers that backtrack take a snapshot.
func (p *Program) Decode(s *cell.Slice, typeName string) (Value, error) {
	t, err := p.root(typeName, errors.PhaseDecode)
	if err != nil {
		return nil, err
	}
	d := &decoder{prog: p}
	v, _, err := d.named(s, t, nil, 0)
	return v, err
}

// Encode writes v as a value of the named parameterless type.
func (p *Program) Encode(b *cell.Builder, typeName string, v Value) error {
	t, err := p.root(typeName, errors.PhaseEncode)
	if err != nil {
		return err
	}
	e := &encoder{prog: p}
	_, err = e.named(b, t, nil, v, 0)
	return err
}

func (p *Program) root(typeName string, phase errors.Phase) (*Type, error) {
	t := p.Lookup(typeName)
	if t == nil {
		return nil, errors.NotFound(phase, "type", typeName)
	}
	if len(t.Params) > 0 {
		return nil, errors.New(phase, errors.KindUnsupported).
			TLBType(typeName).
			Detail("type takes %d parameters", len(t.Params)).
			Build()
	}
	return t, nil
}
