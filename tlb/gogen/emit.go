package gogen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb"
	"github.com/wippyai/tlb-abi/tlb/ast"
)

const (
	importTLB  = "github.com/wippyai/tlb-abi/tlb"
	importCell = "github.com/wippyai/tlb-abi/cell"
	importBig  = "math/big"
)

// Options controls the emitted file.
type Options struct {
	// Package is the package clause of the file.
	Package string

	// ProgramName is the package-level variable holding the compiled
	// program. It defaults to "program".
	ProgramName string

	// BaseName is an expression passed to tlb.WithBase, or empty.
	BaseName string

	// Header is emitted verbatim above the package clause.
	Header string
}

// Emit renders Go source for every type visible in prog: a struct per
// type, and Load, Decode and Store functions for types without parameters.
// The file embeds prog's own source and compiles it at init time.
func Emit(prog *tlb.Program, opts Options) ([]byte, error) {
	if opts.Package == "" {
		return nil, errors.InvalidInput(errors.PhaseCompile, "package name is required")
	}
	if opts.ProgramName == "" {
		opts.ProgramName = "program"
	}

	e := &emitter{
		prog:    prog,
		opts:    opts,
		imports: map[string]bool{importTLB: true},
		names:   make(map[string]string),
	}
	for _, t := range prog.Types() {
		for _, name := range Symbols(t, TypeName(t.Name), prog.IsPayload(t.Name)) {
			if prev, dup := e.names[name]; dup {
				return nil, errors.New(errors.PhaseCompile, errors.KindInvalidData).
					TLBType(t.Name).
					Detail("Go name %s is also derived from TL-B type %s", name, prev).
					Build()
			}
			e.names[name] = t.Name
		}
		e.typ(t)
	}

	var out bytes.Buffer
	if opts.Header != "" {
		out.WriteString(opts.Header)
		out.WriteString("\n\n")
	}
	fmt.Fprintf(&out, "package %s\n\n", opts.Package)
	e.writeImports(&out)
	e.writeProgram(&out)
	out.Write(e.body.Bytes())

	src, err := format.Source(out.Bytes())
	if err != nil {
		return out.Bytes(), errors.Wrap(errors.PhaseCompile, errors.KindInvalidData, err, "format generated source")
	}
	return src, nil
}

// Symbols lists the top-level Go names Emit declares for t when its Go type
// is called goName.
func Symbols(t *tlb.Type, goName string, payload bool) []string {
	names := []string{goName}
	if !payload && len(t.Constructors) > 1 {
		for i, c := range t.Constructors {
			names = append(names, VariantName(goName, c.Name, i))
		}
	}
	if len(t.Params) == 0 {
		names = append(names, LoaderName(goName), DecoderName(goName), StorerName(goName))
	}
	return names
}

type emitter struct {
	prog    *tlb.Program
	opts    Options
	body    bytes.Buffer
	imports map[string]bool
	names   map[string]string
}

func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(&e.body, format, args...)
}

func (e *emitter) writeImports(out *bytes.Buffer) {
	paths := make([]string, 0, len(e.imports))
	for p := range e.imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out.WriteString("import (\n")
	for _, p := range paths {
		fmt.Fprintf(out, "\t%q\n", p)
	}
	out.WriteString(")\n\n")
}

func (e *emitter) writeProgram(out *bytes.Buffer) {
	fmt.Fprintf(out, "const source = %s\n\n", quoteSource(e.prog.Source()))

	var opts []string
	if e.opts.BaseName != "" {
		opts = append(opts, fmt.Sprintf("tlb.WithBase(%s)", e.opts.BaseName))
	}
	var payload []string
	for _, t := range e.prog.LocalTypes() {
		if e.prog.IsPayload(t.Name) {
			payload = append(payload, strconv.Quote(t.Name))
		}
	}
	if len(payload) > 0 && e.opts.BaseName == "" {
		opts = append(opts, fmt.Sprintf("tlb.WithPayloadTypes(%s)", strings.Join(payload, ", ")))
	}

	args := append([]string{"source"}, opts...)
	fmt.Fprintf(out, "var %s = tlb.MustCompile(%s)\n\n", e.opts.ProgramName, strings.Join(args, ", "))
}

func quoteSource(s string) string {
	if !strings.Contains(s, "`") {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}

func (e *emitter) typ(t *tlb.Type) {
	goName := TypeName(t.Name)

	switch {
	case e.prog.IsPayload(t.Name):
		e.printf("// %s is an embeddable payload region of TL-B type %s.\n", goName, t.Name)
		e.printf("type %s = tlb.Payload\n\n", goName)

	case len(t.Constructors) == 1:
		c := t.Constructors[0]
		e.printf("// %s is TL-B type %s.\n", goName, t.Name)
		e.printf("type %s struct {\n", goName)
		e.constructorFields(c)
		e.printf("}\n\n")

	default:
		e.printf("// %s is TL-B type %s. Kind names the decoded constructor and\n", goName, t.Name)
		e.printf("// the matching variant field is set.\n")
		e.printf("type %s struct {\n\tKind string `tlb:\",kind\"`\n", goName)
		for i, c := range t.Constructors {
			field := ConstructorName(c.Name, i)
			e.printf("\t%s *%s `tlb:%q`\n", field, VariantName(goName, c.Name, i), c.Name+",variant")
		}
		e.printf("}\n\n")
		for i, c := range t.Constructors {
			e.printf("type %s struct {\n", VariantName(goName, c.Name, i))
			e.constructorFields(c)
			e.printf("}\n\n")
		}
	}

	if len(t.Params) == 0 {
		e.loaders(t, goName)
	}
}

func (e *emitter) constructorFields(c *tlb.Constructor) {
	e.printf("\t_ struct{} `tlb:%q`\n", c.Name+",constructor")
	e.fields(&e.body, c.Fields, typeVars(c))
}

func typeVars(c *tlb.Constructor) map[string]bool {
	vars := make(map[string]bool)
	for _, f := range c.Fields {
		if f.Kind != ast.FieldImplicit {
			continue
		}
		if id, ok := f.Type.(*ast.Ident); ok && id.Name == "Type" {
			vars[f.Name] = true
		}
	}
	return vars
}

func (e *emitter) fields(w *bytes.Buffer, fields []*ast.Field, vars map[string]bool) {
	used := make(map[string]bool)
	anon := 0
	for i, f := range fields {
		if f.Kind != ast.FieldRegular {
			continue
		}
		name := f.Name
		if name == "" {
			name = "anon" + strconv.Itoa(anon)
			anon++
		}
		goName := FieldName(name, i)
		if used[goName] {
			goName += strconv.Itoa(i)
		}
		used[goName] = true
		fmt.Fprintf(w, "\t%s %s `tlb:%q`\n", goName, e.goType(f.Type, vars), name)
	}
}

func (e *emitter) goType(x ast.Expr, vars map[string]bool) string {
	switch t := x.(type) {
	case *ast.Ident:
		if vars[t.Name] {
			return "tlb.Value"
		}
		if typ := e.prog.Lookup(t.Name); typ != nil {
			return e.named(typ)
		}
		return e.builtin(t.Name, nil)

	case *ast.Apply:
		if typ := e.prog.Lookup(t.Func); typ != nil {
			return e.named(typ)
		}
		return e.builtin(t.Func, t.Args)

	case *ast.NatType, *ast.NatLeq, *ast.NatLess:
		return "uint64"

	case *ast.NatWidth:
		return e.width("uint", t.Width)

	case *ast.Ref:
		if id, ok := t.X.(*ast.Ident); ok && (id.Name == "Cell" || id.Name == "Any") && !vars[id.Name] && e.prog.Lookup(id.Name) == nil {
			return e.cellType()
		}
		return e.goType(t.X, vars)

	case *ast.Anon:
		var w bytes.Buffer
		w.WriteString("struct {\n")
		e.fields(&w, t.Fields, vars)
		w.WriteString("}")
		return w.String()

	case *ast.Cond:
		inner := e.goType(t.X, vars)
		if strings.HasPrefix(inner, "*") || strings.HasPrefix(inner, "[]") || inner == "tlb.Value" {
			return inner
		}
		return "*" + inner

	case *ast.Binary:
		if id, ok := t.Y.(*ast.Ident); ok && id.Name == "Bit" && !vars["Bit"] {
			return e.bitString()
		}
		return "[]" + e.goType(t.Y, vars)
	}
	return "tlb.Value"
}

func (e *emitter) named(t *tlb.Type) string {
	if e.prog.IsPayload(t.Name) {
		return "*tlb.Payload"
	}
	return TypeName(t.Name)
}

func (e *emitter) builtin(name string, args []ast.Expr) string {
	switch name {
	case "Bool":
		return "bool"
	case "Bit":
		return "uint64"
	case "Cell", "Any":
		return e.cellType()
	case "Grams", "VarUInteger", "VarInteger":
		return e.bigInt()
	case "MsgAddress", "MsgAddressInt", "MsgAddressExt":
		e.imports[importCell] = true
		return "cell.Address"
	case "uint", "int", "bits":
		if len(args) == 1 {
			return e.width(name, args[0])
		}
	}
	for _, prefix := range []string{"uint", "int", "bits"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			if n, err := strconv.ParseUint(rest, 10, 32); err == nil {
				return e.width(prefix, &ast.Number{Value: n})
			}
		}
	}
	return "tlb.Value"
}

func (e *emitter) width(kind string, n ast.Expr) string {
	if kind == "bits" {
		return e.bitString()
	}
	num, ok := n.(*ast.Number)
	if !ok {
		return "tlb.Value"
	}
	if num.Value > 64 {
		return e.bigInt()
	}
	if kind == "int" {
		return "int64"
	}
	return "uint64"
}

func (e *emitter) cellType() string {
	e.imports[importCell] = true
	return "*cell.Cell"
}

func (e *emitter) bitString() string {
	e.imports[importCell] = true
	return "cell.BitString"
}

func (e *emitter) bigInt() string {
	e.imports[importBig] = true
	return "*big.Int"
}

func (e *emitter) loaders(t *tlb.Type, goName string) {
	e.imports[importCell] = true
	prog := e.opts.ProgramName
	load, decode, store := LoaderName(goName), DecoderName(goName), StorerName(goName)

	e.printf("// %s decodes a %s from s.\n", load, t.Name)
	e.printf("func %s(s *cell.Slice) (*%s, error) {\n", load, goName)
	e.printf("\tv, err := %s.Decode(s, %q)\n", prog, t.Name)
	e.printf("\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	e.printf("\tvar out *%s\n", goName)
	e.printf("\tif err := tlb.Unmarshal(v, &out); err != nil {\n\t\treturn nil, err\n\t}\n")
	e.printf("\treturn out, nil\n}\n\n")

	e.printf("// %s decodes a %s from s into a value tree.\n", decode, t.Name)
	e.printf("func %s(s *cell.Slice) (tlb.Value, error) {\n", decode)
	e.printf("\treturn %s.Decode(s, %q)\n}\n\n", prog, t.Name)

	e.printf("// %s encodes v into b.\n", store)
	e.printf("func %s(b *cell.Builder, v *%s) error {\n", store, goName)
	e.printf("\ttv, err := tlb.Marshal(v)\n")
	e.printf("\tif err != nil {\n\t\treturn err\n\t}\n")
	e.printf("\treturn %s.Encode(b, %q, tv)\n}\n\n", prog, t.Name)
}
