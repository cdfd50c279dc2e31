package compiler

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb"
	"github.com/wippyai/tlb-abi/tlb/gogen"
)

// Unit is one compiled entry.
type Unit struct {
	Entry Entry

	// Export is the Go name of the entry's result type. Its loader is
	// Load<Export>.
	Export string

	// Package is the package clause of the generated decoder and Dir its
	// slash-separated location below the output root.
	Package string
	Dir     string

	Code []byte

	// Program and TLBType decode the entry in process.
	Program *tlb.Program
	TLBType string
}

// Decode reads the entry's result type from s.
func (u *Unit) Decode(s *cell.Slice) (tlb.Value, error) {
	return u.Program.Decode(s, u.TLBType)
}

// compileEntry compiles one entry over the prelude and rewrites the emitted
// package so it depends on the globals package instead of redeclaring it.
func compileEntry(g *GlobalRegistry, types string, e Entry, modulePath string) (*Unit, error) {
	source := joinSource(types, e.Fragment)
	prog, err := tlb.Compile(source, tlb.WithBase(g.Program))
	if err != nil {
		return nil, errors.CompilerFailure(e.Group, e.Name, err)
	}
	result := prog.Lookup(e.ResultType)
	if result == nil {
		return nil, errors.SchemaMalformed(e.Group, e.Name, "result type "+e.ResultType+" not declared")
	}
	if len(result.Params) > 0 {
		return nil, errors.SchemaMalformed(e.Group, e.Name, "result type "+e.ResultType+" takes parameters")
	}

	taken := make(map[string]bool)
	for _, t := range prog.LocalTypes() {
		if t.Name == e.ResultType {
			continue
		}
		for _, name := range gogen.Symbols(t, gogen.TypeName(t.Name), prog.IsPayload(t.Name)) {
			taken[name] = true
		}
	}
	export := exportName(e.ExportBase(), result, func(name string) bool {
		return taken[name] || g.Has(name)
	})

	tlbType := e.ResultType
	rename := make(map[string]string)
	if g.IsPreludeType(e.ResultType) {
		// The entry redeclares a prelude type such as JettonPayload. Give
		// the declaration the export name so the prelude type, and its
		// payload marking, stay intact.
		tlbType = export
		source = joinSource(types, renameResult(e.Fragment, e.ResultType, export))
		if prog, err = tlb.Compile(source, tlb.WithBase(g.Program)); err != nil {
			return nil, errors.CompilerFailure(e.Group, e.Name, err)
		}
	} else {
		from := gogen.Symbols(result, gogen.TypeName(e.ResultType), false)
		to := gogen.Symbols(result, export, false)
		for i := range from {
			if from[i] != to[i] {
				rename[from[i]] = to[i]
			}
		}
	}

	pkg := packageName(e.Name)
	emitted, err := gogen.Emit(prog, gogen.Options{
		Package:  pkg,
		BaseName: globalsProgram,
		Header:   GeneratedHeader,
	})
	if err != nil {
		return nil, errors.CompilerFailure(e.Group, e.Name, err)
	}
	code, err := rewriteUnit(emitted, g, rename, path.Join(modulePath, globalsPackage))
	if err != nil {
		return nil, errors.CompilerFailure(e.Group, e.Name, err)
	}

	return &Unit{
		Entry:   e,
		Export:  export,
		Package: pkg,
		Dir:     path.Join(packageName(e.Group), e.Kind.dir(), pkg),
		Code:    code,
		Program: prog,
		TLBType: tlbType,
	}, nil
}

// exportName numbers base until none of the names derived from it is taken.
func exportName(base string, t *tlb.Type, taken func(string) bool) string {
	name := base
	for n := 2; ; n++ {
		free := true
		for _, sym := range gogen.Symbols(t, name, false) {
			if taken(sym) {
				free = false
				break
			}
		}
		if free {
			return name
		}
		name = base + strconv.Itoa(n)
	}
}

func renameResult(fragment, from, to string) string {
	re := regexp.MustCompile(`=\s*` + regexp.QuoteMeta(from) + `\s*;`)
	return re.ReplaceAllLiteralString(fragment, "= "+to+";")
}

func joinSource(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// decoder describes u for a dispatch table. module is the import path of
// the group index declaring the flattened loader.
func (u *Unit) decoder(module string) *abi.Decoder {
	return &abi.Decoder{
		Symbol:      u.Entry.IndexName(),
		Module:      module,
		Tag:         u.Entry.Tag,
		FixedLength: u.Entry.FixedLength,
		Group:       u.Entry.Group,
		Entry:       u.Entry.Name,
		Decode:      u.Decode,
	}
}
