package compiler

import (
	"bytes"
	"go/format"
	"go/token"
	"path"
	"strconv"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"
)

// identRole classifies an identifier by where it appears.
type identRole int

const (
	roleOther identRole = iota // field names, selectors, labels, import names
	roleDecl                   // names introduced by top-level declarations
	roleRef                    // everything else
)

func roleOf(c *dstutil.Cursor) identRole {
	switch c.Parent().(type) {
	case *dst.SelectorExpr:
		if c.Name() == "Sel" {
			return roleOther
		}
	case *dst.Field:
		if c.Name() == "Names" {
			return roleOther
		}
	case *dst.TypeSpec, *dst.FuncDecl:
		if c.Name() == "Name" {
			return roleDecl
		}
	case *dst.ValueSpec:
		if c.Name() == "Names" {
			return roleDecl
		}
	case *dst.ImportSpec, *dst.BranchStmt, *dst.LabeledStmt:
		return roleOther
	}
	return roleRef
}

// rewriteUnit applies the renames, strips the declarations the globals
// package provides and qualifies the remaining references to it.
func rewriteUnit(src []byte, g *GlobalRegistry, rename map[string]string, globalsImport string) ([]byte, error) {
	f, err := decorator.Parse(src)
	if err != nil {
		return nil, err
	}

	if len(rename) > 0 {
		renameIdents(f, rename)
	}
	stripDecls(f, g.Has)

	local := make(map[string]bool)
	for _, name := range declaredNames(f) {
		local[name] = true
	}
	if qualify(f, func(name string) bool { return g.Has(name) && !local[name] }) {
		addImport(f, globalsImport)
	}
	pruneImports(f)

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, f); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

func renameIdents(f *dst.File, rename map[string]string) {
	dstutil.Apply(f, func(c *dstutil.Cursor) bool {
		id, ok := c.Node().(*dst.Ident)
		if !ok || roleOf(c) == roleOther {
			return true
		}
		if to, ok := rename[id.Name]; ok {
			id.Name = to
		}
		return true
	}, nil)
}

// stripDecls removes top-level types, values and functions for which drop
// returns true.
func stripDecls(f *dst.File, drop func(string) bool) {
	decls := f.Decls[:0]
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *dst.FuncDecl:
			if d.Recv == nil && drop(d.Name.Name) {
				continue
			}
		case *dst.GenDecl:
			if d.Tok == token.IMPORT {
				break
			}
			specs := d.Specs[:0]
			for _, s := range d.Specs {
				if !specDropped(s, drop) {
					specs = append(specs, s)
				}
			}
			if len(specs) == 0 {
				continue
			}
			d.Specs = specs
		}
		decls = append(decls, d)
	}
	f.Decls = decls
}

func specDropped(s dst.Spec, drop func(string) bool) bool {
	switch s := s.(type) {
	case *dst.TypeSpec:
		return drop(s.Name.Name)
	case *dst.ValueSpec:
		for _, n := range s.Names {
			if !drop(n.Name) {
				return false
			}
		}
		return true
	}
	return false
}

// qualify replaces references to global names with globals.Name and
// reports whether it replaced any.
func qualify(f *dst.File, global func(string) bool) bool {
	found := false
	dstutil.Apply(f, func(c *dstutil.Cursor) bool {
		id, ok := c.Node().(*dst.Ident)
		if !ok || roleOf(c) != roleRef || !global(id.Name) {
			return true
		}
		c.Replace(&dst.SelectorExpr{
			X:   dst.NewIdent(globalsPackage),
			Sel: dst.NewIdent(id.Name),
		})
		found = true
		return false
	}, nil)
	return found
}

func addImport(f *dst.File, importPath string) {
	spec := &dst.ImportSpec{
		Path: &dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(importPath)},
	}
	for _, d := range f.Decls {
		if gd, ok := d.(*dst.GenDecl); ok && gd.Tok == token.IMPORT {
			gd.Specs = append(gd.Specs, spec)
			f.Imports = append(f.Imports, spec)
			return
		}
	}
	f.Decls = append([]dst.Decl{&dst.GenDecl{
		Tok:   token.IMPORT,
		Specs: []dst.Spec{spec},
	}}, f.Decls...)
	f.Imports = append(f.Imports, spec)
}

// pruneImports drops imports no selector refers to.
func pruneImports(f *dst.File) {
	used := make(map[string]bool)
	dst.Inspect(f, func(n dst.Node) bool {
		if sel, ok := n.(*dst.SelectorExpr); ok {
			if id, ok := sel.X.(*dst.Ident); ok {
				used[id.Name] = true
			}
		}
		return true
	})

	keep := func(s *dst.ImportSpec) bool {
		if s.Name != nil {
			return s.Name.Name == "_" || used[s.Name.Name]
		}
		p, err := strconv.Unquote(s.Path.Value)
		return err != nil || used[path.Base(p)]
	}

	decls := f.Decls[:0]
	for _, d := range f.Decls {
		if gd, ok := d.(*dst.GenDecl); ok && gd.Tok == token.IMPORT {
			specs := gd.Specs[:0]
			for _, s := range gd.Specs {
				if keep(s.(*dst.ImportSpec)) {
					specs = append(specs, s)
				}
			}
			if len(specs) == 0 {
				continue
			}
			gd.Specs = specs
		}
		decls = append(decls, d)
	}
	f.Decls = decls

	imports := f.Imports[:0]
	for _, s := range f.Imports {
		if keep(s) {
			imports = append(imports, s)
		}
	}
	f.Imports = imports
}

// declaredNames lists the names of top-level declarations.
func declaredNames(f *dst.File) []string {
	var names []string
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *dst.FuncDecl:
			if d.Recv == nil {
				names = append(names, d.Name.Name)
			}
		case *dst.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *dst.TypeSpec:
					names = append(names, s.Name.Name)
				case *dst.ValueSpec:
					for _, n := range s.Names {
						names = append(names, n.Name)
					}
				}
			}
		}
	}
	return names
}
