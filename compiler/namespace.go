package compiler

import (
	"path"

	"github.com/wippyai/tlb-abi/errors"
)

// Index is the flattened export table of one group.
type Index struct {
	Group   string
	Package string
	Dir     string
	Exports []Export
}

// Export re-exports one unit under its flattened names.
type Export struct {
	Name   string // Load<Group><Entry>
	Decode string // Decode<Group><Entry>
	Alias  string // import name of the unit package
	Unit   *Unit
}

// Namespace flattens the units of group into an index. Units keep their
// order. Two units flattening to the same loader or package name is a
// fatal NameCollision.
func Namespace(group string, units []*Unit) (*Index, error) {
	idx := &Index{
		Group:   group,
		Package: packageName(group),
		Dir:     packageName(group),
	}

	names := make(map[string]string)
	aliases := make(map[string]string)
	for _, u := range units {
		e := u.Entry
		if e.Group != group {
			return nil, errors.New(errors.PhaseLink, errors.KindInvalidInput).
				Entry(e.Group, e.Name).
				Detail("unit belongs to group %q, not %q", e.Group, group).
				Build()
		}

		name := e.IndexName()
		if prev, dup := names[name]; dup {
			return nil, errors.NameCollision(group, name, prev, e.Name)
		}
		names[name] = e.Name

		alias := e.alias()
		for _, reserved := range []string{"cell", "tlb"} {
			if alias == reserved {
				alias += "_"
			}
		}
		if prev, dup := aliases[alias]; dup {
			return nil, errors.NameCollision(group, path.Join(e.Kind.dir(), u.Package), prev, e.Name)
		}
		aliases[alias] = e.Name

		idx.Exports = append(idx.Exports, Export{
			Name:   name,
			Decode: e.DecodeName(),
			Alias:  alias,
			Unit:   u,
		})
	}
	return idx, nil
}
