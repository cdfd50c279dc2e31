package compiler

import (
	"go/token"
	"regexp"
	"strconv"
	"strings"

	"github.com/wippyai/tlb-abi/corpus"
	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb/gogen"
)

// EntryKind says which table an entry is registered in.
type EntryKind int

const (
	EntryMessage EntryKind = iota
	EntryPayload
)

func (k EntryKind) String() string {
	if k == EntryPayload {
		return "jetton_payload"
	}
	return "internal"
}

func (k EntryKind) dir() string {
	if k == EntryPayload {
		return "jetton_payloads"
	}
	return "internals"
}

// Entry is a corpus entry with its head parsed.
type Entry struct {
	Kind        EntryKind
	Group       string
	Name        string
	Fragment    string
	Tag         uint32
	Constructor string
	ResultType  string
	FixedLength bool
}

var (
	headPattern   = regexp.MustCompile(`^([a-zA-Z0-9_]+)#([0-9a-fA-F]+)`)
	resultPattern = regexp.MustCompile(`=\s*([A-Za-z_][A-Za-z0-9_]*)\s*;\s*$`)
)

// ParseHead extracts the constructor, tag and result type from the head
// `name#tag ... = Type;` of an entry fragment.
func ParseHead(group string, kind EntryKind, e corpus.Entry) (Entry, error) {
	out := Entry{
		Kind:        kind,
		Group:       group,
		Name:        e.Name,
		Fragment:    strings.TrimSpace(e.Fragment),
		FixedLength: e.FixedLength,
	}
	if out.Name == "" {
		return out, errors.SchemaMalformed(group, "", "entry has no name")
	}

	head := headPattern.FindStringSubmatch(out.Fragment)
	if head == nil {
		return out, errors.SchemaMalformed(group, out.Name, "fragment does not start with name#tag")
	}
	if len(head[2]) != 8 {
		return out, errors.SchemaMalformed(group, out.Name, "tag #"+head[2]+" is not 32 bits")
	}
	tag, err := strconv.ParseUint(head[2], 16, 32)
	if err != nil {
		return out, errors.SchemaMalformed(group, out.Name, "invalid tag #"+head[2])
	}

	result := resultPattern.FindStringSubmatch(out.Fragment)
	if result == nil {
		return out, errors.SchemaMalformed(group, out.Name, "fragment has no result type")
	}

	out.Constructor = head[1]
	out.Tag = uint32(tag)
	out.ResultType = result[1]
	return out, nil
}

// ExportBase is the Go name of the entry's result type before collision
// numbering.
func (e Entry) ExportBase() string {
	if e.Kind == EntryPayload {
		return gogen.PascalCase("jetton_" + e.Name)
	}
	return gogen.PascalCase(e.Name)
}

// IndexName is the flattened loader name in the group index.
func (e Entry) IndexName() string {
	if e.Kind == EntryPayload {
		return gogen.PascalCase("load_" + e.Group + "_jetton_" + e.Name)
	}
	return gogen.PascalCase("load_" + e.Group + "_" + e.Name)
}

// DecodeName is the flattened value-tree decoder name in the group index.
func (e Entry) DecodeName() string {
	return "Decode" + strings.TrimPrefix(e.IndexName(), "Load")
}

// alias is the import name of the entry package inside its group index.
func (e Entry) alias() string {
	if e.Kind == EntryPayload {
		return packageName("jetton_" + e.Name)
	}
	return packageName(e.Name)
}

// packageName maps s to a valid Go package identifier.
func packageName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "x" + name
	}
	if token.IsKeyword(name) {
		name += "_"
	}
	return name
}
