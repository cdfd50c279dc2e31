package corpus

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wippyai/tlb-abi/errors"
)

// Entry is one message or payload declared by a document.
type Entry struct {
	Name        string
	Fragment    string
	FixedLength bool
}

// Document is one schema file.
type Document struct {
	Source   string
	Group    string
	Types    string
	Messages []Entry
	Payloads []Entry
}

// Format identifies a document layout.
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatYAML
)

// FormatOf returns the layout implied by a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatUnknown
}

// GroupName derives the group of a document from its path.
func GroupName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "-", "_")
}

// Parse decodes data in the given layout.
func Parse(format Format, group string, data []byte) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatXML:
		doc, err = parseXML(data)
	case FormatYAML:
		doc, err = parseYAML(data)
	default:
		return nil, errors.Unsupported(errors.PhaseLoad, "unknown document format")
	}
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Entry(group, "").
			Detail("decode document").
			Cause(err).
			Build()
	}
	doc.Group = group
	return doc, nil
}

// LoadFile reads one document.
func LoadFile(path string) (*Document, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, errors.Unsupported(errors.PhaseLoad, "unrecognized document extension: "+path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	doc, err := Parse(format, GroupName(path), data)
	if err != nil {
		return nil, err
	}
	doc.Source = path
	return doc, nil
}

// LoadDir reads every XML and YAML document directly inside dir, sorted by
// group. Subdirectories and other files are skipped. Two files mapping to
// the same group are an error.
func LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Load("read corpus directory", err)
	}

	var docs []*Document
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || FormatOf(e.Name()) == FormatUnknown {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[doc.Group]; dup {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Entry(doc.Group, "").
				Detail("%s and %s map to the same group", filepath.Base(prev), e.Name()).
				Build()
		}
		seen[doc.Group] = path
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Group < docs[j].Group })
	return docs, nil
}
