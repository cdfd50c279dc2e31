package compiler

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/errors"
)

var funcs = template.FuncMap{
	"tag": func(v uint32) string { return fmt.Sprintf("0x%08x", v) },
}

var indexTemplate = template.Must(template.New("index").Funcs(funcs).Parse(`{{.Header}}

// Package {{.Index.Package}} re-exports the decoders of schema group {{.Index.Group}}.
package {{.Index.Package}}

import (
	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/tlb"
{{range .Index.Exports}}
	{{.Alias}} "{{$.Module}}/{{.Unit.Dir}}"
{{- end}}
)
{{range .Index.Exports}}
// {{.Name}} decodes {{.Unit.Entry.Kind}} {{.Unit.Entry.Name}} (tag {{tag .Unit.Entry.Tag}}).
func {{.Name}}(s *cell.Slice) (*{{.Alias}}.{{.Unit.Export}}, error) {
	return {{.Alias}}.Load{{.Unit.Export}}(s)
}

// {{.Decode}} decodes {{.Unit.Entry.Kind}} {{.Unit.Entry.Name}} into a value tree.
func {{.Decode}}(s *cell.Slice) (tlb.Value, error) {
	return {{.Alias}}.Decode{{.Unit.Export}}(s)
}
{{end}}`))

var rootTemplate = template.Must(template.New("root").Funcs(funcs).Parse(`{{.Header}}

// Package {{.Package}} dispatches tag-prefixed messages of every compiled
// schema group.
package {{.Package}}

import (
	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/cell"
{{range .Groups}}
	{{.Alias}} "{{$.Module}}/{{.Index.Dir}}"
{{- end}}
)

{{define "decoder"}}
		{
			Symbol:      {{printf "%q" .Decoder.Symbol}},
			Module:      {{printf "%q" .Decoder.Module}},
			Tag:         {{tag .Decoder.Tag}},
			FixedLength: {{.Decoder.FixedLength}},
			Group:       {{printf "%q" .Decoder.Group}},
			Entry:       {{printf "%q" .Decoder.Entry}},
			Decode:      {{.Alias}}.{{.Decode}},
		},
{{- end}}
// Tables holds the decoders of every group in registration order.
var Tables = &abi.Tables{
	Messages: abi.NewTable([]*abi.Decoder{
{{- range .Messages}}{{template "decoder" .}}{{end}}
	}...),
	Payloads: abi.NewTable([]*abi.Decoder{
{{- range .Payloads}}{{template "decoder" .}}{{end}}
	}...),
}

var (
	Messages = Tables.Messages
	Payloads = Tables.Payloads
)

// DispatchMessage decodes the message at s with the first matching decoder.
func DispatchMessage(s *cell.Slice) (*abi.Message, bool) {
	return Tables.DispatchMessage(s)
}

// DispatchPayload decodes the embeddable payload at s.
func DispatchPayload(s *cell.Slice) (*abi.Message, bool) {
	return Tables.DispatchPayload(s)
}

// DispatchWithEmbedded decodes the message at s and its embedded payloads.
func DispatchWithEmbedded(s *cell.Slice) (*abi.Message, bool) {
	return Tables.DispatchWithEmbedded(s)
}
`))

type rootGroup struct {
	Alias string
	Index *Index
}

type rootDecoder struct {
	Alias   string
	Decode  string
	Decoder *abi.Decoder
}

// RenderIndex renders the index package of idx.
func RenderIndex(modulePath string, idx *Index) ([]byte, error) {
	return render(indexTemplate, map[string]any{
		"Header": GeneratedHeader,
		"Module": modulePath,
		"Index":  idx,
	})
}

// RenderRoot renders the top-level dispatch package of r.
func RenderRoot(r *Result) ([]byte, error) {
	reserved := map[string]bool{"abi": true, "cell": true}
	var (
		groups             []rootGroup
		messages, payloads []rootDecoder
	)
	for _, idx := range r.Indexes {
		alias := idx.Package
		for reserved[alias] {
			alias += "_"
		}
		reserved[alias] = true
		groups = append(groups, rootGroup{Alias: alias, Index: idx})

		module := path.Join(r.Options.ModulePath, idx.Dir)
		for _, exp := range idx.Exports {
			d := rootDecoder{Alias: alias, Decode: exp.Decode, Decoder: exp.Unit.decoder(module)}
			if exp.Unit.Entry.Kind == EntryPayload {
				payloads = append(payloads, d)
			} else {
				messages = append(messages, d)
			}
		}
	}

	return render(rootTemplate, map[string]any{
		"Header":   GeneratedHeader,
		"Package":  r.Options.Package,
		"Module":   r.Options.ModulePath,
		"Groups":   groups,
		"Messages": messages,
		"Payloads": payloads,
	})
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.PhaseWrite, errors.KindInvalidData, err, "render "+t.Name())
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), errors.Wrap(errors.PhaseWrite, errors.KindInvalidData, err, "format "+t.Name())
	}
	return src, nil
}

// WriteArtifacts writes the generated packages of r below outDir:
// globals/globals.go, <group>/<kind>/<entry>/decoder.go for every unit,
// <group>/index.go for every group, and the top-level abi.go.
func WriteArtifacts(outDir string, r *Result) error {
	files := map[string][]byte{
		path.Join(globalsPackage, "globals.go"): r.Globals.Code,
	}
	for _, u := range r.Units {
		files[path.Join(u.Dir, "decoder.go")] = u.Code
	}
	for _, idx := range r.Indexes {
		src, err := RenderIndex(r.Options.ModulePath, idx)
		if err != nil {
			return err
		}
		files[path.Join(idx.Dir, "index.go")] = src
	}
	root, err := RenderRoot(r)
	if err != nil {
		return err
	}
	files["abi.go"] = root

	for name, data := range files {
		p := filepath.Join(outDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return writeErr(p, err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return writeErr(p, err)
		}
	}
	return nil
}

func writeErr(p string, err error) error {
	return errors.New(errors.PhaseWrite, errors.KindInvalidInput).
		Detail("write %s", p).
		Cause(err).
		Build()
}
