package compiler

import (
	"path"

	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/errors"
)

// RegistryBuilder aggregates group indexes into dispatch tables. Groups
// are appended in the order they are added; a group can be added once.
type RegistryBuilder struct {
	modulePath string
	groups     map[string]bool
	messages   []*abi.Decoder
	payloads   []*abi.Decoder
}

// NewRegistryBuilder returns an empty builder. modulePath is the import
// path of the generated output root and only feeds Decoder.Module.
func NewRegistryBuilder(modulePath string) *RegistryBuilder {
	return &RegistryBuilder{
		modulePath: modulePath,
		groups:     make(map[string]bool),
	}
}

// Add appends the decoders of idx.
func (b *RegistryBuilder) Add(idx *Index) error {
	if b.groups[idx.Group] {
		return duplicateGroup(idx.Group)
	}
	b.groups[idx.Group] = true

	module := path.Join(b.modulePath, idx.Dir)
	for _, exp := range idx.Exports {
		d := exp.Unit.decoder(module)
		if exp.Unit.Entry.Kind == EntryPayload {
			b.payloads = append(b.payloads, d)
		} else {
			b.messages = append(b.messages, d)
		}
	}
	return nil
}

// Build returns tables over everything added so far. Tables returned
// earlier are not affected by later calls to Add.
func (b *RegistryBuilder) Build() *abi.Tables {
	return &abi.Tables{
		Messages: abi.NewTable(b.messages...),
		Payloads: abi.NewTable(b.payloads...),
	}
}

func duplicateGroup(group string) error {
	return errors.New(errors.PhaseLink, errors.KindInvalidInput).
		Entry(group, "").
		Detail("group already registered").
		Build()
}
