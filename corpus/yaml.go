package corpus

import (
	"bytes"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/tlb-abi/errors"
)

type yamlDocument struct {
	Types          string      `yaml:"types"`
	Internals      []yamlEntry `yaml:"internals"`
	JettonPayloads []yamlEntry `yaml:"jetton_payloads"`
}

type yamlEntry struct {
	Name        string `yaml:"name"`
	FixedLength bool   `yaml:"fixed_length"`
	TLB         string `yaml:"tlb"`
}

func parseYAML(data []byte) (*Document, error) {
	var raw yamlDocument
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	doc := &Document{Types: strings.TrimSpace(raw.Types)}
	for _, e := range raw.Internals {
		doc.Messages = append(doc.Messages, e.entry())
	}
	for _, e := range raw.JettonPayloads {
		doc.Payloads = append(doc.Payloads, e.entry())
	}
	return doc, nil
}

func (e yamlEntry) entry() Entry {
	return Entry{
		Name:        strings.TrimSpace(e.Name),
		Fragment:    strings.TrimSpace(e.TLB),
		FixedLength: e.FixedLength,
	}
}
