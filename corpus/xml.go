package corpus

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type xmlABI struct {
	XMLName  xml.Name   `xml:"abi"`
	Types    []string   `xml:"types"`
	Internal []xmlEntry `xml:"internal"`
	Payloads []xmlEntry `xml:"jetton_payload"`
}

type xmlEntry struct {
	Name        string  `xml:"name,attr"`
	FixedLength xmlFlag `xml:"fixed_length,attr"`
	Text        string  `xml:",chardata"`
}

// xmlFlag is a boolean attribute. A bare attribute or any value other than
// "false" or "0" is true.
type xmlFlag bool

func (f *xmlFlag) UnmarshalXMLAttr(attr xml.Attr) error {
	switch strings.ToLower(strings.TrimSpace(attr.Value)) {
	case "false", "0":
		*f = false
	default:
		*f = true
	}
	return nil
}

func parseXML(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var raw xmlABI
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	doc := &Document{Types: strings.TrimSpace(strings.Join(raw.Types, "\n"))}
	for _, e := range raw.Internal {
		doc.Messages = append(doc.Messages, e.entry())
	}
	for _, e := range raw.Payloads {
		doc.Payloads = append(doc.Payloads, e.entry())
	}
	return doc, nil
}

func (e xmlEntry) entry() Entry {
	return Entry{
		Name:        strings.TrimSpace(e.Name),
		Fragment:    strings.TrimSpace(e.Text),
		FixedLength: bool(e.FixedLength),
	}
}
