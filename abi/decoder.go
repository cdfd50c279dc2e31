package abi

import (
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/tlb"
)

// DecodeFunc reads one message from s. On error the position of s is
// unspecified.
type DecodeFunc func(s *cell.Slice) (tlb.Value, error)

// Decoder is a compiled message or payload decoder.
type Decoder struct {
	// Symbol is the exported name of the loader in generated code.
	Symbol string
	// Module is the import path of the package declaring Symbol.
	Module string

	Tag         uint32
	FixedLength bool
	Group       string
	Entry       string
	Decode      DecodeFunc
}

func (d *Decoder) String() string {
	return fmt.Sprintf("%s/%s#%08x", d.Group, d.Entry, d.Tag)
}

// Message is the result of a successful dispatch.
type Message struct {
	Tag   uint32
	Group string
	Entry string

	// Raw is the BOC of the cell region the decoder consumed.
	Raw []byte

	Data tlb.Value
}

// Source implements tlb.Embedded.
func (m *Message) Source() (group, entry string) {
	return m.Group, m.Entry
}

// Cell parses Raw back into a cell.
func (m *Message) Cell() (*cell.Cell, error) {
	return cell.FromBOC(m.Raw)
}

func (m *Message) MarshalJSON() ([]byte, error) {
	data, err := tlb.MarshalJSON(m.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Tag   string          `json:"tag"`
		Group string          `json:"group"`
		Entry string          `json:"entry"`
		BOC   string          `json:"boc"`
		Data  json.RawMessage `json:"data"`
	}{
		Tag:   fmt.Sprintf("0x%08x", m.Tag),
		Group: m.Group,
		Entry: m.Entry,
		BOC:   hex.EncodeToString(m.Raw),
		Data:  data,
	})
}
