package tlb

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/wippyai/tlb-abi/cell"
)

// Value is a node of a decoded field tree. The set of implementations is
// closed: Uint, Int, *Big, Bool, Bits, *Ref, Address, List, *Record and
// *Payload. A nil Value is an absent conditional field.
type Value interface {
	isValue()
}

// Uint is an unsigned integer of at most 64 bits.
type Uint uint64

// Int is a signed integer of at most 64 bits.
type Int int64

// Big is an integer wider than 64 bits or a variable-length amount.
type Big struct {
	Int *big.Int
}

// Bool is a TL-B Bool.
type Bool bool

// Bits is an opaque bit string.
type Bits struct {
	cell.BitString
}

// Ref is an opaque cell: an inline Cell remainder or a ^Cell reference.
type Ref struct {
	Cell *cell.Cell
}

// Address is a decoded MsgAddress.
type Address struct {
	cell.Address
}

// List is the element sequence of an n * T array.
type List []Value

// Field is a named member of a Record. Anonymous fields are named anon0,
// anon1 and so on.
type Field struct {
	Name  string
	Value Value
}

// Record is a decoded constructor.
type Record struct {
	Type        string
	Constructor string
	Fields      []Field
}

// Embedded is a sub-message decoded from a Payload's data.
type Embedded interface {
	Source() (group, entry string)
}

// Payload is an embeddable region: the data of a type compiled with
// WithPayloadTypes. Parsed is set when the region was recognized as a
// tag-prefixed sub-message.
type Payload struct {
	Type   string
	Data   *cell.Cell
	Parsed Embedded
}

func (Uint) isValue()     {}
func (Int) isValue()      {}
func (*Big) isValue()     {}
func (Bool) isValue()     {}
func (Bits) isValue()     {}
func (*Ref) isValue()     {}
func (Address) isValue()  {}
func (List) isValue()     {}
func (*Record) isValue()  {}
func (*Payload) isValue() {}

// Get returns the value of the named field.
func (r *Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// NewBig wraps v.
func NewBig(v *big.Int) *Big {
	return &Big{Int: v}
}

func (b *Big) MarshalJSON() ([]byte, error) {
	if b == nil || b.Int == nil {
		return []byte("null"), nil
	}
	return strconv.AppendQuote(nil, b.Int.String()), nil
}

func (b Bits) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (r *Ref) MarshalJSON() ([]byte, error) {
	if r == nil || r.Cell == nil {
		return []byte("null"), nil
	}
	return json.Marshal(hex.EncodeToString(r.Cell.ToBOC()))
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// MarshalJSON renders the record as an object whose members keep field
// order. The constructor name is stored under "$constructor".
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"$constructor":`)
	name, err := json.Marshal(r.Constructor)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	for _, f := range r.Fields {
		buf.WriteByte(',')
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := MarshalJSON(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	out := struct {
		Type   string   `json:"type"`
		BOC    string   `json:"boc"`
		Parsed Embedded `json:"parsed,omitempty"`
	}{Type: p.Type, Parsed: p.Parsed}
	if p.Data != nil {
		out.BOC = hex.EncodeToString(p.Data.ToBOC())
	}
	return json.Marshal(out)
}

// MarshalJSON renders any Value, including nil, as JSON.
func MarshalJSON(v Value) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte("null"), nil
	case List:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, el := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalJSON(el)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return json.Marshal(v)
}
