package abi

import (
	"go.uber.org/zap"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/errors"
)

// TagBits is the width of a discriminator tag.
const TagBits = 32

// Table indexes decoders by tag. Candidates sharing a tag keep the order
// in which they were passed to NewTable.
type Table struct {
	decoders []*Decoder
	byTag    map[uint32][]*Decoder
}

// NewTable builds a table. The slice of decoders is copied; the decoders
// themselves must not be modified afterwards.
func NewTable(decoders ...*Decoder) *Table {
	t := &Table{
		decoders: append([]*Decoder(nil), decoders...),
		byTag:    make(map[uint32][]*Decoder),
	}
	for _, d := range t.decoders {
		t.byTag[d.Tag] = append(t.byTag[d.Tag], d)
	}
	return t
}

// Len returns the number of registered decoders.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.decoders)
}

// Decoders returns every decoder in registration order.
func (t *Table) Decoders() []*Decoder {
	if t == nil {
		return nil
	}
	return append([]*Decoder(nil), t.decoders...)
}

// Lookup returns the candidates for tag in registration order.
func (t *Table) Lookup(tag uint32) []*Decoder {
	if t == nil {
		return nil
	}
	return append([]*Decoder(nil), t.byTag[tag]...)
}

// Dispatch decodes the message at the cursor with the first candidate for
// its leading tag that succeeds. On success the cursor is left after the
// consumed region. Otherwise it is left where it was and ok is false.
func (t *Table) Dispatch(s *cell.Slice) (msg *Message, ok bool) {
	if t == nil || s.RemainingBits() < TagBits {
		return nil, false
	}
	v, err := s.PreloadUint(TagBits)
	if err != nil {
		return nil, false
	}
	tag := uint32(v)

	for _, d := range t.byTag[tag] {
		start := s.Snapshot()
		data, err := d.Decode(s)
		if err == nil && d.FixedLength && (s.RemainingBits() != 0 || s.RemainingRefs() != 0) {
			err = errors.LengthMismatch(s.RemainingBits(), s.RemainingRefs())
		}
		if err != nil {
			s.Restore(start)
			Logger().Debug("candidate rejected",
				zap.String("group", d.Group),
				zap.String("entry", d.Entry),
				zap.Uint32("tag", tag),
				zap.Error(err))
			continue
		}
		return &Message{
			Tag:   tag,
			Group: d.Group,
			Entry: d.Entry,
			Raw:   s.Consumed(start).ToBOC(),
			Data:  data,
		}, true
	}
	return nil, false
}
