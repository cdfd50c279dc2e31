package cell

import (
	"encoding/hex"
	"strings"
)

// BitString is an immutable-by-convention sequence of bits, most significant
// bit of each byte first.
type BitString struct {
	data []byte
	n    int
}

// NewBitString copies the first n bits of data.
func NewBitString(data []byte, n int) BitString {
	if n < 0 {
		n = 0
	}
	if n > len(data)*8 {
		n = len(data) * 8
	}
	out := make([]byte, (n+7)/8)
	copy(out, data)
	if rem := n % 8; rem != 0 {
		out[len(out)-1] &= byte(0xFF << (8 - rem))
	}
	return BitString{data: out, n: n}
}

// Len returns the number of bits.
func (b BitString) Len() int {
	return b.n
}

// Bit returns bit i.
func (b BitString) Bit(i int) bool {
	return b.data[i/8]&(0x80>>(i%8)) != 0
}

// Bytes returns a copy of the underlying bytes; trailing bits of the last byte are zero.
func (b BitString) Bytes() []byte {
	out := make([]byte, (b.n+7)/8)
	copy(out, b.data)
	return out
}

// Sub returns count bits starting at from.
func (b BitString) Sub(from, count int) BitString {
	var out BitString
	out.appendRange(b, from, count)
	return out
}

// Equal reports whether both strings hold the same bits.
func (b BitString) Equal(o BitString) bool {
	if b.n != o.n {
		return false
	}
	for i := 0; i < b.n; i++ {
		if b.Bit(i) != o.Bit(i) {
			return false
		}
	}
	return true
}

// String renders the bits as upper-case hex. A length that is not a multiple
// of four gets the completion-tag form used by TON tooling: the last nibble
// carries a trailing 1 bit and the string ends with '_'.
func (b BitString) String() string {
	if b.n%4 == 0 {
		s := strings.ToUpper(hex.EncodeToString(b.Bytes()))
		return s[:b.n/4]
	}
	padded := b.Sub(0, b.n)
	padded.appendBit(true)
	for padded.n%4 != 0 {
		padded.appendBit(false)
	}
	s := strings.ToUpper(hex.EncodeToString(padded.Bytes()))
	return s[:padded.n/4] + "_"
}

func (b *BitString) appendBit(v bool) {
	if b.n%8 == 0 {
		b.data = append(b.data, 0)
	}
	if v {
		b.data[b.n/8] |= 0x80 >> (b.n % 8)
	}
	b.n++
}

func (b *BitString) appendRange(src BitString, from, count int) {
	if b.n%8 == 0 && from%8 == 0 {
		full := count / 8
		b.data = append(b.data[:b.n/8], src.data[from/8:from/8+full]...)
		b.n += full * 8
		from += full * 8
		count -= full * 8
	}
	for i := 0; i < count; i++ {
		b.appendBit(src.Bit(from + i))
	}
}
