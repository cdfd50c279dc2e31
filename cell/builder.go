package cell

import (
	"math/big"
	"math/bits"
)

// Builder accumulates bits and references for a new cell.
type Builder struct {
	bits BitString
	refs []*Cell
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BitLen returns the number of bits stored so far.
func (b *Builder) BitLen() int {
	return b.bits.Len()
}

// RefCount returns the number of references stored so far.
func (b *Builder) RefCount() int {
	return len(b.refs)
}

func (b *Builder) reserve(n int) error {
	if n < 0 {
		return ErrInvalidWidth
	}
	if b.bits.Len()+n > MaxBits {
		return ErrBitsOverflow
	}
	return nil
}

// StoreBit appends a single bit.
func (b *Builder) StoreBit(v bool) error {
	if err := b.reserve(1); err != nil {
		return err
	}
	b.bits.appendBit(v)
	return nil
}

// StoreUint appends v as an n-bit unsigned integer, 0 <= n <= 64.
func (b *Builder) StoreUint(v uint64, n int) error {
	if n > 64 {
		return b.StoreBigUint(new(big.Int).SetUint64(v), n)
	}
	if err := b.reserve(n); err != nil {
		return err
	}
	if n < 64 && v>>uint(n) != 0 {
		return ErrValueTooLarge
	}
	for i := n - 1; i >= 0; i-- {
		b.bits.appendBit(v>>uint(i)&1 == 1)
	}
	return nil
}

// StoreInt appends v as an n-bit two's complement integer.
func (b *Builder) StoreInt(v int64, n int) error {
	if n > 64 {
		return b.StoreBigInt(big.NewInt(v), n)
	}
	if err := b.reserve(n); err != nil {
		return err
	}
	if n == 0 {
		if v != 0 {
			return ErrValueTooLarge
		}
		return nil
	}
	if n < 64 {
		limit := int64(1) << uint(n-1)
		if v < -limit || v >= limit {
			return ErrValueTooLarge
		}
	}
	u := uint64(v)
	for i := n - 1; i >= 0; i-- {
		b.bits.appendBit(u>>uint(i)&1 == 1)
	}
	return nil
}

// StoreBigUint appends a non-negative big integer as n bits.
func (b *Builder) StoreBigUint(v *big.Int, n int) error {
	if err := b.reserve(n); err != nil {
		return err
	}
	if v.Sign() < 0 || v.BitLen() > n {
		return ErrValueTooLarge
	}
	for i := n - 1; i >= 0; i-- {
		b.bits.appendBit(v.Bit(i) == 1)
	}
	return nil
}

// StoreBigInt appends a big integer as an n-bit two's complement value.
func (b *Builder) StoreBigInt(v *big.Int, n int) error {
	if err := b.reserve(n); err != nil {
		return err
	}
	if n == 0 {
		if v.Sign() != 0 {
			return ErrValueTooLarge
		}
		return nil
	}
	u := v
	if v.Sign() < 0 {
		mag := new(big.Int).Neg(v)
		mag.Sub(mag, big.NewInt(1))
		if mag.BitLen() > n-1 {
			return ErrValueTooLarge
		}
		u = new(big.Int).Lsh(big.NewInt(1), uint(n))
		u.Add(u, v)
	} else if v.BitLen() > n-1 {
		return ErrValueTooLarge
	}
	for i := n - 1; i >= 0; i-- {
		b.bits.appendBit(u.Bit(i) == 1)
	}
	return nil
}

// StoreBits appends a bit string.
func (b *Builder) StoreBits(bs BitString) error {
	if err := b.reserve(bs.Len()); err != nil {
		return err
	}
	b.bits.appendRange(bs, 0, bs.Len())
	return nil
}

// StoreRef appends a reference.
func (b *Builder) StoreRef(c *Cell) error {
	if len(b.refs) >= MaxRefs {
		return ErrRefsOverflow
	}
	b.refs = append(b.refs, c)
	return nil
}

// StoreSlice appends the unread bits and references of s without advancing it.
func (b *Builder) StoreSlice(s *Slice) error {
	if err := b.reserve(s.RemainingBits()); err != nil {
		return err
	}
	if len(b.refs)+s.RemainingRefs() > MaxRefs {
		return ErrRefsOverflow
	}
	b.bits.appendRange(s.cell.bits, s.bitPos, s.RemainingBits())
	b.refs = append(b.refs, s.cell.refs[s.refPos:]...)
	return nil
}

// StoreCell appends the full contents of c inline.
func (b *Builder) StoreCell(c *Cell) error {
	return b.StoreSlice(c.BeginParse())
}

// StoreVarUint appends v in the VarUInteger limit layout: a length prefix
// of bits.Len(limit-1) bits counting bytes, then the value in that many bytes.
func (b *Builder) StoreVarUint(v *big.Int, limit int) error {
	if v.Sign() < 0 {
		return ErrValueTooLarge
	}
	size := (v.BitLen() + 7) / 8
	if size >= limit {
		return ErrValueTooLarge
	}
	if err := b.StoreUint(uint64(size), varLenBits(limit)); err != nil {
		return err
	}
	return b.StoreBigUint(v, size*8)
}

// StoreVarInt is the signed counterpart of StoreVarUint.
func (b *Builder) StoreVarInt(v *big.Int, limit int) error {
	size := 0
	for ; size < limit; size++ {
		if fitsSigned(v, size*8) {
			break
		}
	}
	if size >= limit {
		return ErrValueTooLarge
	}
	if err := b.StoreUint(uint64(size), varLenBits(limit)); err != nil {
		return err
	}
	return b.StoreBigInt(v, size*8)
}

// StoreCoins appends a Grams/Coins amount (VarUInteger 16).
func (b *Builder) StoreCoins(v *big.Int) error {
	return b.StoreVarUint(v, 16)
}

// StoreAddress appends a MsgAddress.
func (b *Builder) StoreAddress(a Address) error {
	switch a.Kind {
	case AddressNone:
		return b.StoreUint(0, 2)
	case AddressExtern:
		if err := b.StoreUint(1, 2); err != nil {
			return err
		}
		if err := b.StoreUint(uint64(a.Data.Len()), 9); err != nil {
			return err
		}
		return b.StoreBits(a.Data)
	case AddressStd, AddressVar:
		tag := uint64(2)
		if a.Kind == AddressVar {
			tag = 3
		}
		if err := b.StoreUint(tag, 2); err != nil {
			return err
		}
		if err := b.storeAnycast(a.Anycast); err != nil {
			return err
		}
		if a.Kind == AddressStd {
			if a.Data.Len() != 256 {
				return ErrInvalidAddress
			}
			if err := b.StoreInt(int64(a.Workchain), 8); err != nil {
				return err
			}
			return b.StoreBits(a.Data)
		}
		if err := b.StoreUint(uint64(a.Data.Len()), 9); err != nil {
			return err
		}
		if err := b.StoreInt(int64(a.Workchain), 32); err != nil {
			return err
		}
		return b.StoreBits(a.Data)
	}
	return ErrInvalidAddress
}

func (b *Builder) storeAnycast(pfx *BitString) error {
	if pfx == nil {
		return b.StoreBit(false)
	}
	if pfx.Len() < 1 || pfx.Len() > 30 {
		return ErrInvalidAddress
	}
	if err := b.StoreBit(true); err != nil {
		return err
	}
	if err := b.StoreUint(uint64(pfx.Len()), 5); err != nil {
		return err
	}
	return b.StoreBits(*pfx)
}

// EndCell finalizes the builder into a cell. The builder may keep being used;
// the returned cell does not share storage with it.
func (b *Builder) EndCell() *Cell {
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	return &Cell{bits: b.bits.Sub(0, b.bits.Len()), refs: refs}
}

func varLenBits(limit int) int {
	if limit <= 1 {
		return 0
	}
	return bits.Len(uint(limit - 1))
}

func fitsSigned(v *big.Int, n int) bool {
	if n == 0 {
		return v.Sign() == 0
	}
	if v.Sign() >= 0 {
		return v.BitLen() <= n-1
	}
	mag := new(big.Int).Neg(v)
	mag.Sub(mag, big.NewInt(1))
	return mag.BitLen() <= n-1
}
