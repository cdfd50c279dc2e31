package cell

import (
	"math/big"
)

// Slice is a read cursor over a cell.
type Slice struct {
	cell   *Cell
	bitPos int
	refPos int
}

// Snapshot is a saved cursor position. It is a plain value and can be kept
// for as long as the slice lives.
type Snapshot struct {
	Bits int
	Refs int
}

// Snapshot captures the current position.
func (s *Slice) Snapshot() Snapshot {
	return Snapshot{Bits: s.bitPos, Refs: s.refPos}
}

// Restore rewinds or advances the cursor to a snapshot taken on this slice.
func (s *Slice) Restore(sn Snapshot) {
	s.bitPos = sn.Bits
	s.refPos = sn.Refs
}

// Copy returns an independent cursor at the same position.
func (s *Slice) Copy() *Slice {
	c := *s
	return &c
}

// Cell returns the cell the slice reads from.
func (s *Slice) Cell() *Cell {
	return s.cell
}

// RemainingBits returns the number of unread data bits.
func (s *Slice) RemainingBits() int {
	return s.cell.bits.Len() - s.bitPos
}

// RemainingRefs returns the number of unread references.
func (s *Slice) RemainingRefs() int {
	return len(s.cell.refs) - s.refPos
}

// PreloadUint reads n bits as an unsigned integer without advancing.
func (s *Slice) PreloadUint(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, ErrInvalidWidth
	}
	if s.RemainingBits() < n {
		return 0, ErrNotEnoughBits
	}
	var v uint64
	for i := 0; i < n; i++ {
		v <<= 1
		if s.cell.bits.Bit(s.bitPos + i) {
			v |= 1
		}
	}
	return v, nil
}

// LoadUint reads n bits as an unsigned integer, 0 <= n <= 64.
func (s *Slice) LoadUint(n int) (uint64, error) {
	v, err := s.PreloadUint(n)
	if err != nil {
		return 0, err
	}
	s.bitPos += n
	return v, nil
}

// LoadInt reads n bits as a two's complement integer, 0 <= n <= 64.
func (s *Slice) LoadInt(n int) (int64, error) {
	u, err := s.LoadUint(n)
	if err != nil {
		return 0, err
	}
	if n == 0 || n == 64 {
		return int64(u), nil
	}
	if u&(1<<uint(n-1)) != 0 {
		return int64(u) - int64(1)<<uint(n), nil
	}
	return int64(u), nil
}

// LoadBit reads a single bit.
func (s *Slice) LoadBit() (bool, error) {
	if s.RemainingBits() < 1 {
		return false, ErrNotEnoughBits
	}
	v := s.cell.bits.Bit(s.bitPos)
	s.bitPos++
	return v, nil
}

// LoadBigUint reads n bits as an unsigned big integer.
func (s *Slice) LoadBigUint(n int) (*big.Int, error) {
	bs, err := s.LoadBits(n)
	if err != nil {
		return nil, err
	}
	return bitsToBig(bs), nil
}

// LoadBigInt reads n bits as a two's complement big integer.
func (s *Slice) LoadBigInt(n int) (*big.Int, error) {
	bs, err := s.LoadBits(n)
	if err != nil {
		return nil, err
	}
	v := bitsToBig(bs)
	if n > 0 && bs.Bit(0) {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(n)))
	}
	return v, nil
}

// LoadBits reads n bits.
func (s *Slice) LoadBits(n int) (BitString, error) {
	if n < 0 {
		return BitString{}, ErrInvalidWidth
	}
	if s.RemainingBits() < n {
		return BitString{}, ErrNotEnoughBits
	}
	bs := s.cell.bits.Sub(s.bitPos, n)
	s.bitPos += n
	return bs, nil
}

// LoadRef reads the next reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.RemainingRefs() < 1 {
		return nil, ErrNotEnoughRefs
	}
	c := s.cell.refs[s.refPos]
	s.refPos++
	return c, nil
}

// LoadVarUint reads a VarUInteger limit value.
func (s *Slice) LoadVarUint(limit int) (*big.Int, error) {
	size, err := s.LoadUint(varLenBits(limit))
	if err != nil {
		return nil, err
	}
	return s.LoadBigUint(int(size) * 8)
}

// LoadVarInt reads a VarInteger limit value.
func (s *Slice) LoadVarInt(limit int) (*big.Int, error) {
	size, err := s.LoadUint(varLenBits(limit))
	if err != nil {
		return nil, err
	}
	return s.LoadBigInt(int(size) * 8)
}

// LoadCoins reads a Grams/Coins amount.
func (s *Slice) LoadCoins() (*big.Int, error) {
	return s.LoadVarUint(16)
}

// LoadAddress reads a MsgAddress of any kind.
func (s *Slice) LoadAddress() (Address, error) {
	tag, err := s.LoadUint(2)
	if err != nil {
		return Address{}, err
	}
	switch tag {
	case 0:
		return Address{Kind: AddressNone}, nil
	case 1:
		n, err := s.LoadUint(9)
		if err != nil {
			return Address{}, err
		}
		data, err := s.LoadBits(int(n))
		if err != nil {
			return Address{}, err
		}
		return Address{Kind: AddressExtern, Data: data}, nil
	}

	a := Address{Kind: AddressStd}
	if tag == 3 {
		a.Kind = AddressVar
	}
	hasAnycast, err := s.LoadBit()
	if err != nil {
		return Address{}, err
	}
	if hasAnycast {
		depth, err := s.LoadUint(5)
		if err != nil {
			return Address{}, err
		}
		if depth < 1 || depth > 30 {
			return Address{}, ErrInvalidAddress
		}
		pfx, err := s.LoadBits(int(depth))
		if err != nil {
			return Address{}, err
		}
		a.Anycast = &pfx
	}

	if a.Kind == AddressStd {
		wc, err := s.LoadInt(8)
		if err != nil {
			return Address{}, err
		}
		a.Workchain = int32(wc)
		if a.Data, err = s.LoadBits(256); err != nil {
			return Address{}, err
		}
		return a, nil
	}

	n, err := s.LoadUint(9)
	if err != nil {
		return Address{}, err
	}
	wc, err := s.LoadInt(32)
	if err != nil {
		return Address{}, err
	}
	a.Workchain = int32(wc)
	if a.Data, err = s.LoadBits(int(n)); err != nil {
		return Address{}, err
	}
	return a, nil
}

// ToCell returns a cell holding the unread remainder.
func (s *Slice) ToCell() *Cell {
	return &Cell{
		bits: s.cell.bits.Sub(s.bitPos, s.RemainingBits()),
		refs: append([]*Cell(nil), s.cell.refs[s.refPos:]...),
	}
}

// LoadRemainder returns the unread remainder as a cell and leaves the slice
// empty.
func (s *Slice) LoadRemainder() *Cell {
	c := s.ToCell()
	s.bitPos = s.cell.bits.Len()
	s.refPos = len(s.cell.refs)
	return c
}

// Consumed returns a cell holding the bits and references read between
// since and the current position.
func (s *Slice) Consumed(since Snapshot) *Cell {
	if since.Bits > s.bitPos || since.Refs > s.refPos {
		return &Cell{}
	}
	return &Cell{
		bits: s.cell.bits.Sub(since.Bits, s.bitPos-since.Bits),
		refs: append([]*Cell(nil), s.cell.refs[since.Refs:s.refPos]...),
	}
}

func bitsToBig(bs BitString) *big.Int {
	v := new(big.Int)
	if bs.Len() == 0 {
		return v
	}
	v.SetBytes(bs.Bytes())
	if rem := bs.Len() % 8; rem != 0 {
		v.Rsh(v, uint(8-rem))
	}
	return v
}
