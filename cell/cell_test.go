package cell

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBuilderSliceUint(t *testing.T) {
	tests := []struct {
		v uint64
		n int
	}{
		{0, 0},
		{1, 1},
		{0x5c11ada9, 32},
		{0xFFFFFFFFFFFFFFFF, 64},
		{300, 9},
	}

	for _, tt := range tests {
		b := NewBuilder()
		if err := b.StoreUint(tt.v, tt.n); err != nil {
			t.Fatalf("StoreUint(%d, %d): %v", tt.v, tt.n, err)
		}
		s := b.EndCell().BeginParse()
		got, err := s.LoadUint(tt.n)
		if err != nil {
			t.Fatalf("LoadUint(%d): %v", tt.n, err)
		}
		if got != tt.v {
			t.Errorf("LoadUint(%d): got %d, want %d", tt.n, got, tt.v)
		}
		if s.RemainingBits() != 0 {
			t.Errorf("remaining bits: got %d, want 0", s.RemainingBits())
		}
	}
}

func TestBuilderOverflow(t *testing.T) {
	b := NewBuilder()
	if err := b.StoreUint(256, 8); !errors.Is(err, ErrValueTooLarge) {
		t.Errorf("StoreUint(256, 8): expected ErrValueTooLarge, got %v", err)
	}
	if err := b.StoreInt(-129, 8); !errors.Is(err, ErrValueTooLarge) {
		t.Errorf("StoreInt(-129, 8): expected ErrValueTooLarge, got %v", err)
	}
	if err := b.StoreBits(NewBitString(make([]byte, 128), 1023)); err != nil {
		t.Fatalf("StoreBits(1023): %v", err)
	}
	if err := b.StoreBit(true); !errors.Is(err, ErrBitsOverflow) {
		t.Errorf("expected ErrBitsOverflow, got %v", err)
	}
	for i := 0; i < MaxRefs; i++ {
		if err := b.StoreRef(NewBuilder().EndCell()); err != nil {
			t.Fatalf("StoreRef %d: %v", i, err)
		}
	}
	if err := b.StoreRef(NewBuilder().EndCell()); !errors.Is(err, ErrRefsOverflow) {
		t.Errorf("expected ErrRefsOverflow, got %v", err)
	}
}

func TestSignedRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128} {
		b := NewBuilder()
		if err := b.StoreInt(v, 8); err != nil {
			t.Fatalf("StoreInt(%d): %v", v, err)
		}
		got, err := b.EndCell().BeginParse().LoadInt(8)
		if err != nil {
			t.Fatalf("LoadInt: %v", err)
		}
		if got != v {
			t.Errorf("LoadInt: got %d, want %d", got, v)
		}
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	neg := new(big.Int).Neg(huge)

	b := NewBuilder()
	if err := b.StoreBigUint(huge, 128); err != nil {
		t.Fatal(err)
	}
	if err := b.StoreBigInt(neg, 128); err != nil {
		t.Fatal(err)
	}
	s := b.EndCell().BeginParse()

	u, err := s.LoadBigUint(128)
	if err != nil {
		t.Fatal(err)
	}
	if u.Cmp(huge) != 0 {
		t.Errorf("LoadBigUint: got %s, want %s", u, huge)
	}
	i, err := s.LoadBigInt(128)
	if err != nil {
		t.Fatal(err)
	}
	if i.Cmp(neg) != 0 {
		t.Errorf("LoadBigInt: got %s, want %s", i, neg)
	}
}

func TestCoins(t *testing.T) {
	tests := []struct {
		amount string
		bits   int
	}{
		{"0", 4},
		{"1", 12},
		{"1000000000", 4 + 32},
	}

	for _, tt := range tests {
		v, _ := new(big.Int).SetString(tt.amount, 10)
		b := NewBuilder()
		if err := b.StoreCoins(v); err != nil {
			t.Fatalf("StoreCoins(%s): %v", tt.amount, err)
		}
		if b.BitLen() != tt.bits {
			t.Errorf("StoreCoins(%s): got %d bits, want %d", tt.amount, b.BitLen(), tt.bits)
		}
		got, err := b.EndCell().BeginParse().LoadCoins()
		if err != nil {
			t.Fatalf("LoadCoins: %v", err)
		}
		if got.Cmp(v) != 0 {
			t.Errorf("LoadCoins: got %s, want %s", got, v)
		}
	}
}

func TestVarInt(t *testing.T) {
	for _, x := range []int64{0, 1, -1, 200, -200, 1 << 40} {
		v := big.NewInt(x)
		b := NewBuilder()
		if err := b.StoreVarInt(v, 32); err != nil {
			t.Fatalf("StoreVarInt(%d): %v", x, err)
		}
		got, err := b.EndCell().BeginParse().LoadVarInt(32)
		if err != nil {
			t.Fatalf("LoadVarInt: %v", err)
		}
		if got.Cmp(v) != 0 {
			t.Errorf("LoadVarInt: got %s, want %d", got, x)
		}
	}
}

func TestAddressRoundTrip(t *testing.T) {
	std, err := ParseRawAddress("0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8")
	if err != nil {
		t.Fatal(err)
	}
	pfx := NewBitString([]byte{0xA0}, 3)
	addrs := []Address{
		{Kind: AddressNone},
		{Kind: AddressExtern, Data: NewBitString([]byte{0xAB, 0xC0}, 12)},
		std,
		{Kind: AddressStd, Workchain: -1, Data: std.Data, Anycast: &pfx},
		{Kind: AddressVar, Workchain: 1000, Data: NewBitString([]byte{0x12, 0x34}, 16)},
	}

	for _, a := range addrs {
		b := NewBuilder()
		if err := b.StoreAddress(a); err != nil {
			t.Fatalf("StoreAddress(%v): %v", a, err)
		}
		s := b.EndCell().BeginParse()
		got, err := s.LoadAddress()
		if err != nil {
			t.Fatalf("LoadAddress: %v", err)
		}
		if got.String() != a.String() || got.Kind != a.Kind {
			t.Errorf("LoadAddress: got %v (%v), want %v (%v)", got, got.Kind, a, a.Kind)
		}
		if (got.Anycast == nil) != (a.Anycast == nil) {
			t.Errorf("anycast presence mismatch for %v", a)
		}
		if s.RemainingBits() != 0 {
			t.Errorf("remaining bits after %v: %d", a.Kind, s.RemainingBits())
		}
	}

	if std.String() != "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8" {
		t.Errorf("String: got %s", std)
	}
}

func TestSnapshotRestore(t *testing.T) {
	b := NewBuilder()
	_ = b.StoreUint(0xAABBCCDD, 32)
	_ = b.StoreRef(NewBuilder().EndCell())
	s := b.EndCell().BeginParse()

	snap := s.Snapshot()
	if _, err := s.LoadUint(16); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadRef(); err != nil {
		t.Fatal(err)
	}
	s.Restore(snap)

	if s.RemainingBits() != 32 || s.RemainingRefs() != 1 {
		t.Errorf("after restore: %d bits, %d refs", s.RemainingBits(), s.RemainingRefs())
	}
	v, err := s.PreloadUint(32)
	if err != nil || v != 0xAABBCCDD {
		t.Errorf("PreloadUint: got %x, %v", v, err)
	}
	if s.RemainingBits() != 32 {
		t.Error("PreloadUint advanced the cursor")
	}
}

func TestConsumed(t *testing.T) {
	child := NewBuilder().EndCell()
	b := NewBuilder()
	_ = b.StoreUint(0xF, 4)
	_ = b.StoreUint(0x5c11ada9, 32)
	_ = b.StoreUint(3, 2)
	_ = b.StoreRef(child)
	s := b.EndCell().BeginParse()

	_, _ = s.LoadUint(4)
	snap := s.Snapshot()
	_, _ = s.LoadUint(32)
	_, _ = s.LoadRef()

	got := s.Consumed(snap)
	if got.BitLen() != 32 || got.RefCount() != 1 {
		t.Fatalf("Consumed: %d bits, %d refs", got.BitLen(), got.RefCount())
	}
	v, _ := got.BeginParse().LoadUint(32)
	if v != 0x5c11ada9 {
		t.Errorf("Consumed data: got %x", v)
	}
	rest := s.ToCell()
	if rest.BitLen() != 2 || rest.RefCount() != 0 {
		t.Errorf("ToCell: %d bits, %d refs", rest.BitLen(), rest.RefCount())
	}
}

func TestBitStringString(t *testing.T) {
	tests := []struct {
		bits BitString
		want string
	}{
		{NewBitString(nil, 0), ""},
		{NewBitString([]byte{0xAB}, 8), "AB"},
		{NewBitString([]byte{0xA0}, 4), "A"},
		{NewBitString([]byte{0x80}, 1), "C_"},
		{NewBitString([]byte{0xAB, 0x80}, 10), "ABA_"},
	}
	for _, tt := range tests {
		if got := tt.bits.String(); got != tt.want {
			t.Errorf("String(%d bits): got %q, want %q", tt.bits.Len(), got, tt.want)
		}
	}
}

func TestBOCKnownEncoding(t *testing.T) {
	tests := []struct {
		name string
		cell func() *Cell
		want string
	}{
		{
			name: "empty",
			cell: func() *Cell { return NewBuilder().EndCell() },
			want: "b5ee9c72010101010002000000",
		},
		{
			name: "op only",
			cell: func() *Cell {
				b := NewBuilder()
				_ = b.StoreUint(0x5c11ada9, 32)
				return b.EndCell()
			},
			want: "b5ee9c720101010100060000085c11ada9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hex.EncodeToString(tt.cell().ToBOC())
			if got != tt.want {
				t.Errorf("ToBOC: got %s, want %s", got, tt.want)
			}
			c, err := FromBOC(mustHex(t, tt.want))
			if err != nil {
				t.Fatalf("FromBOC: %v", err)
			}
			if !c.Equal(tt.cell()) {
				t.Errorf("FromBOC: got %v", c)
			}
		})
	}
}

func TestBOCRoundTrip(t *testing.T) {
	leaf := NewBuilder()
	_ = leaf.StoreUint(5, 3)
	shared := leaf.EndCell()

	mid := NewBuilder()
	_ = mid.StoreUint(0xDEAD, 16)
	_ = mid.StoreRef(shared)
	midCell := mid.EndCell()

	root := NewBuilder()
	_ = root.StoreUint(0x0f8a7ea5, 32)
	_ = root.StoreRef(midCell)
	_ = root.StoreRef(shared)
	rootCell := root.EndCell()

	for _, withCRC := range []bool{false, true} {
		data := rootCell.ToBOCWithFlags(withCRC)
		got, err := FromBOC(data)
		if err != nil {
			t.Fatalf("FromBOC(crc=%v): %v", withCRC, err)
		}
		if !got.Equal(rootCell) {
			t.Errorf("round trip (crc=%v): got\n%v\nwant\n%v", withCRC, got, rootCell)
		}
		if got.Ref(0).Ref(0) != got.Ref(1) {
			t.Errorf("shared cell was not deduplicated (crc=%v)", withCRC)
		}
	}

	data := rootCell.ToBOCWithFlags(true)
	data[len(data)-5] ^= 0xFF
	if _, err := FromBOC(data); !errors.Is(err, ErrBOCChecksum) {
		t.Errorf("corrupted BOC: expected ErrBOCChecksum, got %v", err)
	}
}

func TestFromBOCInvalid(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
		mustHex(t, "b5ee9c720101010100060000085c11"),
		mustHex(t, "b5ee9c7201010101000200000100"),
	}
	for _, in := range inputs {
		if _, err := FromBOC(in); !errors.Is(err, ErrInvalidBOC) {
			t.Errorf("FromBOC(%x): expected ErrInvalidBOC, got %v", in, err)
		}
	}
}
