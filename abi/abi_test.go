package abi

import (
	"bytes"
	"math/big"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/tlb"
)

const prelude = `
left$0 {X:Type} {Y:Type} value:X = Either X Y;
right$1 {X:Type} {Y:Type} value:Y = Either X Y;
jetton_payload#_ data:Cell = JettonPayload;
`

var base = tlb.MustCompile(prelude, tlb.WithPayloadTypes("JettonPayload"))

func decoder(t *testing.T, group, entry, src, typeName string, tag uint32, fixed bool) *Decoder {
	t.Helper()
	p, err := tlb.Compile(src, tlb.WithBase(base))
	if err != nil {
		t.Fatalf("Compile %s/%s: %v", group, entry, err)
	}
	return &Decoder{
		Symbol:      "Load" + typeName,
		Tag:         tag,
		FixedLength: fixed,
		Group:       group,
		Entry:       entry,
		Decode: func(s *cell.Slice) (tlb.Value, error) {
			return p.Decode(s, typeName)
		},
	}
}

func buildCell(t *testing.T, fn func(b *cell.Builder) error) *cell.Cell {
	t.Helper()
	b := cell.NewBuilder()
	if err := fn(b); err != nil {
		t.Fatalf("build cell: %v", err)
	}
	return b.EndCell()
}

func supply(t *testing.T) *Decoder {
	return decoder(t, "daolama", "daolama_vault_supply",
		`supply#5c11ada9 query_id:uint64 amount:Grams = InternalMsgBody;`,
		"InternalMsgBody", 0x5c11ada9, false)
}

func TestDispatchShortCursor(t *testing.T) {
	table := NewTable(supply(t))

	for _, n := range []int{0, 8, 31} {
		c := buildCell(t, func(b *cell.Builder) error { return b.StoreUint(0, n) })
		s := c.BeginParse()
		if msg, ok := table.Dispatch(s); ok {
			t.Errorf("%d bits: got %v, want no match", n, msg)
		}
		if s.RemainingBits() != n {
			t.Errorf("%d bits: cursor moved to %d remaining", n, s.RemainingBits())
		}
	}
}

func TestDispatchMessage(t *testing.T) {
	table := NewTable(supply(t))
	c := buildCell(t, func(b *cell.Builder) error {
		_ = b.StoreUint(0x5c11ada9, 32)
		_ = b.StoreUint(7, 64)
		_ = b.StoreCoins(big.NewInt(1_000_000_000))
		return b.StoreUint(0xff, 8)
	})

	s := c.BeginParse()
	msg, ok := table.Dispatch(s)
	if !ok {
		t.Fatal("no match")
	}
	if msg.Tag != 0x5c11ada9 || msg.Group != "daolama" || msg.Entry != "daolama_vault_supply" {
		t.Errorf("message = %08x %s/%s", msg.Tag, msg.Group, msg.Entry)
	}
	if s.RemainingBits() != 8 {
		t.Errorf("cursor left %d bits, want 8 trailing", s.RemainingBits())
	}

	raw, err := msg.Cell()
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if raw.BitLen() != c.BitLen()-8 {
		t.Errorf("raw region has %d bits, want %d", raw.BitLen(), c.BitLen()-8)
	}
	rec := msg.Data.(*tlb.Record)
	if v, _ := rec.Get("query_id"); v != tlb.Uint(7) {
		t.Errorf("query_id = %v", v)
	}
	if group, entry := msg.Source(); group != "daolama" || entry != "daolama_vault_supply" {
		t.Errorf("Source = %s/%s", group, entry)
	}
}

func TestDispatchUnknownTag(t *testing.T) {
	table := NewTable(supply(t))
	c := buildCell(t, func(b *cell.Builder) error { return b.StoreUint(0xdeadbeef, 32) })
	if _, ok := table.Dispatch(c.BeginParse()); ok {
		t.Error("unknown tag matched")
	}

	var empty *Table
	if _, ok := empty.Dispatch(c.BeginParse()); ok {
		t.Error("nil table matched")
	}
}

func TestDispatchFixedLength(t *testing.T) {
	fixed := decoder(t, "g", "fixed", `f#00000010 v:uint16 = F;`, "F", 0x10, true)
	table := NewTable(fixed)
	ref := buildCell(t, func(b *cell.Builder) error { return b.StoreUint(1, 1) })

	tests := []struct {
		name  string
		build func(b *cell.Builder) error
		want  bool
	}{
		{
			name: "exact",
			build: func(b *cell.Builder) error {
				_ = b.StoreUint(0x10, 32)
				return b.StoreUint(0xabcd, 16)
			},
			want: true,
		},
		{
			name: "truncated",
			build: func(b *cell.Builder) error {
				_ = b.StoreUint(0x10, 32)
				return b.StoreUint(0xab, 8)
			},
		},
		{
			name: "trailing bit",
			build: func(b *cell.Builder) error {
				_ = b.StoreUint(0x10, 32)
				_ = b.StoreUint(0xabcd, 16)
				return b.StoreBit(true)
			},
		},
		{
			name: "trailing ref",
			build: func(b *cell.Builder) error {
				_ = b.StoreUint(0x10, 32)
				_ = b.StoreUint(0xabcd, 16)
				return b.StoreRef(ref)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildCell(t, tt.build)
			s := c.BeginParse()
			msg, ok := table.Dispatch(s)
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
			if !ok {
				if s.RemainingBits() != c.BitLen() || s.RemainingRefs() != c.RefCount() {
					t.Error("cursor not restored after a failed candidate")
				}
				return
			}
			if s.RemainingBits() != 0 || s.RemainingRefs() != 0 {
				t.Error("fixed-length match left data")
			}
			if !bytes.Equal(msg.Raw, c.ToBOC()) {
				t.Error("raw region differs from the whole cell")
			}
		})
	}
}

func TestDispatchCollision(t *testing.T) {
	first := decoder(t, "alpha", "wide", `a#0badf00d x:uint64 y:^Cell = A;`, "A", 0x0badf00d, false)
	second := decoder(t, "beta", "narrow", `b#0badf00d x:uint8 flag:Bool = B;`, "B", 0x0badf00d, true)
	table := NewTable(first, second)

	c := buildCell(t, func(b *cell.Builder) error {
		_ = b.StoreUint(0x0badf00d, 32)
		_ = b.StoreUint(200, 8)
		return b.StoreBit(true)
	})
	msg, ok := table.Dispatch(c.BeginParse())
	if !ok {
		t.Fatal("no match")
	}
	if msg.Group != "beta" || msg.Entry != "narrow" {
		t.Errorf("matched %s/%s, want beta/narrow", msg.Group, msg.Entry)
	}
	if flag, _ := msg.Data.(*tlb.Record).Get("flag"); flag != tlb.Bool(true) {
		t.Errorf("flag = %v", flag)
	}
}

func TestDispatchRegistrationOrder(t *testing.T) {
	src := `x#00000abc v:uint8 = X;`
	a := decoder(t, "a", "x", src, "X", 0xabc, false)
	b := decoder(t, "b", "x", src, "X", 0xabc, false)
	c := buildCell(t, func(bl *cell.Builder) error {
		_ = bl.StoreUint(0xabc, 32)
		return bl.StoreUint(1, 8)
	})

	for i := 0; i < 3; i++ {
		table := NewTable(a, b)
		got := table.Lookup(0xabc)
		if len(got) != 2 || got[0] != a || got[1] != b {
			t.Fatalf("build %d: candidates out of order", i)
		}
		msg, ok := table.Dispatch(c.BeginParse())
		if !ok || msg.Group != "a" {
			t.Fatalf("build %d: first registered candidate did not win", i)
		}
	}

	if msg, _ := NewTable(b, a).Dispatch(c.BeginParse()); msg.Group != "b" {
		t.Errorf("reversed registration matched %s", msg.Group)
	}
}

func TestDispatchPayloadOnlyTag(t *testing.T) {
	swap := decoder(t, "dedust", "dedust_swap", `swap#e3a0d482 limit:Grams = JettonDedustSwap;`,
		"JettonDedustSwap", 0xe3a0d482, false)
	tables := &Tables{Messages: NewTable(supply(t)), Payloads: NewTable(swap)}

	c := buildCell(t, func(b *cell.Builder) error {
		_ = b.StoreUint(0xe3a0d482, 32)
		return b.StoreCoins(big.NewInt(5))
	})
	if _, ok := tables.DispatchMessage(c.BeginParse()); ok {
		t.Error("payload tag accepted by the message table")
	}
	msg, ok := tables.DispatchPayload(c.BeginParse())
	if !ok || msg.Entry != "dedust_swap" {
		t.Errorf("DispatchPayload = %v, %v", msg, ok)
	}
}

func TestDispatchWithEmbedded(t *testing.T) {
	transfer := decoder(t, "jetton", "transfer",
		`transfer#0f8a7ea5 q:uint8 blob:bits32 fwd:(Either Cell ^JettonPayload) = Transfer;`,
		"Transfer", 0x0f8a7ea5, false)
	swap := decoder(t, "dedust", "dedust_swap", `swap#e3a0d482 limit:uint8 = JettonDedustSwap;`,
		"JettonDedustSwap", 0xe3a0d482, true)
	tables := &Tables{Messages: NewTable(transfer), Payloads: NewTable(swap)}

	embedded := func(tag uint64) *cell.Cell {
		inner := buildCell(t, func(b *cell.Builder) error {
			_ = b.StoreUint(tag, 32)
			return b.StoreUint(3, 8)
		})
		return buildCell(t, func(b *cell.Builder) error {
			_ = b.StoreUint(0x0f8a7ea5, 32)
			_ = b.StoreUint(1, 8)
			_ = b.StoreUint(0xe3a0d482, 32)
			_ = b.StoreBit(true)
			return b.StoreRef(inner)
		})
	}

	msg, ok := tables.DispatchWithEmbedded(embedded(0xe3a0d482).BeginParse())
	if !ok {
		t.Fatal("no match")
	}
	fwd, _ := msg.Data.(*tlb.Record).Get("fwd")
	value, _ := fwd.(*tlb.Record).Get("value")
	pl := value.(*tlb.Payload)
	if pl.Parsed == nil {
		t.Fatal("embedded payload not parsed")
	}
	if group, entry := pl.Parsed.Source(); group != "dedust" || entry != "dedust_swap" {
		t.Errorf("parsed as %s/%s", group, entry)
	}
	if pl.Data == nil || pl.Data.BitLen() != 40 {
		t.Error("payload data was replaced")
	}

	first, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if n := Relink(tables.Payloads, msg.Data); n != 1 {
		t.Errorf("second Relink recognized %d payloads, want 1", n)
	}
	second, _ := json.Marshal(msg)
	if !bytes.Equal(first, second) {
		t.Errorf("Relink is not idempotent:\n%s\n%s", first, second)
	}

	unknown, ok := tables.DispatchWithEmbedded(embedded(0x11111111).BeginParse())
	if !ok {
		t.Fatal("no match for unknown embedded tag")
	}
	fwd, _ = unknown.Data.(*tlb.Record).Get("fwd")
	value, _ = fwd.(*tlb.Record).Get("value")
	if value.(*tlb.Payload).Parsed != nil {
		t.Error("unknown payload got parsed")
	}
}

func TestRelinkSkipsOpaque(t *testing.T) {
	swap := decoder(t, "dedust", "dedust_swap", `swap#e3a0d482 = JettonDedustSwap;`,
		"JettonDedustSwap", 0xe3a0d482, false)
	payloads := NewTable(swap)
	data := buildCell(t, func(b *cell.Builder) error { return b.StoreUint(0xe3a0d482, 32) })

	tree := &tlb.Record{Fields: []tlb.Field{
		{Name: "bits", Value: tlb.Bits{BitString: data.Bits()}},
		{Name: "ref", Value: &tlb.Ref{Cell: data}},
		{Name: "list", Value: tlb.List{&tlb.Payload{Type: "JettonPayload", Data: data}, nil}},
		{Name: "absent", Value: nil},
	}}
	if n := Relink(payloads, tree); n != 1 {
		t.Errorf("Relink = %d, want 1", n)
	}
	if Relink(payloads, nil) != 0 {
		t.Error("nil value relinked")
	}
}

func TestMessageJSON(t *testing.T) {
	msg := &Message{Tag: 0x5c11ada9, Group: "daolama", Entry: "daolama_vault_supply", Raw: []byte{0xb5}, Data: tlb.Uint(1)}
	out, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"tag":"0x5c11ada9","group":"daolama","entry":"daolama_vault_supply","boc":"b5","data":1}`
	if string(out) != want {
		t.Errorf("got  %s\nwant %s", out, want)
	}
}
