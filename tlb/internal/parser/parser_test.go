package parser

import (
	"strings"
	"testing"

	"github.com/wippyai/tlb-abi/tlb/ast"
)

func TestParseDecls(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   string // rendered fields
		tag    ast.Tag
		result string
		args   string
	}{
		{
			name:   "hex tag",
			src:    "transfer#0f8a7ea5 query_id:uint64 amount:Coins = InMsgBody;",
			want:   "query_id:uint64 amount:Coins",
			tag:    ast.Tag{Bits: 0x0f8a7ea5, Len: 32},
			result: "InMsgBody",
		},
		{
			name:   "binary tag with type param",
			src:    "just$1 {X:Type} value:X = Maybe X;",
			want:   "{X:Type} value:X",
			tag:    ast.Tag{Bits: 1, Len: 1},
			result: "Maybe",
			args:   "X",
		},
		{
			name:   "anonymous field",
			src:    "bit$_ (## 1) = Bit;",
			want:   "(## 1)",
			result: "Bit",
		},
		{
			name:   "untagged",
			src:    "_ grams:Grams = Coins;",
			want:   "grams:Grams",
			result: "Coins",
		},
		{
			name:   "equation constraint",
			src:    "hm_edge#_ {n:#} {X:Type} {l:#} {m:#} label:(HmLabel ~l n) {n = (~m) + l} node:(HashmapNode m X) = Hashmap n X;",
			want:   "{n:#} {X:Type} {l:#} {m:#} label:(HmLabel ~l n) {(n = (~m + l))} node:(HashmapNode m X)",
			result: "Hashmap",
			args:   "n X",
		},
		{
			name:   "result pattern",
			src:    "hmn_fork#_ {n:#} {X:Type} left:^(Hashmap n X) right:^(Hashmap n X) = HashmapNode (n + 1) X;",
			want:   "{n:#} {X:Type} left:^(Hashmap n X) right:^(Hashmap n X)",
			result: "HashmapNode",
			args:   "(n + 1) X",
		},
		{
			name:   "output result",
			src:    "unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);",
			want:   "{n:#} x:(Unary ~n)",
			tag:    ast.Tag{Bits: 1, Len: 1},
			result: "Unary",
			args:   "~(n + 1)",
		},
		{
			name:   "conditional",
			src:    "dns_smc_address#9fd3 smc_addr:MsgAddressInt flags:(## 8) { flags <= 1 } cap_list:flags . 0?SmcCapList = DNSRecord;",
			want:   "smc_addr:MsgAddressInt flags:(## 8) {(flags <= 1)} cap_list:flags.0?SmcCapList",
			tag:    ast.Tag{Bits: 0x9fd3, Len: 16},
			result: "DNSRecord",
		},
		{
			name:   "array and bounded nat",
			src:    "hml_long$10 {m:#} n:(#<= m) s:(n * Bit) = HmLabel ~n m;",
			want:   "{m:#} n:(#<= m) s:(n * Bit)",
			tag:    ast.Tag{Bits: 2, Len: 2},
			result: "HmLabel",
			args:   "~n m",
		},
		{
			name:   "anonymous reference",
			src:    "swap#25938561 body:^[ min_out:Coins deadline:uint64 ] fwd:(Maybe ^Cell) = JettonPayload;",
			want:   "body:^[min_out:Coins deadline:uint64] fwd:(Maybe ^Cell)",
			tag:    ast.Tag{Bits: 0x25938561, Len: 32},
			result: "JettonPayload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(schema.Decls) != 1 {
				t.Fatalf("got %d decls, want 1", len(schema.Decls))
			}
			d := schema.Decls[0]

			parts := make([]string, len(d.Fields))
			for i, f := range d.Fields {
				parts[i] = f.String()
			}
			if got := strings.Join(parts, " "); got != tt.want {
				t.Errorf("fields: got %q, want %q", got, tt.want)
			}
			if d.Tag != tt.tag {
				t.Errorf("tag: got %v, want %v", d.Tag, tt.tag)
			}
			if d.Result != tt.result {
				t.Errorf("result: got %q, want %q", d.Result, tt.result)
			}
			args := make([]string, len(d.Args))
			for i, a := range d.Args {
				args[i] = a.String()
			}
			if got := strings.Join(args, " "); got != tt.args {
				t.Errorf("args: got %q, want %q", got, tt.args)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	src := `
		nothing$0 {X:Type} = Maybe X;
		just$1 {X:Type} value:X = Maybe X;
		// trailing comment
	`
	schema, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(schema.Decls) != 2 {
		t.Fatalf("got %d decls, want 2", len(schema.Decls))
	}
	if schema.Decls[0].Name != "nothing" || schema.Decls[1].Name != "just" {
		t.Errorf("names: %q, %q", schema.Decls[0].Name, schema.Decls[1].Name)
	}
	if schema.Decls[1].Line != 3 {
		t.Errorf("line: got %d, want 3", schema.Decls[1].Line)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"missing semicolon", "a#01 x:uint8 = A", "unterminated"},
		{"missing result", "a#01 x:uint8 = ;", "expected identifier"},
		{"missing equals", "a#01 x:uint8", "end of input"},
		{"illegal character", "a#01 x:@ = A;", "unexpected character"},
		{"non-relational constraint", "a#01 {x + 1} = A;", "not a relation"},
		{"oversized tag", "a#00112233445566778899 = A;", "longer than 64 bits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err, tt.msg)
			}
		})
	}
}
