package gogen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/wippyai/tlb-abi/tlb"
)

const schema = `
nothing$0 {X:Type} = Maybe X;
just$1 {X:Type} value:X = Maybe X;
jetton_payload#_ data:Cell = JettonPayload;
fixed_length_text$_ n:(uint 8) value:(n * uint8) = FixedLengthText;
swap#e3a0d482 query_id:uint64 amount:Grams dest:MsgAddress
  limit:(Maybe FixedLengthText) wide:uint256 key:bits256 flag:(## 1)
  extra:flag?^Cell fwd:JettonPayload body:^[ a:int16 b:Bool ] = Swap;
`

func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	return f
}

func declared(f *ast.File) map[string]bool {
	names := make(map[string]bool)
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			names[d.Name.Name] = true
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		}
	}
	return names
}

func TestEmit(t *testing.T) {
	prog, err := tlb.Compile(schema, tlb.WithPayloadTypes("JettonPayload"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	src, err := Emit(prog, Options{Package: "swap", Header: "// Code generated by tlbgen. DO NOT EDIT."})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	f := parse(t, src)
	if f.Name.Name != "swap" {
		t.Errorf("package = %s, want swap", f.Name.Name)
	}

	names := declared(f)
	for _, want := range []string{
		"source", "program",
		"Maybe", "MaybeNothing", "MaybeJust",
		"JettonPayload", "LoadJettonPayload",
		"FixedLengthText", "LoadFixedLengthText", "DecodeFixedLengthText", "StoreFixedLengthText",
		"Swap", "LoadSwap", "DecodeSwap", "StoreSwap",
	} {
		if !names[want] {
			t.Errorf("missing declaration %s", want)
		}
	}
	if names["LoadMaybe"] {
		t.Error("parameterized type got a loader")
	}

	text := string(src)
	for _, want := range []string{
		`tlb\.WithPayloadTypes\("JettonPayload"\)`,
		`QueryId\s+uint64`,
		`Amount\s+\*big\.Int`,
		`Dest\s+cell\.Address`,
		`Limit\s+Maybe\s`,
		`Wide\s+\*big\.Int`,
		`Key\s+cell\.BitString`,
		`Flag\s+uint64`,
		`Extra\s+\*cell\.Cell`,
		`Fwd\s+\*tlb\.Payload`,
		`A\s+int64`,
		`B\s+bool`,
		`program\.Decode\(s, "Swap"\)`,
		`Value\s+tlb\.Value\s+` + "`" + `tlb:"value"` + "`",
		`Kind\s+string\s+` + "`" + `tlb:",kind"` + "`",
		`Just\s+\*MaybeJust\s+` + "`" + `tlb:"just,variant"` + "`",
	} {
		if !regexp.MustCompile(want).MatchString(text) {
			t.Errorf("generated source does not match %s", want)
		}
	}
}

func TestSymbolsMatchEmit(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		payload []string
	}{
		{"mixed schema", schema, []string{"JettonPayload"}},
		{"parameterized only", `nothing$0 {X:Type} = Maybe X; just$1 {X:Type} value:X = Maybe X;`, nil},
		{"unnamed constructors", `_$0 = Flag; _$1 v:uint8 = Flag; m#00000001 f:Flag = Msg;`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := tlb.Compile(tt.src, tlb.WithPayloadTypes(tt.payload...))
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			src, err := Emit(prog, Options{Package: "p"})
			if err != nil {
				t.Fatalf("Emit: %v", err)
			}

			want := map[string]bool{"source": true, "program": true}
			for _, typ := range prog.Types() {
				for _, name := range Symbols(typ, TypeName(typ.Name), prog.IsPayload(typ.Name)) {
					want[name] = true
				}
			}
			got := declared(parse(t, src))
			for name := range want {
				if !got[name] {
					t.Errorf("Symbols lists %s but Emit does not declare it", name)
				}
			}
			for name := range got {
				if !want[name] {
					t.Errorf("Emit declares %s but Symbols does not list it", name)
				}
			}
		})
	}
}

func TestEmitWithBase(t *testing.T) {
	base, err := tlb.Compile(schema, tlb.WithPayloadTypes("JettonPayload"))
	if err != nil {
		t.Fatalf("Compile base: %v", err)
	}
	prog, err := tlb.Compile(`op#00000001 x:(Maybe Swap) = Op;`, tlb.WithBase(base))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	src, err := Emit(prog, Options{Package: "op", BaseName: "Prelude"})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	text := string(src)
	if !strings.Contains(text, "tlb.MustCompile(source, tlb.WithBase(Prelude))") {
		t.Errorf("program is not compiled over the base:\n%s", text)
	}
	if strings.Contains(text, "WithPayloadTypes") {
		t.Error("payload types repeated for a derived program")
	}
	names := declared(parse(t, src))
	if !names["Op"] || !names["Swap"] {
		t.Error("base and local types must both be emitted")
	}
}

func TestEmitNameClash(t *testing.T) {
	prog, err := tlb.Compile(`
a$0 = Msg;
b$1 = Msg;
c$_ = MsgB;
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := Emit(prog, Options{Package: "x"}); err == nil {
		t.Fatal("expected a clash between MsgB and the variant of Msg")
	}
}

func TestNaming(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{PascalCase, "daolama_vault_supply", "DaolamaVaultSupply"},
		{PascalCase, "jetton_dedust-swap", "JettonDedustSwap"},
		{PascalCase, "load_stonfi_v2_swap", "LoadStonfiV2Swap"},
		{PascalCase, "Transfer", "Transfer"},
		{PascalCase, "QueryID", "Queryid"},
		{PascalCase, "a.b_c", "AbC"},
		{PascalCase, "__x__", "X"},
		{TypeName, "HmLabel", "HmLabel"},
		{TypeName, "msg_body", "MsgBody"},
		{TypeName, "DNSRecord", "DNSRecord"},
		{LoaderName, "Swap", "LoadSwap"},
		{DecoderName, "swap_v2", "DecodeSwapV2"},
		{StorerName, "Swap", "StoreSwap"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("%q -> %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := VariantName("Maybe", "just", 1); got != "MaybeJust" {
		t.Errorf("VariantName = %s", got)
	}
	if got := ConstructorName("", 2); got != "C2" {
		t.Errorf("ConstructorName unnamed = %s", got)
	}
	if got := FieldName("anon0", 0); got != "Anon0" {
		t.Errorf("FieldName = %s", got)
	}
}
