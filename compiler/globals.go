package compiler

import (
	"go/token"
	"sort"

	"github.com/dave/dst/decorator"

	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb"
	"github.com/wippyai/tlb-abi/tlb/gogen"
)

// PreludeSource is the structural type library every schema entry is
// compiled over.
const PreludeSource = `
fixed_length_text$_ n:(uint 8) value:(n * uint8) = FixedLengthText;

unit$_ = Unit;
true$_ = True;
nothing$0 {X:Type} = Maybe X;
just$1 {X:Type} value:X = Maybe X;
left$0 {X:Type} {Y:Type} value:X = Either X Y;
right$1 {X:Type} {Y:Type} value:Y = Either X Y;
pair$_ {X:Type} {Y:Type} first:X second:Y = Both X Y;
_ grams:Grams = Coins;
jetton_payload#_ data:Cell = JettonPayload;
nft_payload#_ data:Cell = NFTPayload;
bytes#_ data:Cell = Bytes;

text#_ = Text;

hm_edge#_ {n:#} {X:Type} {l:#} {m:#} label:(HmLabel ~l n)
  {n = (~m) + l} node:(HashmapNode m X) = Hashmap n X;
hmn_leaf#_ {X:Type} value:X = HashmapNode 0 X;
hmn_fork#_ {n:#} {X:Type} left:^(Hashmap n X)
  right:^(Hashmap n X) = HashmapNode (n + 1) X;
hml_short$0 {m:#} {n:#} len:(Unary ~n) {n <= m} s:(n * Bit) = HmLabel ~n m;
hml_long$10 {m:#} n:(#<= m) s:(n * Bit) = HmLabel ~n m;
hml_same$11 {m:#} v:Bit n:(#<= m) = HmLabel ~n m;
hme_empty$0 {n:#} {X:Type} = HashmapE n X;
hme_root$1 {n:#} {X:Type} root:^(Hashmap n X) = HashmapE n X;

unary_zero$0 = Unary ~0;
unary_succ$1 {n:#} x:(Unary ~n) = Unary ~(n + 1);

bit$_ (## 1) = Bit;

proto_http#4854 = Protocol;
proto_list_nil$0 = ProtoList;
proto_list_next$1 head:Protocol tail:ProtoList = ProtoList;

cap_is_wallet#2177 = SmcCapability;
cap_list_nil$0 = SmcCapList;
cap_list_next$1 head:SmcCapability tail:SmcCapList = SmcCapList;

dns_smc_address#9fd3 smc_addr:MsgAddressInt flags:(## 8) { flags <= 1 }
  cap_list:flags . 0?SmcCapList = DNSRecord;
dns_next_resolver#ba93 resolver:MsgAddressInt = DNSRecord;
dns_adnl_address#ad01 adnl_addr:bits256 flags:(## 8) { flags <= 1 }
  proto_list:flags . 0?ProtoList = DNSRecord;
dns_storage_address#7473 bag_id:bits256 = DNSRecord;
`

// PayloadType is the prelude type whose values are embeddable payloads.
const PayloadType = "JettonPayload"

const (
	globalsPackage = "globals"
	globalsProgram = "Prelude"
)

// GeneratedHeader starts every generated file.
const GeneratedHeader = "// Code generated by tlbgen. DO NOT EDIT."

// GlobalRegistry is the compiled prelude. It is immutable once built and
// shared by every entry compilation.
type GlobalRegistry struct {
	Source  string
	Program *tlb.Program

	// Code is the generated globals package.
	Code []byte

	names map[string]bool
}

// BuildGlobals compiles PreludeSource. Failure is fatal to a run.
func BuildGlobals() (*GlobalRegistry, error) {
	return buildGlobals(PreludeSource)
}

func buildGlobals(source string) (*GlobalRegistry, error) {
	prog, err := tlb.Compile(source, tlb.WithPayloadTypes(PayloadType))
	if err != nil {
		return nil, errors.PreludeFailure(err)
	}
	code, err := gogen.Emit(prog, gogen.Options{
		Package:     globalsPackage,
		ProgramName: globalsProgram,
		Header:      GeneratedHeader,
	})
	if err != nil {
		return nil, errors.PreludeFailure(err)
	}

	f, err := decorator.Parse(code)
	if err != nil {
		return nil, errors.PreludeFailure(err)
	}
	names := make(map[string]bool)
	for _, name := range declaredNames(f) {
		if token.IsExported(name) {
			names[name] = true
		}
	}

	return &GlobalRegistry{
		Source:  source,
		Program: prog,
		Code:    code,
		names:   names,
	}, nil
}

// Has reports whether name is declared by the globals package.
func (g *GlobalRegistry) Has(name string) bool {
	return g.names[name]
}

// Names returns the reserved names in sorted order.
func (g *GlobalRegistry) Names() []string {
	out := make([]string, 0, len(g.names))
	for name := range g.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsPreludeType reports whether the prelude declares the TL-B type.
func (g *GlobalRegistry) IsPreludeType(tlbName string) bool {
	return g.Program.Lookup(tlbName) != nil
}
