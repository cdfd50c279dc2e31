// Package tlb compiles TL-B schemas and interprets them over cells.
//
// A Program is built once from schema text and is then safe for concurrent
// use. Decoding produces a Value tree; encoding consumes one.
//
//	prog, err := tlb.Compile(`
//	    nothing$0 {X:Type} = Maybe X;
//	    just$1 {X:Type} value:X = Maybe X;
//	    transfer#0f8a7ea5 query_id:uint64 amount:Grams note:(Maybe ^Cell) = Transfer;
//	`)
//	v, err := prog.Decode(c.BeginParse(), "Transfer")
//
// # Programs over a base
//
// WithBase lets a small schema reuse the types of a larger one without
// recompiling it. Types declared by the derived program shadow base types of
// the same name, also when base constructors refer to them.
//
// # Embeddable payloads
//
// Types named with WithPayloadTypes decode to *Payload holding exactly the
// bits and references their constructor consumed. A later pass can decode
// that region as a message of its own and attach it as Payload.Parsed.
//
// # Go structs
//
// Unmarshal and Marshal convert between Values and structs carrying tlb
// struct tags, which is the shape package gogen emits.
package tlb
