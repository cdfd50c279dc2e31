// Package tlbabi decodes tag-prefixed TON smart-contract messages against a
// corpus of TL-B ABI schemas.
//
// A corpus is a directory of schema documents, one per contract family
// (a "group"). Every document declares helper types plus a list of
// internal messages and jetton payloads, each a TL-B constructor with a
// 32-bit tag. The library compiles the corpus into tag-indexed decoder
// tables and dispatches raw cells through them without knowing which
// contract produced the message.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	tlbabi/              Root package: corpus directory to dispatch tables
//	├── cell/            Cells, bit/ref cursor, builder and BOC codec
//	├── tlb/             TL-B grammar compiler, decoder, encoder, value tree
//	│   └── gogen/       Go code emitter for compiled TL-B programs
//	├── corpus/          XML and YAML schema document ingestion
//	├── compiler/        Prelude, per-entry compilation, namespacing, registry
//	├── abi/             Decoder tables, dispatch and payload re-linking
//	├── errors/          Structured error types for debugging
//	└── cmd/             tlbgen and tlbdecode command line tools
//
// # Quick Start
//
// Build tables from a corpus and decode a message:
//
//	res, err := tlbabi.Load(ctx, "abi/schemas", tlbabi.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := tlbabi.DecodeBOC(res.Tables, boc, tlbabi.ModeEmbedded)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(msg.Group, msg.Entry)
//
// # Tag Collisions
//
// Tags are not unique across a corpus. Every decoder registered under a
// tag is tried in registration order: groups sorted by name, messages
// before payloads, entries in document order. The first decoder that
// parses the message wins. Entries marked fixed_length must also consume
// the whole cell, which lets a short exact layout beat a longer prefix.
//
// # Embedded Payloads
//
// Fields of type JettonPayload decode to opaque *tlb.Payload regions.
// ModeEmbedded, or abi.Relink, dispatches each region through the payload
// table and attaches the parsed sub-message.
//
// # Code Generation
//
// compiler.WriteArtifacts writes the same tables as Go packages: a shared
// globals package, one package per entry, a flattened index per group and a
// top-level dispatch file. The tlbgen command drives it from a TOML config.
//
// # Thread Safety
//
// Tables are immutable once built and safe for concurrent dispatch.
// compiler.Result.Extend publishes a new snapshot and never mutates
// tables handed out earlier.
package tlbabi
