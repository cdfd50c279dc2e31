// Package errors provides structured error types for the tlb-abi module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the schema group and entry it belongs to, the field path,
// TL-B/Go type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindConstraint).
//		Entry("daolama", "vault_supply").
//		Path("flags").
//		TLBType("DNSRecord").
//		Detail("flags <= 1 violated").
//		Build()
//
// Or use convenience constructors for the pipeline's failure modes:
//
//	err := errors.SchemaMalformed("daolama", "vault_supply", "missing #tag")
//	err := errors.NameCollision("dedust", "LoadDedustSwap", "swap", "Swap")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
