// Package corpus loads schema documents from disk.
//
// A document contributes shared auxiliary types plus message ("internal")
// and embeddable payload entries, each carrying a TL-B fragment whose head
// is `name#tag`. Two layouts are understood:
//
//	<abi>
//	  <types>...</types>
//	  <internal name="vault_supply" fixed_length="true">...</internal>
//	  <jetton_payload name="swap">...</jetton_payload>
//	</abi>
//
// and the equivalent YAML document with the keys types, internals and
// jetton_payloads. Elements and keys this package does not use are ignored,
// so ABI files that also describe get-methods load unchanged.
//
// The group of a document is its file name without extension, with '-'
// replaced by '_'.
package corpus
