// Package compiler turns a schema corpus into decoder packages and dispatch
// tables.
//
// The pipeline has four stages:
//
//   - BuildGlobals compiles the shared prelude once into a GlobalRegistry:
//     the compiled program plus the set of exported Go names its generated
//     package declares.
//   - Every message and payload entry is compiled on its own over the
//     prelude. The generated result type is renamed after the entry, any
//     declaration the prelude already provides is stripped, and the
//     remaining references to prelude names are qualified with the globals
//     package. Entry failures are logged and recorded, never fatal.
//   - Namespace flattens the entries of a group into one index whose
//     exported loaders are named Load<Group><Entry>. Two entries flattening
//     to the same name abort the run.
//   - RegistryBuilder aggregates the indexes into tag-indexed abi tables.
//     Groups can be added after the first Build; each Build returns a new
//     snapshot.
//
// Build runs the whole pipeline in memory. WriteArtifacts persists the
// generated packages.
package compiler
