// Package abi dispatches tag-prefixed messages to compiled decoders.
//
// A Table maps a 32-bit discriminator tag to the decoders registered under
// it, in registration order. Tags are not unique across schemas, so
// Dispatch tries every candidate for the leading tag and returns the first
// one that decodes. Fixed-length candidates must also consume the whole
// cell. A failed candidate rewinds the cursor and is only logged at debug
// level; "no match" is the false result, never an error.
//
// Tables pairs the message table with the table of embeddable payloads.
// DispatchWithEmbedded decodes a message and then runs Relink, which
// re-dispatches every embedded payload region of the decoded tree through
// the payload table.
//
// Tables are immutable once built and safe for concurrent dispatch.
package abi
