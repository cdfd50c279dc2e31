package abi

import "github.com/wippyai/tlb-abi/tlb"

// Relink walks v depth-first and dispatches the data of every embedded
// payload through payloads. A recognized payload gets Parsed set; any
// other payload is left as it is. Opaque bits and cells are not entered,
// nor are payloads already parsed into sub-messages. Relink returns the
// number of payloads it recognized and can be run repeatedly with the
// same outcome.
func Relink(payloads *Table, v tlb.Value) int {
	switch x := v.(type) {
	case *tlb.Record:
		n := 0
		for _, f := range x.Fields {
			n += Relink(payloads, f.Value)
		}
		return n
	case tlb.List:
		n := 0
		for _, el := range x {
			n += Relink(payloads, el)
		}
		return n
	case *tlb.Payload:
		if x.Data == nil {
			return 0
		}
		msg, ok := payloads.Dispatch(x.Data.BeginParse())
		if !ok {
			return 0
		}
		x.Parsed = msg
		return 1
	}
	return 0
}
