package abi

import "github.com/wippyai/tlb-abi/cell"

// Tables holds the message and payload tables of one build.
type Tables struct {
	Messages *Table
	Payloads *Table
}

// DispatchMessage dispatches s through the message table.
func (t *Tables) DispatchMessage(s *cell.Slice) (*Message, bool) {
	return t.Messages.Dispatch(s)
}

// DispatchPayload dispatches s through the payload table.
func (t *Tables) DispatchPayload(s *cell.Slice) (*Message, bool) {
	return t.Payloads.Dispatch(s)
}

// DispatchWithEmbedded dispatches s through the message table and relinks
// the embedded payloads of the result.
func (t *Tables) DispatchWithEmbedded(s *cell.Slice) (*Message, bool) {
	msg, ok := t.Messages.Dispatch(s)
	if !ok {
		return nil, false
	}
	Relink(t.Payloads, msg.Data)
	return msg, true
}
