// Package cell implements TON cells: a cell holds up to 1023 data bits and
// up to four references to other cells, and a message is a DAG of cells
// serialized as a bag of cells (BOC).
//
// Slice is the read cursor used by every decoder in this module. It reads
// bits and references front to back and can be snapshotted and restored,
// which is what lets the dispatch engine try several decoders against the
// same input:
//
//	root, err := cell.FromBOC(data)
//	s := root.BeginParse()
//	op, _ := s.PreloadUint(32) // does not advance
//	snap := s.Snapshot()
//	if _, err := decode(s); err != nil {
//		s.Restore(snap)
//	}
//
// Builder is the write-side mirror of Slice.
package cell
