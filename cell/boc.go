package cell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math/bits"
	"slices"
)

const bocMagic = 0xb5ee9c72

var (
	ErrInvalidBOC  = errors.New("cell: invalid bag of cells")
	ErrBOCChecksum = errors.New("cell: bag of cells checksum mismatch")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ToBOC serializes the cell DAG rooted at c without index or checksum.
func (c *Cell) ToBOC() []byte {
	return c.ToBOCWithFlags(false)
}

// ToBOCWithFlags serializes the cell DAG rooted at c, appending a CRC32C
// checksum when withCRC is set. Cells reachable through several parents are
// stored once.
func (c *Cell) ToBOCWithFlags(withCRC bool) []byte {
	order := topoOrder(c)
	index := make(map[*Cell]int, len(order))
	for i, x := range order {
		index[x] = i
	}

	sizeBytes := byteWidth(uint64(len(order)))
	var payload []byte
	for _, x := range order {
		payload = x.appendRepr(payload, index, sizeBytes)
	}
	offBytes := byteWidth(uint64(len(payload)))

	out := make([]byte, 0, 6+4*sizeBytes+offBytes+len(payload)+4)
	out = binary.BigEndian.AppendUint32(out, bocMagic)
	flags := byte(sizeBytes)
	if withCRC {
		flags |= 0x40
	}
	out = append(out, flags, byte(offBytes))
	out = appendUintN(out, uint64(len(order)), sizeBytes)
	out = appendUintN(out, 1, sizeBytes)
	out = appendUintN(out, 0, sizeBytes)
	out = appendUintN(out, uint64(len(payload)), offBytes)
	out = appendUintN(out, 0, sizeBytes)
	out = append(out, payload...)
	if withCRC {
		out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(out, castagnoli))
	}
	return out
}

func (c *Cell) appendRepr(out []byte, index map[*Cell]int, sizeBytes int) []byte {
	n := c.bits.Len()
	d1 := byte(len(c.refs))
	if c.exotic {
		d1 |= 8
	}
	d2 := byte(n/8 + (n+7)/8)
	out = append(out, d1, d2)

	data := c.bits.Bytes()
	if n%8 != 0 {
		data[len(data)-1] |= 0x80 >> (n % 8)
	}
	out = append(out, data...)
	for _, r := range c.refs {
		out = appendUintN(out, uint64(index[r]), sizeBytes)
	}
	return out
}

// topoOrder lists every distinct cell so that parents precede children.
func topoOrder(root *Cell) []*Cell {
	seen := make(map[*Cell]bool)
	var post []*Cell
	var visit func(*Cell)
	visit = func(c *Cell) {
		if seen[c] {
			return
		}
		seen[c] = true
		for _, r := range c.refs {
			visit(r)
		}
		post = append(post, c)
	}
	visit(root)
	slices.Reverse(post)
	return post
}

// FromBOC parses a bag of cells and returns its first root.
func FromBOC(data []byte) (*Cell, error) {
	roots, err := FromBOCMultiRoot(data)
	if err != nil {
		return nil, err
	}
	return roots[0], nil
}

// FromBOCMultiRoot parses a bag of cells and returns all of its roots.
func FromBOCMultiRoot(data []byte) ([]*Cell, error) {
	if len(data) < 6 || binary.BigEndian.Uint32(data) != bocMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidBOC)
	}
	flags := data[4]
	hasIdx := flags&0x80 != 0
	hasCRC := flags&0x40 != 0
	sizeBytes := int(flags & 7)
	offBytes := int(data[5])
	if sizeBytes == 0 || sizeBytes > 4 || offBytes == 0 || offBytes > 8 {
		return nil, fmt.Errorf("%w: size %d, offset size %d", ErrInvalidBOC, sizeBytes, offBytes)
	}

	if hasCRC {
		if len(data) < 10 {
			return nil, fmt.Errorf("%w: truncated", ErrInvalidBOC)
		}
		body := data[:len(data)-4]
		if crc32.Checksum(body, castagnoli) != binary.LittleEndian.Uint32(data[len(data)-4:]) {
			return nil, ErrBOCChecksum
		}
		data = body
	}

	r := &bocReader{data: data, pos: 6}
	cells, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	roots, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	absent, err := r.uint(sizeBytes)
	if err != nil {
		return nil, err
	}
	total, err := r.uint(offBytes)
	if err != nil {
		return nil, err
	}
	if roots < 1 || roots+absent > cells || cells > uint64(len(data)) || total > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d roots, %d absent, %d cells", ErrInvalidBOC, roots, absent, cells)
	}

	rootIdx := make([]int, roots)
	for i := range rootIdx {
		v, err := r.uint(sizeBytes)
		if err != nil {
			return nil, err
		}
		if v >= cells {
			return nil, fmt.Errorf("%w: root index %d out of range", ErrInvalidBOC, v)
		}
		rootIdx[i] = int(v)
	}
	if hasIdx {
		if _, err := r.bytes(int(cells) * offBytes); err != nil {
			return nil, err
		}
	}
	payload, err := r.bytes(int(total))
	if err != nil {
		return nil, err
	}

	type rawCell struct {
		bits   BitString
		refs   []int
		exotic bool
	}
	raws := make([]rawCell, cells)
	pr := &bocReader{data: payload}
	for i := range raws {
		hdr, err := pr.bytes(2)
		if err != nil {
			return nil, err
		}
		d1, d2 := hdr[0], hdr[1]
		refCount := int(d1 & 7)
		if refCount > MaxRefs {
			return nil, fmt.Errorf("%w: cell %d has %d refs", ErrInvalidBOC, i, refCount)
		}
		if d1&16 != 0 {
			hashes := bits.OnesCount8(d1>>5) + 1
			if _, err := pr.bytes(hashes * (32 + 2)); err != nil {
				return nil, err
			}
		}
		raw, err := pr.bytes(int(d2+1) / 2)
		if err != nil {
			return nil, err
		}
		n := len(raw) * 8
		if d2%2 == 1 {
			last := raw[len(raw)-1]
			if last == 0 {
				return nil, fmt.Errorf("%w: cell %d lacks completion tag", ErrInvalidBOC, i)
			}
			n -= bits.TrailingZeros8(last) + 1
		}
		rc := rawCell{bits: NewBitString(raw, n), exotic: d1&8 != 0}
		for j := 0; j < refCount; j++ {
			idx, err := pr.uint(sizeBytes)
			if err != nil {
				return nil, err
			}
			if int(idx) <= i || idx >= cells {
				return nil, fmt.Errorf("%w: cell %d references %d", ErrInvalidBOC, i, idx)
			}
			rc.refs = append(rc.refs, int(idx))
		}
		raws[i] = rc
	}

	built := make([]*Cell, cells)
	for i := len(raws) - 1; i >= 0; i-- {
		c := &Cell{bits: raws[i].bits, exotic: raws[i].exotic}
		for _, idx := range raws[i].refs {
			c.refs = append(c.refs, built[idx])
		}
		built[i] = c
	}

	out := make([]*Cell, len(rootIdx))
	for i, idx := range rootIdx {
		out[i] = built[idx]
	}
	return out, nil
}

type bocReader struct {
	data []byte
	pos  int
}

func (r *bocReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrInvalidBOC, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *bocReader) uint(n int) (uint64, error) {
	b, err := r.bytes(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

func appendUintN(out []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		out = append(out, byte(v>>(8*uint(i))))
	}
	return out
}

func byteWidth(v uint64) int {
	n := (bits.Len64(v) + 7) / 8
	if n == 0 {
		return 1
	}
	return n
}
