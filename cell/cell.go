package cell

import "errors"

const (
	// MaxBits is the data capacity of a single cell.
	MaxBits = 1023
	// MaxRefs is the number of references a single cell may hold.
	MaxRefs = 4
)

var (
	ErrNotEnoughBits = errors.New("cell: not enough data bits")
	ErrNotEnoughRefs = errors.New("cell: not enough references")
	ErrBitsOverflow  = errors.New("cell: data bits overflow")
	ErrRefsOverflow  = errors.New("cell: references overflow")
	ErrValueTooLarge = errors.New("cell: value does not fit in bit width")
	ErrInvalidWidth  = errors.New("cell: invalid bit width")
)

// Cell is an immutable node of a cell DAG.
type Cell struct {
	bits   BitString
	refs   []*Cell
	exotic bool
}

// BitLen returns the number of data bits.
func (c *Cell) BitLen() int {
	return c.bits.Len()
}

// RefCount returns the number of references.
func (c *Cell) RefCount() int {
	return len(c.refs)
}

// Ref returns reference i.
func (c *Cell) Ref(i int) *Cell {
	return c.refs[i]
}

// Bits returns the data bits.
func (c *Cell) Bits() BitString {
	return c.bits
}

// IsExotic reports whether the cell was read from a BOC with the exotic flag set.
func (c *Cell) IsExotic() bool {
	return c.exotic
}

// BeginParse returns a cursor positioned at the start of the cell.
func (c *Cell) BeginParse() *Slice {
	return &Slice{cell: c}
}

// Equal compares two cell trees structurally.
func (c *Cell) Equal(o *Cell) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if c.exotic != o.exotic || !c.bits.Equal(o.bits) || len(c.refs) != len(o.refs) {
		return false
	}
	for i := range c.refs {
		if !c.refs[i].Equal(o.refs[i]) {
			return false
		}
	}
	return true
}

// String renders the cell tree in the indented x{...} form TON tooling prints.
func (c *Cell) String() string {
	var out []byte
	var walk func(c *Cell, depth int)
	walk = func(c *Cell, depth int) {
		for i := 0; i < depth; i++ {
			out = append(out, ' ')
		}
		out = append(out, "x{"...)
		out = append(out, c.bits.String()...)
		out = append(out, "}\n"...)
		for _, r := range c.refs {
			walk(r, depth+1)
		}
	}
	walk(c, 0)
	return string(out[:len(out)-1])
}
