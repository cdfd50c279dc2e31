package tlb

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb/ast"
)

const maxArrayLen = 1 << 16

type decoder struct {
	prog *Program
}

func (d *decoder) named(s *cell.Slice, t *Type, args []arg, depth int) (Value, []uint64, error) {
	if depth > d.prog.maxDepth {
		return nil, nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			TLBType(t.Name).
			Detail("nesting deeper than %d", d.prog.maxDepth).
			Build()
	}

	start := s.Snapshot()
	for _, c := range t.Constructors {
		if !tagMatches(s, c.Tag) {
			continue
		}
		en := newEnv()
		if !bindArgs(c, args, en) {
			continue
		}
		if _, err := s.LoadUint(c.Tag.Len); err != nil {
			return nil, nil, cellErr(errors.PhaseDecode, err)
		}

		rec := &Record{Type: t.Name, Constructor: c.Name}
		if err := d.fields(s, c.Fields, en, rec, depth); err != nil {
			return nil, nil, inType(err, t.Name)
		}
		outs, err := outputs(c, args, en, errors.PhaseDecode)
		if err != nil {
			return nil, nil, err
		}
		if d.prog.IsPayload(t.Name) {
			return &Payload{Type: t.Name, Data: s.Consumed(start)}, outs, nil
		}
		return rec, outs, nil
	}

	return nil, nil, errors.New(errors.PhaseDecode, errors.KindDecodeFailure).
		TLBType(t.Name).
		Detail("no constructor matches at %d remaining bits", s.RemainingBits()).
		Build()
}

func tagMatches(s *cell.Slice, tag ast.Tag) bool {
	if tag.Len == 0 {
		return true
	}
	v, err := s.PreloadUint(tag.Len)
	return err == nil && v == tag.Bits
}

func (d *decoder) fields(s *cell.Slice, fields []*ast.Field, en *env, rec *Record, depth int) error {
	anon := 0
	for _, f := range fields {
		switch f.Kind {
		case ast.FieldImplicit:
			continue
		case ast.FieldConstraint:
			if err := constrain(f.Type.(*ast.Binary), en, errors.PhaseDecode); err != nil {
				return err
			}
			continue
		}

		name := f.Name
		if name == "" {
			name = "anon" + strconv.Itoa(anon)
			anon++
		}
		v, err := d.value(s, f.Type, en, depth)
		if err != nil {
			return atField(err, name)
		}
		if f.Name != "" {
			bindNat(en, f.Name, v)
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Value: v})
	}
	return nil
}

// bindNat makes integer and Bool fields usable as naturals by later fields.
func bindNat(en *env, name string, v Value) {
	switch x := v.(type) {
	case Uint:
		en.nats[name] = uint64(x)
	case Bool:
		if x {
			en.nats[name] = 1
		} else {
			en.nats[name] = 0
		}
	}
}

func (d *decoder) value(s *cell.Slice, e ast.Expr, en *env, depth int) (Value, error) {
	switch x := e.(type) {
	case *ast.Ident:
		if th, ok := en.types[x.Name]; ok {
			return d.value(s, th.expr, th.env, depth+1)
		}
		if t := d.prog.Lookup(x.Name); t != nil {
			if len(t.Params) > 0 {
				return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
					TLBType(t.Name).
					Detail("used without its %d parameters", len(t.Params)).
					Build()
			}
			v, _, err := d.named(s, t, nil, depth+1)
			return v, err
		}
		return d.builtin(s, x.Name, nil, en)

	case *ast.Apply:
		t := d.prog.Lookup(x.Func)
		if t == nil {
			return d.builtin(s, x.Func, x.Args, en)
		}
		args, err := resolveArgs(t, x.Args, en, errors.PhaseDecode)
		if err != nil {
			return nil, err
		}
		v, outs, err := d.named(s, t, args, depth+1)
		if err != nil {
			return nil, err
		}
		if err := bindOutputs(args, outs, en, errors.PhaseDecode); err != nil {
			return nil, err
		}
		return v, nil

	case *ast.NatType:
		return d.uint(s, 32)

	case *ast.NatWidth:
		n, err := evalNat(x.Width, en)
		if err != nil {
			return nil, natErr(errors.PhaseDecode, err)
		}
		return d.uint(s, n)

	case *ast.NatLeq:
		m, err := evalNat(x.Max, en)
		if err != nil {
			return nil, natErr(errors.PhaseDecode, err)
		}
		return d.bounded(s, m, bits.Len64(m))

	case *ast.NatLess:
		m, err := evalNat(x.Bound, en)
		if err != nil {
			return nil, natErr(errors.PhaseDecode, err)
		}
		if m == 0 {
			return nil, errors.New(errors.PhaseDecode, errors.KindConstraint).Detail("#< 0 has no values").Build()
		}
		return d.bounded(s, m-1, bits.Len64(m-1))

	case *ast.Ref:
		c, err := s.LoadRef()
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		if isCell(x.X, en, d.prog) {
			return &Ref{Cell: c}, nil
		}
		return d.value(c.BeginParse(), x.X, en, depth+1)

	case *ast.Anon:
		rec := &Record{}
		if err := d.fields(s, x.Fields, en, rec, depth); err != nil {
			return nil, err
		}
		return rec, nil

	case *ast.Cond:
		present, err := condition(x, en)
		if err != nil {
			return nil, natErr(errors.PhaseDecode, err)
		}
		if !present {
			return nil, nil
		}
		return d.value(s, x.X, en, depth)

	case *ast.Binary:
		if x.Op != "*" {
			break
		}
		n, err := evalNat(x.X, en)
		if err != nil {
			return nil, natErr(errors.PhaseDecode, err)
		}
		if isBit(x.Y, en, d.prog) {
			bs, err := s.LoadBits(int(n))
			if err != nil {
				return nil, cellErr(errors.PhaseDecode, err)
			}
			return Bits{bs}, nil
		}
		if n > maxArrayLen {
			return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
				Detail("array of %d elements", n).
				Build()
		}
		list := make(List, 0, n)
		for i := uint64(0); i < n; i++ {
			v, err := d.value(s, x.Y, en, depth+1)
			if err != nil {
				return nil, atField(err, strconv.FormatUint(i, 10))
			}
			list = append(list, v)
		}
		return list, nil
	}

	return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Detail("%s is not a type", e).
		Build()
}

func (d *decoder) uint(s *cell.Slice, n uint64) (Value, error) {
	if n > cell.MaxBits {
		return nil, errors.Overflow(errors.PhaseDecode, nil, n, "bit width")
	}
	if n <= 64 {
		v, err := s.LoadUint(int(n))
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return Uint(v), nil
	}
	v, err := s.LoadBigUint(int(n))
	if err != nil {
		return nil, cellErr(errors.PhaseDecode, err)
	}
	return &Big{Int: v}, nil
}

func (d *decoder) int(s *cell.Slice, n uint64) (Value, error) {
	if n > cell.MaxBits {
		return nil, errors.Overflow(errors.PhaseDecode, nil, n, "bit width")
	}
	if n <= 64 {
		v, err := s.LoadInt(int(n))
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return Int(v), nil
	}
	v, err := s.LoadBigInt(int(n))
	if err != nil {
		return nil, cellErr(errors.PhaseDecode, err)
	}
	return &Big{Int: v}, nil
}

func (d *decoder) bounded(s *cell.Slice, max uint64, width int) (Value, error) {
	v, err := s.LoadUint(width)
	if err != nil {
		return nil, cellErr(errors.PhaseDecode, err)
	}
	if v > max {
		return nil, errors.New(errors.PhaseDecode, errors.KindConstraint).
			Value(v).
			Detail("%d exceeds bound %d", v, max).
			Build()
	}
	return Uint(v), nil
}

func (d *decoder) builtin(s *cell.Slice, name string, args []ast.Expr, en *env) (Value, error) {
	if builtinApply[name] {
		if len(args) != 1 {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				TLBType(name).
				Detail("expects 1 parameter, got %d", len(args)).
				Build()
		}
		n, err := evalNat(args[0], en)
		if err != nil {
			return nil, natErr(errors.PhaseDecode, err)
		}
		return d.sized(s, name, n)
	}
	if len(args) > 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			TLBType(name).
			Detail("takes no parameters").
			Build()
	}
	if m := widthName.FindStringSubmatch(name); m != nil {
		n, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return nil, errors.Overflow(errors.PhaseDecode, nil, m[2], "bit width")
		}
		return d.sized(s, m[1], n)
	}

	switch name {
	case "Bool":
		v, err := s.LoadBit()
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return Bool(v), nil
	case "Bit":
		return d.uint(s, 1)
	case "Cell", "Any":
		return &Ref{Cell: s.LoadRemainder()}, nil
	case "Grams":
		v, err := s.LoadCoins()
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return &Big{Int: v}, nil
	case "MsgAddress", "MsgAddressInt", "MsgAddressExt":
		a, err := s.LoadAddress()
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		if err := checkAddressKind(name, a, errors.PhaseDecode); err != nil {
			return nil, err
		}
		return Address{a}, nil
	}

	return nil, errors.NotFound(errors.PhaseDecode, "type", name)
}

func (d *decoder) sized(s *cell.Slice, name string, n uint64) (Value, error) {
	switch name {
	case "uint":
		return d.uint(s, n)
	case "int":
		return d.int(s, n)
	case "bits":
		if n > cell.MaxBits {
			return nil, errors.Overflow(errors.PhaseDecode, nil, n, "bit width")
		}
		bs, err := s.LoadBits(int(n))
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return Bits{bs}, nil
	case "VarUInteger":
		v, err := s.LoadVarUint(int(n))
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return &Big{Int: v}, nil
	case "VarInteger":
		v, err := s.LoadVarInt(int(n))
		if err != nil {
			return nil, cellErr(errors.PhaseDecode, err)
		}
		return &Big{Int: v}, nil
	}
	return nil, errors.NotFound(errors.PhaseDecode, "type", name)
}

func checkAddressKind(name string, a cell.Address, phase errors.Phase) error {
	switch {
	case name == "MsgAddressInt" && !a.IsInternal(),
		name == "MsgAddressExt" && a.IsInternal():
		return errors.New(phase, errors.KindTypeMismatch).
			TLBType(name).
			Detail("got %s address", a.Kind).
			Build()
	}
	return nil
}

func condition(c *ast.Cond, en *env) (bool, error) {
	v, err := evalNat(c.Cond, en)
	if err != nil {
		return false, err
	}
	if c.Bit >= 0 {
		return v>>uint(c.Bit)&1 == 1, nil
	}
	return v != 0, nil
}

// isCell reports whether e denotes the opaque Cell or Any type, following
// type parameters.
func isCell(e ast.Expr, en *env, p *Program) bool {
	id, ok := e.(*ast.Ident)
	if !ok {
		return false
	}
	if th, ok := en.types[id.Name]; ok {
		return isCell(th.expr, th.env, p)
	}
	return (id.Name == "Cell" || id.Name == "Any") && p.Lookup(id.Name) == nil
}

// isBit reports whether e is Bit, which turns n * Bit into a bit string.
func isBit(e ast.Expr, en *env, p *Program) bool {
	id, ok := e.(*ast.Ident)
	if !ok {
		return false
	}
	if th, ok := en.types[id.Name]; ok {
		return isBit(th.expr, th.env, p)
	}
	return id.Name == "Bit"
}

func cellErr(phase errors.Phase, err error) error {
	kind := errors.KindInvalidData
	switch {
	case errors.Is(err, cell.ErrNotEnoughBits), errors.Is(err, cell.ErrNotEnoughRefs),
		errors.Is(err, cell.ErrBitsOverflow), errors.Is(err, cell.ErrRefsOverflow):
		kind = errors.KindOutOfBounds
	case errors.Is(err, cell.ErrValueTooLarge):
		kind = errors.KindOverflow
	}
	return errors.Wrap(phase, kind, err, err.Error())
}

func natErr(phase errors.Phase, err error) error {
	return errors.InvalidData(phase, nil, err.Error())
}

// atField prefixes the error's path with a field name.
func atField(err error, name string) error {
	var e *errors.Error
	if errors.As(err, &e) {
		e.Path = append([]string{name}, e.Path...)
		return e
	}
	return fmt.Errorf("%s: %w", name, err)
}

// inType records the outermost type name on errors that have none.
func inType(err error, name string) error {
	var e *errors.Error
	if errors.As(err, &e) && e.TLBType == "" {
		e.TLBType = name
	}
	return err
}
