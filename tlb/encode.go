package tlb

import (
	"math"
	"math/big"
	"math/bits"
	"strconv"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/errors"
	"github.com/wippyai/tlb-abi/tlb/ast"
)

type encoder struct {
	prog *Program
}

func (e *encoder) named(b *cell.Builder, t *Type, args []arg, v Value, depth int) ([]uint64, error) {
	if depth > e.prog.maxDepth {
		return nil, errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
			TLBType(t.Name).
			Detail("nesting deeper than %d", e.prog.maxDepth).
			Build()
	}

	if e.prog.IsPayload(t.Name) {
		p, ok := v.(*Payload)
		if !ok || p.Data == nil {
			return nil, mismatch(t.Name, v)
		}
		if err := b.StoreCell(p.Data); err != nil {
			return nil, cellErr(errors.PhaseEncode, err)
		}
		return make([]uint64, len(args)), nil
	}

	rec, ok := v.(*Record)
	if !ok {
		return nil, mismatch(t.Name, v)
	}
	for _, c := range t.Constructors {
		if c.Name != rec.Constructor {
			continue
		}
		en := newEnv()
		if !bindArgs(c, args, en) {
			continue
		}
		if err := b.StoreUint(c.Tag.Bits, c.Tag.Len); err != nil {
			return nil, cellErr(errors.PhaseEncode, err)
		}
		if err := e.fields(b, c.Fields, en, rec, depth); err != nil {
			return nil, inType(err, t.Name)
		}
		return outputs(c, args, en, errors.PhaseEncode)
	}

	return nil, errors.New(errors.PhaseEncode, errors.KindNotFound).
		TLBType(t.Name).
		Detail("no constructor %q applies", rec.Constructor).
		Build()
}

func (e *encoder) fields(b *cell.Builder, fields []*ast.Field, en *env, rec *Record, depth int) error {
	anon := 0
	for _, f := range fields {
		switch f.Kind {
		case ast.FieldImplicit:
			continue
		case ast.FieldConstraint:
			if err := constrain(f.Type.(*ast.Binary), en, errors.PhaseEncode); err != nil {
				return err
			}
			continue
		}

		name := f.Name
		if name == "" {
			name = "anon" + strconv.Itoa(anon)
			anon++
		}
		v, _ := rec.Get(name)
		if err := e.value(b, f.Type, en, v, depth); err != nil {
			return atField(err, name)
		}
		if f.Name != "" {
			bindNat(en, f.Name, v)
		}
	}
	return nil
}

func (e *encoder) value(b *cell.Builder, x ast.Expr, en *env, v Value, depth int) error {
	switch t := x.(type) {
	case *ast.Ident:
		if th, ok := en.types[t.Name]; ok {
			return e.value(b, th.expr, th.env, v, depth+1)
		}
		if typ := e.prog.Lookup(t.Name); typ != nil {
			if len(typ.Params) > 0 {
				return errors.New(errors.PhaseEncode, errors.KindInvalidData).
					TLBType(typ.Name).
					Detail("used without its %d parameters", len(typ.Params)).
					Build()
			}
			_, err := e.named(b, typ, nil, v, depth+1)
			return err
		}
		return e.builtin(b, t.Name, nil, en, v)

	case *ast.Apply:
		typ := e.prog.Lookup(t.Func)
		if typ == nil {
			return e.builtin(b, t.Func, t.Args, en, v)
		}
		args, err := resolveArgs(typ, t.Args, en, errors.PhaseEncode)
		if err != nil {
			return err
		}
		outs, err := e.named(b, typ, args, v, depth+1)
		if err != nil {
			return err
		}
		return bindOutputs(args, outs, en, errors.PhaseEncode)

	case *ast.NatType:
		return e.uint(b, v, 32, "#")

	case *ast.NatWidth:
		n, err := evalNat(t.Width, en)
		if err != nil {
			return natErr(errors.PhaseEncode, err)
		}
		return e.uint(b, v, n, t.String())

	case *ast.NatLeq:
		m, err := evalNat(t.Max, en)
		if err != nil {
			return natErr(errors.PhaseEncode, err)
		}
		return e.bounded(b, v, m, bits.Len64(m))

	case *ast.NatLess:
		m, err := evalNat(t.Bound, en)
		if err != nil {
			return natErr(errors.PhaseEncode, err)
		}
		if m == 0 {
			return errors.New(errors.PhaseEncode, errors.KindConstraint).Detail("#< 0 has no values").Build()
		}
		return e.bounded(b, v, m-1, bits.Len64(m-1))

	case *ast.Ref:
		if isCell(t.X, en, e.prog) {
			r, ok := v.(*Ref)
			if !ok || r.Cell == nil {
				return mismatch("^Cell", v)
			}
			if err := b.StoreRef(r.Cell); err != nil {
				return cellErr(errors.PhaseEncode, err)
			}
			return nil
		}
		child := cell.NewBuilder()
		if err := e.value(child, t.X, en, v, depth+1); err != nil {
			return err
		}
		if err := b.StoreRef(child.EndCell()); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil

	case *ast.Anon:
		rec, ok := v.(*Record)
		if !ok {
			return mismatch("anonymous cell", v)
		}
		return e.fields(b, t.Fields, en, rec, depth)

	case *ast.Cond:
		present, err := condition(t, en)
		if err != nil {
			return natErr(errors.PhaseEncode, err)
		}
		switch {
		case present && v == nil:
			return errors.New(errors.PhaseEncode, errors.KindConstraint).
				Detail("conditional field is required when %s holds", t.Cond).
				Build()
		case !present && v != nil:
			return errors.New(errors.PhaseEncode, errors.KindConstraint).
				Detail("conditional field must be absent when %s does not hold", t.Cond).
				Build()
		case !present:
			return nil
		}
		return e.value(b, t.X, en, v, depth)

	case *ast.Binary:
		if t.Op != "*" {
			break
		}
		n, err := evalNat(t.X, en)
		if err != nil {
			return natErr(errors.PhaseEncode, err)
		}
		if isBit(t.Y, en, e.prog) {
			return e.bits(b, v, n)
		}
		list, ok := v.(List)
		if !ok {
			return mismatch(t.String(), v)
		}
		if uint64(len(list)) != n {
			return errors.New(errors.PhaseEncode, errors.KindConstraint).
				Detail("array has %d elements, want %d", len(list), n).
				Build()
		}
		for i, el := range list {
			if err := e.value(b, t.Y, en, el, depth+1); err != nil {
				return atField(err, strconv.Itoa(i))
			}
		}
		return nil
	}

	return errors.New(errors.PhaseEncode, errors.KindInvalidData).
		Detail("%s is not a type", x).
		Build()
}

func (e *encoder) uint(b *cell.Builder, v Value, n uint64, typ string) error {
	if n > cell.MaxBits {
		return errors.Overflow(errors.PhaseEncode, nil, n, "bit width")
	}
	if n <= 64 {
		u, err := asUint(v, typ)
		if err != nil {
			return err
		}
		if n < 64 && u>>n != 0 {
			return errors.Overflow(errors.PhaseEncode, nil, u, typ)
		}
		if err := b.StoreUint(u, int(n)); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	}
	i, err := asBig(v, typ)
	if err != nil {
		return err
	}
	if err := b.StoreBigUint(i, int(n)); err != nil {
		return cellErr(errors.PhaseEncode, err)
	}
	return nil
}

func (e *encoder) int(b *cell.Builder, v Value, n uint64, typ string) error {
	if n > cell.MaxBits {
		return errors.Overflow(errors.PhaseEncode, nil, n, "bit width")
	}
	if n <= 64 {
		i, err := asInt(v, typ)
		if err != nil {
			return err
		}
		if err := b.StoreInt(i, int(n)); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	}
	i, err := asBig(v, typ)
	if err != nil {
		return err
	}
	if err := b.StoreBigInt(i, int(n)); err != nil {
		return cellErr(errors.PhaseEncode, err)
	}
	return nil
}

func (e *encoder) bounded(b *cell.Builder, v Value, max uint64, width int) error {
	u, err := asUint(v, "#<=")
	if err != nil {
		return err
	}
	if u > max {
		return errors.New(errors.PhaseEncode, errors.KindConstraint).
			Value(u).
			Detail("%d exceeds bound %d", u, max).
			Build()
	}
	if err := b.StoreUint(u, width); err != nil {
		return cellErr(errors.PhaseEncode, err)
	}
	return nil
}

func (e *encoder) bits(b *cell.Builder, v Value, n uint64) error {
	bs, ok := v.(Bits)
	if !ok {
		return mismatch("bits", v)
	}
	if uint64(bs.Len()) != n {
		return errors.New(errors.PhaseEncode, errors.KindConstraint).
			Detail("bit string has %d bits, want %d", bs.Len(), n).
			Build()
	}
	if err := b.StoreBits(bs.BitString); err != nil {
		return cellErr(errors.PhaseEncode, err)
	}
	return nil
}

func (e *encoder) builtin(b *cell.Builder, name string, args []ast.Expr, en *env, v Value) error {
	if builtinApply[name] {
		if len(args) != 1 {
			return errors.New(errors.PhaseEncode, errors.KindInvalidData).
				TLBType(name).
				Detail("expects 1 parameter, got %d", len(args)).
				Build()
		}
		n, err := evalNat(args[0], en)
		if err != nil {
			return natErr(errors.PhaseEncode, err)
		}
		return e.sized(b, name, n, v)
	}
	if len(args) > 0 {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			TLBType(name).
			Detail("takes no parameters").
			Build()
	}
	if m := widthName.FindStringSubmatch(name); m != nil {
		n, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return errors.Overflow(errors.PhaseEncode, nil, m[2], "bit width")
		}
		return e.sized(b, m[1], n, v)
	}

	switch name {
	case "Bool":
		x, ok := v.(Bool)
		if !ok {
			return mismatch(name, v)
		}
		if err := b.StoreBit(bool(x)); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	case "Bit":
		return e.uint(b, v, 1, name)
	case "Cell", "Any":
		r, ok := v.(*Ref)
		if !ok || r.Cell == nil {
			return mismatch(name, v)
		}
		if err := b.StoreCell(r.Cell); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	case "Grams":
		i, err := asBig(v, name)
		if err != nil {
			return err
		}
		if err := b.StoreCoins(i); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	case "MsgAddress", "MsgAddressInt", "MsgAddressExt":
		a, ok := v.(Address)
		if !ok {
			return mismatch(name, v)
		}
		if err := checkAddressKind(name, a.Address, errors.PhaseEncode); err != nil {
			return err
		}
		if err := b.StoreAddress(a.Address); err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	}

	return errors.NotFound(errors.PhaseEncode, "type", name)
}

func (e *encoder) sized(b *cell.Builder, name string, n uint64, v Value) error {
	switch name {
	case "uint":
		return e.uint(b, v, n, name+strconv.FormatUint(n, 10))
	case "int":
		return e.int(b, v, n, name+strconv.FormatUint(n, 10))
	case "bits":
		return e.bits(b, v, n)
	case "VarUInteger", "VarInteger":
		i, err := asBig(v, name)
		if err != nil {
			return err
		}
		if n > math.MaxInt32 {
			return errors.Overflow(errors.PhaseEncode, nil, n, name)
		}
		if name == "VarUInteger" {
			err = b.StoreVarUint(i, int(n))
		} else {
			err = b.StoreVarInt(i, int(n))
		}
		if err != nil {
			return cellErr(errors.PhaseEncode, err)
		}
		return nil
	}
	return errors.NotFound(errors.PhaseEncode, "type", name)
}

func asUint(v Value, typ string) (uint64, error) {
	switch x := v.(type) {
	case Uint:
		return uint64(x), nil
	case Bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case Int:
		if x >= 0 {
			return uint64(x), nil
		}
		return 0, errors.Overflow(errors.PhaseEncode, nil, int64(x), typ)
	case *Big:
		if x != nil && x.Int != nil && x.Int.IsUint64() {
			return x.Int.Uint64(), nil
		}
		return 0, errors.Overflow(errors.PhaseEncode, nil, v, typ)
	}
	return 0, mismatch(typ, v)
}

func asInt(v Value, typ string) (int64, error) {
	switch x := v.(type) {
	case Int:
		return int64(x), nil
	case Uint:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
		return 0, errors.Overflow(errors.PhaseEncode, nil, uint64(x), typ)
	case *Big:
		if x != nil && x.Int != nil && x.Int.IsInt64() {
			return x.Int.Int64(), nil
		}
		return 0, errors.Overflow(errors.PhaseEncode, nil, v, typ)
	}
	return 0, mismatch(typ, v)
}

func asBig(v Value, typ string) (*big.Int, error) {
	switch x := v.(type) {
	case Uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case Int:
		return big.NewInt(int64(x)), nil
	case *Big:
		if x != nil && x.Int != nil {
			return x.Int, nil
		}
	}
	return nil, mismatch(typ, v)
}

func mismatch(tlbType string, v Value) error {
	return errors.TypeMismatch(errors.PhaseEncode, nil, goTypeName(v), tlbType)
}

func goTypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case Uint:
		return "tlb.Uint"
	case Int:
		return "tlb.Int"
	case *Big:
		return "*tlb.Big"
	case Bool:
		return "tlb.Bool"
	case Bits:
		return "tlb.Bits"
	case *Ref:
		return "*tlb.Ref"
	case Address:
		return "tlb.Address"
	case List:
		return "tlb.List"
	case *Record:
		return "*tlb.Record"
	case *Payload:
		return "*tlb.Payload"
	}
	return "unknown"
}
