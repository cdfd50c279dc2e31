package tlb

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/errors"
)

// Struct tags understood by Unmarshal and Marshal:
//
//	tlb:"name"              record field
//	tlb:"name,constructor"  on a blank field, the constructor a struct encodes
//	tlb:",kind"             string field receiving the constructor name
//	tlb:"name,variant"      pointer to the struct of one constructor
var (
	valueType   = reflect.TypeOf((*Value)(nil)).Elem()
	payloadType = reflect.TypeOf((*Payload)(nil))
	bigType     = reflect.TypeOf((*big.Int)(nil))
	cellType    = reflect.TypeOf((*cell.Cell)(nil))
	bitsType    = reflect.TypeOf(cell.BitString{})
	addrType    = reflect.TypeOf(cell.Address{})
)

type tagKind int

const (
	tagField tagKind = iota
	tagKindName
	tagVariant
)

type structField struct {
	index int
	name  string
	kind  tagKind
}

type structInfo struct {
	fields      []structField
	constructor string
	hasKind     bool
}

var structCache sync.Map // reflect.Type -> *structInfo

func infoOf(t reflect.Type) *structInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}
	info := &structInfo{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("tlb")
		if !ok {
			continue
		}
		name, opt, _ := strings.Cut(tag, ",")
		f := structField{index: i, name: name}
		switch opt {
		case "constructor":
			info.constructor = name
			continue
		case "kind":
			f.kind = tagKindName
			info.hasKind = true
		case "variant":
			f.kind = tagVariant
		}
		info.fields = append(info.fields, f)
	}
	actual, _ := structCache.LoadOrStore(t, info)
	return actual.(*structInfo)
}

// Unmarshal stores a decoded value into the Go value pointed to by ptr.
func Unmarshal(v Value, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.InvalidInput(errors.PhaseDecode, "Unmarshal needs a non-nil pointer")
	}
	return unmarshal(v, rv.Elem())
}

func unmarshal(v Value, dst reflect.Value) error {
	t := dst.Type()
	switch t {
	case valueType:
		if v != nil {
			dst.Set(reflect.ValueOf(v))
		}
		return nil
	case payloadType:
		p, ok := v.(*Payload)
		if !ok && v != nil {
			return unmarshalMismatch(t, v)
		}
		dst.Set(reflect.ValueOf(p))
		return nil
	case bigType:
		if v == nil {
			return nil
		}
		i, err := asBig(v, "integer")
		if err != nil {
			return unmarshalMismatch(t, v)
		}
		dst.Set(reflect.ValueOf(new(big.Int).Set(i)))
		return nil
	case cellType:
		r, ok := v.(*Ref)
		if !ok {
			if v == nil {
				return nil
			}
			return unmarshalMismatch(t, v)
		}
		dst.Set(reflect.ValueOf(r.Cell))
		return nil
	case bitsType:
		b, ok := v.(Bits)
		if !ok {
			return unmarshalMismatch(t, v)
		}
		dst.Set(reflect.ValueOf(b.BitString))
		return nil
	case addrType:
		a, ok := v.(Address)
		if !ok {
			return unmarshalMismatch(t, v)
		}
		dst.Set(reflect.ValueOf(a.Address))
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if v == nil {
			dst.Set(reflect.Zero(t))
			return nil
		}
		el := reflect.New(t.Elem())
		if err := unmarshal(v, el.Elem()); err != nil {
			return err
		}
		dst.Set(el)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := asUint(v, t.String())
		if err != nil {
			return unmarshalMismatch(t, v)
		}
		if dst.OverflowUint(u) {
			return errors.Overflow(errors.PhaseDecode, nil, u, t.String())
		}
		dst.SetUint(u)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := asInt(v, t.String())
		if err != nil {
			return unmarshalMismatch(t, v)
		}
		if dst.OverflowInt(i) {
			return errors.Overflow(errors.PhaseDecode, nil, i, t.String())
		}
		dst.SetInt(i)
		return nil

	case reflect.Bool:
		switch x := v.(type) {
		case Bool:
			dst.SetBool(bool(x))
		case Uint:
			dst.SetBool(x != 0)
		default:
			return unmarshalMismatch(t, v)
		}
		return nil

	case reflect.Slice:
		list, ok := v.(List)
		if !ok {
			return unmarshalMismatch(t, v)
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, el := range list {
			if err := unmarshal(el, out.Index(i)); err != nil {
				return atField(err, strconv.Itoa(i))
			}
		}
		dst.Set(out)
		return nil

	case reflect.Struct:
		rec, ok := v.(*Record)
		if !ok {
			return unmarshalMismatch(t, v)
		}
		return unmarshalRecord(rec, dst)
	}

	return unmarshalMismatch(t, v)
}

func unmarshalRecord(rec *Record, dst reflect.Value) error {
	info := infoOf(dst.Type())
	if info.hasKind {
		for _, f := range info.fields {
			switch f.kind {
			case tagKindName:
				dst.Field(f.index).SetString(rec.Constructor)
			case tagVariant:
				if f.name == rec.Constructor {
					if err := unmarshal(rec, dst.Field(f.index)); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	for _, f := range info.fields {
		if f.kind != tagField {
			continue
		}
		fv, _ := rec.Get(f.name)
		if err := unmarshal(fv, dst.Field(f.index)); err != nil {
			return atField(err, f.name)
		}
	}
	return nil
}

func unmarshalMismatch(t reflect.Type, v Value) error {
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		GoType(t.String()).
		Detail("cannot store %s", goTypeName(v)).
		Build()
}

// Marshal converts a Go value built from generated structs back into a
// Value for Program.Encode.
func Marshal(v any) (Value, error) {
	if v == nil {
		return nil, nil
	}
	return marshal(reflect.ValueOf(v))
}

func marshal(src reflect.Value) (Value, error) {
	t := src.Type()
	switch t {
	case valueType:
		if src.IsNil() {
			return nil, nil
		}
		return src.Interface().(Value), nil
	case payloadType:
		if src.IsNil() {
			return nil, nil
		}
		return src.Interface().(*Payload), nil
	case bigType:
		if src.IsNil() {
			return nil, nil
		}
		return &Big{Int: src.Interface().(*big.Int)}, nil
	case cellType:
		if src.IsNil() {
			return nil, nil
		}
		return &Ref{Cell: src.Interface().(*cell.Cell)}, nil
	case bitsType:
		return Bits{src.Interface().(cell.BitString)}, nil
	case addrType:
		return Address{src.Interface().(cell.Address)}, nil
	}
	if t.Implements(valueType) {
		return src.Interface().(Value), nil
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if src.IsNil() {
			return nil, nil
		}
		return marshal(src.Elem())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint(src.Uint()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(src.Int()), nil
	case reflect.Bool:
		return Bool(src.Bool()), nil
	case reflect.Slice:
		list := make(List, src.Len())
		for i := range list {
			el, err := marshal(src.Index(i))
			if err != nil {
				return nil, atField(err, strconv.Itoa(i))
			}
			list[i] = el
		}
		return list, nil
	case reflect.Struct:
		return marshalRecord(src)
	}

	return nil, errors.New(errors.PhaseEncode, errors.KindUnsupported).
		GoType(t.String()).
		Build()
}

func marshalRecord(src reflect.Value) (Value, error) {
	info := infoOf(src.Type())
	if info.hasKind {
		var kind string
		for _, f := range info.fields {
			if f.kind == tagKindName {
				kind = src.Field(f.index).String()
			}
		}
		for _, f := range info.fields {
			if f.kind != tagVariant || f.name != kind {
				continue
			}
			if src.Field(f.index).IsNil() {
				break
			}
			return marshal(src.Field(f.index))
		}
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			GoType(src.Type().String()).
			Detail("no variant set for kind %q", kind).
			Build()
	}

	rec := &Record{Constructor: info.constructor}
	for _, f := range info.fields {
		if f.kind != tagField {
			continue
		}
		fv, err := marshal(src.Field(f.index))
		if err != nil {
			return nil, atField(err, f.name)
		}
		rec.Fields = append(rec.Fields, Field{Name: f.name, Value: fv})
	}
	return rec, nil
}
