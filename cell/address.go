package cell

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("cell: invalid address")

// AddressKind selects the MsgAddress constructor.
type AddressKind uint8

const (
	AddressNone AddressKind = iota
	AddressExtern
	AddressStd
	AddressVar
)

func (k AddressKind) String() string {
	switch k {
	case AddressNone:
		return "none"
	case AddressExtern:
		return "extern"
	case AddressStd:
		return "std"
	case AddressVar:
		return "var"
	}
	return "unknown"
}

// Address is a decoded MsgAddress.
type Address struct {
	Kind      AddressKind
	Workchain int32
	Data      BitString
	Anycast   *BitString
}

// IsInternal reports whether the address is addr_std or addr_var.
func (a Address) IsInternal() bool {
	return a.Kind == AddressStd || a.Kind == AddressVar
}

// String renders internal addresses in raw "workchain:hex" form.
func (a Address) String() string {
	switch a.Kind {
	case AddressNone:
		return ""
	case AddressExtern:
		return "ext:" + a.Data.String()
	}
	return strconv.Itoa(int(a.Workchain)) + ":" + strings.ToLower(a.Data.String())
}

// ParseRawAddress parses the "workchain:hex" form of a standard address.
func ParseRawAddress(s string) (Address, error) {
	wcPart, hexPart, ok := strings.Cut(s, ":")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	wc, err := strconv.ParseInt(wcPart, 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("%w: workchain: %v", ErrInvalidAddress, err)
	}
	data, err := hex.DecodeString(hexPart)
	if err != nil || len(data) != 32 {
		return Address{}, fmt.Errorf("%w: account id %q", ErrInvalidAddress, hexPart)
	}
	kind := AddressStd
	if wc < -128 || wc > 127 {
		kind = AddressVar
	}
	return Address{Kind: kind, Workchain: int32(wc), Data: NewBitString(data, 256)}, nil
}
