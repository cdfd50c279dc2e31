package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseDecode,
				Kind:    KindTypeMismatch,
				Group:   "daolama",
				Entry:   "vault_supply",
				Path:    []string{"body", "amount"},
				GoType:  "uint64",
				TLBType: "Coins",
				Detail:  "cannot convert",
			},
			contains: []string{"[decode]", "type_mismatch", "daolama/vault_supply", "body.amount", "uint64", "Coins", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindCompilerFailure,
				Detail: "grammar rejected",
				Cause:  errors.New("line 3: expected ';'"),
			},
			contains: []string{"[compile]", "compiler_failure", "grammar rejected", "caused by", "expected ';'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseLink,
		Kind:  KindNameCollision,
		Group: "dedust",
	}

	if !err.Is(&Error{Phase: PhaseLink, Kind: KindNameCollision}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseCompile, Kind: KindNameCollision}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseLink, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseLink, Kind: KindNameCollision}
	if !Is(err, target) {
		t.Error("Is should match through the forwarding helper")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindConstraint).
		Entry("dns", "change_record").
		Path("record", "flags").
		GoType("uint64").
		TLBType("DNSRecord").
		Value(2).
		Cause(cause).
		Detail("expected %s, got %d", "flags <= 1", 2).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindConstraint {
		t.Errorf("Kind = %v, want %v", err.Kind, KindConstraint)
	}
	if err.Group != "dns" || err.Entry != "change_record" {
		t.Errorf("Group/Entry = %v/%v", err.Group, err.Entry)
	}
	if len(err.Path) != 2 || err.Path[0] != "record" || err.Path[1] != "flags" {
		t.Errorf("Path = %v, want [record flags]", err.Path)
	}
	if err.TLBType != "DNSRecord" {
		t.Errorf("TLBType = %v, want 'DNSRecord'", err.TLBType)
	}
	if err.Value != 2 {
		t.Errorf("Value = %v, want 2", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected flags <= 1, got 2" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("SchemaMalformed", func(t *testing.T) {
		err := SchemaMalformed("g", "e", "missing tag")
		if err.Kind != KindSchemaMalformed || err.Group != "g" || err.Entry != "e" {
			t.Errorf("unexpected error %+v", err)
		}
	})

	t.Run("CompilerFailure", func(t *testing.T) {
		cause := errors.New("bad grammar")
		err := CompilerFailure("g", "e", cause)
		if err.Kind != KindCompilerFailure {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !errors.Is(err, cause) {
			t.Error("cause not reachable")
		}
	})

	t.Run("NameCollision", func(t *testing.T) {
		err := NameCollision("g", "LoadGSwap", "swap", "Swap")
		if err.Kind != KindNameCollision {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Error(), "LoadGSwap") {
			t.Errorf("message %q should name the export", err.Error())
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		err := LengthMismatch(8, 1)
		if err.Kind != KindLengthMismatch {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !strings.Contains(err.Detail, "8 bits") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"val"}, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseDecode, "type", "Foo")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"Foo"`) {
			t.Errorf("unexpected error %+v", err)
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseEncode, []string{"a"}, "tlb.Bool", "Msg")
		if err.Kind != KindTypeMismatch || err.GoType != "tlb.Bool" || err.TLBType != "Msg" {
			t.Errorf("unexpected error %+v", err)
		}
	})

	t.Run("InvalidData", func(t *testing.T) {
		err := InvalidData(PhaseDecode, nil, "unbound n")
		if err.Kind != KindInvalidData || err.Detail != "unbound n" {
			t.Errorf("unexpected error %+v", err)
		}
	})
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{NameCollision("g", "X", "a", "b"), true},
		{PreludeFailure(errors.New("x")), true},
		{SchemaMalformed("g", "e", "x"), false},
		{CompilerFailure("g", "e", errors.New("x")), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
