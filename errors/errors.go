package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // corpus ingestion
	PhaseParse    Phase = "parse"    // TL-B grammar parsing
	PhaseCompile  Phase = "compile"  // schema compilation and code emission
	PhaseLink     Phase = "link"     // namespacing and registry assembly
	PhaseDecode   Phase = "decode"   // cell to value
	PhaseEncode   Phase = "encode"   // value to cell
	PhaseDispatch Phase = "dispatch" // candidate selection
	PhaseWrite    Phase = "write"    // artifact persistence
)

// Kind categorizes the error
type Kind string

const (
	KindSchemaMalformed Kind = "schema_malformed"
	KindCompilerFailure Kind = "compiler_failure"
	KindNameCollision   Kind = "name_collision"
	KindPreludeFailure  Kind = "prelude_failure"
	KindDecodeFailure   Kind = "decode_failure"
	KindLengthMismatch  Kind = "length_mismatch"
	KindTypeMismatch    Kind = "type_mismatch"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindInvalidData     Kind = "invalid_data"
	KindUnsupported     Kind = "unsupported"
	KindOverflow        Kind = "overflow"
	KindConstraint      Kind = "constraint"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Group   string
	Entry   string
	TLBType string
	GoType  string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Group != "" || e.Entry != "" {
		b.WriteString(" in ")
		b.WriteString(e.Group)
		if e.Entry != "" {
			b.WriteByte('/')
			b.WriteString(e.Entry)
		}
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.TLBType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.TLBType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", TL-B type ")
			b.WriteString(e.TLBType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("TL-B type ")
			b.WriteString(e.TLBType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.TLBType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Entry sets the schema group and entry the error belongs to
func (b *Builder) Entry(group, entry string) *Builder {
	b.err.Group = group
	b.err.Entry = entry
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// TLBType sets the TL-B type name
func (b *Builder) TLBType(t string) *Builder {
	b.err.TLBType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SchemaMalformed reports an entry whose head lacks a name, tag or result type
func SchemaMalformed(group, entry, detail string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindSchemaMalformed,
		Group:  group,
		Entry:  entry,
		Detail: detail,
	}
}

// CompilerFailure reports a grammar or emission failure for one entry
func CompilerFailure(group, entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCompilerFailure,
		Group:  group,
		Entry:  entry,
		Detail: "schema compiler rejected entry",
		Cause:  cause,
	}
}

// NameCollision reports two entries of one group flattening to the same export
func NameCollision(group, name, first, second string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindNameCollision,
		Group:  group,
		Detail: fmt.Sprintf("entries %q and %q both export %s", first, second, name),
		Value:  name,
	}
}

// PreludeFailure reports that the shared prelude could not be compiled
func PreludeFailure(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindPreludeFailure,
		Detail: "compile global type library",
		Cause:  cause,
	}
}

// LengthMismatch reports a fixed-length decoder that left data behind
func LengthMismatch(bits, refs int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindLengthMismatch,
		Detail: fmt.Sprintf("fixed-length decoder left %d bits and %d refs", bits, refs),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, tlbType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		GoType:  goType,
		TLBType: tlbType,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOverflow,
		Path:    path,
		TLBType: targetType,
		Detail:  fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:   value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a corpus loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// IsFatal reports whether err aborts a whole generation run rather than a
// single entry.
func IsFatal(err error) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	return e.Kind == KindNameCollision || e.Kind == KindPreludeFailure
}
