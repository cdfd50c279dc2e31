package tlbabi

import (
	"context"

	"github.com/wippyai/tlb-abi/abi"
	"github.com/wippyai/tlb-abi/cell"
	"github.com/wippyai/tlb-abi/compiler"
	"github.com/wippyai/tlb-abi/corpus"
	"github.com/wippyai/tlb-abi/errors"
)

// DefaultModulePath is used for Decoder.Module when Options leaves the
// module path empty.
const DefaultModulePath = "github.com/wippyai/tlb-abi/generated"

// Options configures Load. See compiler.Options.
type Options = compiler.Options

// Load reads every schema document in dir and compiles it over the prelude.
func Load(ctx context.Context, dir string, opts Options) (*compiler.Result, error) {
	docs, err := corpus.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return Compile(ctx, docs, opts)
}

// Compile builds tables from already loaded documents.
func Compile(ctx context.Context, docs []*corpus.Document, opts Options) (*compiler.Result, error) {
	if opts.ModulePath == "" {
		opts.ModulePath = DefaultModulePath
	}
	g, err := compiler.BuildGlobals()
	if err != nil {
		return nil, err
	}
	return compiler.Build(ctx, g, docs, opts)
}

// Mode selects the table a BOC is dispatched through.
type Mode int

const (
	// ModeMessage dispatches through the message table.
	ModeMessage Mode = iota
	// ModePayload dispatches through the payload table.
	ModePayload
	// ModeEmbedded dispatches through the message table and relinks the
	// embedded payloads of the result.
	ModeEmbedded
)

func (m Mode) String() string {
	switch m {
	case ModeMessage:
		return "message"
	case ModePayload:
		return "payload"
	case ModeEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// DecodeBOC deserializes boc and dispatches its root cell. A message no
// decoder accepts is reported as a not_found error carrying the tag.
func DecodeBOC(t *abi.Tables, boc []byte, mode Mode) (*abi.Message, error) {
	root, err := cell.FromBOC(boc)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "parse BOC")
	}
	return Dispatch(t, root.BeginParse(), mode)
}

// Dispatch decodes the message at s.
func Dispatch(t *abi.Tables, s *cell.Slice, mode Mode) (*abi.Message, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseDispatch, "tables are required")
	}

	var (
		msg *abi.Message
		ok  bool
	)
	switch mode {
	case ModeMessage:
		msg, ok = t.DispatchMessage(s)
	case ModePayload:
		msg, ok = t.DispatchPayload(s)
	case ModeEmbedded:
		msg, ok = t.DispatchWithEmbedded(s)
	default:
		return nil, errors.InvalidInput(errors.PhaseDispatch, "unknown mode "+mode.String())
	}
	if ok {
		return msg, nil
	}

	b := errors.New(errors.PhaseDispatch, errors.KindNotFound)
	if tag, err := s.PreloadUint(abi.TagBits); err == nil {
		return nil, b.Detail("no %s decoder accepts tag 0x%08x", mode, tag).Build()
	}
	return nil, b.Detail("message is shorter than a %d-bit tag", abi.TagBits).Build()
}
