package parser

import (
	"fmt"
	"strconv"

	"github.com/wippyai/tlb-abi/tlb/ast"
	"github.com/wippyai/tlb-abi/tlb/internal/token"
)

// Parse tokenizes and parses a schema source.
func Parse(src string) (*ast.Schema, error) {
	tokens := token.Tokenize(src)
	for _, t := range tokens {
		if t.Type == token.Illegal {
			return nil, fmt.Errorf("line %d: unexpected character %q", t.Line, t.Value)
		}
	}
	return New(tokens).Parse()
}

func parseTag(t *token.Token) (ast.Tag, error) {
	body := t.Value[1:]
	if body == "" || body == "_" {
		return ast.Tag{}, nil
	}

	base, width := 16, 4
	if t.Value[0] == '$' {
		base, width = 2, 1
	}
	n := len(body) * width
	if n > 64 {
		return ast.Tag{}, fmt.Errorf("line %d: tag %s is longer than 64 bits", t.Line, t.Value)
	}
	v, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return ast.Tag{}, fmt.Errorf("line %d: invalid tag %s", t.Line, t.Value)
	}
	return ast.Tag{Bits: v, Len: n}, nil
}
