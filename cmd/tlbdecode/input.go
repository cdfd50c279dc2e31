package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/wippyai/tlb-abi/abi"
)

// parseBOC accepts a BOC as hex (optionally 0x-prefixed) or base64 in
// either the standard or URL alphabet, padded or not.
func parseBOC(in string) ([]byte, error) {
	s := strings.Join(strings.Fields(in), "")
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}
	if h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"); len(h)%2 == 0 {
		if b, err := hex.DecodeString(h); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding,
		base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("input is neither hex nor base64")
}

// render marshals msg to JSON, indented when pretty is set.
func render(msg *abi.Message, pretty bool) ([]byte, error) {
	out, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if !pretty {
		return out, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
