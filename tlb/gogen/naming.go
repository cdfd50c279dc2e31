package gogen

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	separators = regexp.MustCompile(`[-_]+`)
	nonWord    = regexp.MustCompile(`[^\w\s]`)
)

// PascalCase lowercases s, treats runs of '-' and '_' as word breaks, drops
// other punctuation and capitalizes each word: "daolama_vault-supply"
// becomes "DaolamaVaultSupply".
func PascalCase(s string) string {
	s = strings.ToLower(s)
	s = separators.ReplaceAllString(s, " ")
	s = nonWord.ReplaceAllString(s, "")

	var b strings.Builder
	for _, w := range strings.Fields(s) {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// TypeName is the Go name of a TL-B type. The original casing is kept and
// every '_'-separated part is capitalized, so HmLabel stays HmLabel and
// msg_body becomes MsgBody.
func TypeName(tlbName string) string {
	var b strings.Builder
	for _, part := range strings.Split(tlbName, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// ConstructorName is the Go name of a constructor inside its type: the
// variant field of the parent struct. Unnamed constructors are numbered.
func ConstructorName(ctor string, index int) string {
	if n := PascalCase(ctor); n != "" {
		if n == "Kind" {
			return "KindOf"
		}
		return n
	}
	return "C" + strconv.Itoa(index)
}

// VariantName is the struct holding the fields of one constructor of a
// multi-constructor type.
func VariantName(tlbType, ctor string, index int) string {
	return TypeName(tlbType) + ConstructorName(ctor, index)
}

// FieldName is the Go name of a record field.
func FieldName(name string, index int) string {
	if n := PascalCase(name); n != "" {
		return n
	}
	return "F" + strconv.Itoa(index)
}

func LoaderName(tlbType string) string  { return "Load" + TypeName(tlbType) }
func DecoderName(tlbType string) string { return "Decode" + TypeName(tlbType) }
func StorerName(tlbType string) string  { return "Store" + TypeName(tlbType) }
