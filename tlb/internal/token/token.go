package token

import (
	"unicode"
)

type Type int

const (
	Ident Type = iota
	Number
	Tag // constructor tag glued to a name: #hex, $bin, #_ or $_
	Hash
	DoubleHash
	HashLe
	HashLt
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Colon
	Semicolon
	Equals
	Question
	Dot
	Caret
	Tilde
	Plus
	Star
	Le
	Lt
	Ge
	Gt
	Illegal
)

func (t Type) String() string {
	switch t {
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case Tag:
		return "constructor tag"
	case Hash:
		return "'#'"
	case DoubleHash:
		return "'##'"
	case HashLe:
		return "'#<='"
	case HashLt:
		return "'#<'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Colon:
		return "':'"
	case Semicolon:
		return "';'"
	case Equals:
		return "'='"
	case Question:
		return "'?'"
	case Dot:
		return "'.'"
	case Caret:
		return "'^'"
	case Tilde:
		return "'~'"
	case Plus:
		return "'+'"
	case Star:
		return "'*'"
	case Le:
		return "'<='"
	case Lt:
		return "'<'"
	case Ge:
		return "'>='"
	case Gt:
		return "'>'"
	case Illegal:
		return "illegal character"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

var punct = map[rune]Type{
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	':': Colon,
	';': Semicolon,
	'=': Equals,
	'?': Question,
	'.': Dot,
	'^': Caret,
	'~': Tilde,
	'+': Plus,
	'*': Star,
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func Tokenize(input string) []Token {
	var tokens []Token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
			continue
		}

		// Block comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			i++
			continue
		}

		// A tag is only recognized directly after a constructor name.
		if (r == '#' || r == '$') && i > 0 && isIdentRune(runes[i-1]) {
			start := i
			i++
			if i < len(runes) && runes[i] == '_' {
				i++
			} else if r == '#' {
				for i < len(runes) && isHex(runes[i]) {
					i++
				}
			} else {
				for i < len(runes) && (runes[i] == '0' || runes[i] == '1') {
					i++
				}
			}
			tokens = append(tokens, Token{string(runes[start:i]), Tag, line})
			i--
			continue
		}

		if r == '#' {
			switch {
			case i+1 < len(runes) && runes[i+1] == '#':
				tokens = append(tokens, Token{"##", DoubleHash, line})
				i++
			case i+2 < len(runes) && runes[i+1] == '<' && runes[i+2] == '=':
				tokens = append(tokens, Token{"#<=", HashLe, line})
				i += 2
			case i+1 < len(runes) && runes[i+1] == '<':
				tokens = append(tokens, Token{"#<", HashLt, line})
				i++
			default:
				tokens = append(tokens, Token{"#", Hash, line})
			}
			continue
		}

		if r == '<' || r == '>' {
			eq := i+1 < len(runes) && runes[i+1] == '='
			switch {
			case r == '<' && eq:
				tokens = append(tokens, Token{"<=", Le, line})
			case r == '<':
				tokens = append(tokens, Token{"<", Lt, line})
			case eq:
				tokens = append(tokens, Token{">=", Ge, line})
			default:
				tokens = append(tokens, Token{">", Gt, line})
			}
			if eq {
				i++
			}
			continue
		}

		if typ, ok := punct[r]; ok {
			tokens = append(tokens, Token{string(r), typ, line})
			continue
		}

		if unicode.IsDigit(r) {
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Number, line})
			i--
			continue
		}

		if unicode.IsLetter(r) || r == '_' {
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		tokens = append(tokens, Token{string(r), Illegal, line})
	}

	return tokens
}
