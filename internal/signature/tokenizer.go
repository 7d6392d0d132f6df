package signature

import "unicode"

type tokenKind int

const (
	tokEOI tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokVoid
	tokInt
	tokChar
	tokDouble
	tokSigned
	tokUnsigned
	tokShort
	tokLong
	tokInt64
	tokConst
	tokEllipsis
	tokScope
	tokAmpersand
	tokStar
	tokCaret
	tokLeftParen
	tokRightParen
	tokLeftBracket
	tokRightBracket
	tokLeftAngle
	tokRightAngle
	tokComma
	tokEqual
	tokOther
)

var keywords = map[string]tokenKind{
	"void":     tokVoid,
	"int":      tokInt,
	"char":     tokChar,
	"double":   tokDouble,
	"signed":   tokSigned,
	"unsigned": tokUnsigned,
	"short":    tokShort,
	"long":     tokLong,
	"int64":    tokInt64,
	"__int64":  tokInt64,
	"const":    tokConst,
}

// token is one lexeme of a signature. parenDepth and bracketDepth are the
// nesting depths after the token was read, so an opening parenthesis already
// counts itself.
type token struct {
	kind         tokenKind
	text         string
	start, end   int
	parenDepth   int
	bracketDepth int
}

// tokenize splits a signature into tokens. The result always ends with a
// tokEOI token positioned at the end of the input.
func tokenize(src string) []token {
	var (
		toks          []token
		paren, square int
	)
	i := 0
	for i < len(src) {
		c := src[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		start := i
		kind := tokOther
		switch {
		case isIdentStart(c):
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			kind = tokIdent
			if kw, ok := keywords[src[start:i]]; ok {
				kind = kw
			}
		case c >= '0' && c <= '9':
			for i < len(src) && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			kind = tokNumber
		case c == '"' || c == '\'':
			i++
			for i < len(src) && src[i] != c {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			if i < len(src) {
				i++
			}
			kind = tokString
		case c == ':' && i+1 < len(src) && src[i+1] == ':':
			i += 2
			kind = tokScope
		case c == '.' && i+2 < len(src) && src[i+1] == '.' && src[i+2] == '.':
			i += 3
			kind = tokEllipsis
		default:
			i++
			switch c {
			case '&':
				kind = tokAmpersand
			case '*':
				kind = tokStar
			case '^':
				kind = tokCaret
			case '(':
				paren++
				kind = tokLeftParen
			case ')':
				paren--
				kind = tokRightParen
			case '[':
				square++
				kind = tokLeftBracket
			case ']':
				square--
				kind = tokRightBracket
			case '<':
				kind = tokLeftAngle
			case '>':
				kind = tokRightAngle
			case ',':
				kind = tokComma
			case '=':
				kind = tokEqual
			}
		}
		if i > len(src) {
			i = len(src)
		}
		toks = append(toks, token{
			kind:         kind,
			text:         src[start:i],
			start:        start,
			end:          i,
			parenDepth:   paren,
			bracketDepth: square,
		})
	}
	return append(toks, token{kind: tokEOI, start: len(src), end: len(src), parenDepth: paren, bracketDepth: square})
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 0x80 || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
