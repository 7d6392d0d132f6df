package qml

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	span Span
	// newline is set when a line break separates the token from the
	// previous one.
	newline bool
}

// SyntaxError is returned for documents the parser cannot read.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

type lexer struct {
	path     string
	src      []byte
	pos      int
	line     int
	col      int
	comments []Comment
}

func newLexer(path string, src []byte) *lexer {
	return &lexer{path: path, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Path: l.path, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) step() {
	r, size := utf8.DecodeRune(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// tokens lexes the whole document, collecting comments on the side.
func (l *lexer) tokens() ([]token, error) {
	var toks []token
	newline := false
	for {
		nl, err := l.skipSpaceAndComments()
		if err != nil {
			return nil, err
		}
		newline = newline || nl
		if l.pos >= len(l.src) {
			toks = append(toks, token{kind: tokEOF, span: l.here(), newline: true})
			return toks, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tok.newline = newline || len(toks) == 0
		newline = false
		toks = append(toks, tok)
	}
}

func (l *lexer) here() Span {
	return Span{Start: l.pos, End: l.pos, Line: l.line, Column: l.col}
}

func (l *lexer) skipSpaceAndComments() (bool, error) {
	newline := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			newline = true
			l.step()
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			l.step()
		case c == '/' && l.peekByte(1) == '/':
			start := l.here()
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.step()
			}
			start.End = l.pos
			l.comments = append(l.comments, Comment{Span: start, Text: string(l.src[start.Start:l.pos])})
		case c == '/' && l.peekByte(1) == '*':
			start := l.here()
			l.step()
			l.step()
			closed := false
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.peekByte(1) == '/' {
					l.step()
					l.step()
					closed = true
					break
				}
				if l.src[l.pos] == '\n' {
					newline = true
				}
				l.step()
			}
			if !closed {
				return false, l.errorf(start.Line, start.Column, "unterminated comment")
			}
			start.End = l.pos
			l.comments = append(l.comments, Comment{Span: start, Text: string(l.src[start.Start:l.pos]), Block: true})
		default:
			return newline, nil
		}
	}
	return newline, nil
}

func (l *lexer) next() (token, error) {
	start := l.here()
	c := l.src[l.pos]
	kind := tokPunct
	switch {
	case isIdentStart(l.src[l.pos:]):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos:]) {
			l.step()
		}
		kind = tokIdent
	case c >= '0' && c <= '9', c == '.' && l.peekByte(1) >= '0' && l.peekByte(1) <= '9':
		for l.pos < len(l.src) {
			b := l.src[l.pos]
			if (b >= '0' && b <= '9') || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' {
				l.step()
				continue
			}
			break
		}
		kind = tokNumber
	case c == '"' || c == '\'' || c == '`':
		l.step()
		for {
			if l.pos >= len(l.src) {
				return token{}, l.errorf(start.Line, start.Column, "unterminated string")
			}
			b := l.src[l.pos]
			if b == '\\' {
				l.step()
				if l.pos < len(l.src) {
					l.step()
				}
				continue
			}
			if b == '\n' && c != '`' {
				return token{}, l.errorf(start.Line, start.Column, "unterminated string")
			}
			l.step()
			if b == c {
				break
			}
		}
		kind = tokString
	default:
		l.step()
	}
	start.End = l.pos
	return token{kind: kind, text: string(l.src[start.Start:l.pos]), span: start}, nil
}

func isIdentStart(b []byte) bool {
	r, _ := utf8.DecodeRune(b)
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(b []byte) bool {
	r, _ := utf8.DecodeRune(b)
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
