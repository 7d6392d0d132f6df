// Package signature parses the textual signatures given to \qmlmethod and
// \qmlsignal, such as "int foo(int a, const Bar &b = x)".
package signature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/qmldoc/internal/model"
)

var (
	// ErrTypeOrName means a type or name was expected.
	ErrTypeOrName = errors.New("expected a type or name")
	// ErrMissingParen means the parameter list does not start with '('.
	ErrMissingParen = errors.New("expected '('")
	// ErrUnterminated means the parameter list is not closed by ')'.
	ErrUnterminated = errors.New("unterminated parameter list")
)

// ParseError reports where parsing a signature failed.
type ParseError struct {
	Signature string
	Offset    int
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("signature %q at offset %d: %v", e.Signature, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Signature is a parsed function or signal declaration. Segments holds the
// qualified name, the function name last, so "void A::b()" yields ["A", "b"].
// Parameters is nil when the declaration has an empty parameter list.
type Signature struct {
	ReturnType string
	Segments   []string
	Parameters []model.Parameter
}

// Name returns the unqualified function name, or "" if there is none.
func (s Signature) Name() string {
	if len(s.Segments) == 0 {
		return ""
	}
	return s.Segments[len(s.Segments)-1]
}

// Parse parses a signature. It reads tokens left to right with one token of
// lookahead.
func Parse(sig string) (Signature, error) {
	p := &parser{src: sig, toks: tokenize(sig)}
	return p.functionDecl()
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) tok() token { return p.toks[p.pos] }

func (p *parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

// match consumes the current token if it has one of the given kinds.
func (p *parser) match(kinds ...tokenKind) (token, bool) {
	t := p.tok()
	for _, k := range kinds {
		if t.kind == k {
			p.advance()
			return t, true
		}
	}
	return token{}, false
}

func (p *parser) fail(err error) error {
	return &ParseError{Signature: p.src, Offset: p.tok().start, Err: err}
}

func (p *parser) functionDecl() (Signature, error) {
	var sig Signature

	// A blank well before the parenthesis means a return type precedes the
	// name; "foo (x)" or "foo(int x)" have none.
	firstBlank := strings.IndexByte(p.src, ' ')
	leftParen := strings.IndexByte(p.src, '(')
	if firstBlank > 0 && leftParen-firstBlank > 1 {
		var rt chunk
		if !p.typeAndName(&rt, nil) {
			return Signature{}, p.fail(ErrTypeOrName)
		}
		sig.ReturnType = rt.String()
	}

	for {
		t, ok := p.match(tokIdent)
		if !ok {
			break
		}
		sig.Segments = append(sig.Segments, t.text)
		if _, ok := p.match(tokScope); !ok {
			break
		}
	}

	if _, ok := p.match(tokLeftParen); !ok {
		return Signature{}, p.fail(ErrMissingParen)
	}
	if p.tok().kind != tokRightParen {
		for {
			param, ok := p.parameter()
			if !ok {
				return Signature{}, p.fail(ErrTypeOrName)
			}
			sig.Parameters = append(sig.Parameters, param)
			if _, ok := p.match(tokComma); !ok {
				break
			}
		}
	}
	if _, ok := p.match(tokRightParen); !ok {
		return Signature{}, p.fail(ErrUnterminated)
	}
	return sig, nil
}

// typeAndName matches a possibly qualified type followed by qualifiers, an
// optional variable name when name is non-nil, and an optional array suffix.
func (p *parser) typeAndName(typ *chunk, name *string) bool {
	for {
		t, ok := p.match(tokConst)
		if !ok {
			break
		}
		typ.append(t.text)
	}

	for {
		virgin := true
		if p.tok().kind != tokIdent {
			for {
				t, ok := p.match(tokSigned, tokUnsigned, tokShort, tokLong, tokInt64)
				if !ok {
					break
				}
				typ.append(t.text)
				virgin = false
			}
		}

		if virgin {
			if t, ok := p.match(tokIdent); ok {
				typ.append(t.text)
				if p.tok().kind == tokLeftAngle {
					typ.append(p.angles())
				}
			} else if t, ok := p.match(tokVoid, tokInt, tokChar, tokDouble, tokEllipsis); ok {
				typ.append(t.text)
			} else {
				return false
			}
		} else if t, ok := p.match(tokInt, tokChar, tokDouble); ok {
			typ.append(t.text)
		}

		t, ok := p.match(tokScope)
		if !ok {
			break
		}
		typ.append(t.text)
	}

	for {
		t, ok := p.match(tokAmpersand, tokStar, tokConst, tokCaret)
		if !ok {
			break
		}
		typ.append(t.text)
	}

	if name != nil {
		if t, ok := p.match(tokIdent); ok {
			*name = t.text
		}
	}

	if p.tok().kind == tokLeftBracket {
		depth0 := p.tok().bracketDepth
		start := p.tok().start
		end := start
		for (p.tok().bracketDepth >= depth0 && p.tok().kind != tokEOI) || p.tok().kind == tokRightBracket {
			end = p.tok().end
			p.advance()
		}
		typ.appendRaw(p.src[start:end])
	}
	return true
}

// angles consumes a balanced template argument list and returns it verbatim.
func (p *parser) angles() string {
	start := p.tok().start
	end := start
	depth := 0
	for p.tok().kind != tokEOI {
		switch p.tok().kind {
		case tokLeftAngle:
			depth++
		case tokRightAngle:
			depth--
		}
		end = p.tok().end
		p.advance()
		if depth == 0 {
			break
		}
	}
	return p.src[start:end]
}

// parameter matches "Type [Name] [= Default]". A parameter without a
// separate name is taken to be an untyped name, as in signal parameter lists.
func (p *parser) parameter() (model.Parameter, bool) {
	var (
		typ  chunk
		name string
	)
	if !p.typeAndName(&typ, &name) {
		return model.Parameter{}, false
	}
	param := model.Parameter{Type: typ.String(), Name: name}
	if name == "" {
		param.Name = param.Type
		param.Type = ""
	}

	if _, ok := p.match(tokEqual); ok {
		depth0 := p.tok().parenDepth
		start := p.tok().start
		end := start
		for {
			t := p.tok()
			if t.kind == tokEOI || t.parenDepth < depth0 || (t.kind == tokComma && t.parenDepth <= depth0) {
				break
			}
			end = t.end
			p.advance()
		}
		param.Default = p.src[start:end]
	}
	return param, true
}

// chunk accumulates type text, inserting blanks between lexemes the way
// declarations are conventionally written: "const Bar &", "A::B", "char **".
type chunk struct {
	b strings.Builder
}

func (c *chunk) append(lexeme string) {
	if lexeme == "" {
		return
	}
	if c.b.Len() > 0 {
		s := c.b.String()
		last, first := s[len(s)-1], lexeme[0]
		if isWordByte(last) && (isWordByte(first) || isQualifierByte(first)) {
			c.b.WriteByte(' ')
		}
	}
	c.b.WriteString(lexeme)
}

// appendRaw appends text without any separator.
func (c *chunk) appendRaw(text string) {
	c.b.WriteString(text)
}

func (c *chunk) String() string { return c.b.String() }

func isWordByte(c byte) bool {
	return isIdentPart(c) || c == '>'
}

func isQualifierByte(c byte) bool {
	return c == '&' || c == '*' || c == '^'
}
