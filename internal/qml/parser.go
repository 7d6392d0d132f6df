package qml

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phobologic/qmldoc/internal/script"
)

// Parser reads QML documents. It is not safe for concurrent use.
type Parser struct {
	script *script.Parser
	log    *slog.Logger
}

// NewParser creates a parser. A nil logger means slog.Default().
func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{script: script.NewParser(), log: log}
}

// Parse parses one document.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*Document, error) {
	lx := newLexer(path, src)
	toks, err := lx.tokens()
	if err != nil {
		return nil, err
	}
	ps := &parser{ctx: ctx, path: path, src: src, toks: toks, script: p.script, log: p.log}
	prog, err := ps.program()
	if err != nil {
		return nil, err
	}
	return &Document{Path: path, Source: src, Program: prog, Comments: lx.comments}, nil
}

type parser struct {
	ctx    context.Context
	path   string
	src    []byte
	toks   []token
	pos    int
	script *script.Parser
	log    *slog.Logger
}

func (p *parser) tok() token { return p.toks[p.pos] }

func (p *parser) peek(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if t.kind == tokEOF {
		msg += " at end of file"
	} else {
		msg += fmt.Sprintf(" near %q", t.text)
	}
	return &SyntaxError{Path: p.path, Line: t.span.Line, Column: t.span.Column, Msg: msg}
}

func isPunct(t token, s string) bool { return t.kind == tokPunct && t.text == s }

func isKeyword(t token, s string) bool { return t.kind == tokIdent && t.text == s }

func (p *parser) expect(s string) (token, error) {
	t := p.tok()
	if !isPunct(t, s) {
		return token{}, p.errorf(t, "expected %q", s)
	}
	return p.advance(), nil
}

// span covers the tokens from first through last.
func span(first, last token) Span {
	s := first.span
	s.End = last.span.End
	return s
}

func (p *parser) prev() token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *parser) program() (*Program, error) {
	prog := &Program{Span: Span{Start: 0, End: len(p.src), Line: 1, Column: 1}}
headers:
	for {
		switch t := p.tok(); {
		case isKeyword(t, "import"):
			imp, err := p.importStatement()
			if err != nil {
				return nil, err
			}
			prog.Headers = append(prog.Headers, imp)
		case isKeyword(t, "pragma"):
			prog.Headers = append(prog.Headers, p.pragma())
		case isPunct(t, ";"):
			p.advance()
		default:
			break headers
		}
	}

	first := p.tok()
	if first.kind != tokIdent {
		return nil, p.errorf(first, "expected a root object")
	}
	name := p.qualifiedID()
	def, err := p.objectDefinition(first, name)
	if err != nil {
		return nil, err
	}
	prog.Root = def
	for isPunct(p.tok(), ";") {
		p.advance()
	}
	if t := p.tok(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected content after the root object")
	}
	return prog, nil
}

func (p *parser) importStatement() (*Import, error) {
	first := p.advance()
	imp := &Import{}
	switch t := p.tok(); t.kind {
	case tokString:
		imp.FileName = p.advance().text
	case tokIdent:
		imp.URI = p.qualifiedID()
		imp.FileName = QualifiedName(imp.URI)
	default:
		return nil, p.errorf(t, "expected a module or path to import")
	}
	if t := p.tok(); t.kind == tokNumber && !t.newline {
		imp.Version = p.advance().text
	}
	if t := p.tok(); isKeyword(t, "as") && !t.newline {
		p.advance()
		alias := p.tok()
		if alias.kind != tokIdent {
			return nil, p.errorf(alias, "expected an import qualifier")
		}
		imp.Alias = p.advance().text
	}
	imp.Span = span(first, p.prev())
	if isPunct(p.tok(), ";") {
		p.advance()
	}
	return imp, nil
}

func (p *parser) pragma() *Pragma {
	first := p.advance()
	pr := &Pragma{}
	if t := p.tok(); t.kind == tokIdent && !t.newline {
		pr.Name = t.text
	}
	for t := p.tok(); t.kind != tokEOF && !t.newline && !isPunct(t, ";"); t = p.tok() {
		p.advance()
	}
	pr.Span = span(first, p.prev())
	if isPunct(p.tok(), ";") {
		p.advance()
	}
	return pr
}

// qualifiedID reads "a.b.c". The current token must be an identifier.
func (p *parser) qualifiedID() []string {
	ids := []string{p.advance().text}
	for isPunct(p.tok(), ".") && p.peek(1).kind == tokIdent {
		p.advance()
		ids = append(ids, p.advance().text)
	}
	return ids
}

// typeRef reads a member type: a qualified identifier or list<T>. It returns
// the element type and the "list" modifier when present.
func (p *parser) typeRef() (string, string, error) {
	t := p.tok()
	if t.kind != tokIdent {
		return "", "", p.errorf(t, "expected a type")
	}
	if t.text == "list" && isPunct(p.peek(1), "<") {
		p.advance()
		p.advance()
		if p.tok().kind != tokIdent {
			return "", "", p.errorf(p.tok(), "expected a list element type")
		}
		elem := QualifiedName(p.qualifiedID())
		if _, err := p.expect(">"); err != nil {
			return "", "", err
		}
		return elem, "list", nil
	}
	return QualifiedName(p.qualifiedID()), "", nil
}

func (p *parser) objectDefinition(first token, name []string) (*ObjectDefinition, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	members, err := p.members()
	if err != nil {
		return nil, err
	}
	return &ObjectDefinition{Span: span(first, p.prev()), TypeName: name, Members: members}, nil
}

// members reads object members up to and including the closing brace.
func (p *parser) members() ([]Node, error) {
	var out []Node
	for {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		t := p.tok()
		switch {
		case isPunct(t, "}"):
			p.advance()
			return out, nil
		case isPunct(t, ";"):
			p.advance()
			continue
		case t.kind == tokEOF:
			return nil, p.errorf(t, "expected \"}\"")
		case t.kind != tokIdent:
			return nil, p.errorf(t, "expected an object member")
		}

		m, err := p.member()
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, m)
		}
	}
}

var memberModifiers = map[string]bool{"default": true, "readonly": true, "required": true}

func (p *parser) member() (Node, error) {
	first := p.tok()
	next := p.peek(1)
	declares := next.kind == tokIdent && !next.newline

	switch {
	case memberModifiers[first.text] && declares:
		return p.modifiedMember(first)
	case first.text == "property" && declares:
		return p.property(first, &PublicMember{})
	case first.text == "signal" && declares:
		return p.signal(first)
	case first.text == "function" && declares:
		return p.function(first)
	case first.text == "enum" && declares:
		return p.enum(first)
	case first.text == "component" && declares:
		return p.inlineComponent(first)
	}

	name := p.qualifiedID()
	switch t := p.tok(); {
	case isPunct(t, "{"):
		return p.objectDefinition(first, name)
	case isKeyword(t, "on"):
		p.advance()
		if p.tok().kind != tokIdent {
			return nil, p.errorf(p.tok(), "expected a property name after \"on\"")
		}
		prop := p.qualifiedID()
		ob := &ObjectBinding{Property: prop, TypeName: name, On: true}
		return p.objectBody(first, ob)
	case isPunct(t, ":"):
		p.advance()
		return p.binding(first, name)
	default:
		return nil, p.errorf(t, "expected \":\" or \"{\"")
	}
}

func (p *parser) modifiedMember(first token) (Node, error) {
	pm := &PublicMember{}
	for memberModifiers[p.tok().text] && p.tok().kind == tokIdent && p.peek(1).kind == tokIdent {
		switch p.advance().text {
		case "default":
			pm.Default = true
		case "readonly":
			pm.ReadOnly = true
		case "required":
			pm.Required = true
		}
	}
	if isKeyword(p.tok(), "property") {
		return p.property(first, pm)
	}
	// "required name" marks an inherited property as required; it declares
	// nothing.
	if pm.Required && !pm.Default && !pm.ReadOnly && p.tok().kind == tokIdent {
		p.advance()
		if isPunct(p.tok(), ";") {
			p.advance()
		}
		return nil, nil
	}
	return nil, p.errorf(p.tok(), "expected \"property\"")
}

func (p *parser) property(first token, pm *PublicMember) (Node, error) {
	p.advance() // property
	pm.Kind = PropertyMember
	typ, mod, err := p.typeRef()
	if err != nil {
		return nil, err
	}
	pm.MemberType, pm.TypeModifier = typ, mod
	nameTok := p.tok()
	if nameTok.kind != tokIdent {
		return nil, p.errorf(nameTok, "expected a property name")
	}
	pm.Name = p.advance().text

	if isPunct(p.tok(), ":") {
		p.advance()
		value, err := p.binding(nameTok, []string{pm.Name})
		if err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case *ScriptBinding:
			pm.Statement = v.Script
		default:
			pm.Binding = v
		}
	} else if isPunct(p.tok(), ";") {
		p.advance()
	}
	pm.Span = span(first, p.lastNonSemicolon())
	return pm, nil
}

func (p *parser) lastNonSemicolon() token {
	t := p.prev()
	if isPunct(t, ";") && p.pos >= 2 {
		return p.toks[p.pos-2]
	}
	return t
}

func (p *parser) signal(first token) (Node, error) {
	p.advance() // signal
	pm := &PublicMember{Kind: SignalMember, Name: p.advance().text}
	if isPunct(p.tok(), "(") {
		p.advance()
		for !isPunct(p.tok(), ")") {
			param, err := p.signalParameter()
			if err != nil {
				return nil, err
			}
			pm.Parameters = append(pm.Parameters, param)
			if isPunct(p.tok(), ",") {
				p.advance()
			} else if !isPunct(p.tok(), ")") {
				return nil, p.errorf(p.tok(), "expected \",\" or \")\"")
			}
		}
		p.advance()
	}
	pm.Span = span(first, p.prev())
	if isPunct(p.tok(), ";") {
		p.advance()
	}
	return pm, nil
}

// signalParameter reads "Type name", "name: Type" or a bare "name".
func (p *parser) signalParameter() (SignalParameter, error) {
	first, mod, err := p.typeRef()
	if err != nil {
		return SignalParameter{}, err
	}
	if mod != "" {
		first = mod + "<" + first + ">"
	}
	switch t := p.tok(); {
	case isPunct(t, ":"):
		p.advance()
		typ, mod, err := p.typeRef()
		if err != nil {
			return SignalParameter{}, err
		}
		if mod != "" {
			typ = mod + "<" + typ + ">"
		}
		return SignalParameter{Type: typ, Name: first}, nil
	case t.kind == tokIdent:
		return SignalParameter{Type: first, Name: p.advance().text}, nil
	default:
		return SignalParameter{Name: first}, nil
	}
}

func (p *parser) function(first token) (Node, error) {
	p.advance() // function
	fd := &FunctionDeclaration{Name: p.advance().text}
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	if err := p.skipBalanced("(", ")"); err != nil {
		return nil, err
	}
	for !isPunct(p.tok(), "{") {
		if t := p.tok(); t.kind == tokEOF || isPunct(t, "}") {
			return nil, p.errorf(t, "expected a function body")
		}
		p.advance()
	}
	p.advance()
	if err := p.skipBalanced("{", "}"); err != nil {
		return nil, err
	}
	fd.Span = span(first, p.prev())
	fd.Source = string(p.src[fd.Start:fd.End])

	fn, err := p.script.ParseFunction(p.ctx, []byte(fd.Source))
	if err != nil {
		p.log.Debug("cannot read function formals",
			slog.String("file", p.path),
			slog.String("function", fd.Name),
			slog.Any("error", err))
		return fd, nil
	}
	if fn.Partial {
		p.log.Debug("function has syntax errors",
			slog.String("file", p.path),
			slog.String("function", fd.Name))
	}
	fd.ReturnType = fn.ReturnType
	for _, f := range fn.Formals {
		fd.Formals = append(fd.Formals, FormalParameter{Name: f.Name, TypeAnnotation: f.Type, Default: f.Default})
	}
	return fd, nil
}

// skipBalanced consumes tokens up to and including the close token that
// matches an already consumed open token.
func (p *parser) skipBalanced(open, close string) error {
	depth := 1
	for depth > 0 {
		t := p.tok()
		switch {
		case t.kind == tokEOF:
			return p.errorf(t, "expected %q", close)
		case isPunct(t, open):
			depth++
		case isPunct(t, close):
			depth--
		}
		p.advance()
	}
	return nil
}

func (p *parser) enum(first token) (Node, error) {
	p.advance() // enum
	ed := &EnumDeclaration{Name: p.advance().text}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	for !isPunct(p.tok(), "}") {
		t := p.tok()
		if t.kind != tokIdent {
			return nil, p.errorf(t, "expected an enumerator")
		}
		ed.Members = append(ed.Members, p.advance().text)
		if isPunct(p.tok(), "=") {
			p.advance()
			if isPunct(p.tok(), "-") {
				p.advance()
			}
			if p.tok().kind != tokNumber {
				return nil, p.errorf(p.tok(), "expected an enumerator value")
			}
			p.advance()
		}
		if isPunct(p.tok(), ",") {
			p.advance()
		} else if !isPunct(p.tok(), "}") {
			return nil, p.errorf(p.tok(), "expected \",\" or \"}\"")
		}
	}
	p.advance()
	ed.Span = span(first, p.prev())
	return ed, nil
}

func (p *parser) inlineComponent(first token) (Node, error) {
	p.advance() // component
	ic := &InlineComponent{Name: p.advance().text}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	typeTok := p.tok()
	if typeTok.kind != tokIdent {
		return nil, p.errorf(typeTok, "expected a component type")
	}
	def, err := p.objectDefinition(typeTok, p.qualifiedID())
	if err != nil {
		return nil, err
	}
	ic.Definition = def
	ic.Span = span(first, p.prev())
	return ic, nil
}

// binding reads the value after "name:".
func (p *parser) binding(first token, name []string) (Node, error) {
	t := p.tok()
	if isPunct(t, "[") && p.startsObject(1) {
		return p.arrayBinding(first, name)
	}
	if t.kind == tokIdent && p.startsObject(0) {
		typeName := p.qualifiedID()
		return p.objectBody(first, &ObjectBinding{Property: name, TypeName: typeName})
	}
	script, err := p.scriptValue()
	if err != nil {
		return nil, err
	}
	sb := &ScriptBinding{Property: name, Script: script}
	sb.Span = span(first, p.lastNonSemicolon())
	return sb, nil
}

// startsObject reports whether the tokens at offset begin "Qualified.Id {".
func (p *parser) startsObject(off int) bool {
	if p.peek(off).kind != tokIdent {
		return false
	}
	i := off + 1
	for isPunct(p.peek(i), ".") && p.peek(i+1).kind == tokIdent {
		i += 2
	}
	return isPunct(p.peek(i), "{")
}

func (p *parser) objectBody(first token, ob *ObjectBinding) (Node, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	members, err := p.members()
	if err != nil {
		return nil, err
	}
	ob.Members = members
	ob.Span = span(first, p.prev())
	return ob, nil
}

func (p *parser) arrayBinding(first token, name []string) (Node, error) {
	p.advance() // [
	ab := &ArrayBinding{Property: name}
	for !isPunct(p.tok(), "]") {
		elemFirst := p.tok()
		if elemFirst.kind != tokIdent {
			return nil, p.errorf(elemFirst, "expected an object")
		}
		def, err := p.objectDefinition(elemFirst, p.qualifiedID())
		if err != nil {
			return nil, err
		}
		ab.Elements = append(ab.Elements, def)
		if isPunct(p.tok(), ",") {
			p.advance()
		} else if !isPunct(p.tok(), "]") {
			return nil, p.errorf(p.tok(), "expected \",\" or \"]\"")
		}
	}
	p.advance()
	ab.Span = span(first, p.prev())
	if isPunct(p.tok(), ";") {
		p.advance()
	}
	return ab, nil
}

var continuationKeywords = map[string]bool{
	"else": true, "catch": true, "finally": true, "instanceof": true, "in": true,
}

// scriptValue reads a script expression or block and returns its source
// text. It ends at a ";" or a line break outside of brackets, unless the
// line break is followed or preceded by an operator.
func (p *parser) scriptValue() (string, error) {
	first := p.tok()
	if first.kind == tokEOF || isPunct(first, ";") || isPunct(first, "}") || isPunct(first, ")") || isPunct(first, "]") {
		return "", p.errorf(first, "expected a value")
	}
	last := first
	depth := 0
	for {
		t := p.tok()
		if t.kind == tokEOF {
			if depth > 0 {
				return "", p.errorf(t, "unbalanced brackets in script")
			}
			break
		}
		if depth == 0 && t.span.Start != first.span.Start {
			if isPunct(t, ";") {
				p.advance()
				break
			}
			if isPunct(t, "}") || isPunct(t, ")") || isPunct(t, "]") {
				break
			}
			if t.newline && t.kind != tokPunct && !continuationKeywords[t.text] && !isOperator(last) {
				break
			}
		}
		switch {
		case isPunct(t, "("), isPunct(t, "["), isPunct(t, "{"):
			depth++
		case isPunct(t, ")"), isPunct(t, "]"), isPunct(t, "}"):
			depth--
		}
		last = p.advance()
	}
	return strings.TrimSpace(string(p.src[first.span.Start:last.span.End])), nil
}

func isOperator(t token) bool {
	return t.kind == tokPunct && strings.Contains("+-*/%=&|^!<>?:,.~", t.text)
}
