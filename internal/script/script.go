// Package script extracts the formal parameters of JavaScript functions
// declared in QML files using tree-sitter. QML permits type annotations on
// function parameters, so the TypeScript grammar is used.
package script

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrNoFunction is returned when the source holds no function declaration.
var ErrNoFunction = errors.New("no function declaration found")

var whitespaceRe = regexp.MustCompile(`\s+`)

// Formal is one formal parameter. Default is the initializer's source text,
// verbatim; Type is the annotation without its leading colon.
type Formal struct {
	Name    string
	Type    string
	Default string
}

// Function is a parsed function declaration.
type Function struct {
	Name       string
	Formals    []Formal
	ReturnType string
	// Partial is set when the source had syntax errors; the formals that
	// could be recognized are still reported.
	Partial bool
}

// Parser wraps a tree-sitter parser. It is not safe for concurrent use; each
// goroutine must create its own.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a parser for function declarations.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(typescript.GetLanguage())
	return &Parser{parser: p}
}

// ParseFunction parses source, which must start with a function declaration
// such as "function move(x, y = 0) { ... }".
func (p *Parser) ParseFunction(ctx context.Context, source []byte) (*Function, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing function: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	decl := findDeclaration(root, 0)
	if decl == nil {
		return nil, ErrNoFunction
	}

	fn := &Function{Partial: root.HasError()}
	if name := decl.ChildByFieldName("name"); name != nil {
		fn.Name = nodeText(name, source)
	}
	if rt := decl.ChildByFieldName("return_type"); rt != nil {
		fn.ReturnType = annotationText(rt, source)
	}
	if params := decl.ChildByFieldName("parameters"); params != nil {
		fn.Formals = formals(params, source)
	}
	return fn, nil
}

const maxSearchDepth = 4

func findDeclaration(n *sitter.Node, depth int) *sitter.Node {
	if n == nil || depth > maxSearchDepth {
		return nil
	}
	switch n.Type() {
	case "function_declaration", "generator_function_declaration", "function", "function_expression":
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if d := findDeclaration(n.NamedChild(i), depth+1); d != nil {
			return d
		}
	}
	return nil
}

func formals(params *sitter.Node, source []byte) []Formal {
	var out []Formal
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "required_parameter", "optional_parameter":
			f := Formal{}
			if pat := child.ChildByFieldName("pattern"); pat != nil {
				f.Name = patternName(pat, source)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				f.Type = annotationText(typ, source)
			}
			if val := child.ChildByFieldName("value"); val != nil {
				f.Default = nodeText(val, source)
			}
			if f.Name != "" {
				out = append(out, f)
			}
		case "identifier":
			out = append(out, Formal{Name: nodeText(child, source)})
		case "assignment_pattern":
			f := Formal{}
			if left := child.ChildByFieldName("left"); left != nil {
				f.Name = nodeText(left, source)
			}
			if right := child.ChildByFieldName("right"); right != nil {
				f.Default = nodeText(right, source)
			}
			out = append(out, f)
		}
	}
	return out
}

// patternName returns the bound identifier of a parameter pattern. Rest
// parameters keep their "..." prefix; destructuring patterns are returned as
// written.
func patternName(pat *sitter.Node, source []byte) string {
	if pat.Type() == "rest_pattern" {
		for i := 0; i < int(pat.NamedChildCount()); i++ {
			if c := pat.NamedChild(i); c.Type() == "identifier" {
				return "..." + nodeText(c, source)
			}
		}
	}
	return collapseWhitespace(nodeText(pat, source))
}

func annotationText(n *sitter.Node, source []byte) string {
	s := strings.TrimSpace(nodeText(n, source))
	s = strings.TrimPrefix(s, ":")
	return collapseWhitespace(s)
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
