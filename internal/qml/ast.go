// Package qml parses the declarative structure of QML documents: imports,
// object trees, property, signal, enum and function declarations. Script
// code is kept as opaque source text.
package qml

import "strings"

// Span is a half-open byte range [Start, End) of the document together with
// the 1-based line and column of Start.
type Span struct {
	Start, End   int
	Line, Column int
}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Span
}

// Comment is a comment of the document, with delimiters.
type Comment struct {
	Span
	Text  string
	Block bool
}

// Body returns the comment text between its delimiters.
func (c Comment) Body() string {
	if c.Block {
		s := strings.TrimPrefix(c.Text, "/*")
		return strings.TrimSuffix(s, "*/")
	}
	return strings.TrimPrefix(c.Text, "//")
}

// Document is one parsed QML file.
type Document struct {
	Path     string
	Source   []byte
	Program  *Program
	Comments []Comment
}

// Program is the root of a document's tree.
type Program struct {
	Span
	Headers []Node // *Import and *Pragma, in source order
	Root    *ObjectDefinition
}

// Import is an import statement. For module imports FileName holds the
// dotted module URI and URI its segments; for directory or script imports
// FileName holds the quoted string as written.
type Import struct {
	Span
	FileName string
	URI      []string
	Version  string
	Alias    string
}

// Pragma is a pragma statement.
type Pragma struct {
	Span
	Name string
}

// ObjectDefinition is "Type { members }". Grouped property blocks such as
// "font { bold: true }" are object definitions too.
type ObjectDefinition struct {
	Span
	TypeName []string
	Members  []Node
}

// ObjectBinding assigns an object to a property, either as "prop: Type {}"
// or, with On set, as "Type on prop {}".
type ObjectBinding struct {
	Span
	Property []string
	TypeName []string
	On       bool
	Members  []Node
}

// ArrayBinding is "prop: [ Type {}, Type {} ]".
type ArrayBinding struct {
	Span
	Property []string
	Elements []*ObjectDefinition
}

// ScriptBinding binds a property or handler to script code.
type ScriptBinding struct {
	Span
	Property []string
	Script   string
}

// MemberKind tells property and signal declarations apart.
type MemberKind int

const (
	PropertyMember MemberKind = iota
	SignalMember
)

// SignalParameter is one parameter of a signal declaration. Type is empty
// for untyped parameters.
type SignalParameter struct {
	Type string
	Name string
}

// PublicMember is a property or signal declaration.
type PublicMember struct {
	Span
	Kind         MemberKind
	Name         string
	MemberType   string
	TypeModifier string // "list" for list<T> properties
	ReadOnly     bool
	Default      bool
	Required     bool
	Parameters   []SignalParameter

	// At most one of Statement and Binding is set for initialized
	// properties. Binding is an *ObjectBinding or an *ArrayBinding.
	Statement string
	Binding   Node
}

// FormalParameter is one formal of a function declaration. Default is the
// initializer's source text.
type FormalParameter struct {
	Name           string
	TypeAnnotation string
	Default        string
}

// FunctionDeclaration is a JavaScript function declared as an object member.
type FunctionDeclaration struct {
	Span
	Name       string
	Formals    []FormalParameter
	ReturnType string
	Source     string
}

// EnumDeclaration is "enum Name { A, B = 2 }".
type EnumDeclaration struct {
	Span
	Name    string
	Members []string
}

// InlineComponent is "component Name: Type { }".
type InlineComponent struct {
	Span
	Name       string
	Definition *ObjectDefinition
}

func (s Span) Pos() Span { return s }

// QualifiedName joins identifier segments with dots.
func QualifiedName(segments []string) string {
	return strings.Join(segments, ".")
}
