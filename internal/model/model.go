// Package model defines the documentation node graph built from QML sources.
package model

import (
	"sync"

	"github.com/phobologic/qmldoc/internal/doc"
)

// Handle addresses a node in the repository that owns it.
type Handle int

// NoHandle is the parent of the root node.
const NoHandle Handle = -1

// Kind is the variant of a node.
type Kind int

const (
	Namespace Kind = iota
	Type
	Property
	Function
	Enum
)

func (k Kind) String() string {
	switch k {
	case Namespace:
		return "namespace"
	case Type:
		return "type"
	case Property:
		return "property"
	case Function:
		return "function"
	case Enum:
		return "enum"
	}
	return "unknown"
}

// Status is the documentation status of a node.
type Status int

const (
	Active Status = iota
	Preliminary
	Deprecated
	Internal
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Preliminary:
		return "preliminary"
	case Deprecated:
		return "deprecated"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Metaness tells signals and methods apart.
type Metaness int

const (
	Signal Metaness = iota
	Method
)

func (m Metaness) String() string {
	if m == Signal {
		return "signal"
	}
	return "method"
}

// Parameter is one formal parameter of a signal or method.
type Parameter struct {
	Type    string
	Name    string
	Default string
}

// ImportRecord is one import statement of a QML file.
type ImportRecord struct {
	Module  string
	Version string
	URI     string
	Alias   string
}

// TypeData holds the attributes specific to QML type nodes.
type TypeData struct {
	BaseName string
	Title    string
	Abstract bool
	Imports  []ImportRecord
}

// PropertyData holds the attributes specific to QML property nodes.
type PropertyData struct {
	DataType     string
	DefaultValue string
	Enum         string
	Required     bool
	List         bool
	Attached     bool
}

// FunctionData holds the attributes specific to signal and method nodes.
type FunctionData struct {
	Metaness   Metaness
	ReturnType string
	Parameters []Parameter
}

// EnumData holds the enumerators of an enumeration node.
type EnumData struct {
	Values []string
}

// Node is one documented entity. Exactly one of the variant payloads matching
// Kind is present. Name, Kind, Handle and Parent never change after creation;
// everything else is guarded by the node's mutex because types can be touched
// by traversals of different files at once.
type Node struct {
	handle Handle
	parent Handle
	kind   Kind
	name   string

	mu              sync.Mutex
	location        doc.Location
	doc             *doc.Block
	status          Status
	since           string
	deprecated      bool
	deprecatedSince string
	deprecatedNote  string
	readOnly        bool
	isDefault       bool
	wrapper         bool

	typ  *TypeData
	prop *PropertyData
	fn   *FunctionData
	enum *EnumData
}

// NewNode creates a node of the given kind with an empty payload. It is meant
// for repositories; other code obtains nodes from a repository.
func NewNode(kind Kind, h, parent Handle, name string) *Node {
	n := &Node{handle: h, parent: parent, kind: kind, name: name}
	switch kind {
	case Type:
		n.typ = &TypeData{}
	case Property:
		n.prop = &PropertyData{}
	case Function:
		n.fn = &FunctionData{}
	case Enum:
		n.enum = &EnumData{}
	}
	return n
}

// Handle returns the node's address in its repository.
func (n *Node) Handle() Handle { return n.handle }

// Parent returns the handle of the enclosing node, NoHandle for the root.
func (n *Node) Parent() Handle { return n.parent }

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the unqualified name.
func (n *Node) Name() string { return n.name }

// IsType reports whether the node is a QML type.
func (n *Node) IsType() bool { return n.kind == Type }

// IsProperty reports whether the node is a QML property.
func (n *Node) IsProperty() bool { return n.kind == Property }

// IsFunction reports whether the node is a signal or a method.
func (n *Node) IsFunction() bool { return n.kind == Function }

// IsNamespace reports whether the node is a container that QML types are
// created in.
func (n *Node) IsNamespace() bool { return n.kind == Namespace }

// Location is where the node was declared or documented.
func (n *Node) Location() doc.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *Node) SetLocation(loc doc.Location) {
	n.mu.Lock()
	n.location = loc
	n.mu.Unlock()
}

// Doc returns the documentation attached to the node, or nil.
func (n *Node) Doc() *doc.Block {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.doc
}

func (n *Node) SetDoc(b *doc.Block) {
	n.mu.Lock()
	n.doc = b
	n.mu.Unlock()
}

// Status is Active unless a status command changed it.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

func (n *Node) SetStatus(s Status) {
	n.mu.Lock()
	n.status = s
	n.mu.Unlock()
}

func (n *Node) Since() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.since
}

func (n *Node) SetSince(v string) {
	n.mu.Lock()
	n.since = v
	n.mu.Unlock()
}

// Deprecated reports whether the node was marked deprecated and the version
// it was deprecated in, if given.
func (n *Node) Deprecated() (bool, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deprecated, n.deprecatedSince
}

// SetDeprecated marks the node deprecated. It returns false when the node
// already carried a different deprecation version.
func (n *Node) SetDeprecated(since string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	conflict := n.deprecated && n.deprecatedSince != "" && n.deprecatedSince != since
	n.deprecated = true
	n.deprecatedSince = since
	return !conflict
}

// DeprecationNote returns the text given after "\deprecated", usually
// what to use instead.
func (n *Node) DeprecationNote() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deprecatedNote
}

func (n *Node) SetDeprecationNote(text string) {
	n.mu.Lock()
	n.deprecatedNote = text
	n.mu.Unlock()
}

func (n *Node) IsReadOnly() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readOnly
}

func (n *Node) SetReadOnly(ro bool) {
	n.mu.Lock()
	n.readOnly = ro
	n.mu.Unlock()
}

// IsDefault reports whether the node is the default property of its type.
func (n *Node) IsDefault() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isDefault
}

func (n *Node) MarkDefault() {
	n.mu.Lock()
	n.isDefault = true
	n.mu.Unlock()
}

func (n *Node) IsWrapper() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.wrapper
}

func (n *Node) MarkWrapper() {
	n.mu.Lock()
	n.wrapper = true
	n.mu.Unlock()
}
