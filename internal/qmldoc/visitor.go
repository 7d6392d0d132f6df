package qmldoc

import (
	"log/slog"
	"strings"

	"github.com/phobologic/qmldoc/internal/doc"
	"github.com/phobologic/qmldoc/internal/model"
	"github.com/phobologic/qmldoc/internal/qml"
)

// DefaultMaxDepth is the default nesting budget of a traversal.
const DefaultMaxDepth = 4096

// publicLevel is the nesting level of the members of a file's root object.
const publicLevel = 1

// Visitor walks one QML document and creates documentation nodes for the
// types, properties, signals, methods and enumerations it declares at the
// public level.
type Visitor struct {
	repo   Repository
	binder *Binder
	log    *slog.Logger
	file   string

	nesting int
	scope   *model.Node
	imports []model.ImportRecord
	primary *model.Node
	failed  bool
}

var _ qml.Visitor = (*Visitor)(nil)

// NewVisitor creates a visitor for d. A nil parser means doc.DefaultParser();
// a nil logger means slog.Default().
func NewVisitor(repo Repository, d *qml.Document, parser *doc.Parser, log *slog.Logger) *Visitor {
	if log == nil {
		log = slog.Default()
	}
	root := repo.Root()
	return &Visitor{
		repo:   repo,
		binder: NewBinder(repo, d, root, parser, log),
		log:    log,
		file:   d.Path,
		scope:  root,
	}
}

// HasError reports whether the walk was stopped by the recursion guard.
func (v *Visitor) HasError() bool { return v.failed }

// Primary returns the type declared by the document, or nil if none was
// reached.
func (v *Visitor) Primary() *model.Node { return v.primary }

// Warnings returns the warnings produced so far.
func (v *Visitor) Warnings() []Warning { return v.binder.Warnings() }

// RecursionDepthExceeded sets the sticky error flag; nothing more is
// documented for the file.
func (v *Visitor) RecursionDepthExceeded() {
	v.failed = true
	v.log.Warn("maximum nesting depth exceeded", slog.String("file", v.file))
}

// Enter documents the declarations n introduces and opens object scopes.
func (v *Visitor) Enter(n qml.Node) bool {
	if v.failed {
		return false
	}
	switch n := n.(type) {
	case *qml.ObjectDefinition:
		v.nesting++
		if v.scope.IsNamespace() {
			v.enterType(n)
		}
	case *qml.ObjectBinding:
		v.nesting++
	case *qml.Import:
		v.imports = append(v.imports, importRecord(n))
	case *qml.PublicMember:
		if v.atPublicLevel() {
			switch n.Kind {
			case qml.SignalMember:
				v.signal(n)
			case qml.PropertyMember:
				v.property(n)
			}
		}
	case *qml.FunctionDeclaration:
		if v.atPublicLevel() {
			v.method(n)
		}
	case *qml.EnumDeclaration:
		if v.atPublicLevel() {
			e := v.repo.CreateEnum(v.scope.Handle(), n.Name, n.Members)
			v.binder.Bind(n.Span, e)
		}
	}
	return true
}

// Exit closes object scopes and records where n ended.
func (v *Visitor) Exit(n qml.Node) {
	switch n := n.(type) {
	case *qml.ObjectDefinition:
		if v.nesting > 0 {
			v.nesting--
		}
		v.binder.Advance(n.End)
	case *qml.ObjectBinding:
		if v.nesting > 0 {
			v.nesting--
		}
	case *qml.Import, *qml.Pragma, *qml.PublicMember, *qml.FunctionDeclaration,
		*qml.ScriptBinding, *qml.EnumDeclaration, *qml.InlineComponent:
		v.binder.Advance(n.Pos().End)
	}
}

// atPublicLevel reports whether declarations seen now belong to the
// documented type's API.
func (v *Visitor) atPublicLevel() bool {
	return v.nesting <= publicLevel && v.scope.IsType()
}

func (v *Visitor) enterType(def *qml.ObjectDefinition) {
	t := v.binder.Bind(def.Span, nil)
	documented := !t.Doc().IsEmpty()
	imports := v.imports
	v.imports = nil
	t.UpdateType(func(td *model.TypeData) {
		if documented {
			td.BaseName = qml.QualifiedName(def.TypeName)
		}
		td.Title = v.binder.name
		td.Imports = imports
	})
	v.scope = t
	if v.primary == nil {
		v.primary = t
	}
}

func (v *Visitor) signal(m *qml.PublicMember) {
	fn := v.repo.CreateFunction(v.scope.Handle(), m.Name, model.Signal)
	var params []model.Parameter
	for _, p := range m.Parameters {
		// Signal parameters must be typed.
		if p.Type == "" || p.Name == "" {
			continue
		}
		params = append(params, model.Parameter{Type: p.Type, Name: p.Name})
	}
	fn.UpdateFunction(func(f *model.FunctionData) { f.Parameters = params })
	v.binder.Bind(m.Span, fn)
}

func (v *Visitor) property(m *qml.PublicMember) {
	prop, _ := v.repo.ResolveProperty(v.scope.Handle(), m.Name, m.MemberType, false)
	prop.SetReadOnly(m.ReadOnly)
	if m.Default {
		prop.MarkDefault()
	}
	prop.UpdateProperty(func(p *model.PropertyData) {
		if m.Required {
			p.Required = true
		}
		p.List = m.TypeModifier == "list"
	})
	v.binder.Bind(m.Span, prop)
}

func (v *Visitor) method(fd *qml.FunctionDeclaration) {
	fn := v.repo.CreateFunction(v.scope.Handle(), fd.Name, model.Method)
	var params []model.Parameter
	for _, f := range fd.Formals {
		params = append(params, model.Parameter{Name: f.Name, Default: f.Default})
	}
	fn.UpdateFunction(func(f *model.FunctionData) { f.Parameters = params })
	v.binder.Bind(fd.Span, fn)
}

func importRecord(imp *qml.Import) model.ImportRecord {
	name := imp.FileName
	if len(name) >= 2 && strings.ContainsRune(`"'`, rune(name[0])) {
		name = name[1 : len(name)-1]
	}
	return model.ImportRecord{
		Module:  name,
		Version: imp.Version,
		URI:     qml.QualifiedName(imp.URI),
		Alias:   imp.Alias,
	}
}

// Options configure Process.
type Options struct {
	Logger *slog.Logger
	// Parser reads comment bodies. Nil means doc.DefaultParser().
	Parser *doc.Parser
	// MaxDepth bounds the nesting of the walk. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Result is the outcome of processing one document. When RecursionExceeded
// is set the nodes created before the walk stopped remain in the repository.
type Result struct {
	Primary           *model.Node
	Warnings          []Warning
	RecursionExceeded bool
}

// Process documents d into repo.
func Process(repo Repository, d *qml.Document, opts Options) Result {
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	v := NewVisitor(repo, d, opts.Parser, opts.Logger)
	if d.Program != nil {
		qml.Walk(v, d.Program, depth)
	}
	return Result{Primary: v.Primary(), Warnings: v.Warnings(), RecursionExceeded: v.HasError()}
}
