// Package report flattens a documentation repository into tables ready for
// encoding.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/phobologic/qmldoc/internal/docdb"
	"github.com/phobologic/qmldoc/internal/model"
)

// Report is the documented API of a set of QML files.
type Report struct {
	Project    string     `yaml:"project"`
	Types      []Type     `yaml:"types"`
	Properties []Property `yaml:"properties,omitempty"`
	Functions  []Function `yaml:"functions,omitempty"`
	Enums      []Enum     `yaml:"enums,omitempty"`
	Imports    []Import   `yaml:"imports,omitempty"`
	Modules    []Group    `yaml:"modules,omitempty"`
	Groups     []Group    `yaml:"groups,omitempty"`
}

// Entity holds the attributes every documented node has.
type Entity struct {
	Status     string `yaml:"status,omitempty"`
	Since      string `yaml:"since,omitempty"`
	Deprecated string `yaml:"deprecated,omitempty"`
	// DeprecationNote is the text following "\deprecated".
	DeprecationNote string `yaml:"deprecation_note,omitempty"`
	File            string `yaml:"file,omitempty"`
	Line            int    `yaml:"line,omitempty"`
	Doc             string `yaml:"doc,omitempty"`
}

// Type is a row of the types table.
type Type struct {
	Name     string `yaml:"name"`
	Module   string `yaml:"module,omitempty"`
	Base     string `yaml:"base,omitempty"`
	Title    string `yaml:"title,omitempty"`
	Abstract bool   `yaml:"abstract,omitempty"`
	Wrapper  bool   `yaml:"wrapper,omitempty"`
	Entity   `yaml:",inline"`
}

// Property is a documented property; Type is its owner's qualified name.
type Property struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	DataType string   `yaml:"data_type,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
	Default  string   `yaml:"default,omitempty"`
	Enum     string   `yaml:"enum,omitempty"`
	Entity   `yaml:",inline"`
}

// Function is a signal or method with its rendered signature.
type Function struct {
	Type      string `yaml:"type"`
	Kind      string `yaml:"kind"`
	Name      string `yaml:"name"`
	Signature string `yaml:"signature"`
	Entity    `yaml:",inline"`
}

// Enum is an enumeration and its value names.
type Enum struct {
	Parent string   `yaml:"parent,omitempty"`
	Name   string   `yaml:"name"`
	Values []string `yaml:"values,omitempty"`
}

// Import is one import statement of the file a type was defined in.
type Import struct {
	Type    string `yaml:"type"`
	Module  string `yaml:"module"`
	Version string `yaml:"version,omitempty"`
	Alias   string `yaml:"alias,omitempty"`
}

// Group is a module or a group and the qualified names of its members.
type Group struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// Build collects every node of repo. Rows are sorted so that the same inputs
// give the same report regardless of the order files were processed in.
func Build(repo *docdb.Repository, project string) *Report {
	r := &Report{Project: project}
	for h := range repo.Len() {
		n := repo.Node(model.Handle(h))
		switch n.Kind() {
		case model.Type:
			r.addType(repo, n)
		case model.Property:
			r.addProperty(repo, n)
		case model.Function:
			r.addFunction(repo, n)
		case model.Enum:
			r.addEnum(repo, n)
		}
	}

	slices.SortStableFunc(r.Types, func(a, b Type) int {
		return cmp.Or(cmp.Compare(a.Module, b.Module), cmp.Compare(a.Name, b.Name), cmp.Compare(a.File, b.File))
	})
	slices.SortStableFunc(r.Properties, func(a, b Property) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name))
	})
	slices.SortStableFunc(r.Functions, func(a, b Function) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Name, b.Name))
	})
	slices.SortStableFunc(r.Enums, func(a, b Enum) int {
		return cmp.Or(cmp.Compare(a.Parent, b.Parent), cmp.Compare(a.Name, b.Name))
	})
	slices.SortStableFunc(r.Imports, func(a, b Import) int { return cmp.Compare(a.Type, b.Type) })

	for _, m := range repo.Modules() {
		r.Modules = append(r.Modules, Group{Name: m, Members: names(repo, repo.ModuleMembers(m))})
	}
	for _, g := range repo.Groups() {
		r.Groups = append(r.Groups, Group{Name: g, Members: names(repo, repo.GroupMembers(g))})
	}
	return r
}

// QualifiedName names n the way reports refer to it: "Module::Type" for
// types in a module, "Type::member" for members.
func QualifiedName(repo *docdb.Repository, n *model.Node) string {
	if n.IsType() {
		if m := repo.ModuleOf(n); m != "" {
			return m + "::" + n.Name()
		}
		return n.Name()
	}
	if p := repo.Node(n.Parent()); p != nil && !p.IsNamespace() {
		return QualifiedName(repo, p) + "::" + n.Name()
	}
	return n.Name()
}

func names(repo *docdb.Repository, nodes []*model.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, QualifiedName(repo, n))
	}
	slices.Sort(out)
	return out
}

func entity(n *model.Node) Entity {
	e := Entity{Since: n.Since()}
	if s := n.Status(); s != model.Active {
		e.Status = s.String()
	}
	if dep, since := n.Deprecated(); dep {
		e.Deprecated = cmp.Or(since, "yes")
		e.DeprecationNote = n.DeprecationNote()
	}
	loc := n.Location()
	e.File, e.Line = loc.File, loc.Line
	if b := n.Doc(); b != nil {
		e.Doc = b.Body
	}
	return e
}

func (r *Report) addType(repo *docdb.Repository, n *model.Node) {
	td, _ := n.TypeInfo()
	r.Types = append(r.Types, Type{
		Name:     n.Name(),
		Module:   repo.ModuleOf(n),
		Base:     td.BaseName,
		Title:    td.Title,
		Abstract: td.Abstract,
		Wrapper:  n.IsWrapper(),
		Entity:   entity(n),
	})
	key := QualifiedName(repo, n)
	for _, imp := range td.Imports {
		r.Imports = append(r.Imports, Import{Type: key, Module: imp.Module, Version: imp.Version, Alias: imp.Alias})
	}
}

func (r *Report) addProperty(repo *docdb.Repository, n *model.Node) {
	pd, _ := n.PropertyInfo()
	var flags []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{n.IsReadOnly(), "readonly"},
		{n.IsDefault(), "default"},
		{pd.Required, "required"},
		{pd.List, "list"},
		{pd.Attached, "attached"},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	r.Properties = append(r.Properties, Property{
		Type:     ownerName(repo, n),
		Name:     n.Name(),
		DataType: pd.DataType,
		Flags:    flags,
		Default:  pd.DefaultValue,
		Enum:     pd.Enum,
		Entity:   entity(n),
	})
}

func (r *Report) addFunction(repo *docdb.Repository, n *model.Node) {
	fd, _ := n.FunctionInfo()
	r.Functions = append(r.Functions, Function{
		Type:      ownerName(repo, n),
		Kind:      fd.Metaness.String(),
		Name:      n.Name(),
		Signature: Signature(n.Name(), fd),
		Entity:    entity(n),
	})
}

func (r *Report) addEnum(repo *docdb.Repository, n *model.Node) {
	ed, _ := n.EnumInfo()
	r.Enums = append(r.Enums, Enum{Parent: ownerName(repo, n), Name: n.Name(), Values: ed.Values})
}

func ownerName(repo *docdb.Repository, n *model.Node) string {
	p := repo.Node(n.Parent())
	if p == nil || p.IsNamespace() {
		return ""
	}
	return QualifiedName(repo, p)
}

// Signature renders a function as "ret name(type name = default, ...)".
func Signature(name string, fd model.FunctionData) string {
	params := make([]string, 0, len(fd.Parameters))
	for _, p := range fd.Parameters {
		s := strings.TrimSpace(p.Type + " " + p.Name)
		if p.Default != "" {
			s += " = " + p.Default
		}
		params = append(params, s)
	}
	sig := name + "(" + strings.Join(params, ", ") + ")"
	if fd.ReturnType != "" {
		sig = fd.ReturnType + " " + sig
	}
	return sig
}
