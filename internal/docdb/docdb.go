// Package docdb is an in-memory store of documentation nodes shared by all
// file traversals of a run.
package docdb

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/phobologic/qmldoc/internal/model"
)

// RootName is the name of the root namespace node.
const RootName = ""

type propertyKey struct {
	parent   model.Handle
	name     string
	attached bool
}

// Repository owns every node of a run. Nodes live in an arena and refer to
// their parent by handle. All methods are safe for concurrent use.
type Repository struct {
	mu sync.RWMutex

	nodes    []*model.Node
	children map[model.Handle][]model.Handle

	properties  map[propertyKey]model.Handle
	moduleTypes map[string]model.Handle
	modules     map[string][]model.Handle
	nodeModules map[model.Handle]string
	groups      map[string][]model.Handle
	enums       map[string]model.Handle
}

// New returns a repository holding only the root namespace.
func New() *Repository {
	r := &Repository{
		children:    make(map[model.Handle][]model.Handle),
		properties:  make(map[propertyKey]model.Handle),
		moduleTypes: make(map[string]model.Handle),
		modules:     make(map[string][]model.Handle),
		nodeModules: make(map[model.Handle]string),
		groups:      make(map[string][]model.Handle),
		enums:       make(map[string]model.Handle),
	}
	r.nodes = append(r.nodes, model.NewNode(model.Namespace, 0, model.NoHandle, RootName))
	return r
}

// Root returns the root namespace.
func (r *Repository) Root() *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[0]
}

// Node returns the node for h, or nil if h is not a valid handle.
func (r *Repository) Node(h model.Handle) *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h < 0 || int(h) >= len(r.nodes) {
		return nil
	}
	return r.nodes[h]
}

// Children returns the children of h in creation order.
func (r *Repository) Children(h model.Handle) []*model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(r.children[h])
}

// Len returns the number of nodes, including the root.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// add appends a node under parent. The caller holds the write lock.
func (r *Repository) add(kind model.Kind, parent model.Handle, name string) *model.Node {
	h := model.Handle(len(r.nodes))
	n := model.NewNode(kind, h, parent, name)
	r.nodes = append(r.nodes, n)
	r.children[parent] = append(r.children[parent], h)
	return n
}

func (r *Repository) resolve(hs []model.Handle) []*model.Node {
	out := make([]*model.Node, len(hs))
	for i, h := range hs {
		out[i] = r.nodes[h]
	}
	return out
}

func moduleKey(module, name string) string {
	return module + "::" + name
}

// FindType looks up a QML type. With a module it looks in that module's
// members only; without one it looks for a type of that name directly under
// the root.
func (r *Repository) FindType(module, name string) *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findTypeLocked(module, name)
}

func (r *Repository) findTypeLocked(module, name string) *model.Node {
	if module != "" {
		if h, ok := r.moduleTypes[moduleKey(module, name)]; ok {
			return r.nodes[h]
		}
		return nil
	}
	for _, h := range r.children[0] {
		if n := r.nodes[h]; n.IsType() && n.Name() == name {
			return n
		}
	}
	return nil
}

// CreateType creates a new QML type node under parent.
func (r *Repository) CreateType(parent model.Handle, name string) *model.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(model.Type, parent, name)
}

// ResolveType returns the type found by FindType(module, name), or creates
// one under parent. Lookup and creation happen atomically, and a created type
// is registered in module right away, so concurrent callers agree on a single
// node.
func (r *Repository) ResolveType(parent model.Handle, module, name string) (n *model.Node, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.findTypeLocked(module, name); n != nil {
		return n, false
	}
	n = r.add(model.Type, parent, name)
	if module != "" {
		r.addToModuleLocked(module, n.Handle())
	}
	return n, true
}

// FindProperty looks up a property of parent.
func (r *Repository) FindProperty(parent model.Handle, name string, attached bool) *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.properties[propertyKey{parent, name, attached}]; ok {
		return r.nodes[h]
	}
	return nil
}

// ResolveProperty returns the property name of parent, creating it with
// dataType if it does not exist yet.
func (r *Repository) ResolveProperty(parent model.Handle, name, dataType string, attached bool) (n *model.Node, created bool) {
	key := propertyKey{parent, name, attached}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.properties[key]; ok {
		return r.nodes[h], false
	}
	n = r.add(model.Property, parent, name)
	n.UpdateProperty(func(p *model.PropertyData) {
		p.DataType = dataType
		p.Attached = attached
	})
	r.properties[key] = n.Handle()
	return n, true
}

// CreateFunction creates a signal or method under parent. Functions are not
// deduplicated since methods may be overloaded.
func (r *Repository) CreateFunction(parent model.Handle, name string, m model.Metaness) *model.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.add(model.Function, parent, name)
	n.UpdateFunction(func(f *model.FunctionData) { f.Metaness = m })
	return n
}

// CreateEnum creates an enumeration under parent and makes it resolvable both
// by its own name and qualified by the parent's name.
func (r *Repository) CreateEnum(parent model.Handle, name string, values []string) *model.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.add(model.Enum, parent, name)
	n.UpdateEnum(func(e *model.EnumData) { e.Values = append([]string(nil), values...) })
	if p := r.nodes[parent]; !p.IsNamespace() {
		r.enums[p.Name()+"."+name] = n.Handle()
		r.enums[p.Name()+"::"+name] = n.Handle()
	}
	if _, taken := r.enums[name]; !taken {
		r.enums[name] = n.Handle()
	}
	return n
}

// RegisterEnum declares an enumeration defined outside the QML sources, such
// as a C++ enum, under the root.
func (r *Repository) RegisterEnum(qualifiedName string) *model.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.enums[qualifiedName]; ok {
		return r.nodes[h]
	}
	n := r.add(model.Enum, 0, qualifiedName)
	r.enums[qualifiedName] = n.Handle()
	return n
}

// FindEnum resolves an enumeration name as written in \qmlenumeratorsfrom.
// Both "Type::Enum" and "Type.Enum" spellings are accepted.
func (r *Repository) FindEnum(name string) *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.enums[name]; ok {
		return r.nodes[h]
	}
	if h, ok := r.enums[strings.ReplaceAll(name, "::", ".")]; ok {
		return r.nodes[h]
	}
	return nil
}

// AddToModule records n as a member of the QML module.
func (r *Repository) AddToModule(module string, n *model.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addToModuleLocked(module, n.Handle())
}

func (r *Repository) addToModuleLocked(module string, h model.Handle) {
	n := r.nodes[h]
	if prev, ok := r.nodeModules[h]; ok {
		if prev == module {
			return
		}
		r.modules[prev] = slices.DeleteFunc(r.modules[prev], func(m model.Handle) bool { return m == h })
		if len(r.modules[prev]) == 0 {
			delete(r.modules, prev)
		}
		if key := moduleKey(prev, n.Name()); n.IsType() && r.moduleTypes[key] == h {
			delete(r.moduleTypes, key)
		}
	}
	r.nodeModules[h] = module
	r.modules[module] = append(r.modules[module], h)
	if n.IsType() {
		r.moduleTypes[moduleKey(module, n.Name())] = h
	}
}

// ModuleOf returns the module n was added to, if any.
func (r *Repository) ModuleOf(n *model.Node) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodeModules[n.Handle()]
}

// AddToGroup records n as a member of group. Adding twice is a no-op.
func (r *Repository) AddToGroup(group string, n *model.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.groups[group] {
		if h == n.Handle() {
			return
		}
	}
	r.groups[group] = append(r.groups[group], n.Handle())
}

// Modules returns the module names in sorted order.
func (r *Repository) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.modules)
}

// ModuleMembers returns the nodes added to module.
func (r *Repository) ModuleMembers(module string) []*model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(r.modules[module])
}

// Groups returns the group names in sorted order.
func (r *Repository) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.groups)
}

// GroupMembers returns the nodes added to group.
func (r *Repository) GroupMembers(group string) []*model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(r.groups[group])
}

func sortedKeys(m map[string][]model.Handle) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
