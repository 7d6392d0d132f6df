package qmldoc

import (
	"fmt"
	"log/slog"

	"github.com/phobologic/qmldoc/internal/doc"
	"github.com/phobologic/qmldoc/internal/model"
)

// Repository is the part of the documentation store used while processing a
// file. *docdb.Repository implements it.
type Repository interface {
	Root() *model.Node
	Node(h model.Handle) *model.Node
	CreateType(parent model.Handle, name string) *model.Node
	ResolveType(parent model.Handle, module, name string) (*model.Node, bool)
	ResolveProperty(parent model.Handle, name, dataType string, attached bool) (*model.Node, bool)
	CreateFunction(parent model.Handle, name string, m model.Metaness) *model.Node
	CreateEnum(parent model.Handle, name string, values []string) *model.Node
	FindEnum(name string) *model.Node
	AddToModule(module string, n *model.Node)
	AddToGroup(group string, n *model.Node)
}

// Warning is a problem in a documentation comment. It never stops
// processing.
type Warning struct {
	Location doc.Location
	Command  string
	Message  string
	Hint     string
}

func (w Warning) String() string {
	s := w.Location.String() + ": warning: " + w.Message
	if w.Hint != "" {
		s += " (" + w.Hint + ")"
	}
	return s
}

// Interpreter applies the metacommands of a comment to a node.
type Interpreter struct {
	repo Repository
	log  *slog.Logger
}

// NewInterpreter creates an interpreter. A nil logger means slog.Default().
func NewInterpreter(repo Repository, log *slog.Logger) *Interpreter {
	if log == nil {
		log = slog.Default()
	}
	return &Interpreter{repo: repo, log: log}
}

type command struct {
	name string
	args []doc.Arg
	node *model.Node
	loc  doc.Location
}

// first returns the first occurrence's argument.
func (c command) first() doc.Arg {
	if len(c.args) == 0 {
		return doc.Arg{}
	}
	return c.args[0]
}

type handler func(in *Interpreter, c command) []Warning

var handlers = map[string]handler{
	"abstract":           applyAbstract,
	"qmlabstract":        applyAbstract,
	"deprecated":         applyDeprecated,
	"inqmlmodule":        applyInModule,
	"qmlinherits":        applyInherits,
	"default":            applyDefaultValue,
	"qmldefault":         func(_ *Interpreter, c command) []Warning { c.node.MarkDefault(); return nil },
	"qmlenumeratorsfrom": applyEnumeratorsFrom,
	"qmlreadonly":        func(_ *Interpreter, c command) []Warning { c.node.SetReadOnly(true); return nil },
	"qmlrequired":        applyRequired,
	"ingroup":            applyInGroup,
	"since":              applySince,
	"wrapper":            func(_ *Interpreter, c command) []Warning { c.node.MarkWrapper(); return nil },
}

// statusCommands map to the status they set. When several appear in one
// comment the highest ranked status wins.
var statusCommands = map[string]model.Status{
	"internal":    model.Internal,
	"obsolete":    model.Deprecated,
	"preliminary": model.Preliminary,
}

var statusRank = map[model.Status]int{
	model.Preliminary: 1,
	model.Deprecated:  2,
	model.Internal:    3,
}

// Apply runs every metacommand of b against n, in command name order, and
// returns the warnings produced.
func (in *Interpreter) Apply(b *doc.Block, n *model.Node) []Warning {
	if b == nil || n == nil {
		return nil
	}
	var (
		warnings []Warning
		status   model.Status
		ranked   = 0
	)
	for _, name := range b.MetaCommands() {
		if s, ok := statusCommands[name]; ok {
			if statusRank[s] > ranked {
				status, ranked = s, statusRank[s]
			}
			continue
		}
		c := command{name: name, args: b.MetaCommandArgs(name), node: n, loc: b.Location}
		h, ok := handlers[name]
		if !ok {
			warnings = append(warnings, c.warn("The \\%s command is ignored in QML files", name))
			continue
		}
		warnings = append(warnings, h(in, c)...)
	}
	if ranked > 0 {
		n.SetStatus(status)
	}
	for _, w := range warnings {
		in.log.Warn(w.Message,
			slog.String("file", w.Location.File),
			slog.Int("line", w.Location.Line),
			slog.String("command", w.Command),
			slog.String("node", n.Name()))
	}
	return warnings
}

func (c command) warn(format string, args ...any) Warning {
	return Warning{Location: c.loc, Command: c.name, Message: fmt.Sprintf(format, args...)}
}

func (c command) missingArgument() []Warning {
	return []Warning{c.warn("Expected an argument for '\\%s'", c.name)}
}

func applyAbstract(_ *Interpreter, c command) []Warning {
	c.node.UpdateType(func(t *model.TypeData) { t.Abstract = true })
	return nil
}

func applyDeprecated(_ *Interpreter, c command) []Warning {
	arg := c.first()
	since := arg.Optional
	if arg.Value != "" {
		c.node.SetDeprecationNote(arg.Value)
	}
	_, old := c.node.Deprecated()
	if !c.node.SetDeprecated(since) {
		return []Warning{c.warn("Setting deprecated since version for %s to %s even though it was already set to %s",
			c.node.Name(), since, old)}
	}
	return nil
}

func applyInModule(in *Interpreter, c command) []Warning {
	module := c.first().Value
	if module == "" {
		return c.missingArgument()
	}
	in.repo.AddToModule(module, c.node)
	return nil
}

func applyInherits(_ *Interpreter, c command) []Warning {
	base := c.first().Value
	switch {
	case base == "":
		return c.missingArgument()
	case base == c.node.Name():
		return []Warning{c.warn("%s tries to inherit itself", base)}
	}
	c.node.UpdateType(func(t *model.TypeData) { t.BaseName = base })
	return nil
}

func applyDefaultValue(_ *Interpreter, c command) []Warning {
	if !c.node.IsProperty() {
		return []Warning{c.warn("Ignored '\\%s', applies only to '\\qmlproperty'", c.name)}
	}
	value := c.first().Value
	if value == "" {
		return []Warning{c.warn("Expected an argument for '\\%s' (maybe you meant '\\qmldefault'?)", c.name)}
	}
	c.node.UpdateProperty(func(p *model.PropertyData) { p.DefaultValue = value })
	return nil
}

func applyEnumeratorsFrom(in *Interpreter, c command) []Warning {
	if !c.node.IsProperty() {
		return []Warning{c.warn("Ignored '\\%s', applies only to '\\qmlproperty'", c.name)}
	}
	name := c.first().Value
	if name == "" {
		return c.missingArgument()
	}
	if in.repo.FindEnum(name) == nil {
		w := c.warn("Failed to find C++ enumeration '%s' passed to \\%s", name, c.name)
		w.Hint = "Use \\value commands instead"
		return []Warning{w}
	}
	c.node.UpdateProperty(func(p *model.PropertyData) { p.Enum = name })
	return nil
}

func applyRequired(_ *Interpreter, c command) []Warning {
	c.node.UpdateProperty(func(p *model.PropertyData) { p.Required = true })
	return nil
}

func applyInGroup(in *Interpreter, c command) []Warning {
	added := 0
	for _, a := range c.args {
		if a.Value == "" {
			continue
		}
		in.repo.AddToGroup(a.Value, c.node)
		added++
	}
	if added == 0 {
		return c.missingArgument()
	}
	return nil
}

func applySince(_ *Interpreter, c command) []Warning {
	v := c.first().Value
	if v == "" {
		return c.missingArgument()
	}
	c.node.SetSince(v)
	return nil
}
