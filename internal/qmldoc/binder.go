package qmldoc

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/phobologic/qmldoc/internal/doc"
	"github.com/phobologic/qmldoc/internal/model"
	"github.com/phobologic/qmldoc/internal/qml"
	"github.com/phobologic/qmldoc/internal/signature"
)

// BaseName returns the type name a QML file declares: its file name up to the
// first dot.
func BaseName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// Binder associates the comments of one file with nodes. It keeps the
// per-file state: comments already consumed and the end of the last closed
// construct. A Binder must not be shared between goroutines.
type Binder struct {
	repo     Repository
	parser   *doc.Parser
	interp   *Interpreter
	log      *slog.Logger
	file     string
	name     string
	comments []qml.Comment

	used    map[int]struct{}
	lastEnd int
	scope   *model.Node

	warnings []Warning
}

// NewBinder creates a binder for document d. New types are created under
// scope. A nil parser means doc.DefaultParser().
func NewBinder(repo Repository, d *qml.Document, scope *model.Node, parser *doc.Parser, log *slog.Logger) *Binder {
	if parser == nil {
		parser = doc.DefaultParser()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Binder{
		repo:     repo,
		parser:   parser,
		interp:   NewInterpreter(repo, log),
		log:      log,
		file:     d.Path,
		name:     BaseName(d.Path),
		comments: d.Comments,
		used:     make(map[int]struct{}),
		lastEnd:  -1,
		scope:    scope,
	}
}

// Advance records end as the end of the most recently closed construct.
func (b *Binder) Advance(end int) {
	if end > b.lastEnd {
		b.lastEnd = end
	}
}

// Warnings returns the warnings produced so far.
func (b *Binder) Warnings() []Warning { return b.warnings }

// Bind documents the construct at span with the comment preceding it and
// returns the documented node. When n is nil a QML type named after the file
// is looked up or created.
func (b *Binder) Bind(at qml.Span, n *model.Node) *model.Node {
	c, ok := FindPrecedingComment(at.Start, b.comments, b.used, b.lastEnd)
	if !ok {
		if n == nil {
			n = b.repo.CreateType(b.scope.Handle(), b.name)
		}
		n.SetLocation(doc.Location{File: b.file, Line: at.Line})
		return n
	}

	loc := doc.Location{File: b.file, Line: c.Line, Column: c.Column}
	// Drop the '!' or '*' marking the comment as documentation.
	block := b.parser.Parse(c.Body()[1:], loc)

	if n == nil {
		var module string
		if args := block.MetaCommandArgs("inqmlmodule"); len(args) > 0 {
			module = args[0].Value
		}
		var created bool
		n, created = b.repo.ResolveType(b.scope.Handle(), module, b.name)
		if created {
			n.SetLocation(loc)
		}
	} else if n.Location().IsZero() {
		n.SetLocation(doc.Location{File: b.file, Line: at.Line})
	}

	n.SetDoc(block)
	nodes := []*model.Node{n}
	for _, t := range block.Topics {
		switch {
		case strings.HasSuffix(t.Command, "property"):
			if other := b.applyPropertyTopic(t, n, block); other != nil {
				nodes = append(nodes, other)
			}
		case isSignatureTopic(t.Command):
			b.applySignatureTopic(t, n, loc)
		}
	}

	for _, node := range nodes {
		b.warnings = append(b.warnings, b.interp.Apply(block, node)...)
	}
	b.used[c.Start] = struct{}{}
	return n
}

func isSignatureTopic(cmd string) bool {
	return strings.HasSuffix(cmd, "method") || cmd == "qmlsignal" || cmd == "qmlattachedsignal"
}

// applyPropertyTopic handles a property topic of primary's comment. A topic
// naming primary itself overrides its data type; any other name documents a
// sibling property, which is returned.
func (b *Binder) applyPropertyTopic(t doc.Topic, primary *model.Node, block *doc.Block) *model.Node {
	pa, err := doc.ParsePropertyArgs(t.Args)
	if err != nil {
		b.log.Debug("cannot parse property topic",
			slog.String("file", b.file),
			slog.String("topic", t.Command),
			slog.Any("error", err))
		return nil
	}
	if pa.Name == primary.Name() {
		primary.UpdateProperty(func(p *model.PropertyData) { p.DataType = pa.Type })
		return nil
	}

	container := primary.Parent()
	if primary.IsType() {
		container = primary.Handle()
	}
	attached := strings.Contains(t.Command, "attached")
	prop, _ := b.repo.ResolveProperty(container, pa.Name, pa.Type, attached)
	prop.UpdateProperty(func(p *model.PropertyData) { p.List = pa.List })
	prop.SetLocation(block.Location)
	prop.SetDoc(block)
	prop.SetReadOnly(primary.IsReadOnly() && !attached)
	if primary.IsDefault() {
		prop.MarkDefault()
	}
	return prop
}

// applySignatureTopic overwrites the signature of a function node with the
// one written in the topic. Unparsable signatures leave the node unchanged.
func (b *Binder) applySignatureTopic(t doc.Topic, n *model.Node, loc doc.Location) {
	if !n.IsFunction() {
		return
	}
	sig, err := signature.Parse(t.Args)
	if err != nil {
		b.log.Debug("cannot parse signature",
			slog.String("file", b.file),
			slog.String("topic", t.Command),
			slog.Any("error", err))
		return
	}
	n.UpdateFunction(func(f *model.FunctionData) {
		f.ReturnType = sig.ReturnType
		if sig.Parameters != nil {
			f.Parameters = sig.Parameters
		}
	})
	n.SetLocation(loc)
}
