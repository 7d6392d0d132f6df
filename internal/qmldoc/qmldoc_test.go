package qmldoc

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/qmldoc/internal/doc"
	"github.com/phobologic/qmldoc/internal/docdb"
	"github.com/phobologic/qmldoc/internal/model"
	"github.com/phobologic/qmldoc/internal/qml"
)

func plainComment(start int) qml.Comment {
	return qml.Comment{Span: qml.Span{Start: start, End: start + 5}, Text: "// x"}
}

func docComment(start int) qml.Comment {
	return qml.Comment{Span: qml.Span{Start: start, End: start + 8, Line: 2, Column: 1}, Text: "/*! d */", Block: true}
}

func TestFindPrecedingComment(t *testing.T) {
	t.Parallel()

	comments := []qml.Comment{plainComment(10), docComment(20)}

	tests := []struct {
		name    string
		offset  int
		used    map[int]struct{}
		lastEnd int
		want    int
		found   bool
	}{
		{name: "nearest eligible", offset: 30, lastEnd: 5, want: 20, found: true},
		{name: "stale", offset: 30, lastEnd: 25},
		{name: "right after closed construct", offset: 30, lastEnd: 20, want: 20, found: true},
		{name: "body inside closed construct", offset: 30, lastEnd: 22},
		{name: "used", offset: 30, lastEnd: 5, used: map[int]struct{}{20: {}}},
		{name: "comment after construct", offset: 15, lastEnd: 5},
		{name: "only plain comment", offset: 18, lastEnd: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, ok := FindPrecedingComment(tt.offset, comments, tt.used, tt.lastEnd)
			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, c.Start)
			}
		})
	}
}

func TestIsDocComment(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDocComment(qml.Comment{Text: "/*! x */", Block: true}))
	assert.True(t, IsDocComment(qml.Comment{Text: "/** x */", Block: true}))
	assert.False(t, IsDocComment(qml.Comment{Text: "/* x */", Block: true}))
	assert.False(t, IsDocComment(qml.Comment{Text: "//! x"}))
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Button", BaseName("controls/Button.qml"))
	assert.Equal(t, "Dialog", BaseName("/abs/Dialog.ui.qml"))
}

func TestBindConsumesCommentOnce(t *testing.T) {
	t.Parallel()

	repo := docdb.New()
	d := &qml.Document{Path: "Foo.qml", Comments: []qml.Comment{docComment(20)}}
	b := NewBinder(repo, d, repo.Root(), nil, nil)
	typ := repo.CreateType(repo.Root().Handle(), "Foo")

	first, _ := repo.ResolveProperty(typ.Handle(), "a", "int", false)
	second, _ := repo.ResolveProperty(typ.Handle(), "b", "int", false)
	at := qml.Span{Start: 30, Line: 3}

	got := b.Bind(at, first)
	require.Same(t, first, got)
	require.NotNil(t, first.Doc())
	assert.Equal(t, "d", first.Doc().Body)

	b.Bind(at, second)
	assert.Nil(t, second.Doc())
	assert.Equal(t, doc.Location{File: "Foo.qml", Line: 3}, second.Location())
}

func TestBindCreatesPlaceholderType(t *testing.T) {
	t.Parallel()

	repo := docdb.New()
	d := &qml.Document{Path: "dir/Plain.qml"}
	b := NewBinder(repo, d, repo.Root(), nil, nil)

	n := b.Bind(qml.Span{Start: 0, Line: 1}, nil)
	require.True(t, n.IsType())
	assert.Equal(t, "Plain", n.Name())
	assert.Nil(t, n.Doc())
	assert.Equal(t, 1, n.Location().Line)
}

func newTypeWithBlock(t *testing.T, text string) (*docdb.Repository, *model.Node, *doc.Block) {
	t.Helper()
	repo := docdb.New()
	n := repo.CreateType(repo.Root().Handle(), "Button")
	b := doc.DefaultParser().Parse(text, doc.Location{File: "Button.qml", Line: 4})
	return repo, n, b
}

func TestInterpreterSelfInheritance(t *testing.T) {
	t.Parallel()

	repo, n, b := newTypeWithBlock(t, "\\qmlinherits Button\n")
	warnings := NewInterpreter(repo, nil).Apply(b, n)

	require.Len(t, warnings, 1)
	assert.Equal(t, "Button tries to inherit itself", warnings[0].Message)
	assert.Equal(t, "qmlinherits", warnings[0].Command)
	td, _ := n.TypeInfo()
	assert.Empty(t, td.BaseName)
}

func TestInterpreterTypeCommands(t *testing.T) {
	t.Parallel()

	repo, n, b := newTypeWithBlock(t, `\qmlinherits Item
\qmlabstract
\inqmlmodule Example.Controls
\ingroup controls
\ingroup buttons
\since 6.2
\deprecated [6.5] Use RoundButton.
\wrapper
`)
	warnings := NewInterpreter(repo, nil).Apply(b, n)
	require.Empty(t, warnings)

	td, _ := n.TypeInfo()
	assert.Equal(t, "Item", td.BaseName)
	assert.True(t, td.Abstract)
	assert.Equal(t, "6.2", n.Since())
	deprecated, since := n.Deprecated()
	assert.True(t, deprecated)
	assert.Equal(t, "6.5", since)
	assert.Equal(t, "Use RoundButton.", n.DeprecationNote())
	assert.True(t, n.IsWrapper())
	assert.Equal(t, "Example.Controls", repo.ModuleOf(n))
	assert.Equal(t, []string{"buttons", "controls"}, repo.Groups())
}

func TestInterpreterStatusPriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want model.Status
	}{
		{text: "\\preliminary\n", want: model.Preliminary},
		{text: "\\preliminary\n\\obsolete\n", want: model.Deprecated},
		{text: "\\obsolete\n\\internal\n\\preliminary\n", want: model.Internal},
		{text: "\\since 1.0\n", want: model.Active},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			t.Parallel()
			repo, n, b := newTypeWithBlock(t, tt.text)
			NewInterpreter(repo, nil).Apply(b, n)
			assert.Equal(t, tt.want, n.Status())
		})
	}
}

func TestInterpreterWarnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		property bool
		text     string
		message  string
		hint     string
	}{
		{
			name:    "default on type",
			text:    "\\default 3\n",
			message: "Ignored '\\default', applies only to '\\qmlproperty'",
		},
		{
			name:     "default without value",
			property: true,
			text:     "\\default\n",
			message:  "Expected an argument for '\\default' (maybe you meant '\\qmldefault'?)",
		},
		{
			name:     "unknown enumeration",
			property: true,
			text:     "\\qmlenumeratorsfrom Qt::Missing\n",
			message:  "Failed to find C++ enumeration 'Qt::Missing' passed to \\qmlenumeratorsfrom",
			hint:     "Use \\value commands instead",
		},
		{
			name:    "command without meaning in QML",
			text:    "\\threadsafe\n",
			message: "The \\threadsafe command is ignored in QML files",
		},
		{
			name:    "missing module",
			text:    "\\inqmlmodule\n",
			message: "Expected an argument for '\\inqmlmodule'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo, n, b := newTypeWithBlock(t, tt.text)
			if tt.property {
				n, _ = repo.ResolveProperty(n.Handle(), "value", "int", false)
			}
			warnings := NewInterpreter(repo, nil).Apply(b, n)
			require.Len(t, warnings, 1)
			assert.Equal(t, tt.message, warnings[0].Message)
			assert.Equal(t, tt.hint, warnings[0].Hint)
			assert.Equal(t, 4, warnings[0].Location.Line)
		})
	}
}

func TestInterpreterPropertyCommands(t *testing.T) {
	t.Parallel()

	repo, typ, b := newTypeWithBlock(t, `\default 4
\qmlenumeratorsfrom Qt::Alignment
\qmlreadonly
\qmlrequired
\qmldefault
\qmlabstract
`)
	repo.RegisterEnum("Qt::Alignment")
	prop, _ := repo.ResolveProperty(typ.Handle(), "align", "enumeration", false)

	warnings := NewInterpreter(repo, nil).Apply(b, prop)
	require.Empty(t, warnings)

	pd, _ := prop.PropertyInfo()
	assert.Equal(t, "4", pd.DefaultValue)
	assert.Equal(t, "Qt::Alignment", pd.Enum)
	assert.True(t, pd.Required)
	assert.True(t, prop.IsReadOnly())
	assert.True(t, prop.IsDefault())
}

const buttonQML = `import QtQuick 2.15
import "controls" as Controls

/*!
    \qmltype Button
    \inqmlmodule Example.Controls
    \brief A push button.
*/
Item {
    id: root

    /*!
        \qmlproperty string Button::text
        \qmlproperty color Button::textColor
        \qmlattachedproperty int Button::pressCount
        The label text and its color.
    */
    readonly property string text: "OK"

    /*! Emitted when pressed. */
    signal clicked(var mouse, bool double)

    /*!
        \qmlmethod void Button::press(int times = 1)
        Presses the button.
    */
    function press(times) { }

    /*! Resets the button. */
    function reset(to = Qt.point(0, 0)) {}

    property Item background: Rectangle {
        /*! Belongs to the rectangle. */
        property int radius: 4
    }

    enum Shape { Round, Square = 2 }
}
`

func parseQML(t *testing.T, path, src string) *qml.Document {
	t.Helper()
	d, err := qml.NewParser(nil).Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	return d
}

func childNamed(repo *docdb.Repository, parent *model.Node, name string) *model.Node {
	for _, c := range repo.Children(parent.Handle()) {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestProcess(t *testing.T) {
	t.Parallel()

	repo := docdb.New()
	res := Process(repo, parseQML(t, "controls/Button.qml", buttonQML), Options{})
	require.False(t, res.RecursionExceeded)
	require.Empty(t, res.Warnings)

	btn := res.Primary
	require.NotNil(t, btn)
	assert.Equal(t, "Button", btn.Name())
	td, ok := btn.TypeInfo()
	require.True(t, ok)
	assert.Equal(t, "Item", td.BaseName)
	assert.Equal(t, "Button", td.Title)
	assert.Equal(t, []model.ImportRecord{
		{Module: "QtQuick", Version: "2.15", URI: "QtQuick"},
		{Module: "controls", Alias: "Controls"},
	}, td.Imports)
	assert.Same(t, btn, repo.FindType("Example.Controls", "Button"))
	assert.Contains(t, btn.Doc().Body, "A push button.")

	text := repo.FindProperty(btn.Handle(), "text", false)
	require.NotNil(t, text)
	pd, _ := text.PropertyInfo()
	assert.Equal(t, "string", pd.DataType)
	assert.True(t, text.IsReadOnly())

	color := repo.FindProperty(btn.Handle(), "textColor", false)
	require.NotNil(t, color)
	pd, _ = color.PropertyInfo()
	assert.Equal(t, "color", pd.DataType)
	assert.True(t, color.IsReadOnly(), "sibling inherits read-only")
	assert.Same(t, text.Doc(), color.Doc())

	count := repo.FindProperty(btn.Handle(), "pressCount", true)
	require.NotNil(t, count)
	assert.False(t, count.IsReadOnly(), "attached sibling is never read-only")

	clicked := childNamed(repo, btn, "clicked")
	require.NotNil(t, clicked)
	fd, _ := clicked.FunctionInfo()
	assert.Equal(t, model.Signal, fd.Metaness)
	assert.Equal(t, []model.Parameter{{Type: "var", Name: "mouse"}, {Type: "bool", Name: "double"}}, fd.Parameters)
	assert.Equal(t, "Emitted when pressed.", clicked.Doc().Body)

	press := childNamed(repo, btn, "press")
	require.NotNil(t, press)
	fd, _ = press.FunctionInfo()
	assert.Equal(t, model.Method, fd.Metaness)
	assert.Equal(t, "void", fd.ReturnType)
	assert.Equal(t, []model.Parameter{{Type: "int", Name: "times", Default: "1"}}, fd.Parameters)

	reset := childNamed(repo, btn, "reset")
	require.NotNil(t, reset)
	fd, _ = reset.FunctionInfo()
	assert.Equal(t, []model.Parameter{{Name: "to", Default: "Qt.point(0, 0)"}}, fd.Parameters)

	bg := repo.FindProperty(btn.Handle(), "background", false)
	require.NotNil(t, bg)
	assert.Nil(t, bg.Doc())
	assert.Nil(t, repo.FindProperty(btn.Handle(), "radius", false), "nested object members stay off the type")

	shape := repo.FindEnum("Button.Shape")
	require.NotNil(t, shape)
	ed, _ := shape.EnumInfo()
	assert.Equal(t, []string{"Round", "Square"}, ed.Values)
	assert.Nil(t, shape.Doc())
}

func TestProcessUndocumentedType(t *testing.T) {
	t.Parallel()

	src := `import QtQuick
// A plain comment.
Rectangle {
    property int size
}
`
	repo := docdb.New()
	res := Process(repo, parseQML(t, "Box.qml", src), Options{})
	require.NotNil(t, res.Primary)
	td, _ := res.Primary.TypeInfo()
	assert.Empty(t, td.BaseName, "undocumented types get no base name")
	assert.Equal(t, "Box", td.Title)
	assert.NotNil(t, repo.FindProperty(res.Primary.Handle(), "size", false))
}

func TestProcessRecursionGuard(t *testing.T) {
	t.Parallel()

	src := `Item {
    Item {
        Item {
            property int deep
        }
    }
}
`
	repo := docdb.New()
	res := Process(repo, parseQML(t, "Deep.qml", src), Options{MaxDepth: 3})
	assert.True(t, res.RecursionExceeded)
	require.NotNil(t, res.Primary, "partial results remain")
	assert.Equal(t, "Deep", res.Primary.Name())
}

func TestProcessWarnings(t *testing.T) {
	t.Parallel()

	src := `/*!
    \qmltype Loop
    \qmlinherits Loop
*/
Item {
    /*!
        \default
    */
    property int count
}
`
	repo := docdb.New()
	res := Process(repo, parseQML(t, "Loop.qml", src), Options{})
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "Loop tries to inherit itself", res.Warnings[0].Message)
	assert.Equal(t, doc.Location{File: "Loop.qml", Line: 1, Column: 1}, res.Warnings[0].Location)
	assert.Equal(t, "default", res.Warnings[1].Command)
	assert.Equal(t, "Loop.qml:6:5: warning: Expected an argument for '\\default' (maybe you meant '\\qmldefault'?)",
		res.Warnings[1].String())
}

func TestProcessConcurrentFilesShareType(t *testing.T) {
	t.Parallel()

	repo := docdb.New()
	var wg sync.WaitGroup
	for i := range 8 {
		src := fmt.Sprintf("/*!\n    \\inqmlmodule Shared\n*/\nItem {\n    property int p%d\n}\n", i)
		d := parseQML(t, fmt.Sprintf("dir%d/Common.qml", i), src)
		wg.Add(1)
		go func() {
			defer wg.Done()
			Process(repo, d, Options{})
		}()
	}
	wg.Wait()

	common := repo.FindType("Shared", "Common")
	require.NotNil(t, common)
	assert.Len(t, repo.ModuleMembers("Shared"), 1)
	assert.Len(t, repo.Children(common.Handle()), 8)
}

func TestProcessSignatureTopics(t *testing.T) {
	t.Parallel()

	src := `Item {
    /*!
        \qmlmethod void Foo::press(int times = 1
    */
    function press(times, b = 4) {}

    /*!
        \qmlsignal Foo::moved(int dx, int dy)
    */
    signal moved(int x)
}
`
	repo := docdb.New()
	res := Process(repo, parseQML(t, "Foo.qml", src), Options{})
	require.NotNil(t, res.Primary)

	press := childNamed(repo, res.Primary, "press")
	require.NotNil(t, press)
	fd, _ := press.FunctionInfo()
	assert.Empty(t, fd.ReturnType, "malformed signature leaves the declaration alone")
	assert.Equal(t, []model.Parameter{{Name: "times"}, {Name: "b", Default: "4"}}, fd.Parameters)
	assert.NotNil(t, press.Doc())

	moved := childNamed(repo, res.Primary, "moved")
	require.NotNil(t, moved)
	fd, _ = moved.FunctionInfo()
	assert.Equal(t, model.Signal, fd.Metaness)
	assert.Equal(t, []model.Parameter{{Type: "int", Name: "dx"}, {Type: "int", Name: "dy"}}, fd.Parameters)
}

func TestProcessArrayBindingMembers(t *testing.T) {
	t.Parallel()

	src := `Item {
    data: [
        Item { property int x }
    ]
    property int y
}
`
	repo := docdb.New()
	res := Process(repo, parseQML(t, "Holder.qml", src), Options{})
	require.NotNil(t, res.Primary)
	assert.Nil(t, repo.FindProperty(res.Primary.Handle(), "x", false))
	assert.NotNil(t, repo.FindProperty(res.Primary.Handle(), "y", false), "nesting is restored after the array")
}

func TestProcessCommentAfterPreviousMember(t *testing.T) {
	t.Parallel()

	src := `Item {
    property int a/*! Documents b. */
    property int b
}
`
	repo := docdb.New()
	res := Process(repo, parseQML(t, "Pair.qml", src), Options{})
	require.NotNil(t, res.Primary)

	a := repo.FindProperty(res.Primary.Handle(), "a", false)
	require.NotNil(t, a)
	assert.Nil(t, a.Doc())

	b := repo.FindProperty(res.Primary.Handle(), "b", false)
	require.NotNil(t, b)
	require.NotNil(t, b.Doc())
	assert.Equal(t, "Documents b.", b.Doc().Body)
}
