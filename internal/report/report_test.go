package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/qmldoc/internal/doc"
	"github.com/phobologic/qmldoc/internal/docdb"
	"github.com/phobologic/qmldoc/internal/model"
)

func sampleRepo() *docdb.Repository {
	repo := docdb.New()
	root := repo.Root().Handle()

	btn, _ := repo.ResolveType(root, "Example.Controls", "Button")
	btn.UpdateType(func(t *model.TypeData) {
		t.BaseName = "Item"
		t.Title = "Button"
		t.Imports = []model.ImportRecord{{Module: "QtQuick", Version: "2.15", URI: "QtQuick"}}
	})
	btn.SetLocation(doc.Location{File: "Button.qml", Line: 3})
	btn.SetSince("6.2")

	text, _ := repo.ResolveProperty(btn.Handle(), "text", "string", false)
	text.SetReadOnly(true)
	text.UpdateProperty(func(p *model.PropertyData) { p.DefaultValue = `""` })

	clicked := repo.CreateFunction(btn.Handle(), "clicked", model.Signal)
	clicked.UpdateFunction(func(f *model.FunctionData) {
		f.Parameters = []model.Parameter{{Type: "var", Name: "mouse"}}
	})
	press := repo.CreateFunction(btn.Handle(), "press", model.Method)
	press.UpdateFunction(func(f *model.FunctionData) {
		f.ReturnType = "void"
		f.Parameters = []model.Parameter{{Type: "int", Name: "times", Default: "1"}}
	})
	press.SetStatus(model.Internal)

	repo.CreateEnum(btn.Handle(), "Shape", []string{"Round", "Square"})
	repo.AddToGroup("controls", btn)

	old := repo.CreateType(root, "Legacy")
	old.SetDeprecated("5.15")
	old.SetDeprecationNote("Use Modern instead.")
	return repo
}

func TestBuild(t *testing.T) {
	t.Parallel()

	got := Build(sampleRepo(), "demo")
	want := &Report{
		Project: "demo",
		Types: []Type{
			{Name: "Legacy", Entity: Entity{Deprecated: "5.15", DeprecationNote: "Use Modern instead."}},
			{
				Name: "Button", Module: "Example.Controls", Base: "Item", Title: "Button",
				Entity: Entity{Since: "6.2", File: "Button.qml", Line: 3},
			},
		},
		Properties: []Property{
			{Type: "Example.Controls::Button", Name: "text", DataType: "string", Flags: []string{"readonly"}, Default: `""`},
		},
		Functions: []Function{
			{Type: "Example.Controls::Button", Kind: "method", Name: "press", Signature: "void press(int times = 1)", Entity: Entity{Status: "internal"}},
			{Type: "Example.Controls::Button", Kind: "signal", Name: "clicked", Signature: "clicked(var mouse)"},
		},
		Enums:   []Enum{{Parent: "Example.Controls::Button", Name: "Shape", Values: []string{"Round", "Square"}}},
		Imports: []Import{{Type: "Example.Controls::Button", Module: "QtQuick", Version: "2.15"}},
		Modules: []Group{{Name: "Example.Controls", Members: []string{"Example.Controls::Button"}}},
		Groups:  []Group{{Name: "controls", Members: []string{"Example.Controls::Button"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fd   model.FunctionData
		want string
	}{
		{name: "none", fd: model.FunctionData{}, want: "f()"},
		{name: "untyped", fd: model.FunctionData{Parameters: []model.Parameter{{Name: "x"}, {Name: "y", Default: "0"}}}, want: "f(x, y = 0)"},
		{name: "typed", fd: model.FunctionData{ReturnType: "real", Parameters: []model.Parameter{{Type: "real", Name: "a"}}}, want: "real f(real a)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Signature("f", tt.fd); got != tt.want {
				t.Errorf("Signature = %q, want %q", got, tt.want)
			}
		})
	}
}
