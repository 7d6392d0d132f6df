package script

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFunction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   *Function
	}{
		{
			name:   "plain",
			source: "function move(x, y) { return x + y }",
			want: &Function{
				Name:    "move",
				Formals: []Formal{{Name: "x"}, {Name: "y"}},
			},
		},
		{
			name:   "defaults",
			source: "function reset(to = Qt.point(0, 0), animate = false) {}",
			want: &Function{
				Name: "reset",
				Formals: []Formal{
					{Name: "to", Default: "Qt.point(0, 0)"},
					{Name: "animate", Default: "false"},
				},
			},
		},
		{
			name:   "annotations",
			source: "function scale(factor: real, origin: point): real { return factor }",
			want: &Function{
				Name:       "scale",
				ReturnType: "real",
				Formals: []Formal{
					{Name: "factor", Type: "real"},
					{Name: "origin", Type: "point"},
				},
			},
		},
		{
			name:   "rest",
			source: "function log(...args) {}",
			want: &Function{
				Name:    "log",
				Formals: []Formal{{Name: "...args"}},
			},
		},
		{
			name:   "no formals",
			source: "function clear() {}",
			want:   &Function{Name: "clear"},
		},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseFunction(context.Background(), []byte(tt.source))
			if err != nil {
				t.Fatalf("ParseFunction: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFunctionNoDeclaration(t *testing.T) {
	t.Parallel()

	_, err := NewParser().ParseFunction(context.Background(), []byte("let x = 1;"))
	if !errors.Is(err, ErrNoFunction) {
		t.Fatalf("err = %v, want ErrNoFunction", err)
	}
}
