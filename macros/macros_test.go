package macros

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/milk9111/fieldpath/points"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		src  string
		env  Env
		want []points.Point
	}{
		{
			name: "points global",
			src:  `points := [{x: 10, y: 10, state: "moving"}, {x: 50.5, y: 50}]`,
			want: []points.Point{{X: 10, Y: 10, State: points.StateMoving}, {X: 50.5, Y: 50}},
		},
		{
			name: "add uses field size",
			src: `
add(0, 0, "idle")
add(field.width / 2, field.height / 2)
add(field.width - 1, field.height - 1, "Releasing")
`,
			env: Env{Width: 100, Height: 60},
			want: []points.Point{
				{X: 0, Y: 0, State: points.StateIdle},
				{X: 50, Y: 30},
				{X: 99, Y: 59, State: points.StateReleasing},
			},
		},
		{
			name: "stdlib and loop",
			src: `
math := import("math")
for i := 0; i < 3; i++ {
	add(math.floor(i * 10.0), 5)
}
`,
			want: []points.Point{{X: 0, Y: 5}, {X: 10, Y: 5}, {X: 20, Y: 5}},
		},
		{
			name: "nothing",
			src:  `a := 1`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(context.Background(), tt.src, tt.env)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("points = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown state", `add(1, 2, "dancing")`, points.ErrUnknownState},
		{"bad points entry", `points := [1, 2]`, ErrBadPoint},
		{"missing y", `points := [{x: 1}]`, ErrBadPoint},
		{"too many", `for i := 0; i < 1001; i++ { add(i, i) }`, ErrTooManyPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Run(context.Background(), tt.src, Env{}); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Run(context.Background(), `add(`, Env{}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := Run(ctx, `for {}`, Env{}); err == nil {
		t.Fatal("expected the endless script to be stopped")
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.tengo")
	if err := os.WriteFile(path, []byte(`add(1, 2)`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := RunFile(context.Background(), path, Env{})
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if len(got) != 1 || got[0].X != 1 {
		t.Fatalf("points = %+v", got)
	}
}
