// Package macros runs tengo route scripts that generate path points.
//
// A script sees a read-only `field` map with the canvas `width` and
// `height`, and an `add(x, y[, state])` function. Alternatively it may
// assign a global `points` array of {x, y, state} maps. Points from add
// come first, then the contents of `points`.
package macros

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/fieldpath/points"
)

// MaxPoints caps how many points one script may produce.
const MaxPoints = 1000

var (
	ErrTooManyPoints = errors.New("macros: too many points")
	ErrBadPoint      = errors.New("macros: bad point")
)

// Env is what the script can see of the canvas.
type Env struct {
	Width, Height int
}

// Run compiles and runs src, returning the points it produced.
func Run(ctx context.Context, src string, env Env) ([]points.Point, error) {
	var out []points.Point
	var addErr error

	add := &tengo.UserFunction{Name: "add", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 || len(args) > 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, okX := tengo.ToFloat64(args[0])
		y, okY := tengo.ToFloat64(args[1])
		if !okX || !okY {
			return nil, tengo.ErrInvalidArgumentType{Name: "x/y", Expected: "number", Found: args[0].TypeName()}
		}
		state := ""
		if len(args) == 3 {
			state, _ = tengo.ToString(args[2])
		}
		p, err := makePoint(x, y, state)
		if err != nil {
			addErr = err
			return tengo.FalseValue, nil
		}
		if len(out) >= MaxPoints {
			addErr = ErrTooManyPoints
			return tengo.FalseValue, nil
		}
		out = append(out, p)
		return tengo.TrueValue, nil
	}}

	field := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"width":  &tengo.Int{Value: int64(env.Width)},
		"height": &tengo.Int{Value: int64(env.Height)},
	}}

	script := tengo.NewScript([]byte(src))
	_ = script.Add("field", field)
	_ = script.Add("add", add)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("macros: run: %w", err)
	}
	if addErr != nil {
		return nil, addErr
	}

	if compiled.IsDefined("points") {
		list := compiled.Get("points").Array()
		for i, raw := range list {
			p, err := pointFromValue(raw)
			if err != nil {
				return nil, fmt.Errorf("macros: points[%d]: %w", i, err)
			}
			if len(out) >= MaxPoints {
				return nil, ErrTooManyPoints
			}
			out = append(out, p)
		}
	}

	return out, nil
}

// RunFile reads a script from disk and runs it.
func RunFile(ctx context.Context, path string, env Env) ([]points.Point, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("macros: read %s: %w", path, err)
	}
	return Run(ctx, string(src), env)
}

func pointFromValue(v any) (points.Point, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return points.Point{}, fmt.Errorf("%w: want map, got %T", ErrBadPoint, v)
	}
	x, okX := number(m["x"])
	y, okY := number(m["y"])
	if !okX || !okY {
		return points.Point{}, fmt.Errorf("%w: x and y must be numbers", ErrBadPoint)
	}
	state, _ := m["state"].(string)
	return makePoint(x, y, state)
}

func makePoint(x, y float64, state string) (points.Point, error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return points.Point{}, fmt.Errorf("%w: non-finite coordinate", ErrBadPoint)
	}
	s, err := points.ParseState(strings.TrimSpace(state))
	if err != nil {
		return points.Point{}, err
	}
	return points.Point{X: x, Y: y, State: s}, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
