package main

import (
	"errors"
	"testing"

	"github.com/milk9111/fieldpath/points"
)

func TestParsePathFile(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []points.Point
		method  string
		wantErr error
	}{
		{
			name: "yaml",
			data: "method: bezier\npoints:\n  - {x: 10, y: 20, state: idle}\n  - {x: 30.5, y: 40}\n",
			want: []points.Point{
				{X: 10, Y: 20, State: points.StateIdle},
				{X: 30.5, Y: 40},
			},
			method: "bezier",
		},
		{
			name: "json",
			data: `{"points":[{"x":1,"y":2,"state":"Releasing"}]}`,
			want: []points.Point{{X: 1, Y: 2, State: points.StateReleasing}},
		},
		{
			name:    "unknown state",
			data:    "points:\n  - {x: 1, y: 2, state: jumping}\n",
			wantErr: points.ErrUnknownState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, got, err := parsePathFile([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePathFile: %v", err)
			}
			if pf.Method != tt.method {
				t.Fatalf("method = %q, want %q", pf.Method, tt.method)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d points, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("point %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
