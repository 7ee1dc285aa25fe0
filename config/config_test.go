package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/fieldpath/dispatch"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverridesAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
endpoint: http://render.local:9000/api/path/render/image
request_timeout: 5s
candidate_timeout: 250ms
method: spline
map_filename: pushback_map.png
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.CandidateTimeout != 250*time.Millisecond {
		t.Fatalf("timeouts = %v %v", cfg.RequestTimeout, cfg.CandidateTimeout)
	}
	if cfg.Method != "spline" || cfg.MapFilename != "pushback_map.png" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.CoordinateSystem != string(dispatch.CoordPixel) {
		t.Fatalf("unset field lost its default: %q", cfg.CoordinateSystem)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse([]string{"-method", "bezier", "-coords", "field"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Method != "bezier" || cfg.CoordinateSystem != "field" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Endpoint != "http://render.local:9000/api/path/render/image" {
		t.Fatalf("file value lost after flag parse: %q", cfg.Endpoint)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("method: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"endpoint", func(c *Config) { c.Endpoint = "not a url" }},
		{"method", func(c *Config) { c.Method = "zigzag" }},
		{"coords", func(c *Config) { c.CoordinateSystem = "polar" }},
		{"placeholder", func(c *Config) { c.PlaceholderWidth = 0 }},
		{"image", func(c *Config) { c.ImageFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestNormalizeExpandsHome(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "~/renders"
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if strings.HasPrefix(cfg.OutputDir, "~") {
		t.Fatalf("OutputDir not expanded: %q", cfg.OutputDir)
	}
}

func TestCandidates(t *testing.T) {
	cfg := Default()
	cfg.AssetDir = "web"
	got := cfg.Candidates()
	if len(got) == 0 || got[0] != filepath.Join("web", cfg.ImageFile) {
		t.Fatalf("file candidates = %v", got)
	}

	cfg.AssetPage = "http://field.local/app/"
	got = cfg.Candidates()
	if got[0] != "http://field.local/"+cfg.ImageFile {
		t.Fatalf("url candidates = %v", got)
	}
}

func TestPathFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"-method", "spline"}, ""},
		{[]string{"-config", "a.yaml"}, "a.yaml"},
		{[]string{"--config=b.yaml", "-coords", "field"}, "b.yaml"},
		{[]string{"-coords", "field", "-config"}, ""},
	}
	for _, tt := range tests {
		if got := PathFromArgs(tt.args); got != tt.want {
			t.Errorf("PathFromArgs(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
