// Package config loads tool settings from a YAML file and lets command line
// flags override them.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/milk9111/fieldpath/background"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.config/fieldpath/config.yaml"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Endpoint       string        `yaml:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// AssetPage, when set, is the URL the field image is resolved against.
	// Otherwise the image is looked up on disk around AssetDir.
	AssetPage         string        `yaml:"asset_page"`
	AssetDir          string        `yaml:"asset_dir"`
	ImageFile         string        `yaml:"image_file"`
	CandidateTimeout  time.Duration `yaml:"candidate_timeout"`
	PlaceholderWidth  int           `yaml:"placeholder_width"`
	PlaceholderHeight int           `yaml:"placeholder_height"`

	Method           string `yaml:"method"`
	CoordinateSystem string `yaml:"coordinate_system"`
	MapFilename      string `yaml:"map_filename"`

	PresetsDir string `yaml:"presets_dir"`
	OutputDir  string `yaml:"output_dir"`
}

func Default() Config {
	return Config{
		Endpoint:          dispatch.DefaultEndpoint,
		RequestTimeout:    dispatch.DefaultTimeout,
		AssetDir:          ".",
		ImageFile:         background.DefaultFilename,
		CandidateTimeout:  background.DefaultTimeout,
		PlaceholderWidth:  background.DefaultPlaceholderWidth,
		PlaceholderHeight: background.DefaultPlaceholderHeight,
		Method:            string(dispatch.MethodPolyline),
		CoordinateSystem:  string(dispatch.CoordPixel),
		PresetsDir:        "presets",
		OutputDir:         ".",
	}
}

// Load reads path over Default. A missing file is not an error. An empty
// path means DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("config: expand %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", expanded, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", expanded, err)
	}
	return cfg, nil
}

// PathFromArgs finds a -config value in args before flags are parsed, so
// the file can supply the flag defaults.
func PathFromArgs(args []string) string {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// BindFlags registers a flag per field, defaulting to the current values.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.String("config", DefaultPath, "Config file")
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "Render service endpoint")
	fs.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "Render request timeout")
	fs.StringVar(&c.AssetPage, "asset-page", c.AssetPage, "Page URL the field image is resolved against")
	fs.StringVar(&c.AssetDir, "asset-dir", c.AssetDir, "Directory searched for the field image")
	fs.StringVar(&c.ImageFile, "image", c.ImageFile, "Field image filename")
	fs.DurationVar(&c.CandidateTimeout, "candidate-timeout", c.CandidateTimeout, "Timeout per field image location")
	fs.IntVar(&c.PlaceholderWidth, "placeholder-width", c.PlaceholderWidth, "Placeholder canvas width")
	fs.IntVar(&c.PlaceholderHeight, "placeholder-height", c.PlaceholderHeight, "Placeholder canvas height")
	fs.StringVar(&c.Method, "method", c.Method, "Render method (polyline, bezier, spline, astar, heatline)")
	fs.StringVar(&c.CoordinateSystem, "coords", c.CoordinateSystem, "Coordinate system (pixel, field)")
	fs.StringVar(&c.MapFilename, "map", c.MapFilename, "Map filename the service renders onto")
	fs.StringVar(&c.PresetsDir, "presets", c.PresetsDir, "Directory with preset overrides")
	fs.StringVar(&c.OutputDir, "out", c.OutputDir, "Directory downloads are written to")
}

// Normalize expands ~ in directory fields.
func (c *Config) Normalize() error {
	for _, p := range []*string{&c.AssetDir, &c.PresetsDir, &c.OutputDir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("config: expand %s: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
		return fmt.Errorf("%w: endpoint %q", ErrInvalid, c.Endpoint)
	}
	if c.AssetPage != "" {
		if _, err := url.Parse(c.AssetPage); err != nil {
			return fmt.Errorf("%w: asset page %q", ErrInvalid, c.AssetPage)
		}
	}
	if c.ImageFile == "" {
		return fmt.Errorf("%w: image filename is empty", ErrInvalid)
	}
	if c.PlaceholderWidth <= 0 || c.PlaceholderHeight <= 0 {
		return fmt.Errorf("%w: placeholder size %dx%d", ErrInvalid, c.PlaceholderWidth, c.PlaceholderHeight)
	}
	if _, err := dispatch.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := dispatch.ParseCoordinateSystem(c.CoordinateSystem); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Candidates lists the field image locations to try.
func (c Config) Candidates() []string {
	if c.AssetPage != "" {
		if page, err := url.Parse(c.AssetPage); err == nil {
			return background.Candidates(page, c.ImageFile)
		}
	}
	return background.FileCandidates(c.AssetDir, c.ImageFile)
}
