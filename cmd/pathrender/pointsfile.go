package main

import (
	"fmt"
	"os"

	"github.com/milk9111/fieldpath/points"
	"gopkg.in/yaml.v3"
)

type pointEntry struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	State string  `yaml:"state"`
}

// pathFile is the on-disk point list. JSON files parse as YAML too.
type pathFile struct {
	Method           string       `yaml:"method"`
	CoordinateSystem string       `yaml:"coordinate_system"`
	Points           []pointEntry `yaml:"points"`
}

func parsePathFile(data []byte) (pathFile, []points.Point, error) {
	var pf pathFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return pf, nil, err
	}
	pts := make([]points.Point, 0, len(pf.Points))
	for i, e := range pf.Points {
		st, err := points.ParseState(e.State)
		if err != nil {
			return pf, nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		pts = append(pts, points.Point{X: e.X, Y: e.Y, State: st})
	}
	return pf, pts, nil
}

func loadPathFile(path string) (pathFile, []points.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pathFile{}, nil, err
	}
	pf, pts, err := parsePathFile(data)
	if err != nil {
		return pf, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return pf, pts, nil
}
