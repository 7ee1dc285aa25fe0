// Package background finds the field image the canvas is drawn over. The
// image may live at several locations depending on where the tool is served
// from, so candidates are tried in order and a synthesized placeholder is
// used when none of them load.
package background

import (
	"net/url"
	"path/filepath"
)

// DefaultFilename is the field image shipped with the render service.
const DefaultFilename = "pushback_map.png"

// Candidates returns the ordered locations to try for filename relative to
// the page the tool was opened from: site root, page directory, parent
// directory, then the bare name. Locations that resolve to the same URL
// are listed once, at their first position.
func Candidates(page *url.URL, filename string) []string {
	raw := []string{
		"/" + filename,
		"./" + filename,
		"../" + filename,
		filename,
	}
	if page == nil {
		return dedupe(raw)
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		ref, err := url.Parse(r)
		if err != nil {
			continue
		}
		out = append(out, page.ResolveReference(ref).String())
	}
	return dedupe(out)
}

// FileCandidates is the local-directory form of Candidates.
func FileCandidates(dir, filename string) []string {
	if dir == "" {
		dir = "."
	}
	return dedupe([]string{
		filepath.Join(dir, filename),
		filepath.Join(dir, "assets", filename),
		filepath.Join(dir, "..", filename),
		filename,
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
