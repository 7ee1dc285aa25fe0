package background

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrNotFound = errors.New("background: image not found")

// Loader fetches and decodes the image at location.
type Loader interface {
	Load(ctx context.Context, location string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, location string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, location string) (image.Image, error) {
	return f(ctx, location)
}

// HTTPLoader does a plain GET and decodes a 2xx body.
type HTTPLoader struct {
	Client *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, location string) (image.Image, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("background: request %s: %w", location, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("background: get %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("background: get %s: %w", location, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("background: get %s: status %d", location, resp.StatusCode)
	}

	return decode(location, resp.Body)
}

// FSLoader reads from FS, or from the OS filesystem when FS is nil.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(ctx context.Context, location string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		f   io.ReadCloser
		err error
	)
	if l.FS != nil {
		f, err = l.FS.Open(filepath.ToSlash(strings.TrimPrefix(location, "./")))
	} else {
		f, err = os.Open(location)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("background: open %s: %w", location, ErrNotFound)
		}
		return nil, fmt.Errorf("background: open %s: %w", location, err)
	}
	defer f.Close()

	return decode(location, f)
}

// MultiLoader dispatches http(s) and file URLs to the matching loader and
// treats everything else as a local path.
type MultiLoader struct {
	HTTP Loader
	File Loader
}

func (m MultiLoader) Load(ctx context.Context, location string) (image.Image, error) {
	u, err := url.Parse(location)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			if m.HTTP == nil {
				return HTTPLoader{}.Load(ctx, location)
			}
			return m.HTTP.Load(ctx, location)
		case "file":
			location = u.Path
		}
	}
	if m.File == nil {
		return FSLoader{}.Load(ctx, location)
	}
	return m.File.Load(ctx, location)
}

func decode(location string, r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("background: decode %s: %w", location, err)
	}
	return img, nil
}
