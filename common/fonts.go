package common

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	goRegularOnce sync.Once
	goRegular     *text.FontSource
	goRegularErr  error
)

// GoRegular returns the shared Go Regular font source used for canvas text.
func GoRegular() (*text.FontSource, error) {
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = text.NewFontSource(goregular.TTF)
		if goRegularErr != nil {
			goRegularErr = fmt.Errorf("common: load go regular: %w", goRegularErr)
		}
	})
	return goRegular, goRegularErr
}

// Face returns a Go Regular face at size, or nil when size is not positive
// or the font cannot be parsed.
func Face(size float64) text.Face {
	if size <= 0 {
		return nil
	}
	src, err := GoRegular()
	if err != nil {
		return nil
	}
	return src.Face(size)
}
