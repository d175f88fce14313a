// Package fonts provides the label font used for measuring and drawing text.
//
// The Go Regular typeface ships inside golang.org/x/image, so measurements
// are identical on every machine and no system fonts are needed.
package fonts

import (
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family name used when the font is embedded in SVG.
const FontFamily = "Go"

// FallbackFontFamily provides fallback fonts for viewers without the embedded font.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

// RegularTTF returns the TTF font data.
func RegularTTF() []byte {
	return goregular.TTF
}

// Cache for the parsed font and base64 data (computed once on first access).
var (
	parsed     *opentype.Font
	parseErr   error
	parseOnce  sync.Once
	ttfBase64  string
	base64Once sync.Once

	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// RegularTTFBase64 returns the TTF font data as a base64 string.
// The result is cached after first computation.
func RegularTTFBase64() string {
	base64Once.Do(func() {
		ttfBase64 = base64.StdEncoding.EncodeToString(goregular.TTF)
	})
	return ttfBase64
}

// Face returns a font face at the given pixel size (72 DPI, no hinting).
// Faces are cached per size. A font.Face is not safe for concurrent use, so
// callers sharing a face must serialise access themselves.
func Face(size float64) (font.Face, error) {
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f, err := NewFace(size)
	if err != nil {
		return nil, err
	}
	faces[size] = f
	return f, nil
}

// NewFace returns an uncached face owned by the caller.
func NewFace(size float64) (font.Face, error) {
	parseOnce.Do(func() {
		parsed, parseErr = opentype.Parse(goregular.TTF)
	})
	if parseErr != nil {
		return nil, fmt.Errorf("parse go regular: %w", parseErr)
	}
	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %.1fpx: %w", size, err)
	}
	return f, nil
}
