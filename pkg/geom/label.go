package geom

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"

	"github.com/matzehuels/orgchart/pkg/fonts"
)

// Measurer reports the rendered width of a string in layout units.
// Implementations must be deterministic.
type Measurer interface {
	Width(s string) float64
}

// WrapLabel breaks name into lines no wider than maxWidth, filling greedily
// word by word. A single word wider than maxWidth occupies its own line and
// is never split. An empty or all-whitespace name yields one empty line.
func WrapLabel(name string, maxWidth float64, m Measurer) []string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, len(words))
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if m.Width(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

// LineCount returns the number of lines WrapLabel produces. It is always at least 1.
func LineCount(name string, maxWidth float64, m Measurer) int {
	return len(WrapLabel(name, maxWidth, m))
}

// FixedMeasurer approximates text width as a constant advance per rune.
// It is useful in tests and when no font is available.
type FixedMeasurer struct {
	Advance float64
}

// Width implements Measurer.
func (f FixedMeasurer) Width(s string) float64 {
	return f.Advance * float64(utf8.RuneCountInString(s))
}

// FontMeasurer measures text with the embedded label font.
type FontMeasurer struct {
	mu   sync.Mutex
	face font.Face
}

// NewFontMeasurer returns a measurer for the label font at size pixels.
func NewFontMeasurer(size float64) (*FontMeasurer, error) {
	face, err := fonts.Face(size)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{face: face}, nil
}

// Width implements Measurer.
func (f *FontMeasurer) Width(s string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return float64(font.MeasureString(f.face, s)) / 64
}
