package selection

import (
	"strings"

	"github.com/rivo/uniseg"
)

// overlay is the search line. Text is held as grapheme clusters so that the
// cursor never lands inside a combined character.
type overlay struct {
	text   []string
	cursor int
}

func (o *overlay) reset() {
	o.text = o.text[:0]
	o.cursor = 0
}

func (o *overlay) String() string {
	return strings.Join(o.text, "")
}

// Len returns the text length in graphemes.
func (o *overlay) Len() int {
	return len(o.text)
}

func (o *overlay) insert(s string) {
	gs := graphemes(s)
	if len(gs) == 0 {
		return
	}
	out := make([]string, 0, len(o.text)+len(gs))
	out = append(out, o.text[:o.cursor]...)
	out = append(out, gs...)
	out = append(out, o.text[o.cursor:]...)
	o.text = out
	o.cursor += len(gs)
}

func (o *overlay) deleteBackward() {
	if o.cursor == 0 {
		return
	}
	o.text = append(o.text[:o.cursor-1], o.text[o.cursor:]...)
	o.cursor--
}

func (o *overlay) move(delta int) {
	o.cursor += delta
	if o.cursor < 0 {
		o.cursor = 0
	}
	if o.cursor > len(o.text) {
		o.cursor = len(o.text)
	}
}

// split returns the text left and right of the cursor.
func (o *overlay) split() (string, string) {
	return strings.Join(o.text[:o.cursor], ""), strings.Join(o.text[o.cursor:], "")
}

func graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// OverlayParts returns the overlay text split at its cursor, for rendering.
func (m *Machine) OverlayParts() (before, after string) {
	return m.overlay.split()
}
