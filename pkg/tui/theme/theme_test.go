package theme

import (
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
)

func TestUrgencyEnds(t *testing.T) {
	for _, c := range []struct {
		left float64
		want colorful.Color
	}{
		{1, calm},
		{0, urgent},
		{2, calm},
		{-1, urgent},
	} {
		got, ok := colorful.MakeColor(Urgency(c.left))
		if !ok {
			t.Fatalf("urgency(%v): not a color", c.left)
		}
		if got.Hex() != c.want.Hex() {
			t.Fatalf("urgency(%v): expected %s, got %s", c.left, c.want.Hex(), got.Hex())
		}
	}
}

func TestUrgencyBlends(t *testing.T) {
	mid, _ := colorful.MakeColor(Urgency(0.5))
	if mid.Hex() == calm.Hex() || mid.Hex() == urgent.Hex() {
		t.Fatalf("expected a blend, got %s", mid.Hex())
	}
}
