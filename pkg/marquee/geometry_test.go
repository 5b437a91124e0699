package marquee

import "testing"

func TestRectFromPointsNormalizes(t *testing.T) {
	a := Point{X: 10, Y: 40}
	b := Point{X: 30, Y: 20}

	ab := RectFromPoints(a, b)
	ba := RectFromPoints(b, a)

	if ab != ba {
		t.Fatalf("drag direction changed the rectangle: %+v vs %+v", ab, ba)
	}
	want := Rect{Left: 10, Top: 20, Right: 30, Bottom: 40}
	if ab != want {
		t.Fatalf("expected %+v, got %+v", want, ab)
	}
}

func TestOverlapsStrictEdges(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}

	tests := []struct {
		name string
		o    Rect
		want bool
	}{
		{"disjoint", Rect{Left: 20, Top: 20, Right: 30, Bottom: 30}, false},
		{"shared vertical edge", Rect{Left: 10, Top: 0, Right: 20, Bottom: 10}, false},
		{"shared horizontal edge", Rect{Left: 0, Top: 10, Right: 10, Bottom: 20}, false},
		{"shared corner", Rect{Left: 10, Top: 10, Right: 20, Bottom: 20}, false},
		{"one pixel in", Rect{Left: 9, Top: 9, Right: 20, Bottom: 20}, true},
		{"fully inside", Rect{Left: 2, Top: 2, Right: 8, Bottom: 8}, true},
		{"fully containing", Rect{Left: -5, Top: -5, Right: 15, Bottom: 15}, true},
	}

	for _, tt := range tests {
		if got := r.Overlaps(tt.o); got != tt.want {
			t.Errorf("%s: Overlaps = %v, want %v", tt.name, got, tt.want)
		}
		// Overlap is symmetric: containment direction must not matter.
		if got := tt.o.Overlaps(r); got != tt.want {
			t.Errorf("%s (swapped): Overlaps = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEmptyRect(t *testing.T) {
	if !(Rect{Left: 5, Top: 0, Right: 5, Bottom: 10}).Empty() {
		t.Fatal("zero-width rect should be empty")
	}
	if !(Rect{Left: 0, Top: 5, Right: 10, Bottom: 5}).Empty() {
		t.Fatal("zero-height rect should be empty")
	}
	if (Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}).Empty() {
		t.Fatal("non-degenerate rect should not be empty")
	}
}
