package selection

import "testing"

func TestHitTestCornerBeatsInterior(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	for _, p := range []Point{{2, 2}, {98, 3}, {4, 97}, {99, 99}} {
		h := HitTest(r, p, 8)
		if !h.IsCorner() {
			t.Errorf("HitTest(%v) = %v, want a corner handle", p, h)
		}
	}
}

func TestHitTestDegenerateRectangle(t *testing.T) {
	// every hotspot overlaps; a corner must still win over edges and Move
	r := Rect{Left: 50, Top: 50, Right: 52, Bottom: 52}
	for _, p := range []Point{{50, 50}, {51, 51}, {52, 50}} {
		if h := HitTest(r, p, 8); !h.IsCorner() {
			t.Errorf("HitTest(%v) = %v, want a corner", p, h)
		}
	}
}

func TestHitTestPicksNearestCorner(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 6, Bottom: 6}
	if h := HitTest(r, Point{5, 5}, 8); h != HandleBottomRight {
		t.Errorf("got %v, want bottom-right", h)
	}
	if h := HitTest(r, Point{0.5, 5.5}, 8); h != HandleBottomLeft {
		t.Errorf("got %v, want bottom-left", h)
	}
}

func TestHitTestEdgesBeforeMove(t *testing.T) {
	r := Rect{Left: 0, Top: 0, Right: 100, Bottom: 60}
	tests := []struct {
		p    Point
		want Handle
	}{
		{Point{50, 1}, HandleTopMid},
		{Point{1, 30}, HandleMidLeft},
		{Point{99, 32}, HandleMidRight},
		{Point{48, 59}, HandleBottomMid},
		{Point{30, 40}, HandleMove},
		{Point{150, 40}, HandleNone},
	}
	for _, tt := range tests {
		if got := HitTest(r, tt.p, 5); got != tt.want {
			t.Errorf("HitTest(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestHitTestNormalizesInput(t *testing.T) {
	inverted := Rect{Left: 100, Top: 100, Right: 0, Bottom: 0}
	if h := HitTest(inverted, Point{0, 0}, 4); h != HandleTopLeft {
		t.Errorf("got %v, want top-left", h)
	}
}
