package selection

import "math"

// Handle identifies the part of the selection a drag manipulates.
type Handle int

const (
	HandleNone Handle = iota
	HandleSelect
	HandleTopLeft
	HandleTopMid
	HandleTopRight
	HandleMidLeft
	HandleMidRight
	HandleBottomLeft
	HandleBottomMid
	HandleBottomRight
	HandleMove
)

func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "none"
	case HandleSelect:
		return "select"
	case HandleTopLeft:
		return "top-left"
	case HandleTopMid:
		return "top-mid"
	case HandleTopRight:
		return "top-right"
	case HandleMidLeft:
		return "mid-left"
	case HandleMidRight:
		return "mid-right"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleBottomMid:
		return "bottom-mid"
	case HandleBottomRight:
		return "bottom-right"
	case HandleMove:
		return "move"
	default:
		return "unknown"
	}
}

// IsResize reports whether h is one of the eight corner or edge handles.
func (h Handle) IsResize() bool {
	return h >= HandleTopLeft && h <= HandleBottomRight
}

// IsCorner reports whether h moves two edges at once.
func (h Handle) IsCorner() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	}
	return false
}

type hotspot struct {
	handle Handle
	at     Point
}

func cornerHotspots(r Rect) []hotspot {
	return []hotspot{
		{HandleTopLeft, Point{r.Left, r.Top}},
		{HandleTopRight, Point{r.Right, r.Top}},
		{HandleBottomLeft, Point{r.Left, r.Bottom}},
		{HandleBottomRight, Point{r.Right, r.Bottom}},
	}
}

func edgeHotspots(r Rect) []hotspot {
	c := r.center()
	return []hotspot{
		{HandleTopMid, Point{c.X, r.Top}},
		{HandleMidLeft, Point{r.Left, c.Y}},
		{HandleMidRight, Point{r.Right, c.Y}},
		{HandleBottomMid, Point{c.X, r.Bottom}},
	}
}

// HitTest resolves which handle of r a pointer at p grabs. Hotspots are
// squares of half-size radius around the corners and edge midpoints.
// Corners win over edges and edges win over the interior; among overlapping
// hotspots of one kind the closest wins. Points outside every zone yield
// HandleNone.
func HitTest(r Rect, p Point, radius float64) Handle {
	r = r.Normalize()
	if h, ok := nearest(cornerHotspots(r), p, radius); ok {
		return h
	}
	if h, ok := nearest(edgeHotspots(r), p, radius); ok {
		return h
	}
	if r.Contains(p) {
		return HandleMove
	}
	return HandleNone
}

func nearest(spots []hotspot, p Point, radius float64) (Handle, bool) {
	best, bestDist := HandleNone, math.Inf(1)
	for _, s := range spots {
		dx, dy := math.Abs(p.X-s.at.X), math.Abs(p.Y-s.at.Y)
		if dx > radius || dy > radius {
			continue
		}
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = s.handle, d
		}
	}
	return best, best != HandleNone
}
