package selection

import "image"

// Machine tracks the selection rectangle and the handle being dragged.
// It is driven from the single UI control flow and does no I/O, so it is
// cheap enough to feed on every tick.
type Machine struct {
	radius  float64
	bounds  image.Rectangle
	bounded bool

	rect   Rect
	has    bool
	handle Handle
	last   Point
}

// NewMachine returns an idle machine whose handle hotspots have half-size radius.
func NewMachine(radius float64) *Machine {
	if radius < 0 {
		radius = 0
	}
	return &Machine{radius: radius}
}

// SetBounds limits pointer positions and Move translations to b.
// An empty rectangle removes the limit.
func (m *Machine) SetBounds(b image.Rectangle) {
	m.bounds = b.Canon()
	m.bounded = !m.bounds.Empty()
}

func (m *Machine) Handle() Handle { return m.handle }
func (m *Machine) Dragging() bool { return m.handle != HandleNone }
func (m *Machine) Radius() float64 { return m.radius }

// Selection returns the normalized rectangle and whether it has any area.
func (m *Machine) Selection() (Rect, bool) {
	if !m.has {
		return Rect{}, false
	}
	n := m.rect.Normalize()
	return n, !n.Empty()
}

// Current returns the rectangle as it is being dragged, without normalizing.
func (m *Machine) Current() Rect { return m.rect }

// SetSelection replaces the selection and ends any drag.
func (m *Machine) SetSelection(r Rect) {
	m.handle = HandleNone
	m.rect = r.Normalize()
	m.has = !m.rect.Empty()
	if !m.has {
		m.rect = Rect{}
	}
}

// Reset clears the selection and returns to idle. Bounds are kept.
func (m *Machine) Reset() {
	m.rect = Rect{}
	m.has = false
	m.handle = HandleNone
	m.last = Point{}
}

// PointerDown starts a drag at p and returns the handle it grabbed.
// Points outside the current selection start a fresh Select drag with
// both corners on p.
func (m *Machine) PointerDown(p Point) Handle {
	if m.handle != HandleNone {
		m.finish()
	}
	p = m.clamp(p)
	h := HandleNone
	if m.has {
		h = HitTest(m.rect, p, m.radius)
	}
	if h == HandleNone {
		h = HandleSelect
		m.rect = RectAt(p)
		m.has = true
	}
	m.handle = h
	m.last = p
	return h
}

// PointerMove applies the movement from the previous pointer position to p.
func (m *Machine) PointerMove(p Point) {
	if m.handle == HandleNone {
		return
	}
	p = m.clamp(p)
	dx, dy := p.X-m.last.X, p.Y-m.last.Y
	switch m.handle {
	case HandleSelect:
		m.rect.Right, m.rect.Bottom = p.X, p.Y
	case HandleMove:
		m.rect = m.translate(dx, dy)
	default:
		m.rect = resize(m.rect, m.handle, dx, dy)
	}
	m.last = p
}

// PointerMoveBy is PointerMove for input that reports relative motion.
func (m *Machine) PointerMoveBy(dx, dy float64) {
	m.PointerMove(Point{X: m.last.X + dx, Y: m.last.Y + dy})
}

// PointerUp ends the drag at p. The retained selection is normalized;
// a selection without area is cleared and reported as false.
func (m *Machine) PointerUp(p Point) (Rect, bool) {
	if m.handle == HandleNone {
		return m.Selection()
	}
	m.PointerMove(p)
	return m.finish()
}

func (m *Machine) finish() (Rect, bool) {
	m.handle = HandleNone
	m.rect = m.rect.Normalize()
	if m.rect.Empty() {
		m.rect = Rect{}
		m.has = false
		return Rect{}, false
	}
	m.has = true
	return m.rect, true
}

func (m *Machine) clamp(p Point) Point {
	if !m.bounded {
		return p
	}
	p.X = clampFloat(p.X, float64(m.bounds.Min.X), float64(m.bounds.Max.X))
	p.Y = clampFloat(p.Y, float64(m.bounds.Min.Y), float64(m.bounds.Max.Y))
	return p
}

// translate moves the whole rectangle, keeping it inside the bounds when set.
func (m *Machine) translate(dx, dy float64) Rect {
	if !m.bounded {
		return m.rect.Translate(dx, dy)
	}
	n := m.rect.Normalize()
	dx = clampFloat(dx, float64(m.bounds.Min.X)-n.Left, float64(m.bounds.Max.X)-n.Right)
	dy = clampFloat(dy, float64(m.bounds.Min.Y)-n.Top, float64(m.bounds.Max.Y)-n.Bottom)
	return m.rect.Translate(dx, dy)
}

func resize(r Rect, h Handle, dx, dy float64) Rect {
	switch h {
	case HandleTopLeft:
		r.Left += dx
		r.Top += dy
	case HandleTopMid:
		r.Top += dy
	case HandleTopRight:
		r.Right += dx
		r.Top += dy
	case HandleMidLeft:
		r.Left += dx
	case HandleMidRight:
		r.Right += dx
	case HandleBottomLeft:
		r.Left += dx
		r.Bottom += dy
	case HandleBottomMid:
		r.Bottom += dy
	case HandleBottomRight:
		r.Right += dx
		r.Bottom += dy
	}
	return r
}

// clampFloat limits v to [lo, hi]; when the range is inverted lo wins.
func clampFloat(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
