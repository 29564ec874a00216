// Package viewport tracks the local view into the shared canvas and grows the
// canvas when edits approach its right or bottom edge.
package viewport

import (
	"math"
	"sync"

	"SharedBoard/internal/state"
)

type Config struct {
	// Visible is the extent of the local view in document units.
	Visible state.Size
	// Margin is the distance from an edge at which growth or scrolling kicks in.
	Margin float64
	// Step is how far a dimension grows, or the view shifts, at a time.
	Step float64
}

func DefaultConfig() Config {
	return Config{
		Visible: state.Size{Width: 1280, Height: 720},
		Margin:  80,
		Step:    500,
	}
}

// SizeSource reports the currently known document size.
type SizeSource interface {
	Size() state.Size
}

// Manager owns the per-client viewport offset. It is never shared or synchronized.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	doc    SizeSource
	offset state.Point

	// growth and backward scrolling fire at most once per axis per gesture
	grewW, grewH   bool
	shiftX, shiftY bool

	// OnGrow receives the new document size whenever an edit crosses the
	// right or bottom margin. The session turns it into a resizeCanvas commit.
	OnGrow func(size state.Size)
}

func NewManager(cfg Config, doc SizeSource) *Manager {
	return &Manager{cfg: cfg, doc: doc}
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Track inspects one drawing, drag or text point in document coordinates.
func (m *Manager) Track(p state.Point) {
	m.mu.Lock()
	size := m.doc.Size()
	next := size
	if !m.grewW && size.Width-p.X < m.cfg.Margin {
		next.Width += m.cfg.Step
		m.grewW = true
	}
	if !m.grewH && size.Height-p.Y < m.cfg.Margin {
		next.Height += m.cfg.Step
		m.grewH = true
	}
	if !m.shiftX && m.offset.X > 0 && p.X-m.offset.X < m.cfg.Margin {
		m.offset.X = math.Max(0, m.offset.X-m.cfg.Step)
		m.shiftX = true
	}
	if !m.shiftY && m.offset.Y > 0 && p.Y-m.offset.Y < m.cfg.Margin {
		m.offset.Y = math.Max(0, m.offset.Y-m.cfg.Step)
		m.shiftY = true
	}
	onGrow := m.OnGrow
	m.mu.Unlock()

	if next != size && onGrow != nil {
		onGrow(next)
	}
}

// EndGesture re-arms growth and scrolling for the next gesture.
func (m *Manager) EndGesture() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grewW, m.grewH = false, false
	m.shiftX, m.shiftY = false, false
}

// Pan translates the view by a pointer delta: dragging the canvas right
// reveals what lies to the left.
func (m *Manager) Pan(dx, dy float64) state.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = m.clamp(state.Point{X: m.offset.X - dx, Y: m.offset.Y - dy})
	return m.offset
}

// SetOffset moves the view, clamped to the document.
func (m *Manager) SetOffset(p state.Point) state.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = m.clamp(p)
	return m.offset
}

func (m *Manager) Offset() state.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset
}

// VisibleRect is the part of the document currently on screen.
func (m *Manager) VisibleRect() state.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return state.Rect{X: m.offset.X, Y: m.offset.Y, Width: m.cfg.Visible.Width, Height: m.cfg.Visible.Height}
}

// ToDocument converts a screen position to document coordinates.
func (m *Manager) ToDocument(screen state.Point) state.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return state.Point{X: screen.X + m.offset.X, Y: screen.Y + m.offset.Y}
}

// JumpTo recenters the view on a minimap click or drag position.
func (m *Manager) JumpTo(mm Minimap, click state.Point) state.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = mm.TargetOffset(click, m.cfg.Visible, m.doc.Size())
	return m.offset
}

func (m *Manager) clamp(p state.Point) state.Point {
	return Clamp(p, m.cfg.Visible, m.doc.Size())
}

// Clamp bounds an offset to [0, size-visible] on each axis.
func Clamp(p state.Point, visible, size state.Size) state.Point {
	return state.Point{
		X: clampAxis(p.X, size.Width-visible.Width),
		Y: clampAxis(p.Y, size.Height-visible.Height),
	}
}

func clampAxis(v, upper float64) float64 {
	if upper < 0 {
		upper = 0
	}
	return math.Max(0, math.Min(v, upper))
}
