package engine

import "time"

// Sampler normalizes raw pointer samples and independent scroll updates
// into the marker's engine-local position. Pointer samples must arrive
// at the platform's native input rate; scroll updates may be sampled
// slower because every consumer recomputes from the latest offset
// rather than relying on sample-to-sample deltas.
type Sampler struct {
	down   bool
	downX  float64
	downY  float64
	startX float64
	startY float64

	// rebase forces the next raw sample to re-anchor the drag origin
	// instead of applying a delta from the old one. Set after the
	// marker snaps back mid-drag.
	rebase bool

	markerX float64
	markerY float64

	scroll     float64
	lastSample time.Time
}

// PointerDown begins a drag. The marker's current resting position is
// captured as the drag origin so the initial delta is zero.
func (s *Sampler) PointerDown(x, y float64, at time.Time, rest Point) {
	s.down = true
	s.rebase = false
	s.downX = x
	s.downY = y
	s.startX = rest.X
	s.startY = rest.Y
	s.markerX = rest.X
	s.markerY = rest.Y
	s.lastSample = at
}

// PointerMove updates the marker from a raw position sample. It is a
// no-op when no drag is in progress.
func (s *Sampler) PointerMove(x, y float64, at time.Time) {
	if !s.down {
		return
	}
	if s.rebase {
		s.rebase = false
		s.downX = x
		s.downY = y
		s.startX = s.markerX
		s.startY = s.markerY
	}
	s.markerX = s.startX + (x - s.downX)
	s.markerY = s.startY + (y - s.downY)
	s.lastSample = at
}

// PointerUp ends the drag and returns the marker to its resting
// position.
func (s *Sampler) PointerUp(rest Point) {
	s.down = false
	s.rebase = false
	s.markerX = rest.X
	s.markerY = rest.Y
}

// Recenter snaps the marker back to horizontal rest while a drag is
// still in progress. The vertical position stays under the pointer and
// the next raw sample re-anchors the drag origin.
func (s *Sampler) Recenter() {
	s.markerX = 0
	s.rebase = true
}

// SetScroll records the latest scroll offset.
func (s *Sampler) SetScroll(offset float64) {
	s.scroll = offset
}

// Scroll returns the latest scroll offset.
func (s *Sampler) Scroll() float64 {
	return s.scroll
}

// Dragging reports whether a drag is in progress.
func (s *Sampler) Dragging() bool {
	return s.down
}

// Marker returns the marker's current position.
func (s *Sampler) Marker() Point {
	return Point{X: s.markerX, Y: s.markerY}
}

// Rest moves the marker to the given resting position without ending a
// drag. Used when the active row changes underneath an idle marker.
func (s *Sampler) Rest(rest Point) {
	if s.down {
		return
	}
	s.markerX = rest.X
	s.markerY = rest.Y
}
