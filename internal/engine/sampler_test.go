package engine

import (
	"testing"
	"time"
)

func TestSamplerDragDeltas(t *testing.T) {
	var s Sampler
	rest := Point{X: 0, Y: 136}
	now := time.Now()

	s.PointerDown(200, 400, now, rest)
	if got := s.Marker(); got != rest {
		t.Fatalf("marker after down = %+v, want rest %+v", got, rest)
	}

	// Raw screen coordinates; the marker moves by the delta from the
	// down position.
	s.PointerMove(220, 390, now)
	want := Point{X: 20, Y: 126}
	if got := s.Marker(); got != want {
		t.Fatalf("marker = %+v, want %+v", got, want)
	}
}

func TestSamplerMoveWithoutDragIsNoop(t *testing.T) {
	var s Sampler
	s.Rest(Point{X: 0, Y: 136})

	s.PointerMove(500, 500, time.Now())
	if got := s.Marker(); got != (Point{X: 0, Y: 136}) {
		t.Fatalf("idle marker moved to %+v", got)
	}
}

func TestSamplerRecenterRebasesNextSample(t *testing.T) {
	var s Sampler
	now := time.Now()
	s.PointerDown(0, 0, now, Point{X: 0, Y: 136})
	s.PointerMove(80, -38, now)
	if got := s.Marker(); got != (Point{X: 80, Y: 98}) {
		t.Fatalf("marker = %+v", got)
	}

	// Snap-back: horizontal only, vertical stays under the pointer.
	s.Recenter()
	if got := s.Marker(); got != (Point{X: 0, Y: 98}) {
		t.Fatalf("marker after recenter = %+v", got)
	}

	// The first sample after recenter re-anchors the origin instead of
	// replaying the old delta, so the marker does not jump back out.
	s.PointerMove(80, -38, now)
	if got := s.Marker(); got != (Point{X: 0, Y: 98}) {
		t.Fatalf("marker jumped after recenter to %+v", got)
	}

	// Subsequent motion applies from the new anchor.
	s.PointerMove(90, -38, now)
	if got := s.Marker(); got != (Point{X: 10, Y: 98}) {
		t.Fatalf("marker = %+v, want {10 98}", got)
	}
}

func TestSamplerPointerUpReturnsToRest(t *testing.T) {
	var s Sampler
	now := time.Now()
	s.PointerDown(0, 0, now, Point{X: 0, Y: 136})
	s.PointerMove(80, -38, now)

	s.PointerUp(Point{X: 0, Y: 212})
	if s.Dragging() {
		t.Fatal("still dragging after pointer up")
	}
	if got := s.Marker(); got != (Point{X: 0, Y: 212}) {
		t.Fatalf("marker = %+v, want rest", got)
	}
}

func TestSamplerRestIgnoredMidDrag(t *testing.T) {
	var s Sampler
	now := time.Now()
	s.PointerDown(0, 0, now, Point{X: 0, Y: 136})
	s.PointerMove(40, 0, now)

	s.Rest(Point{X: 0, Y: 500})
	if got := s.Marker(); got != (Point{X: 40, Y: 136}) {
		t.Fatalf("rest displaced a live drag to %+v", got)
	}
}
