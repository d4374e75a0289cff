package engine

import (
	"math"
	"testing"

	"github.com/hqv/mailsweep/internal/model"
)

var testGeo = Geometry{RowHeight: 76, HeaderOffset: 52, TopPadding: 8}

func testTargets() []Target {
	return TargetsFromConfig(model.DefaultTargets())
}

func TestResolveActiveTargetAtExactPosition(t *testing.T) {
	rowY := testGeo.RowCenterY(0, 0)

	res := Resolve(Point{X: 0, Y: rowY}, 0, 0, testGeo, testTargets())
	if res.ActiveTarget != "done" {
		t.Fatalf("expected done active, got %q", res.ActiveTarget)
	}

	res = Resolve(Point{X: 80, Y: rowY}, 0, 0, testGeo, testTargets())
	if res.ActiveTarget != "reply" {
		t.Fatalf("expected reply active, got %q", res.ActiveTarget)
	}
}

func TestResolveNoActiveTargetOutsideRadius(t *testing.T) {
	rowY := testGeo.RowCenterY(0, 0)

	// 31 cells past the activation radius edge of every target.
	res := Resolve(Point{X: 40, Y: rowY + 31}, 0, 0, testGeo, testTargets())
	if res.ActiveTarget != "" {
		t.Fatalf("expected no active target, got %q", res.ActiveTarget)
	}
}

func TestResolveProximityScaling(t *testing.T) {
	rowY := testGeo.RowCenterY(0, 0)

	tests := []struct {
		name   string
		marker Point
		target string
		want   float64
	}{
		{"at target", Point{0, rowY}, "done", 1.0},
		{"half radius", Point{30, rowY}, "done", 0.5},
		{"at proximity edge", Point{60, rowY}, "done", 0.0},
		{"beyond proximity", Point{70, rowY}, "done", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.marker, 0, 0, testGeo, testTargets())
			got := -1.0
			for _, p := range res.Proximities {
				if p.TargetID == tt.target {
					got = p.Value
				}
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("proximity for %s = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestResolveDeclarationOrderTieBreak(t *testing.T) {
	// Two overlapping zones: the first declared target wins, so
	// overlapping zones never yield two simultaneously active targets.
	overlapping := []Target{
		{ID: "first", Offset: 0, ActivationRadius: 50, ProximityRadius: 60},
		{ID: "second", Offset: 20, ActivationRadius: 50, ProximityRadius: 60},
	}

	rowY := testGeo.RowCenterY(0, 0)
	res := Resolve(Point{X: 20, Y: rowY}, 0, 0, testGeo, overlapping)
	if res.ActiveTarget != "first" {
		t.Fatalf("expected declaration-order winner %q, got %q", "first", res.ActiveTarget)
	}
}

func TestResolveFollowsActiveRowAndScroll(t *testing.T) {
	// Targets are anchored to the active row; advancing the row or
	// scrolling moves their absolute positions.
	rowY1 := testGeo.RowCenterY(1, 0)
	res := Resolve(Point{X: 0, Y: rowY1}, 0, 1, testGeo, testTargets())
	if res.ActiveTarget != "done" {
		t.Fatalf("expected done active on row 1, got %q", res.ActiveTarget)
	}

	// Same marker, but the list scrolled down by a full row: the row
	// moved away from the marker.
	res = Resolve(Point{X: 0, Y: rowY1}, testGeo.RowHeight, 1, testGeo, testTargets())
	if res.ActiveTarget != "" {
		t.Fatalf("expected no active target after scroll, got %q", res.ActiveTarget)
	}
}
