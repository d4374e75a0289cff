package engine

import "math"

// TargetProximity is the feedback value for a single target: 0 at the
// proximity radius, scaling to 1 at the target's exact position.
type TargetProximity struct {
	TargetID string
	Value    float64
}

// Resolution is the output of one resolver evaluation.
type Resolution struct {
	// Proximities holds the per-target feedback values in target
	// declaration order. Feedback only; never used for triggering.
	Proximities []TargetProximity

	// ActiveTarget is the id of the single target whose activation
	// zone contains the marker, or "" when none does. With overlapping
	// zones the first target in declaration order wins.
	ActiveTarget string

	// Marker is the marker position the evaluation used.
	Marker Point
}

// Resolve computes per-target proximity and the active target for the
// given marker position. It is a pure function of the marker, the
// scroll offset, the active row index, and the static configuration:
// each target's absolute position is anchored to the active row's
// center, which the geometry constants place on screen.
//
// Eligibility is not considered here. The resolver reports raw
// geometric activation; downstream components decide behavior.
func Resolve(
	marker Point,
	scroll float64,
	activeIndex int,
	geo Geometry,
	targets []Target,
) Resolution {
	rowY := geo.RowCenterY(activeIndex, scroll)

	res := Resolution{
		Proximities: make([]TargetProximity, 0, len(targets)),
		Marker:      marker,
	}

	for _, t := range targets {
		d := math.Hypot(marker.X-t.Offset, marker.Y-rowY)

		value := 0.0
		if t.ProximityRadius > 0 && d < t.ProximityRadius {
			value = 1 - d/t.ProximityRadius
		}
		res.Proximities = append(res.Proximities, TargetProximity{
			TargetID: t.ID,
			Value:    value,
		})

		if res.ActiveTarget == "" && d <= t.ActivationRadius {
			res.ActiveTarget = t.ID
		}
	}

	return res
}
