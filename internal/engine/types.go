package engine

import "github.com/hqv/mailsweep/internal/model"

// Target is a named drop zone with a fixed horizontal offset from the
// active row's center and two radii: the tight activation radius at
// which a trigger fires, and the wider proximity radius used only for
// visual feedback scaling.
type Target struct {
	ID               string
	Offset           float64
	ActivationRadius float64
	ProximityRadius  float64
	Action           model.TriageAction
}

// Item is the engine-local view of a triageable list item: a stable
// identity plus the eligibility flags the dispatcher consults.
type Item struct {
	ID                  string
	Sender              string
	EligibleUnsubscribe bool
}

// ItemFromModel converts a stored item into the engine's view of it.
func ItemFromModel(it model.Item) Item {
	return Item{
		ID:                  it.ID,
		Sender:              it.Sender,
		EligibleUnsubscribe: it.IsBulkSender,
	}
}

// Geometry holds the row layout constants that determine the active
// row's on-screen position without measuring the rendered element.
type Geometry struct {
	RowHeight    float64
	HeaderOffset float64
	TopPadding   float64
}

// RowCenterY returns the vertical center of the row at index, given the
// current scroll offset.
func (g Geometry) RowCenterY(index int, scroll float64) float64 {
	return g.TopPadding + g.HeaderOffset +
		(float64(index)+0.5)*g.RowHeight - scroll
}

// RestY returns the marker's resting vertical position for the row at
// index: the row's bottom edge, which keeps the resting marker outside
// every target's activation zone.
func (g Geometry) RestY(index int, scroll float64) float64 {
	return g.RowCenterY(index, scroll) + g.RowHeight/2
}

// Point is a position in engine screen coordinates. X is measured from
// the row's horizontal center.
type Point struct {
	X float64
	Y float64
}

// TargetsFromConfig converts configured targets into engine targets,
// preserving declaration order (the activation tie-break order).
func TargetsFromConfig(cfgs []model.TargetConfig) []Target {
	targets := make([]Target, 0, len(cfgs))
	for _, c := range cfgs {
		targets = append(targets, Target{
			ID:               c.ID,
			Offset:           c.Offset,
			ActivationRadius: c.ActivationRadius,
			ProximityRadius:  c.ProximityRadius,
			Action:           c.Action,
		})
	}
	return targets
}

// GeometryFromConfig extracts the row geometry constants from the
// engine configuration.
func GeometryFromConfig(cfg model.EngineConfig) Geometry {
	return Geometry{
		RowHeight:    cfg.RowHeight,
		HeaderOffset: cfg.HeaderOffset,
		TopPadding:   cfg.TopPadding,
	}
}
