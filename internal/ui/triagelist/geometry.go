package triagelist

import "math"

// ColUnits is the horizontal scale between engine coordinates and
// terminal columns: one column spans this many engine units. Target
// offsets and marker positions divide by it for rendering; the app's
// mouse mapping multiplies by it going the other way.
const ColUnits = 5.0

// engineColumns converts a horizontal engine offset to terminal
// columns.
func engineColumns(x float64) int {
	return int(math.Round(x / ColUnits))
}

// EngineX converts a terminal column, measured from the given center
// column, to engine coordinates.
func EngineX(col, centerCol int) float64 {
	return float64(col-centerCol) * ColUnits
}
