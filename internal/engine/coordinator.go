package engine

// retreatFraction is how much of one row height the scroll offset must
// decrease by, against the current baseline, before the active row
// retreats to the previous item.
const retreatFraction = 0.6

// Coordinator owns the active row index. The index advances by exactly
// one on a successful triage dispatch and retreats by one on a
// qualifying backward scroll; list scrolling alone never advances it.
type Coordinator struct {
	activeIndex int
	baseline    float64
	rowHeight   float64
}

// NewCoordinator creates a coordinator for rows of the given height.
func NewCoordinator(rowHeight float64) Coordinator {
	return Coordinator{rowHeight: rowHeight}
}

// ActiveIndex returns the index of the item currently receiving
// pointer-driven interaction.
func (c *Coordinator) ActiveIndex() int {
	return c.activeIndex
}

// Advance moves the active row forward by one, clamped to the last
// item. Only a dispatcher advance signal calls this.
func (c *Coordinator) Advance(itemCount int) {
	if c.activeIndex+1 < itemCount {
		c.activeIndex++
	}
}

// Clamp forces the index back into [0, itemCount) after a snapshot
// swap shrinks the list.
func (c *Coordinator) Clamp(itemCount int) {
	if itemCount <= 0 {
		c.activeIndex = 0
		return
	}
	if c.activeIndex >= itemCount {
		c.activeIndex = itemCount - 1
	}
}

// ObserveScroll applies a scroll update against the baseline. A
// decrease past the retreat threshold retreats the active row by one
// (floored at zero) and reports true so the caller can clear the gate
// flags, re-enabling triage of the previous item. A forward move past
// the same threshold only rebases the baseline.
func (c *Coordinator) ObserveScroll(offset float64) bool {
	threshold := retreatFraction * c.rowHeight

	delta := c.baseline - offset
	switch {
	case delta > threshold:
		c.baseline = offset
		if c.activeIndex > 0 {
			c.activeIndex--
		}
		return true
	case -delta > threshold:
		c.baseline = offset
	}
	return false
}

// Reset returns the coordinator to the top of the list and rebases the
// scroll baseline at the given offset.
func (c *Coordinator) Reset(offset float64) {
	c.activeIndex = 0
	c.baseline = offset
}
