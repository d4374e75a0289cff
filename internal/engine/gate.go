package engine

// GateState is the trigger gate's coarse state.
type GateState int

const (
	// GateIdle means no drag is in progress.
	GateIdle GateState = iota

	// GateDragging means a drag is in progress and a trigger may fire.
	GateDragging

	// GateLocked means a trigger has fired during the current approach
	// and the marker has not yet left every activation zone.
	GateLocked
)

// Gate is the state machine that guarantees exactly one dispatch per
// physical approach to a target, even though evaluation runs on every
// input sample.
type Gate struct {
	state        GateState
	locked       bool
	needsRelease bool
}

// State returns the gate's coarse state.
func (g *Gate) State() GateState {
	return g.state
}

// Locked reports whether a dispatch is currently in its synchronous
// window.
func (g *Gate) Locked() bool {
	return g.locked
}

// NeedsRelease reports whether the marker must leave every activation
// zone before another trigger can fire.
func (g *Gate) NeedsRelease() bool {
	return g.needsRelease
}

// BeginDrag transitions the gate into the dragging state.
func (g *Gate) BeginDrag() {
	if g.state == GateIdle {
		g.state = GateDragging
	}
}

// EndDrag returns the gate to idle. The needsRelease flag is left
// alone; it clears on the next evaluation that sees no active target.
func (g *Gate) EndDrag() {
	g.state = GateIdle
}

// Evaluate advances the gate for one resolver result and returns
// whether a trigger should fire for the active target. When the
// resolver reports no active target the needsRelease flag clears: this
// is the only mechanism that re-arms the gate, so a marker that snaps
// back to rest over another target cannot immediately re-trigger it.
func (g *Gate) Evaluate(activeTarget string) bool {
	if activeTarget == "" {
		g.needsRelease = false
		if g.state == GateLocked {
			g.state = GateDragging
		}
		return false
	}

	if g.state != GateDragging {
		return false
	}
	if g.locked || g.needsRelease {
		return false
	}
	return true
}

// BeginFire marks the start of a dispatch. Both flags are set
// synchronously, in the same evaluation step, before the dispatcher is
// invoked; this is what makes the dispatch exactly-once per approach.
func (g *Gate) BeginFire() {
	g.locked = true
	g.needsRelease = true
	g.state = GateLocked
}

// EndFire clears the lock once the dispatcher's synchronous portion has
// returned. The gate never waits for the dispatcher's asynchronous
// network result.
func (g *Gate) EndFire() {
	g.locked = false
}

// VoidFire abandons a trigger whose item disappeared between
// evaluations. No dispatch happened, so the gate returns to dragging
// with its flags untouched.
func (g *Gate) VoidFire() {
	if g.state == GateLocked {
		g.state = GateDragging
	}
}

// Clear resets both flags, used on scroll-back retreat and on session
// reset to re-enable triage.
func (g *Gate) Clear() {
	g.locked = false
	g.needsRelease = false
	if g.state == GateLocked {
		g.state = GateDragging
	}
}

// Reset returns the gate to its initial state.
func (g *Gate) Reset() {
	g.state = GateIdle
	g.locked = false
	g.needsRelease = false
}
