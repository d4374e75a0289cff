// Package engine implements the triage interaction engine: it converts
// continuous one-dimensional pointer motion, plus independent list
// scrolling, into discrete, exactly-once categorization actions on list
// items, with proximity feedback, a parking sub-mode for voice capture,
// and strict anti-cascade guarantees.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hqv/mailsweep/internal/model"
)

// ErrItemVanished reports that the item under capture disappeared from
// the list before the recording resolved.
var ErrItemVanished = errors.New("engine: item no longer present")

// TargetView is the per-target read surface exposed for rendering.
type TargetView struct {
	ID        string
	Offset    float64
	Action    model.TriageAction
	Proximity float64
	Active    bool
}

// RenderState is the engine's read-only surface for the presentation
// layer. The engine performs no rendering itself.
type RenderState struct {
	Targets      []TargetView
	ActiveTarget string
	Marker       Point
	ActiveIndex  int
	Dragging     bool
	Recording    bool
	Statuses     map[string]model.TriageStatus
}

// Engine owns the interaction state for one triage session. Input
// methods are called from the high-frequency input context; they
// evaluate proximity on every sample and hand dispatch work to the
// business goroutine through the gate's single firing point, never
// waiting on a result.
type Engine struct {
	mu sync.Mutex

	geo     Geometry
	targets []Target

	sampler Sampler
	gate    Gate
	coord   Coordinator
	disp    *Dispatcher

	snap    atomic.Pointer[Snapshot]
	version uint64

	recording     bool
	recordingItem string

	events chan Event
	stopCh chan struct{}
}

// New creates an engine from the static configuration and the
// collaborator set. Configuration is loaded once; targets keep their
// declaration order.
func New(cfg model.EngineConfig, collab Collaborators) *Engine {
	e := &Engine{
		geo:     GeometryFromConfig(cfg),
		targets: TargetsFromConfig(cfg.Targets),
		coord:   NewCoordinator(cfg.RowHeight),
		disp:    NewDispatcher(collab),
		events:  make(chan Event, 16),
		stopCh:  make(chan struct{}),
	}
	e.snap.Store(NewSnapshot(0, nil))
	return e
}

// Start launches the business goroutine and the event pump.
func (e *Engine) Start() {
	e.disp.Start()
	go e.pumpEvents()
}

// Stop halts the engine's goroutines.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
		return
	default:
	}
	close(e.stopCh)
	e.disp.Stop()
}

// Events returns the channel carrying asynchronous engine outcomes.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// pumpEvents forwards dispatcher events to the engine's consumers,
// folding recording outcomes back into the engine state first.
func (e *Engine) pumpEvents() {
	for {
		select {
		case <-e.stopCh:
			return
		case ev := <-e.disp.Events():
			e.observe(ev)
			e.emit(ev)
		}
	}
}

// observe updates engine state from a business-goroutine outcome.
// These writes become visible to the input context on its next
// evaluation.
func (e *Engine) observe(ev Event) {
	switch ev.Kind {
	case EventRecordingStopped, EventRecordingFailed:
		e.mu.Lock()
		e.recording = false
		e.recordingItem = ""
		e.mu.Unlock()
	}
}

// emit sends an event without blocking.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}

// SetItems swaps in a new item snapshot atomically. The engine
// tolerates items disappearing or reordering between any two
// evaluations; a recording whose item vanished is cancelled.
func (e *Engine) SetItems(items []Item) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.version++
	snap := NewSnapshot(e.version, items)
	e.snap.Store(snap)
	e.coord.Clamp(snap.Len())

	if e.recording && !snap.Contains(e.recordingItem) {
		e.disp.CancelCapture()
		e.recording = false
		e.recordingItem = ""
		e.emit(Event{Kind: EventRecordingFailed, Err: ErrItemVanished})
	}

	if !e.sampler.Dragging() {
		e.sampler.Rest(e.restPoint())
	}
}

// Reset fully resets the interaction state at a session boundary, e.g.
// when the surrounding view regains focus or the list is swapped out.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recording {
		e.disp.CancelCapture()
		e.recording = false
		e.recordingItem = ""
	}
	e.coord.Reset(e.sampler.Scroll())
	e.gate.Reset()
	e.disp.Reset()
	e.sampler.PointerUp(e.restPoint())
}

// PointerDown begins a drag from a raw position sample.
func (e *Engine) PointerDown(x, y float64, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sampler.PointerDown(x, y, at, e.restPoint())
	e.gate.BeginDrag()
	e.evaluateLocked()
}

// PointerMove feeds a raw position sample. Samples must not be
// throttled below the native input rate: a missed sample can cause a
// target crossing to go undetected.
func (e *Engine) PointerMove(x, y float64, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sampler.PointerMove(x, y, at)
	e.evaluateLocked()
}

// PointerUp ends the drag. While the recording sub-mode is parked it
// emits the stop signal instead of the normal release handling.
func (e *Engine) PointerUp(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recording {
		snap := e.snap.Load()
		if item, ok := e.itemByID(snap, e.recordingItem); ok {
			e.disp.StopCapture(item)
		} else {
			e.disp.CancelCapture()
		}
		e.sampler.PointerUp(e.restPoint())
		e.gate.EndDrag()
		return
	}

	e.sampler.PointerUp(e.restPoint())
	e.gate.EndDrag()
	e.evaluateLocked()
}

// SetScroll feeds a scroll offset update. A backward scroll past the
// retreat threshold moves the active row up one and clears the gate
// flags, re-enabling triage of the previous item.
func (e *Engine) SetScroll(offset float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sampler.SetScroll(offset)
	if e.coord.ObserveScroll(offset) {
		e.gate.Clear()
	}
	if !e.sampler.Dragging() {
		e.sampler.Rest(e.restPoint())
	}
	e.evaluateLocked()
}

// ActiveIndex returns the index of the item currently receiving
// interaction.
func (e *Engine) ActiveIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coord.ActiveIndex()
}

// Recording reports whether the voice capture sub-mode is active.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// ItemStatus returns the dispatcher's triage status for an item, if
// any. Alternative input paths consult it before submitting so an item
// with a dispatch already in flight is never submitted twice.
func (e *Engine) ItemStatus(itemID string) (model.TriageStatus, bool) {
	return e.disp.Status(itemID)
}

// Frame returns the read-only surface for the presentation layer:
// per-target proximity, the active target, the marker position, the
// active index, and per-item triage status.
func (e *Engine) Frame() RenderState {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := Resolve(
		e.sampler.Marker(), e.sampler.Scroll(),
		e.coord.ActiveIndex(), e.geo, e.targets,
	)

	views := make([]TargetView, 0, len(e.targets))
	for i, t := range e.targets {
		views = append(views, TargetView{
			ID:        t.ID,
			Offset:    t.Offset,
			Action:    t.Action,
			Proximity: res.Proximities[i].Value,
			Active:    res.ActiveTarget == t.ID,
		})
	}

	return RenderState{
		Targets:      views,
		ActiveTarget: res.ActiveTarget,
		Marker:       res.Marker,
		ActiveIndex:  e.coord.ActiveIndex(),
		Dragging:     e.sampler.Dragging(),
		Recording:    e.recording,
		Statuses:     e.disp.Statuses(),
	}
}

// restPoint returns the marker's resting position for the current
// active row and scroll offset.
func (e *Engine) restPoint() Point {
	return Point{
		X: 0,
		Y: e.geo.RestY(e.coord.ActiveIndex(), e.sampler.Scroll()),
	}
}

// targetByID finds a target by id.
func (e *Engine) targetByID(id string) (Target, bool) {
	for _, t := range e.targets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

// itemByID finds an item in the snapshot by id.
func (e *Engine) itemByID(snap *Snapshot, id string) (Item, bool) {
	for i := 0; i < snap.Len(); i++ {
		if it, ok := snap.At(i); ok && it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// evaluateLocked runs one resolver evaluation and drives the gate.
// Called with e.mu held, on every input sample. It never blocks on
// network I/O.
func (e *Engine) evaluateLocked() {
	res := Resolve(
		e.sampler.Marker(), e.sampler.Scroll(),
		e.coord.ActiveIndex(), e.geo, e.targets,
	)

	fire := e.gate.Evaluate(res.ActiveTarget)
	if !fire {
		return
	}

	// While parked on the mic, no further triggers fire; capture stops
	// on release.
	if e.recording {
		return
	}

	snap := e.snap.Load()
	item, ok := snap.At(e.coord.ActiveIndex())
	if !ok {
		// The item vanished between evaluations: void the trigger.
		e.gate.VoidFire()
		return
	}

	target, ok := e.targetByID(res.ActiveTarget)
	if !ok {
		return
	}

	if target.Action == model.ActionRecord {
		// Recording parks the marker: no lock, no needsRelease, no
		// advancement. The marker may stay here as long as the user
		// holds it.
		e.recording = true
		e.recordingItem = item.ID
		e.disp.StartCapture(item)
		return
	}

	e.gate.BeginFire()
	dec := e.disp.Dispatch(item, target)
	e.gate.EndFire()

	if dec.Dispatched {
		// Snap the marker back to horizontal rest under the pointer;
		// needsRelease keeps whatever zone it lands in from firing.
		e.sampler.Recenter()
	}
	if dec.Advance {
		e.coord.Advance(snap.Len())
	}
}
