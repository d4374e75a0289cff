package engine

import (
	"context"
	"sync"
	"time"

	"github.com/hqv/mailsweep/internal/model"
)

// UnsubscribeOutcome is the result of an unsubscribe collaborator call.
type UnsubscribeOutcome string

const (
	UnsubscribeCompleted      UnsubscribeOutcome = "completed"
	UnsubscribeManualRequired UnsubscribeOutcome = "manual_required"
	UnsubscribeFailed         UnsubscribeOutcome = "failed"
)

// Collaborators is the engine's contract with the surrounding services.
// Every method may block on network I/O; the engine only calls them
// from its business goroutine, never from the input path. Timeouts are
// owned by the collaborator implementations.
type Collaborators interface {
	// SubmitTriage applies a categorization to an item in the backing
	// system.
	SubmitTriage(ctx context.Context, itemID string, action model.TriageAction) error

	// ResolveSubscription finds the subscription record matching a
	// sender address and returns its id.
	ResolveSubscription(ctx context.Context, sender string) (string, error)

	// Unsubscribe cancels a subscription by id.
	Unsubscribe(ctx context.Context, subscriptionID string) (UnsubscribeOutcome, error)

	// StartRecording begins voice capture against an item.
	StartRecording(ctx context.Context, itemID string) error

	// StopRecording ends voice capture and returns the transcript.
	StopRecording(ctx context.Context, itemID string) (string, error)
}

// EventKind discriminates engine events.
type EventKind int

const (
	EventTriageConfirmed EventKind = iota
	EventTriageFailed
	EventRecordingStarted
	EventRecordingStopped
	EventRecordingFailed
)

// Event is an asynchronous engine outcome, emitted from the business
// goroutine after a collaborator call resolves. Failures are
// recoverable notifications; they never halt the engine.
type Event struct {
	Kind       EventKind
	ItemID     string
	Action     model.TriageAction
	Outcome    UnsubscribeOutcome
	Transcript string
	Err        error
}

// Decision is the dispatcher's synchronous answer to a trigger.
type Decision struct {
	// Dispatched reports whether an optimistic mark was created and an
	// asynchronous job enqueued.
	Dispatched bool

	// Advance signals the row coordinator to move to the next item.
	Advance bool
}

// jobKind discriminates business-goroutine work items.
type jobKind int

const (
	jobTriage jobKind = iota
	jobUnsubscribe
	jobRecordStart
	jobRecordStop
)

// job is one unit of work handed from the input context to the
// business goroutine.
type job struct {
	kind   jobKind
	item   Item
	action model.TriageAction

	// ctx is the cancellation context captured when a recording start
	// was enqueued. It travels with the job so a cancel that lands
	// before the business goroutine picks the job up is not lost.
	ctx context.Context
}

// Dispatcher maps (item, target) pairs to semantic actions. The
// synchronous half runs inside the gate's firing window: it decides,
// creates the optimistic mark, and enqueues. The asynchronous half runs
// on a single business goroutine that executes collaborator calls and
// commits or rolls back the mark.
type Dispatcher struct {
	collab Collaborators

	mu       sync.Mutex
	inflight map[string]struct{}
	records  map[string]model.TriageRecord

	jobs   chan job
	events chan Event
	stopCh chan struct{}

	recordMu     sync.Mutex
	recordCancel context.CancelFunc
}

// NewDispatcher creates a dispatcher bound to the given collaborators.
func NewDispatcher(collab Collaborators) *Dispatcher {
	return &Dispatcher{
		collab:   collab,
		inflight: make(map[string]struct{}),
		records:  make(map[string]model.TriageRecord),
		jobs:     make(chan job, 64),
		events:   make(chan Event, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the business goroutine.
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop halts the business goroutine and cancels any pending recording
// start.
func (d *Dispatcher) Stop() {
	select {
	case <-d.stopCh:
		return
	default:
	}
	close(d.stopCh)
	d.cancelRecording()
}

// Events returns the channel on which asynchronous outcomes arrive.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// Dispatch is the synchronous firing point called from inside the
// gate's locked window. It never blocks on network I/O.
func (d *Dispatcher) Dispatch(item Item, target Target) Decision {
	if target.Action == model.ActionRecord {
		// Recording is parked, not dispatched; the engine drives it
		// through StartCapture/StopCapture.
		return Decision{}
	}

	// Ineligible target for this item: silent no-op. The zone is still
	// treated as visited by the gate, but no mark is created.
	if target.Action == model.ActionUnsubscribe && !item.EligibleUnsubscribe {
		return Decision{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Idempotency guard: an item with an outstanding dispatch or an
	// existing mark never produces a second submission, regardless of
	// which target was hit.
	if _, busy := d.inflight[item.ID]; busy {
		return Decision{}
	}
	if _, marked := d.records[item.ID]; marked {
		return Decision{}
	}

	now := time.Now()
	d.records[item.ID] = model.TriageRecord{
		ItemID:    item.ID,
		Action:    target.Action,
		Status:    model.TriagePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.inflight[item.ID] = struct{}{}

	k := jobTriage
	if target.Action == model.ActionUnsubscribe {
		k = jobUnsubscribe
	}

	select {
	case d.jobs <- job{kind: k, item: item, action: target.Action}:
	default:
		// Queue saturated; revert the mark so the item stays
		// triageable rather than stuck pending forever.
		delete(d.records, item.ID)
		delete(d.inflight, item.ID)
		return Decision{}
	}

	return Decision{Dispatched: true, Advance: true}
}

// StartCapture enqueues a recording start for the given item. The
// start stays cancellable until the capture is connected.
func (d *Dispatcher) StartCapture(item Item) {
	ctx, cancel := context.WithCancel(context.Background())
	d.recordMu.Lock()
	d.recordCancel = cancel
	d.recordMu.Unlock()

	d.enqueue(job{kind: jobRecordStart, item: item, ctx: ctx})
}

// StopCapture enqueues a recording stop for the given item.
func (d *Dispatcher) StopCapture(item Item) {
	d.enqueue(job{kind: jobRecordStop, item: item})
}

// CancelCapture aborts a recording start that has not connected yet,
// e.g. when the underlying item disappears from the list.
func (d *Dispatcher) CancelCapture() {
	d.cancelRecording()
}

// Status returns the triage status for an item, if any.
func (d *Dispatcher) Status(itemID string) (model.TriageStatus, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[itemID]
	if !ok {
		return "", false
	}
	return rec.Status, true
}

// Statuses returns a copy of the per-item triage statuses for
// rendering.
func (d *Dispatcher) Statuses() map[string]model.TriageStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]model.TriageStatus, len(d.records))
	for id, rec := range d.records {
		out[id] = rec.Status
	}
	return out
}

// Reset drops all marks and in-flight entries at a session boundary.
// Jobs already on the business goroutine tolerate the missing records.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight = make(map[string]struct{})
	d.records = make(map[string]model.TriageRecord)
}

// enqueue adds a job without ever blocking the input path.
func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
	}
}

// cancelRecording cancels the pending recording context, if any.
func (d *Dispatcher) cancelRecording() {
	d.recordMu.Lock()
	cancel := d.recordCancel
	d.recordCancel = nil
	d.recordMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// run is the business goroutine: the single consumer of the job
// channel. Collaborator calls and state commits happen only here.
func (d *Dispatcher) run() {
	for {
		select {
		case <-d.stopCh:
			return
		case j := <-d.jobs:
			d.execute(j)
		}
	}
}

// execute performs one job's collaborator calls and commits the
// outcome.
func (d *Dispatcher) execute(j job) {
	ctx := context.Background()

	switch j.kind {
	case jobTriage:
		err := d.collab.SubmitTriage(ctx, j.item.ID, j.action)
		if err != nil {
			d.rollback(j.item.ID)
			d.emit(Event{Kind: EventTriageFailed, ItemID: j.item.ID, Action: j.action, Err: err})
			return
		}
		d.confirm(j.item.ID)
		d.emit(Event{Kind: EventTriageConfirmed, ItemID: j.item.ID, Action: j.action})

	case jobUnsubscribe:
		outcome := UnsubscribeFailed
		subID, err := d.collab.ResolveSubscription(ctx, j.item.Sender)
		if err == nil {
			outcome, err = d.collab.Unsubscribe(ctx, subID)
			if err != nil {
				outcome = UnsubscribeFailed
			}
		}

		// Regardless of the unsubscribe outcome, the categorize-done
		// path runs exactly once; the in-flight set already guards
		// against a second submission.
		if err := d.collab.SubmitTriage(ctx, j.item.ID, model.ActionDone); err != nil {
			d.rollback(j.item.ID)
			d.emit(Event{
				Kind: EventTriageFailed, ItemID: j.item.ID,
				Action: model.ActionUnsubscribe, Outcome: outcome, Err: err,
			})
			return
		}
		d.confirm(j.item.ID)
		d.emit(Event{
			Kind: EventTriageConfirmed, ItemID: j.item.ID,
			Action: model.ActionUnsubscribe, Outcome: outcome,
		})

	case jobRecordStart:
		startCtx := j.ctx
		if startCtx == nil {
			startCtx = ctx
		}
		err := d.collab.StartRecording(startCtx, j.item.ID)
		if err != nil {
			d.emit(Event{Kind: EventRecordingFailed, ItemID: j.item.ID, Err: err})
			return
		}
		d.emit(Event{Kind: EventRecordingStarted, ItemID: j.item.ID})

	case jobRecordStop:
		transcript, err := d.collab.StopRecording(ctx, j.item.ID)
		if err != nil {
			d.emit(Event{Kind: EventRecordingFailed, ItemID: j.item.ID, Err: err})
			return
		}
		d.emit(Event{
			Kind: EventRecordingStopped, ItemID: j.item.ID,
			Transcript: transcript,
		})
	}
}

// rollback reverts an optimistic mark so the item becomes triageable
// again.
func (d *Dispatcher) rollback(itemID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.records, itemID)
	delete(d.inflight, itemID)
}

// confirm marks a pending record as confirmed and releases the
// in-flight entry.
func (d *Dispatcher) confirm(itemID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[itemID]
	if ok {
		rec.Status = model.TriageConfirmed
		rec.UpdatedAt = time.Now()
		d.records[itemID] = rec
	}
	delete(d.inflight, itemID)
}

// emit sends an event without blocking the business goroutine.
func (d *Dispatcher) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		// Drop if the UI is not draining; feedback only.
	}
}
