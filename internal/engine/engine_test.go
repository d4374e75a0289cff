package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hqv/mailsweep/internal/model"
)

// fakeCollab is a controllable Collaborators implementation.
type fakeCollab struct {
	mu sync.Mutex

	triage      []string
	triageErr   error
	triageBlock chan struct{}

	resolved     []string
	resolveID    string
	resolveErr   error
	unsubs       []string
	unsubOutcome UnsubscribeOutcome
	unsubErr     error

	started      []string
	startCtxErrs []error
	stopped      []string
	transcript   string
	startErr     error
}

func (f *fakeCollab) SubmitTriage(ctx context.Context, itemID string, action model.TriageAction) error {
	if f.triageBlock != nil {
		<-f.triageBlock
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triage = append(f.triage, fmt.Sprintf("%s:%s", itemID, action))
	return f.triageErr
}

func (f *fakeCollab) ResolveSubscription(ctx context.Context, sender string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, sender)
	return f.resolveID, f.resolveErr
}

func (f *fakeCollab) Unsubscribe(ctx context.Context, subscriptionID string) (UnsubscribeOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubs = append(f.unsubs, subscriptionID)
	return f.unsubOutcome, f.unsubErr
}

func (f *fakeCollab) StartRecording(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, itemID)
	f.startCtxErrs = append(f.startCtxErrs, ctx.Err())
	return f.startErr
}

func (f *fakeCollab) StopRecording(ctx context.Context, itemID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, itemID)
	return f.transcript, nil
}

func (f *fakeCollab) triageCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.triage))
	copy(out, f.triage)
	return out
}

func (f *fakeCollab) startedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeCollab) startCtxErr(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCtxErrs[i]
}

func (f *fakeCollab) stoppedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stopped)
}

func testEngineConfig() model.EngineConfig {
	return model.EngineConfig{
		Targets:      model.DefaultTargets(),
		RowHeight:    76,
		HeaderOffset: 52,
		TopPadding:   8,
	}
}

func newTestEngine(t *testing.T, collab Collaborators) *Engine {
	t.Helper()
	e := New(testEngineConfig(), collab)
	e.Start()
	t.Cleanup(e.Stop)
	return e
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// drainEvents consumes engine events until one matches, or fails the
// test at the deadline.
func drainEvents(t *testing.T, e *Engine, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-e.Events():
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("expected event not received")
			return Event{}
		}
	}
}

// Scenario A: a drag from rest onto the done target dispatches the
// bound action exactly once and advances the active row by one.
func TestDragToDoneDispatchesOnceAndAdvances(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	// From rest at the row's bottom edge up to the row center, where
	// the done target sits.
	e.PointerMove(0, -20, now)
	e.PointerMove(0, -38, now)

	waitFor(t, func() bool { return len(collab.triageCalls()) == 1 })
	if got := collab.triageCalls()[0]; got != "a:done" {
		t.Fatalf("dispatched %q, want a:done", got)
	}
	if e.ActiveIndex() != 1 {
		t.Fatalf("active index = %d, want 1", e.ActiveIndex())
	}

	// Evaluation runs on every sample; holding still must not
	// dispatch again.
	for i := 0; i < 20; i++ {
		e.PointerMove(0, -38, now)
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 1 {
		t.Fatalf("got %d dispatches, want exactly 1", n)
	}
}

// Scenario B: after a trigger fires the marker snaps back over the
// done target; no second dispatch occurs until the pointer physically
// leaves the zone it landed in.
func TestSnapBackDoesNotCascade(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	// Drag from rest to the reply target, skirting the done zone.
	e.PointerMove(20, -10, now)
	e.PointerMove(40, -20, now)
	e.PointerMove(60, -30, now)
	e.PointerMove(80, -38, now)

	waitFor(t, func() bool { return len(collab.triageCalls()) == 1 })
	if got := collab.triageCalls()[0]; got != "a:reply_needed" {
		t.Fatalf("dispatched %q, want a:reply_needed", got)
	}

	// The marker re-centered to offset 0, directly over done. The
	// zone is occupied but must not fire.
	frame := e.Frame()
	if frame.ActiveTarget != "done" {
		t.Fatalf("expected marker parked over done, got %q", frame.ActiveTarget)
	}
	for i := 0; i < 20; i++ {
		e.PointerMove(80, -38, now)
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 1 {
		t.Fatalf("snap-back caused %d dispatches, want 1", n)
	}
}

// An item already recorded never produces a second dispatch, whatever
// the pointer does afterwards.
func TestRecordedItemNeverRedispatches(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)
	waitFor(t, func() bool { return len(collab.triageCalls()) == 1 })

	// Leave every zone (clears needsRelease), then re-enter done.
	e.PointerMove(0, -38, now) // re-anchor after snap-back
	e.PointerMove(0, 0, now)   // back to rest level, outside all zones
	e.PointerMove(0, -38, now) // over done again

	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 1 {
		t.Fatalf("re-entry on a recorded item dispatched %d times, want 1", n)
	}
}

// Enter, exit, and re-enter the done zone: exactly two dispatches, one
// per item as the active row advances.
func TestEnterExitReenterDispatchesTwice(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)
	waitFor(t, func() bool { return len(collab.triageCalls()) == 1 })

	// The row advanced; done is now anchored a full row lower. The
	// marker at the old row center is outside every zone, which
	// re-arms the gate.
	e.PointerMove(0, -38, now) // re-anchor after snap-back
	e.PointerMove(0, 38, now)  // down one row, onto done for item b

	waitFor(t, func() bool { return len(collab.triageCalls()) == 2 })
	calls := collab.triageCalls()
	if calls[0] != "a:done" || calls[1] != "b:done" {
		t.Fatalf("dispatches = %v, want [a:done b:done]", calls)
	}
}

// Scenario C: the unsubscribe target on an ineligible item is a silent
// no-op with no state mutation.
func TestIneligibleUnsubscribeIsSilentNoop(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a", Sender: "news@example.com", EligibleUnsubscribe: false}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(-25, -10, now)
	e.PointerMove(-50, -20, now)
	e.PointerMove(-75, -30, now)
	e.PointerMove(-100, -38, now)

	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 0 {
		t.Fatalf("ineligible unsubscribe dispatched %d times", n)
	}
	if len(collab.resolved) != 0 || len(collab.unsubs) != 0 {
		t.Fatal("unsubscribe collaborator was called for an ineligible item")
	}
	if e.ActiveIndex() != 0 {
		t.Fatalf("active index mutated to %d", e.ActiveIndex())
	}
	if n := len(e.Frame().Statuses); n != 0 {
		t.Fatalf("expected no triage records, got %d", n)
	}
}

// Eligible unsubscribe resolves the subscription by sender, calls the
// collaborator, and performs the categorize-done path exactly once.
func TestEligibleUnsubscribeAlsoCategorizesDone(t *testing.T) {
	collab := &fakeCollab{resolveID: "sub-1", unsubOutcome: UnsubscribeCompleted}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{
		{ID: "a", Sender: "news@example.com", EligibleUnsubscribe: true},
		{ID: "b"},
	})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(-25, -10, now)
	e.PointerMove(-50, -20, now)
	e.PointerMove(-75, -30, now)
	e.PointerMove(-100, -38, now)

	ev := drainEvents(t, e, func(ev Event) bool { return ev.Kind == EventTriageConfirmed })
	if ev.Action != model.ActionUnsubscribe || ev.Outcome != UnsubscribeCompleted {
		t.Fatalf("unexpected event %+v", ev)
	}

	collab.mu.Lock()
	defer collab.mu.Unlock()
	if len(collab.resolved) != 1 || collab.resolved[0] != "news@example.com" {
		t.Fatalf("resolved senders = %v", collab.resolved)
	}
	if len(collab.unsubs) != 1 || collab.unsubs[0] != "sub-1" {
		t.Fatalf("unsubscribe calls = %v", collab.unsubs)
	}
	if len(collab.triage) != 1 || collab.triage[0] != "a:done" {
		t.Fatalf("categorize-done path ran %v, want exactly [a:done]", collab.triage)
	}
	if e.ActiveIndex() != 1 {
		t.Fatalf("active index = %d, want 1", e.ActiveIndex())
	}
}

// Scenario D: reaching the mic target starts capture without locking
// the gate or advancing the row.
func TestMicTargetParksAndRecords(t *testing.T) {
	collab := &fakeCollab{transcript: "call them back tomorrow"}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	// Slide along the rest level, below every activation zone, then
	// rise onto the mic.
	e.PointerMove(80, 0, now)
	e.PointerMove(160, 0, now)
	e.PointerMove(160, -20, now)

	waitFor(t, func() bool { return collab.startedCalls() == 1 })
	if e.ActiveIndex() != 0 {
		t.Fatalf("recording advanced the row to %d", e.ActiveIndex())
	}
	if !e.Recording() {
		t.Fatal("expected recording sub-mode active")
	}
	if n := len(collab.triageCalls()); n != 0 {
		t.Fatalf("recording dispatched %d triage calls", n)
	}

	// The gate never locked: the pointer can wander without
	// re-triggering anything.
	e.PointerMove(0, 0, now)
	e.PointerMove(0, -38, now)
	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 0 {
		t.Fatalf("leaving the mic while recording dispatched %d calls", n)
	}

	// Release while parked stops capture instead of the normal
	// release handling.
	e.PointerUp(now)
	ev := drainEvents(t, e, func(ev Event) bool { return ev.Kind == EventRecordingStopped })
	if ev.Transcript != "call them back tomorrow" {
		t.Fatalf("transcript = %q", ev.Transcript)
	}
	waitFor(t, func() bool { return !e.Recording() })
	if collab.stoppedCalls() != 1 {
		t.Fatalf("stop calls = %d, want 1", collab.stoppedCalls())
	}
}

// Scenario E: while a dispatch for an item is still pending, a second
// physical approach produces no second submission.
func TestPendingDispatchBlocksSecondApproach(t *testing.T) {
	collab := &fakeCollab{triageBlock: make(chan struct{})}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)
	e.PointerUp(now)

	// The worker is stuck inside the collaborator call. Scroll back to
	// re-approach item a.
	e.SetScroll(-46)
	if e.ActiveIndex() != 0 {
		t.Fatalf("active index = %d after scroll back, want 0", e.ActiveIndex())
	}

	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)
	e.PointerUp(now)

	close(collab.triageBlock)
	waitFor(t, func() bool { return len(collab.triageCalls()) >= 1 })
	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 1 {
		t.Fatalf("submitTriage called %d times, want exactly 1", n)
	}
}

// Scenario F: a backward scroll past 60% of a row height retreats the
// active row and clears the gate flags.
func TestScrollBackRetreatsActiveRow(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)
	waitFor(t, func() bool { return e.ActiveIndex() == 1 })
	e.PointerUp(now)

	e.SetScroll(-46)
	if e.ActiveIndex() != 0 {
		t.Fatalf("active index = %d, want 0", e.ActiveIndex())
	}
}

// A transient collaborator failure rolls the optimistic mark back and
// leaves the item triageable again.
func TestFailedDispatchRollsBack(t *testing.T) {
	collab := &fakeCollab{triageErr: errors.New("network down")}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)

	ev := drainEvents(t, e, func(ev Event) bool { return ev.Kind == EventTriageFailed })
	if ev.ItemID != "a" {
		t.Fatalf("failure event for %q, want a", ev.ItemID)
	}

	waitFor(t, func() bool { return len(e.Frame().Statuses) == 0 })

	// The mark was reverted; a fresh approach dispatches again.
	collab.mu.Lock()
	collab.triageErr = nil
	collab.mu.Unlock()

	e.PointerUp(now)
	e.SetScroll(-46)
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)

	waitFor(t, func() bool { return len(collab.triageCalls()) == 2 })
}

// A trigger whose item vanished between evaluations is silently
// voided.
func TestStaleItemVoidsTrigger(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.SetItems(nil)
	e.PointerMove(0, -38, now)

	time.Sleep(20 * time.Millisecond)
	if n := len(collab.triageCalls()); n != 0 {
		t.Fatalf("stale item dispatched %d times", n)
	}
}

// A recording is cancelled when its item disappears from the list.
func TestRecordingCancelledWhenItemVanishes(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(80, 0, now)
	e.PointerMove(160, 0, now)
	e.PointerMove(160, -20, now)
	waitFor(t, func() bool { return e.Recording() })

	e.SetItems(nil)
	waitFor(t, func() bool { return !e.Recording() })
	if collab.stoppedCalls() != 0 {
		t.Fatal("vanished item should cancel, not stop, the capture")
	}
}

// A session reset returns the engine to its initial state.
func TestSessionResetClearsState(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}, {ID: "b"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	e.PointerMove(0, -38, now)
	waitFor(t, func() bool { return e.ActiveIndex() == 1 })
	e.PointerUp(now)

	e.Reset()
	if e.ActiveIndex() != 0 {
		t.Fatalf("active index = %d after reset, want 0", e.ActiveIndex())
	}
	if n := len(e.Frame().Statuses); n != 0 {
		t.Fatalf("expected no records after reset, got %d", n)
	}
}

// The read surface reports proximity feedback while approaching a
// target.
func TestFrameExposesProximityFeedback(t *testing.T) {
	collab := &fakeCollab{}
	e := newTestEngine(t, collab)
	e.SetItems([]Item{{ID: "a"}})

	now := time.Now()
	e.PointerDown(0, 0, now)
	// Rest sits 38 below the row center: inside done's proximity
	// radius but outside its activation radius.
	frame := e.Frame()
	if frame.ActiveTarget != "" {
		t.Fatalf("resting marker activated %q", frame.ActiveTarget)
	}
	var done TargetView
	for _, tv := range frame.Targets {
		if tv.ID == "done" {
			done = tv
		}
	}
	if done.Proximity <= 0 || done.Proximity >= 1 {
		t.Fatalf("expected partial proximity at rest, got %v", done.Proximity)
	}
}
