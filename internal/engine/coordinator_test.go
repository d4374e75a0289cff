package engine

import "testing"

func TestCoordinatorAdvanceClamps(t *testing.T) {
	c := NewCoordinator(76)

	c.Advance(3)
	c.Advance(3)
	if c.ActiveIndex() != 2 {
		t.Fatalf("expected index 2, got %d", c.ActiveIndex())
	}

	// Already at the last item.
	c.Advance(3)
	if c.ActiveIndex() != 2 {
		t.Fatalf("advance past end moved index to %d", c.ActiveIndex())
	}
}

func TestCoordinatorScrollBackRetreats(t *testing.T) {
	c := NewCoordinator(76)
	c.Advance(5)
	c.Advance(5)

	// More than 60% of one row height in a single update.
	if !c.ObserveScroll(-46) {
		t.Fatal("expected retreat on backward scroll past threshold")
	}
	if c.ActiveIndex() != 1 {
		t.Fatalf("expected index 1 after retreat, got %d", c.ActiveIndex())
	}
}

func TestCoordinatorScrollBackFloorsAtZero(t *testing.T) {
	c := NewCoordinator(76)

	c.ObserveScroll(-100)
	c.ObserveScroll(-200)
	if c.ActiveIndex() != 0 {
		t.Fatalf("expected index floored at 0, got %d", c.ActiveIndex())
	}
}

func TestCoordinatorForwardScrollOnlyRebases(t *testing.T) {
	c := NewCoordinator(76)
	c.Advance(5)

	// Forward scroll past the threshold never advances the index;
	// only a completed triage action does.
	if c.ObserveScroll(100) {
		t.Fatal("forward scroll reported a retreat")
	}
	if c.ActiveIndex() != 1 {
		t.Fatalf("forward scroll changed index to %d", c.ActiveIndex())
	}

	// The baseline rebased: scrolling back from here by just under the
	// threshold must not retreat.
	if c.ObserveScroll(60) {
		t.Fatal("sub-threshold scroll back retreated")
	}
	if c.ActiveIndex() != 1 {
		t.Fatalf("index changed to %d", c.ActiveIndex())
	}
}

func TestCoordinatorSmallScrollsBelowThreshold(t *testing.T) {
	c := NewCoordinator(76)
	c.Advance(5)

	if c.ObserveScroll(-40) {
		t.Fatal("scroll below threshold retreated")
	}
	if c.ActiveIndex() != 1 {
		t.Fatalf("expected index unchanged, got %d", c.ActiveIndex())
	}
}

func TestCoordinatorReset(t *testing.T) {
	c := NewCoordinator(76)
	c.Advance(5)
	c.Advance(5)

	c.Reset(0)
	if c.ActiveIndex() != 0 {
		t.Fatalf("expected index 0 after reset, got %d", c.ActiveIndex())
	}
}

func TestCoordinatorClamp(t *testing.T) {
	c := NewCoordinator(76)
	c.Advance(10)
	c.Advance(10)
	c.Advance(10)

	c.Clamp(2)
	if c.ActiveIndex() != 1 {
		t.Fatalf("expected clamp to 1, got %d", c.ActiveIndex())
	}

	c.Clamp(0)
	if c.ActiveIndex() != 0 {
		t.Fatalf("expected clamp to 0 on empty list, got %d", c.ActiveIndex())
	}
}
