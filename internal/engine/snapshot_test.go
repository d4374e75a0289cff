package engine

import "testing"

func TestSnapshotCopiesItems(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}}
	snap := NewSnapshot(1, items)

	items[0].ID = "mutated"
	got, ok := snap.At(0)
	if !ok || got.ID != "a" {
		t.Fatalf("snapshot leaked caller mutation: %+v", got)
	}
}

func TestSnapshotAtOutOfRange(t *testing.T) {
	snap := NewSnapshot(1, []Item{{ID: "a"}})

	if _, ok := snap.At(-1); ok {
		t.Fatal("negative index returned an item")
	}
	if _, ok := snap.At(1); ok {
		t.Fatal("index past end returned an item")
	}
}

func TestSnapshotContains(t *testing.T) {
	snap := NewSnapshot(2, []Item{{ID: "a"}, {ID: "b"}})

	if !snap.Contains("b") {
		t.Fatal("expected b present")
	}
	if snap.Contains("c") {
		t.Fatal("unexpected item c")
	}
	if snap.Version() != 2 {
		t.Fatalf("version = %d", snap.Version())
	}
}
