package triagelist

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hqv/mailsweep/internal/engine"
	"github.com/hqv/mailsweep/internal/keys"
	"github.com/hqv/mailsweep/internal/model"
)

func testItems(n int) []model.Item {
	items := make([]model.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.Item{
			ID:         string(rune('a' + i)),
			Subject:    "subject",
			Sender:     "sender@example.com",
			Snippet:    "snippet",
			ReceivedAt: time.Now(),
		})
	}
	return items
}

func TestScrollClampedToQueue(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 80, 10)
	m.items = testItems(3)

	m.SetScrollRows(100)
	if got := m.ScrollRows(); got != 0 {
		// 10 lines fit 4 rows, so 3 items never scroll.
		t.Fatalf("scroll = %d, want 0", got)
	}

	m.SetScrollRows(-5)
	if got := m.ScrollRows(); got != 0 {
		t.Fatalf("negative scroll = %d, want 0", got)
	}
}

func TestActiveItemFollowsEngineIndex(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 80, 10)
	m.items = testItems(3)
	m.SetFrame(engine.RenderState{ActiveIndex: 1})

	item, ok := m.ActiveItem()
	if !ok || item.ID != "b" {
		t.Fatalf("active item = %q ok=%v, want b", item.ID, ok)
	}

	m.SetFrame(engine.RenderState{ActiveIndex: 7})
	if _, ok := m.ActiveItem(); ok {
		t.Fatal("out-of-range active index should have no item")
	}
}

func TestItemsLoadedReplacesQueue(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 80, 10)
	m, _ = m.Update(ItemsLoadedMsg{Items: testItems(2)})

	if len(m.Items()) != 2 {
		t.Fatalf("items = %d, want 2", len(m.Items()))
	}
}

func TestPlaceAtKeepsSegmentsInBounds(t *testing.T) {
	line := placeAt(20, []int{2, 10, 19}, []string{"AA", "BB", "CCCC"})

	if w := lipgloss.Width(line); w > 20 {
		t.Fatalf("line width = %d, want <= 20", w)
	}
	if !strings.Contains(line, "AA") || !strings.Contains(line, "BB") {
		t.Fatalf("line %q missing in-bounds segments", line)
	}
	if strings.Contains(line, "CCCC") {
		t.Fatalf("line %q should drop the segment past the edge", line)
	}
}

func TestPlaceAtPushesOverlappingSegments(t *testing.T) {
	line := placeAt(40, []int{5, 5}, []string{"AAAA", "BBBB"})

	ai := strings.Index(line, "AAAA")
	bi := strings.Index(line, "BBBB")
	if ai < 0 || bi < 0 || bi < ai+4 {
		t.Fatalf("line %q: overlapping segments not pushed apart", line)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello w…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 8); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
}

func TestRelativeTime(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{2 * time.Minute, "2m ago"},
		{3 * time.Hour, "3h ago"},
		{48 * time.Hour, "2d ago"},
		{15 * 24 * time.Hour, "2w ago"},
	}
	for _, tc := range cases {
		if got := relativeTime(time.Now().Add(-tc.age)); got != tc.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tc.age, got, tc.want)
		}
	}
	if got := relativeTime(time.Time{}); got != "" {
		t.Errorf("relativeTime(zero) = %q, want empty", got)
	}
}
