package session_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/session"
)

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	m := session.NewManager(20)

	for i := 1; i <= 5; i++ {
		turn := m.Append("s1", session.Turn{UserText: fmt.Sprintf("q%d", i)})
		if turn.ID != int64(i) {
			t.Errorf("turn %d got ID %d", i, turn.ID)
		}
	}

	// IDs are per session, not global.
	if turn := m.Append("s2", session.Turn{UserText: "other"}); turn.ID != 1 {
		t.Errorf("new session should start at ID 1, got %d", turn.ID)
	}
}

func TestRecentChronologicalOrder(t *testing.T) {
	m := session.NewManager(20)
	for i := 1; i <= 4; i++ {
		m.Append("s1", session.Turn{UserText: fmt.Sprintf("q%d", i)})
	}

	got := m.Recent("s1", 3)
	if len(got) != 3 {
		t.Fatalf("Recent returned %d turns, want 3", len(got))
	}
	want := []string{"q2", "q3", "q4"}
	for i, w := range want {
		if got[i].UserText != w {
			t.Errorf("Recent[%d] = %q, want %q", i, got[i].UserText, w)
		}
	}
}

func TestRecentUnknownSession(t *testing.T) {
	m := session.NewManager(20)
	if got := m.Recent("missing", 5); got != nil {
		t.Errorf("Recent on unknown session = %v, want nil", got)
	}
}

func TestFIFOCapEvictsOldest(t *testing.T) {
	m := session.NewManager(3)
	for i := 1; i <= 5; i++ {
		m.Append("s1", session.Turn{UserText: fmt.Sprintf("q%d", i)})
	}

	got := m.Recent("s1", 10)
	if len(got) != 3 {
		t.Fatalf("capped session holds %d turns, want 3", len(got))
	}
	if got[0].UserText != "q3" || got[2].UserText != "q5" {
		t.Errorf("cap should keep the newest turns, got %q..%q", got[0].UserText, got[2].UserText)
	}
	// Monotonic IDs survive eviction.
	if got[2].ID != 5 {
		t.Errorf("newest turn ID = %d, want 5", got[2].ID)
	}
}

func TestEvictIdle(t *testing.T) {
	m := session.NewManager(20)
	m.Append("s1", session.Turn{UserText: "q"})
	m.Append("s2", session.Turn{UserText: "q"})

	if n := m.EvictIdle(time.Hour); n != 0 {
		t.Errorf("EvictIdle(1h) evicted %d fresh sessions", n)
	}
	if n := m.EvictIdle(-time.Millisecond); n != 2 {
		t.Errorf("EvictIdle with past cutoff = %d, want 2", n)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after eviction, want 0", m.Len())
	}
}

func TestConcurrentAppends(t *testing.T) {
	m := session.NewManager(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				m.Append("shared", session.Turn{Intent: nlu.IntentStatusLookup})
			}
		}()
	}
	wg.Wait()

	got := m.Recent("shared", 1000)
	if len(got) != 500 {
		t.Fatalf("got %d turns, want 500", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Fatalf("IDs not strictly increasing at %d: %d then %d", i, got[i-1].ID, got[i].ID)
		}
	}
}
