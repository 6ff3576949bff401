package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case buf, ok := <-s.Receive():
		require.True(t, ok, "session channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(buf, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func requireNoEvent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case buf, ok := <-s.Receive():
		if ok {
			t.Fatalf("unexpected event delivered: %s", buf)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastFanOutExcludesSender(t *testing.T) {
	ctx := context.Background()
	h := New()

	a := h.Register("a")
	b := h.Register("b")
	h.Join(ctx, "a", "n1", "u1")
	h.Join(ctx, "b", "n1", "u2")

	h.Broadcast("n1", Event{Title: "T", Content: "C", UserID: "u1"}, "a")

	ev := recvEvent(t, b)
	require.Equal(t, EventTypeUpdate, ev.Type)
	require.Equal(t, "n1", ev.NoteID)
	require.Equal(t, "C", ev.Content)
	require.Equal(t, "u1", ev.UserID)

	requireNoEvent(t, a)
}

func TestPerGroupOrdering(t *testing.T) {
	ctx := context.Background()
	h := New()

	h.Register("sender")
	recv := h.Register("recv")
	h.Join(ctx, "sender", "n1", "u1")
	h.Join(ctx, "recv", "n1", "u2")

	const events = 50
	for i := 0; i < events; i++ {
		h.Broadcast("n1", Event{Content: fmt.Sprintf("v%d", i), UserID: "u1"}, "sender")
	}
	for i := 0; i < events; i++ {
		ev := recvEvent(t, recv)
		require.Equal(t, fmt.Sprintf("v%d", i), ev.Content, "events must arrive in ingestion order")
	}
}

func TestGroupIsolation(t *testing.T) {
	ctx := context.Background()
	h := New()

	h.Register("a")
	b := h.Register("b")
	h.Join(ctx, "a", "note-A", "u1")
	h.Join(ctx, "b", "note-B", "u2")

	h.Broadcast("note-A", Event{Content: "only-A", UserID: "u1"}, "a")

	requireNoEvent(t, b)
}

func TestJoinSwitchesGroup(t *testing.T) {
	ctx := context.Background()
	h := New()

	h.Register("mover")
	h.Register("src")
	h.Register("watch")

	h.Join(ctx, "mover", "n1", "u1")
	h.Join(ctx, "watch", "n1", "u3")
	h.Join(ctx, "src", "n2", "u2")

	// mover switches from n1 to n2: it must stop receiving n1 traffic
	h.Join(ctx, "mover", "n2", "u1")

	h.Broadcast("n2", Event{Content: "for-n2", UserID: "u2"}, "src")
	mover := h.sessionByID(t, "mover")
	ev := recvEvent(t, mover)
	require.Equal(t, "for-n2", ev.Content)

	h.Broadcast("n1", Event{Content: "for-n1", UserID: "u3"}, "watch")
	requireNoEvent(t, mover)
}

// sessionByID is a test helper reaching into the registry.
func (h *Hub) sessionByID(t *testing.T, id string) *Session {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	require.True(t, ok)
	return s
}

func TestUnregisterLeavesGroupAndClosesChannel(t *testing.T) {
	ctx := context.Background()
	h := New()

	gone := h.Register("gone")
	h.Register("stay")
	h.Join(ctx, "gone", "n1", "u1")
	h.Join(ctx, "stay", "n1", "u2")

	h.Unregister(ctx, "gone")
	_, ok := <-gone.Receive()
	require.False(t, ok, "send channel should be closed after unregister")

	// broadcasting afterwards must not deliver to the dead session and
	// must not panic
	h.Broadcast("n1", Event{Content: "after", UserID: "u2"}, "stay")
}

func TestBroadcastWithoutGroupIsDropped(t *testing.T) {
	h := New()
	// nobody joined: best-effort drop, no panic
	h.Broadcast("nowhere", Event{Content: "x", UserID: "u"}, "")
}

func TestConcurrentJoinLeave(t *testing.T) {
	ctx := context.Background()
	h := New()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			h.Register(id)
			note := fmt.Sprintf("n%d", i%4)
			for j := 0; j < 20; j++ {
				h.Join(ctx, id, note, "u")
				h.Broadcast(note, Event{Content: "c", UserID: "u"}, id)
				h.Leave(ctx, id)
			}
			h.Unregister(ctx, id)
		}(i)
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Empty(t, h.sessions)
	require.Empty(t, h.groups)
	require.Empty(t, h.byNote)
}

type fakePresence struct {
	mu     sync.Mutex
	joins  []string
	leaves []string
}

func (f *fakePresence) Join(ctx context.Context, noteID, sessionID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, noteID+"/"+sessionID)
	return nil
}

func (f *fakePresence) Leave(ctx context.Context, noteID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves = append(f.leaves, noteID+"/"+sessionID)
	return nil
}

func TestPresenceNotifications(t *testing.T) {
	ctx := context.Background()
	fp := &fakePresence{}
	h := New(WithPresence(fp))

	h.Register("s1")
	h.Join(ctx, "s1", "n1", "u1")
	h.Join(ctx, "s1", "n2", "u1") // switch: leave n1, join n2
	h.Unregister(ctx, "s1")

	fp.mu.Lock()
	defer fp.mu.Unlock()
	require.Equal(t, []string{"n1/s1", "n2/s1"}, fp.joins)
	require.Equal(t, []string{"n1/s1", "n2/s1"}, fp.leaves)
}
