package reconcile

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coscribe/coscribe/internal/hub"
)

func TestDebouncerCoalescesTriggers(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var fired int32

	for i := 0; i < 10; i++ {
		d.Trigger(func() { atomic.AddInt32(&fired, 1) })
		time.Sleep(5 * time.Millisecond) // keep re-triggering inside the quiet period
	}
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired), "rapid triggers must coalesce into one call")
}

func TestDebouncerFiresAfterQuietPeriod(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	done := make(chan struct{})
	d.Trigger(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var fired int32
	d.Trigger(func() { atomic.AddInt32(&fired, 1) })
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestDebouncerFlushRunsPendingOnce(t *testing.T) {
	d := NewDebouncer(time.Minute)
	var fired int32
	d.Trigger(func() { atomic.AddInt32(&fired, 1) })
	d.Flush(func() { atomic.AddInt32(&fired, 1) })
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))

	// nothing pending: flush is a no-op
	d.Flush(func() { atomic.AddInt32(&fired, 1) })
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestTaskCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	task := Schedule(20*time.Millisecond, func() { fired <- struct{}{} })
	require.True(t, task.Cancel())
	select {
	case <-fired:
		t.Fatal("cancelled task fired")
	case <-time.After(60 * time.Millisecond):
	}
	var nilTask *Task
	require.False(t, nilTask.Cancel())
}

func TestEditorFlow(t *testing.T) {
	var mu sync.Mutex
	var broadcasts []State
	var saves []State

	e := NewEditor("u1", "n1", State{}, 30*time.Millisecond,
		func(noteID, title, content string) {
			mu.Lock()
			broadcasts = append(broadcasts, State{title, content})
			mu.Unlock()
		},
		func(noteID, title, content string) {
			mu.Lock()
			saves = append(saves, State{title, content})
			mu.Unlock()
		})

	// three keystrokes inside the quiet period
	e.LocalEdit("T", "a")
	e.LocalEdit("T", "ab")
	e.LocalEdit("T", "abc")

	mu.Lock()
	require.Len(t, broadcasts, 3, "every keystroke broadcasts immediately")
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []State{{"T", "abc"}}, saves, "only the final state is persisted")
	mu.Unlock()

	// remote event from another editor overwrites local state
	e.RemoteEvent(hub.Event{NoteID: "n1", Title: "R", Content: "remote", UserID: "u2"})
	require.Equal(t, State{Title: "R", Content: "remote"}, e.State())

	// self echo ignored
	e.RemoteEvent(hub.Event{NoteID: "n1", Title: "X", Content: "echo", UserID: "u1"})
	require.Equal(t, State{Title: "R", Content: "remote"}, e.State())
}

func TestEditorCloseFlushesPendingSave(t *testing.T) {
	var mu sync.Mutex
	var saves []State

	e := NewEditor("u1", "n1", State{}, time.Minute,
		func(noteID, title, content string) {},
		func(noteID, title, content string) {
			mu.Lock()
			saves = append(saves, State{title, content})
			mu.Unlock()
		})

	e.LocalEdit("T", "unsaved")
	e.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []State{{"T", "unsaved"}}, saves)
}
