package reconcile

import (
	"sync"
	"time"

	"github.com/coscribe/coscribe/internal/hub"
)

// BroadcastFunc pushes a live edit onto the hub path. Called on every local
// change, never debounced.
type BroadcastFunc func(noteID, title, content string)

// SaveFunc issues the authoritative persisted write. Called only after the
// quiet period.
type SaveFunc func(noteID, title, content string)

// Editor ties the reconciliation rules together for one open note:
// optimistic local state, immediate broadcast, debounced durable save, and
// unconditional apply of remote events from other editors.
type Editor struct {
	mu        sync.Mutex
	selfID    string
	noteID    string
	state     State
	debounce  *Debouncer
	broadcast BroadcastFunc
	save      SaveFunc
}

func NewEditor(selfID, noteID string, initial State, saveDelay time.Duration, broadcast BroadcastFunc, save SaveFunc) *Editor {
	return &Editor{
		selfID:    selfID,
		noteID:    noteID,
		state:     initial,
		debounce:  NewDebouncer(saveDelay),
		broadcast: broadcast,
		save:      save,
	}
}

// State returns the current editor-visible state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LocalEdit applies a keystroke-level change: the local state updates
// immediately, the change is broadcast right away, and the durable save is
// (re)scheduled for after the quiet period.
func (e *Editor) LocalEdit(title, content string) {
	e.mu.Lock()
	e.state = State{Title: title, Content: content}
	noteID := e.noteID
	e.mu.Unlock()

	e.broadcast(noteID, title, content)
	e.debounce.Trigger(func() {
		e.save(noteID, title, content)
	})
}

// RemoteEvent folds a hub broadcast into the local state per the
// reconciliation rules. The pending save, if any, is left alone: it still
// persists the last local edit.
func (e *Editor) RemoteEvent(ev hub.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Reconcile(e.state, &ev, nil, e.selfID, e.noteID)
}

// Close flushes a pending save (buffered changes must reach the store) and
// stops the debouncer. An already fired save completes on its own.
func (e *Editor) Close() {
	e.mu.Lock()
	noteID, st := e.noteID, e.state
	e.mu.Unlock()
	e.debounce.Flush(func() {
		e.save(noteID, st.Title, st.Content)
	})
}
