// Package reconcile implements the client-side policy for merging local
// edits, remote broadcasts and debounced durable saves. It is transport and
// rendering agnostic so the rules stay independently testable.
package reconcile

import "github.com/coscribe/coscribe/internal/hub"

// State is the editor-visible title/content pair.
type State struct {
	Title   string
	Content string
}

// Reconcile merges the current local state with an optional remote broadcast
// and an optional pending (not yet confirmed) save.
//
// Rules, in order:
//   - a remote event for the open note from a different principal wins
//     unconditionally (last-writer-wins at the display layer, no merge);
//   - self-echo (same principal id) is ignored;
//   - a pending save never overrides newer state, local or remote; it is
//     only what the debounced writer will persist.
//
// Concurrent saves from two editors can still overwrite each other in the
// store; that is an accepted limitation, not something this function hides.
func Reconcile(local State, remote *hub.Event, pending *State, selfID, openNoteID string) State {
	if remote == nil {
		return local
	}
	if remote.NoteID != openNoteID || remote.UserID == selfID {
		return local
	}
	return State{Title: remote.Title, Content: remote.Content}
}
