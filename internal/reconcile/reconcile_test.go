package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coscribe/coscribe/internal/hub"
)

func TestReconcileRemoteWins(t *testing.T) {
	local := State{Title: "mine", Content: "local text"}
	remote := &hub.Event{NoteID: "n1", Title: "theirs", Content: "remote text", UserID: "u2"}

	got := Reconcile(local, remote, nil, "u1", "n1")
	require.Equal(t, State{Title: "theirs", Content: "remote text"}, got)
}

func TestReconcileIgnoresSelfEcho(t *testing.T) {
	local := State{Title: "mine", Content: "local text"}
	remote := &hub.Event{NoteID: "n1", Title: "echo", Content: "echo", UserID: "u1"}

	got := Reconcile(local, remote, nil, "u1", "n1")
	require.Equal(t, local, got)
}

func TestReconcileIgnoresOtherNotes(t *testing.T) {
	local := State{Title: "mine", Content: "local text"}
	remote := &hub.Event{NoteID: "other", Title: "x", Content: "y", UserID: "u2"}

	got := Reconcile(local, remote, nil, "u1", "n1")
	require.Equal(t, local, got)
}

func TestReconcileNoRemote(t *testing.T) {
	local := State{Title: "a", Content: "b"}
	require.Equal(t, local, Reconcile(local, nil, nil, "u1", "n1"))
}

func TestReconcilePendingSaveDoesNotOverrideRemote(t *testing.T) {
	local := State{Title: "mine", Content: "local"}
	pending := State{Title: "older", Content: "queued for save"}
	remote := &hub.Event{NoteID: "n1", Title: "theirs", Content: "remote", UserID: "u2"}

	got := Reconcile(local, remote, &pending, "u1", "n1")
	require.Equal(t, State{Title: "theirs", Content: "remote"}, got)
}
