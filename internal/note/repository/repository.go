package repository

import (
	"context"
	"errors"

	"github.com/coscribe/coscribe/internal/note"
)

var (
	ErrNotFound = errors.New("note not found")
)

// Repository provides note persistence. Implementations must apply each
// mutation atomically per note: ApplyEdit in particular captures the prior
// body and overwrites the current one as one operation, so history never
// records a state that did not exist.
type Repository interface {
	Create(ctx context.Context, n *note.Note) (string, error)
	Get(ctx context.Context, id string) (*note.Note, error)
	// ListForUser returns notes the user owns or appears in the
	// permission list of.
	ListForUser(ctx context.Context, userID string) ([]*note.Note, error)
	GetByShareToken(ctx context.Context, token string) (*note.Note, error)
	// ApplyEdit pushes the current body onto history (cap 5, oldest
	// evicted), then sets title/content and refreshes updatedAt.
	ApplyEdit(ctx context.Context, id, title, content, editorID string) (*note.Note, error)
	SetPermissions(ctx context.Context, id string, perms []note.Permission) (*note.Note, error)
	SetShare(ctx context.Context, id string, shared bool, token string, perm note.SharePermission) (*note.Note, error)
	Delete(ctx context.Context, id string) error
}
