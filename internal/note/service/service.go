package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/coscribe/coscribe/internal/models"
	"github.com/coscribe/coscribe/internal/note"
	"github.com/coscribe/coscribe/internal/note/repository"
	"github.com/coscribe/coscribe/internal/users"
)

var (
	ErrNotFound       = errors.New("note not found")
	ErrForbidden      = errors.New("forbidden")
	ErrSelfShare      = errors.New("cannot share a note with yourself")
	ErrTargetNotFound = errors.New("target user not found")
	ErrInvalidRole    = errors.New("invalid role")
)

// Service enforces access control in front of the note repository and owns
// the per-note mutation locks. Every read or mutation resolves the caller's
// capability first; mutation paths additionally serialize per note so
// concurrent edits cannot interleave their prior-state capture.
type Service struct {
	repo  repository.Repository
	users *users.Service
	locks keyedMutex
}

func New(repo repository.Repository, usersSvc *users.Service) *Service {
	return &Service{repo: repo, users: usersSvc}
}

// List returns all notes the principal owns or is listed on.
func (s *Service) List(ctx context.Context, p models.Principal) ([]*note.Note, error) {
	return s.repo.ListForUser(ctx, p.ID)
}

// Create makes the principal the owner of a fresh note. The owner never
// appears in the permission list.
func (s *Service) Create(ctx context.Context, p models.Principal, title, content string) (*note.Note, error) {
	if title == "" {
		title = note.DefaultTitle
	}
	n := &note.Note{
		Title:           title,
		Content:         content,
		OwnerID:         p.ID,
		OwnerName:       p.Name,
		Permissions:     []note.Permission{},
		SharePermission: note.ShareView,
	}
	if _, err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// Get returns the note when the principal holds at least view capability.
func (s *Service) Get(ctx context.Context, p models.Principal, id string) (*note.Note, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.Evaluate(n, p.ID, "").CanView() {
		return nil, ErrForbidden
	}
	return n, nil
}

// RecordEdit persists a new title/content, pushing the prior body onto the
// bounded history. Requires edit or own capability.
func (s *Service) RecordEdit(ctx context.Context, p models.Principal, id, title, content string) (*note.Note, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.Evaluate(n, p.ID, "").CanEdit() {
		return nil, ErrForbidden
	}
	updated, err := s.repo.ApplyEdit(ctx, id, title, content, p.ID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return updated, nil
}

// Delete removes the note, its permissions and its history. Owner only.
func (s *Service) Delete(ctx context.Context, p models.Principal, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !note.Evaluate(n, p.ID, "").IsOwner() {
		return ErrForbidden
	}
	return s.mapErr(s.repo.Delete(ctx, id))
}

// History returns the bounded prior-state sequence, oldest first. Same
// capability requirement as reading the note.
func (s *Service) History(ctx context.Context, p models.Principal, id string) ([]note.HistoryEntry, error) {
	n, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return n.History, nil
}

// UpsertPermission grants or updates the target's role. Owner only; the
// target is addressed by email and must exist; sharing with yourself (and
// therefore with the owner) is rejected. Idempotent on the role value.
func (s *Service) UpsertPermission(ctx context.Context, p models.Principal, id, targetEmail string, role note.Role) (*note.Note, error) {
	if role != note.RoleViewer && role != note.RoleEditor {
		return nil, ErrInvalidRole
	}
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.Evaluate(n, p.ID, "").IsOwner() {
		return nil, ErrForbidden
	}

	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return nil, fmt.Errorf("lookup permission target: %w", err)
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}
	// the owner holds a higher implicit capability and never enters the
	// permission list
	if target.Sub == p.ID || target.Sub == n.OwnerID {
		return nil, ErrSelfShare
	}

	perms := append([]note.Permission(nil), n.Permissions...)
	found := false
	for i := range perms {
		if perms[i].UserID == target.Sub {
			perms[i].Role = role
			perms[i].UserName = target.Name
			found = true
			break
		}
	}
	if !found {
		perms = append(perms, note.Permission{UserID: target.Sub, UserName: target.Name, Role: role})
	}

	updated, err := s.repo.SetPermissions(ctx, id, perms)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return updated, nil
}

// RemovePermission revokes the target's access. Owner only. Removing an
// absent entry is a no-op, not an error.
func (s *Service) RemovePermission(ctx context.Context, p models.Principal, id, targetID string) (*note.Note, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.Evaluate(n, p.ID, "").IsOwner() {
		return nil, ErrForbidden
	}

	perms := make([]note.Permission, 0, len(n.Permissions))
	for _, perm := range n.Permissions {
		if perm.UserID != targetID {
			perms = append(perms, perm)
		}
	}
	if len(perms) == len(n.Permissions) {
		return n, nil
	}
	updated, err := s.repo.SetPermissions(ctx, id, perms)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return updated, nil
}

// SetShare toggles the public link and its permission. Owner only. The
// token is generated once and survives disabling, so re-enabling restores
// the same link.
func (s *Service) SetShare(ctx context.Context, p models.Principal, id string, shared bool, perm note.SharePermission) (*note.Note, error) {
	if perm != note.ShareView && perm != note.ShareEdit {
		return nil, ErrInvalidRole
	}
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.Evaluate(n, p.ID, "").IsOwner() {
		return nil, ErrForbidden
	}

	token := n.ShareToken
	if shared && token == "" {
		token, err = newShareToken()
		if err != nil {
			return nil, fmt.Errorf("generate share token: %w", err)
		}
	}
	updated, err := s.repo.SetShare(ctx, id, shared, token, perm)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return updated, nil
}

// ResolveShared maps a public token to a restricted projection of the note.
// Unknown tokens and tokens whose note is no longer shared are both
// NotFound, so existence is not leaked to anonymous callers.
func (s *Service) ResolveShared(ctx context.Context, token string) (*note.SharedView, error) {
	n, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, s.mapErr(err)
	}
	if !note.Evaluate(n, "", token).CanView() {
		return nil, ErrNotFound
	}
	return &note.SharedView{
		ID:              n.ID,
		Title:           n.Title,
		Content:         n.Content,
		OwnerName:       n.OwnerName,
		SharePermission: n.SharePermission,
		UpdatedAt:       n.UpdatedAt,
	}, nil
}

func (s *Service) get(ctx context.Context, id string) (*note.Note, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return n, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func newShareToken() (string, error) {
	// 128 bits of entropy; the point of the token is to be unguessable
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// keyedMutex serializes mutations per note id. Entries are refcounted and
// removed on last unlock so the map does not grow with dead ids.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(id string) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()
	e.mu.Lock()
}

func (k *keyedMutex) Unlock(id string) {
	k.mu.Lock()
	e := k.locks[id]
	e.refs--
	if e.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()
	e.mu.Unlock()
}
