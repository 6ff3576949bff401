package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coscribe/coscribe/internal/note"
)

// MemoryRepo is an in-memory repository used for unit tests and single-node
// development runs. All mutations happen under one write lock, which gives
// the required per-note atomicity for free.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*note.Note
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*note.Note)}
}

func (m *MemoryRepo) Create(ctx context.Context, n *note.Note) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	m.store[n.ID] = n.Clone()
	return n.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.store[id]; ok {
		return n.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListForUser(ctx context.Context, userID string) ([]*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*note.Note, 0)
	for _, n := range m.store {
		if n.OwnerID == userID {
			out = append(out, n.Clone())
			continue
		}
		for _, p := range n.Permissions {
			if p.UserID == userID {
				out = append(out, n.Clone())
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryRepo) GetByShareToken(ctx context.Context, token string) (*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.store {
		if n.ShareToken != "" && n.ShareToken == token {
			return n.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ApplyEdit(ctx context.Context, id, title, content, editorID string) (*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	n.History = append(n.History, note.HistoryEntry{
		Content:   n.Content,
		UpdatedBy: editorID,
		UpdatedAt: now,
	})
	if len(n.History) > note.HistoryCap {
		n.History = n.History[len(n.History)-note.HistoryCap:]
	}
	n.Title = title
	n.Content = content
	n.UpdatedAt = now
	return n.Clone(), nil
}

func (m *MemoryRepo) SetPermissions(ctx context.Context, id string, perms []note.Permission) (*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	n.Permissions = append([]note.Permission(nil), perms...)
	n.UpdatedAt = time.Now().UTC()
	return n.Clone(), nil
}

func (m *MemoryRepo) SetShare(ctx context.Context, id string, shared bool, token string, perm note.SharePermission) (*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	n.Shared = shared
	n.ShareToken = token
	n.SharePermission = perm
	n.UpdatedAt = time.Now().UTC()
	return n.Clone(), nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
