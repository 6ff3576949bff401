package presence

import (
	"context"
	"sync"
)

// MemoryRepository keeps presence in process memory. Suitable for
// single-node deployments and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[string]map[string]string // noteID -> sessionID -> userID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[string]map[string]string)}
}

func (r *MemoryRepository) Join(ctx context.Context, noteID, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.notes[noteID]
	if !ok {
		m = make(map[string]string)
		r.notes[noteID] = m
	}
	m[sessionID] = userID
	return nil
}

func (r *MemoryRepository) Leave(ctx context.Context, noteID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.notes[noteID]; ok {
		delete(m, sessionID)
		if len(m) == 0 {
			delete(r.notes, noteID)
		}
	}
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, noteID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.notes[noteID]
	out := make([]Entry, 0, len(m))
	for sid, uid := range m {
		out = append(out, Entry{SessionID: sid, UserID: uid})
	}
	return out, nil
}
