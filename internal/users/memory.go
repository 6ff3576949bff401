package users

import (
	"context"
	"sync"
	"time"

	"github.com/coscribe/coscribe/internal/models"
)

// MemoryUserRepository is a map-backed repository for unit tests and
// development runs without MongoDB.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{bySub: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.bySub[u.Sub]; ok {
		existing.Email = u.Email
		existing.Name = u.Name
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.bySub[u.Sub] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.bySub[sub]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.bySub {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
