// Package presence tracks which principals currently have a note open on
// the live channel. It is advisory data fed by hub join/leave transitions;
// a lost update only means a stale collaborator list, never a correctness
// problem for edits.
package presence

import "context"

// Entry is one connected session inside a note's interest group.
type Entry struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// Repository provides presence persistence operations
type Repository interface {
	Join(ctx context.Context, noteID, sessionID, userID string) error
	Leave(ctx context.Context, noteID, sessionID string) error
	List(ctx context.Context, noteID string) ([]Entry, error)
}

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

func (s *Service) Join(ctx context.Context, noteID, sessionID, userID string) error {
	return s.repo.Join(ctx, noteID, sessionID, userID)
}

func (s *Service) Leave(ctx context.Context, noteID, sessionID string) error {
	return s.repo.Leave(ctx, noteID, sessionID)
}

// Collaborators returns the distinct principal ids currently connected to
// the note. Anonymous sessions (no user id) are not listed.
func (s *Service) Collaborators(ctx context.Context, noteID string) ([]string, error) {
	entries, err := s.repo.List(ctx, noteID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.UserID == "" || seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		out = append(out, e.UserID)
	}
	return out, nil
}
