package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores presence as one hash per note under
// "presence:<noteID>" (field = session id, value = user id). The hash TTL
// is refreshed on every join so abandoned notes age out even if a leave
// was lost.
type RedisRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-based presence repository. Prefix may
// be empty.
func NewRedisRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisRepository {
	if prefix == "" {
		prefix = "presence:"
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &RedisRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepository) key(noteID string) string {
	return r.prefix + noteID
}

func (r *RedisRepository) Join(ctx context.Context, noteID, sessionID, userID string) error {
	k := r.key(noteID)
	if err := r.client.HSet(ctx, k, sessionID, userID).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, k, r.ttl).Err()
}

func (r *RedisRepository) Leave(ctx context.Context, noteID, sessionID string) error {
	return r.client.HDel(ctx, r.key(noteID), sessionID).Err()
}

func (r *RedisRepository) List(ctx context.Context, noteID string) ([]Entry, error) {
	m, err := r.client.HGetAll(ctx, r.key(noteID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Entry, 0, len(m))
	for sid, uid := range m {
		out = append(out, Entry{SessionID: sid, UserID: uid})
	}
	return out, nil
}
