package auth

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// Revoker records session ids that were ended by logout before they expired.
//
// Session tokens are self-contained, so clearing the cookie only removes the
// browser's copy. A Revoker lets logout invalidate any other copy as well.
// Implementations must be safe for concurrent use.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// NopRevoker never revokes anything. It is used when no Redis address is
// configured; logout then only clears the cookie.
type NopRevoker struct{}

func (NopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// RedisRevoker keeps a denylist of session ids in Redis. Each entry expires
// together with the token it blocks, so the set never grows past the number
// of live sessions.
type RedisRevoker struct {
	client *redisv9.Client
	now    func() time.Time
}

var _ Revoker = (*RedisRevoker)(nil)

func NewRedisRevoker(client *redisv9.Client) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		// Already expired; the token is rejected without our help.
		return nil
	}
	if err := r.client.Set(ctx, r.key(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: redis revoke session: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: redis check revoked session: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether Redis is reachable. Used by the health endpoint.
func (r *RedisRevoker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRevoker) key(id string) string {
	return "session:revoked:" + id
}
