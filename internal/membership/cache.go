package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "taskhub/internal/platform/redis"
	id "taskhub/pkg/domain"
)

// CachedVerifier fronts a Verifier with a Redis cache so the gate does not
// hit the membership service on every mutation. Cache trouble is never
// allowed to decide authorization: on any cache error the verdict comes from
// the underlying verifier.
type CachedVerifier struct {
	next   Verifier
	redis  *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedVerifier wraps next with a Redis cache. A nil redis client (redis
// not configured) disables caching and delegates straight through.
func NewCachedVerifier(next Verifier, redis *platformredis.Client, ttl time.Duration, logger *slog.Logger) *CachedVerifier {
	return &CachedVerifier{next: next, redis: redis, ttl: ttl, logger: logger}
}

func (v *CachedVerifier) IsMember(ctx context.Context, userID id.UserID, orgID id.OrgID) (bool, error) {
	if v.redis == nil {
		return v.next.IsMember(ctx, userID, orgID)
	}

	key := cacheKey(userID, orgID)
	if cached, err := v.redis.Get(ctx, key).Result(); err == nil {
		return cached == "1", nil
	} else if !errors.Is(err, redis.Nil) {
		v.logger.WarnContext(ctx, "membership cache read failed",
			"org_id", orgID,
			"error", err,
		)
	}

	member, err := v.next.IsMember(ctx, userID, orgID)
	if err != nil {
		return false, err
	}

	value := "0"
	if member {
		value = "1"
	}
	if err := v.redis.Set(ctx, key, value, v.ttl).Err(); err != nil {
		v.logger.WarnContext(ctx, "membership cache write failed",
			"org_id", orgID,
			"error", err,
		)
	}
	return member, nil
}

func cacheKey(userID id.UserID, orgID id.OrgID) string {
	return fmt.Sprintf("membership:%s:%s", orgID, userID)
}
