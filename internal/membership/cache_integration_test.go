//go:build integration

package membership_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/membership"
	platformredis "taskhub/internal/platform/redis"
	id "taskhub/pkg/domain"
	"taskhub/pkg/testutil/containers"
)

type countingVerifier struct {
	verifier *membership.StaticVerifier
	calls    atomic.Int64
}

func (c *countingVerifier) IsMember(ctx context.Context, userID id.UserID, orgID id.OrgID) (bool, error) {
	c.calls.Add(1)
	return c.verifier.IsMember(ctx, userID, orgID)
}

func TestCachedVerifier(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redisContainer := containers.NewRedisContainer(t)
	client := &platformredis.Client{Client: redisContainer.Client}

	userID := id.UserID(uuid.New())
	orgID := id.OrgID(uuid.New())

	upstream := &countingVerifier{verifier: membership.NewStaticVerifier()}
	upstream.verifier.Grant(userID, orgID)

	cached := membership.NewCachedVerifier(upstream, client, time.Minute, slog.Default())
	ctx := context.Background()

	member, err := cached.IsMember(ctx, userID, orgID)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, int64(1), upstream.calls.Load())

	// Second lookup is served from cache.
	member, err = cached.IsMember(ctx, userID, orgID)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, int64(1), upstream.calls.Load())

	// A different user misses the cache and hits the verifier.
	otherUser := id.UserID(uuid.New())
	member, err = cached.IsMember(ctx, otherUser, orgID)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, int64(2), upstream.calls.Load())

	// Negative verdicts are cached too.
	_, err = cached.IsMember(ctx, otherUser, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), upstream.calls.Load())
}
