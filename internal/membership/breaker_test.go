package membership

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
)

type flakyVerifier struct {
	err   error
	calls atomic.Int64
}

func (f *flakyVerifier) IsMember(context.Context, id.UserID, id.OrgID) (bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func openBreaker(t *testing.T, verifier *BreakerVerifier, upstream *flakyVerifier) {
	t.Helper()
	upstream.err = errors.New("connection refused")
	for i := 0; i < 5; i++ {
		_, err := verifier.IsMember(context.Background(), id.UserID(uuid.New()), id.OrgID(uuid.New()))
		require.Error(t, err)
	}
}

func TestBreakerVerifierOpensAfterRepeatedErrors(t *testing.T) {
	upstream := &flakyVerifier{err: errors.New("connection refused")}
	verifier := NewBreakerVerifier(upstream, slog.Default(), time.Minute)

	var err error
	for i := 0; i < 5; i++ {
		_, err = verifier.IsMember(context.Background(), id.UserID(uuid.New()), id.OrgID(uuid.New()))
		require.Error(t, err)
	}

	// Fifth failure opened the breaker; the error now carries the
	// unavailable code.
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestBreakerVerifierShedsLoadWhileOpen(t *testing.T) {
	upstream := &flakyVerifier{}
	verifier := NewBreakerVerifier(upstream, slog.Default(), time.Minute)
	openBreaker(t, verifier, upstream)
	attempts := upstream.calls.Load()

	// While open and inside the retry interval, requests are rejected
	// without reaching the upstream.
	for i := 0; i < 3; i++ {
		_, err := verifier.IsMember(context.Background(), id.UserID(uuid.New()), id.OrgID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	}
	assert.Equal(t, attempts, upstream.calls.Load(), "open breaker must not call the upstream")
}

func TestBreakerVerifierRecoversAfterSuccesses(t *testing.T) {
	upstream := &flakyVerifier{}
	// Zero retry interval: every request while open is a trial.
	verifier := NewBreakerVerifier(upstream, slog.Default(), 0)
	openBreaker(t, verifier, upstream)

	upstream.err = nil
	for i := 0; i < 2; i++ {
		member, err := verifier.IsMember(context.Background(), id.UserID(uuid.New()), id.OrgID(uuid.New()))
		require.NoError(t, err)
		assert.True(t, member)
	}
}

func TestBreakerVerifierPassesThroughWhileClosed(t *testing.T) {
	verifier := NewBreakerVerifier(&flakyVerifier{}, slog.Default(), time.Minute)

	member, err := verifier.IsMember(context.Background(), id.UserID(uuid.New()), id.OrgID(uuid.New()))
	require.NoError(t, err)
	assert.True(t, member)
}
