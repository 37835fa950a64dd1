package membership

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "taskhub/pkg/domain"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/circuit"
)

// BreakerVerifier fronts a Verifier with a circuit breaker so a struggling
// membership service is not hammered by every gated request. While the
// breaker is open, requests are rejected without touching the upstream;
// one trial request per retry interval still goes through so successes can
// close the breaker again. The breaker fails closed: an open breaker means
// the gate rejects.
type BreakerVerifier struct {
	next       Verifier
	breaker    *circuit.Breaker
	logger     *slog.Logger
	retryAfter time.Duration

	mu        sync.Mutex
	lastTrial time.Time
}

// NewBreakerVerifier wraps next with a breaker that opens after five
// consecutive verification errors and closes after two successes. retryAfter
// is the minimum gap between trial requests while open; zero admits every
// request.
func NewBreakerVerifier(next Verifier, logger *slog.Logger, retryAfter time.Duration) *BreakerVerifier {
	return &BreakerVerifier{
		next: next,
		breaker: circuit.New("membership",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(2),
		),
		logger:     logger,
		retryAfter: retryAfter,
	}
}

func (v *BreakerVerifier) IsMember(ctx context.Context, userID id.UserID, orgID id.OrgID) (bool, error) {
	if v.breaker.IsOpen() && !v.admitTrial() {
		return false, dErrors.New(dErrors.CodeUnavailable, "membership verification unavailable")
	}

	member, err := v.next.IsMember(ctx, userID, orgID)
	if err != nil {
		useFallback, change := v.breaker.RecordFailure()
		if change.Opened {
			// The failed attempt that opened the breaker starts the retry
			// clock.
			v.mu.Lock()
			v.lastTrial = time.Now()
			v.mu.Unlock()
			v.logger.ErrorContext(ctx, "membership breaker opened",
				"breaker", v.breaker.Name(),
				"error", err,
			)
		}
		if useFallback {
			return false, dErrors.Wrap(dErrors.CodeUnavailable, "membership verification unavailable", err)
		}
		return false, err
	}

	_, change := v.breaker.RecordSuccess()
	if change.Closed {
		v.logger.InfoContext(ctx, "membership breaker closed",
			"breaker", v.breaker.Name(),
		)
	}
	return member, nil
}

// admitTrial lets one request through per retry interval while the breaker
// is open.
func (v *BreakerVerifier) admitTrial() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	if now.Sub(v.lastTrial) < v.retryAfter {
		return false
	}
	v.lastTrial = now
	return true
}
