// Package membership answers the single question the organization gate asks:
// is this user a verified member of this organization. The authoritative
// answer lives in a peer service; this package provides the client, an
// optional Redis cache in front of it, and a static implementation for tests
// and local development.
package membership

import (
	"context"
	"fmt"
	"sync"

	id "taskhub/pkg/domain"
)

// Verifier reports whether a user belongs to an organization. An error means
// the answer could not be determined; callers must treat that the same as
// "not a member" when gating mutations.
type Verifier interface {
	IsMember(ctx context.Context, userID id.UserID, orgID id.OrgID) (bool, error)
}

// StaticVerifier is an in-memory membership table.
type StaticVerifier struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{members: make(map[string]struct{})}
}

// Grant adds userID to orgID's membership.
func (v *StaticVerifier) Grant(userID id.UserID, orgID id.OrgID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.members[memberKey(userID, orgID)] = struct{}{}
}

// Revoke removes userID from orgID's membership.
func (v *StaticVerifier) Revoke(userID id.UserID, orgID id.OrgID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.members, memberKey(userID, orgID))
}

func (v *StaticVerifier) IsMember(_ context.Context, userID id.UserID, orgID id.OrgID) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.members[memberKey(userID, orgID)]
	return ok, nil
}

func memberKey(userID id.UserID, orgID id.OrgID) string {
	return fmt.Sprintf("%s:%s", orgID, userID)
}
