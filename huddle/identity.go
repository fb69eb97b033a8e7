package huddle

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated user's profile as known to this
// session. Username is the join key correlating presence and message
// authorship across the whole client.
type Identity struct {
	UserID   string `json:"_id" yaml:"user_id"`
	Username string `json:"username" yaml:"username"`
	Avatar   string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// IdentityLookup resolves the authenticated profile for a bearer token.
// It is called once at startup to seed the session identity before the
// transport opens.
type IdentityLookup interface {
	Me(ctx context.Context, token string) (Identity, error)
}

// CredentialStore is the shared token and profile cache between the
// session core and the external profile-edit flow. Writes from either
// side are last-write-wins; subscribers are notified on every profile
// write so the two sides reconcile through the store.
type CredentialStore interface {
	Token() (string, bool)
	Profile() (Identity, bool)
	SetProfile(Identity)
	Clear()

	// Subscribe registers a profile-change callback and returns a
	// function that removes it.
	Subscribe(fn func(Identity)) (unsubscribe func())
}

// MemoryCredentialStore is an in-process CredentialStore with a typed
// subscriber list.
type MemoryCredentialStore struct {
	mu         sync.Mutex
	token      string
	profile    Identity
	hasProfile bool
	subs       map[int]func(Identity)
	nextSub    int
}

// NewMemoryCredentialStore creates a store holding the given token.
func NewMemoryCredentialStore(token string) *MemoryCredentialStore {
	return &MemoryCredentialStore{
		token: token,
		subs:  make(map[int]func(Identity)),
	}
}

func (s *MemoryCredentialStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *MemoryCredentialStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryCredentialStore) Profile() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.hasProfile
}

// SetProfile stores the profile and notifies subscribers. Callbacks run
// outside the store lock so they may call back into the store.
func (s *MemoryCredentialStore) SetProfile(p Identity) {
	s.mu.Lock()
	s.profile = p
	s.hasProfile = true
	fns := make([]func(Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// Clear drops the token and cached profile. Subscribers are not
// notified: a cleared store means the session is over.
func (s *MemoryCredentialStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.profile = Identity{}
	s.hasProfile = false
	s.mu.Unlock()
}

func (s *MemoryCredentialStore) Subscribe(fn func(Identity)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// TokenClaims are the claims huddle servers embed in access tokens.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// PeekToken decodes token claims without verifying the signature. The
// client holds no signing secret; the server stays the authority on
// validity. This only rejects tokens that are plainly expired or
// malformed before any network round trip.
func PeekToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, WrapError(ErrorAuthFailure, "malformed token", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, NewError(ErrorAuthFailure, "token expired")
	}
	return claims, nil
}
