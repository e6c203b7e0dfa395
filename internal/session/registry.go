// Package session tracks connected organizations. A session binds an opaque
// id to an organization and its sealed access token until a fixed expiry;
// activity does not extend it.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
)

const idBytes = 32

// Sealer encrypts credentials at rest in the registry.
type Sealer interface {
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(sealed []byte) (string, error)
}

// Session is an authenticated organization context.
type Session struct {
	ID           string
	Organization string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	credential   []byte
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry is the process-wide session store.
type Registry struct {
	sealer   Sealer
	ttl      time.Duration
	now      func() time.Time
	sessions *xsync.MapOf[string, *Session]
}

// NewRegistry returns an empty registry whose sessions live for ttl.
func NewRegistry(sealer Sealer, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		sealer:   sealer,
		ttl:      ttl,
		now:      time.Now,
		sessions: xsync.NewMapOf[string, *Session](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new session for organization and returns it.
func (r *Registry) Create(organization, pat string) (*Session, error) {
	sealed, err := r.sealer.Encrypt(pat)
	if err != nil {
		return nil, fmt.Errorf("seal credential: %w", err)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := r.now()
	s := &Session{
		ID:           id,
		Organization: organization,
		CreatedAt:    now,
		ExpiresAt:    now.Add(r.ttl),
		credential:   sealed,
	}
	r.sessions.Store(id, s)

	return s, nil
}

// Resolve returns the live session for id. It fails with
// domain.ErrUnauthorized when none exists and with domain.ErrSessionExpired
// when it has expired, in which case the entry is removed.
func (r *Registry) Resolve(id string) (*Session, error) {
	var (
		found   *Session
		expired bool
	)
	now := r.now()

	r.sessions.Compute(id, func(old *Session, loaded bool) (*Session, bool) {
		if !loaded {
			return old, true
		}
		if !now.Before(old.ExpiresAt) {
			expired = true
			return old, true
		}
		found = old
		return old, false
	})

	switch {
	case expired:
		return nil, domain.ErrSessionExpired
	case found == nil:
		return nil, domain.ErrUnauthorized
	default:
		return found, nil
	}
}

// Reveal decrypts the access token of s.
func (r *Registry) Reveal(s *Session) (string, error) {
	pat, err := r.sealer.Decrypt(s.credential)
	if err != nil {
		return "", fmt.Errorf("open credential: %w", err)
	}
	return pat, nil
}

// Revoke deletes the session and reports whether it existed.
func (r *Registry) Revoke(id string) bool {
	_, existed := r.sessions.LoadAndDelete(id)
	return existed
}

// Len counts stored sessions, including expired ones not yet resolved.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

func newID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
