package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/secret"
	"github.com/sivakumaru2002/devops-ease-access/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionTTL = 30 * time.Minute

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newRegistry(t *testing.T) (*session.Registry, *clock) {
	t.Helper()

	codec, err := secret.NewEphemeralCodec()
	require.NoError(t, err)

	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return session.NewRegistry(codec, sessionTTL, session.WithClock(clk.Now)), clk
}

func TestRegistry_CreateResolveReveal(t *testing.T) {
	reg, _ := newRegistry(t)

	s, err := reg.Create("contoso", "secret-pat")
	require.NoError(t, err)
	assert.Len(t, s.ID, 64)

	got, err := reg.Resolve(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "contoso", got.Organization)

	pat, err := reg.Reveal(got)
	require.NoError(t, err)
	assert.Equal(t, "secret-pat", pat)
}

func TestRegistry_UnknownID(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Resolve("does-not-exist")

	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegistry_ExpiryIsFixedFromCreation(t *testing.T) {
	reg, clk := newRegistry(t)

	s, err := reg.Create("contoso", "pat")
	require.NoError(t, err)

	clk.now = clk.now.Add(sessionTTL - time.Nanosecond)
	_, err = reg.Resolve(s.ID)
	require.NoError(t, err, "session must be valid just before its TTL")

	clk.now = clk.now.Add(time.Nanosecond)
	_, err = reg.Resolve(s.ID)
	require.ErrorIs(t, err, domain.ErrSessionExpired)

	_, err = reg.Resolve(s.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized, "expired entry is removed on first detection")
	assert.Zero(t, reg.Len())
}

func TestRegistry_ActivityDoesNotExtend(t *testing.T) {
	reg, clk := newRegistry(t)

	s, err := reg.Create("contoso", "pat")
	require.NoError(t, err)

	for range 5 {
		clk.now = clk.now.Add(sessionTTL / 6)
		_, resolveErr := reg.Resolve(s.ID)
		require.NoError(t, resolveErr)
	}

	clk.now = clk.now.Add(sessionTTL / 6)
	_, err = reg.Resolve(s.ID)
	assert.True(t, errors.Is(err, domain.ErrSessionExpired))
}

func TestRegistry_Revoke(t *testing.T) {
	reg, _ := newRegistry(t)

	s, err := reg.Create("contoso", "pat")
	require.NoError(t, err)

	assert.True(t, reg.Revoke(s.ID))
	assert.False(t, reg.Revoke(s.ID))

	_, err = reg.Resolve(s.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegistry_IDsAreUnique(t *testing.T) {
	reg, _ := newRegistry(t)

	seen := make(map[string]struct{})
	for range 100 {
		s, err := reg.Create("contoso", "pat")
		require.NoError(t, err)
		_, dup := seen[s.ID]
		require.False(t, dup)
		seen[s.ID] = struct{}{}
	}
}
