package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCreatesAndReusesSession(t *testing.T) {
	s := NewSessions()
	a := s.Get("conn-1")
	b := s.Get("conn-1")
	assert.Same(t, a, b)

	c := s.Get("conn-2")
	assert.NotSame(t, a, c)
}

func TestSessionSetGet(t *testing.T) {
	s := NewSessions()
	sess := s.Get("conn-1")
	_, ok := sess.Get("key")
	assert.False(t, ok)

	sess.Set("key", 42)
	v, ok := sess.Get("key")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestDropRemovesSession(t *testing.T) {
	s := NewSessions()
	a := s.Get("conn-1")
	a.Set("k", "v")
	s.Drop("conn-1")

	b := s.Get("conn-1")
	assert.NotSame(t, a, b)
	_, ok := b.Get("k")
	assert.False(t, ok)
}

func TestSweepReclaimsExpiredSessions(t *testing.T) {
	s := NewSessions()
	s.Get("stale")
	s.Get("fresh")

	future := time.Now().Add(SessionTTL + time.Minute)
	n := s.Sweep(future)
	assert.Equal(t, 2, n)

	assert.Zero(t, len(s.table))
}

func TestSweepKeepsUnexpiredSessions(t *testing.T) {
	s := NewSessions()
	s.Get("conn-1")

	n := s.Sweep(time.Now())
	assert.Equal(t, 0, n)
	assert.Len(t, s.table, 1)
}
