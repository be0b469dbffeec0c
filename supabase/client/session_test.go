package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.Nil(t, s.Load())

	s.Save(&Session{AccessToken: "t"})
	assert.Equal(t, "t", s.Load().AccessToken)

	s.Clear()
	assert.Nil(t, s.Load())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, (&Session{}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
}
