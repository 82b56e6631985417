package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStoreRegisterAndGet(t *testing.T) {
	s := newRequestStore()
	s.register("req-1")

	r, ok := s.get("req-1")
	require.True(t, ok)
	assert.True(t, r.Active)
	assert.False(t, r.StartedAt.IsZero())
}

func TestRequestStoreGetUnknownID(t *testing.T) {
	s := newRequestStore()
	_, ok := s.get("nope")
	assert.False(t, ok)
}

func TestRequestStoreWithLockMutatesRegisteredEntry(t *testing.T) {
	s := newRequestStore()
	s.register("req-2")

	s.withLock("req-2", func(r *RequestState) {
		r.BestMove = "e2e4"
		r.Active = false
		r.FinishedAt = time.Now()
	})

	r, ok := s.get("req-2")
	require.True(t, ok)
	assert.Equal(t, "e2e4", r.BestMove)
	assert.False(t, r.Active)
}

func TestRequestStoreWithLockIgnoresUnknownID(t *testing.T) {
	s := newRequestStore()
	assert.NotPanics(t, func() {
		s.withLock("ghost", func(r *RequestState) { r.BestMove = "x" })
	})
}

func TestRequestStoreEvictsOldFinishedEntries(t *testing.T) {
	s := newRequestStore()
	s.register("req-old")
	s.withLock("req-old", func(r *RequestState) {
		r.Active = false
		r.FinishedAt = time.Now().Add(-2 * requestEvictionAge)
	})

	_, ok := s.get("req-old")
	assert.False(t, ok)
}
