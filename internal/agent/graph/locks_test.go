package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocksRemoveEntriesOnRelease(t *testing.T) {
	s := newSessionLocks()

	unlock, err := s.acquire(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, s.size())

	unlock()
	assert.Equal(t, 0, s.size())
}

func TestSessionLocksAcquireCancelledWhileBusy(t *testing.T) {
	s := newSessionLocks()

	unlock, err := s.acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = s.acquire(ctx, "a")
	require.ErrorIs(t, err, context.Canceled)

	// The holder's entry survives the cancelled waiter.
	assert.Equal(t, 1, s.size())
	unlock()
	assert.Equal(t, 0, s.size())
}

func TestSessionLocksIndependentSessionsDoNotBlock(t *testing.T) {
	s := newSessionLocks()

	unlockA, err := s.acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := s.acquire(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, 2, s.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, s.size())
}
