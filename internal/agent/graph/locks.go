package graph

import (
	"context"
	"sync"
)

// sessionLocks serializes execution per session id while leaving unrelated
// sessions fully parallel. Two interleaved runs for the same session would
// race on the last-write-wins checkpoint and could drop a turn. Entries are
// refcounted and removed once the last waiter releases, so session churn does
// not grow the map without bound.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// acquire blocks until the session's lock is held or ctx is cancelled, and
// returns the unlock function.
func (s *sessionLocks) acquire(ctx context.Context, sessionID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{sem: make(chan struct{}, 1)}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() { s.release(sessionID, l, true) }, nil
	case <-ctx.Done():
		s.release(sessionID, l, false)
		return nil, ctx.Err()
	}
}

func (s *sessionLocks) release(sessionID string, l *sessionLock, held bool) {
	if held {
		<-l.sem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, sessionID)
	}
}

// size reports the number of live lock entries.
func (s *sessionLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
