package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/events"
)

// MemoryFeed is an in-process stand-in for EventFeed, used by the console
// and by tests that run without Redis.
type MemoryFeed struct {
	mu      sync.Mutex
	pending map[uuid.UUID][]events.Event
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{pending: make(map[uuid.UUID][]events.Event)}
}

func (f *MemoryFeed) Publish(ctx context.Context, sessionID uuid.UUID, evt events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[sessionID] = append(f.pending[sessionID], evt)
	return nil
}

func (f *MemoryFeed) Drain(ctx context.Context, sessionID uuid.UUID) ([]events.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	evts := f.pending[sessionID]
	delete(f.pending, sessionID)
	return evts, nil
}

func (f *MemoryFeed) Peek(ctx context.Context, sessionID uuid.UUID, limit int) ([]events.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	evts := f.pending[sessionID]
	if limit > 0 && len(evts) > limit {
		evts = evts[:limit]
	}
	out := make([]events.Event, len(evts))
	copy(out, evts)
	return out, nil
}

// MemoryLock is an in-process stand-in for SessionLock.
type MemoryLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]string
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[uuid.UUID]string)}
}

func (l *MemoryLock) Acquire(ctx context.Context, sessionID uuid.UUID) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[sessionID]; taken {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[sessionID] = token
	return token, true, nil
}

func (l *MemoryLock) Release(ctx context.Context, sessionID uuid.UUID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[sessionID] == token {
		delete(l.held, sessionID)
	}
	return nil
}
