package battle

import (
	"context"
	"sync"
	"time"
)

// roomGuard serializes all mutating work per room id while letting distinct
// rooms proceed in parallel. One semaphore slot exists per room, created on
// first use and retired once no holder or waiter references it.
type roomGuard struct {
	timeout time.Duration

	mu    sync.Mutex
	slots map[string]*guardSlot
}

type guardSlot struct {
	sem  chan struct{}
	refs int
}

func newRoomGuard(timeout time.Duration) *roomGuard {
	return &roomGuard{
		timeout: timeout,
		slots:   make(map[string]*guardSlot),
	}
}

// acquire blocks until the caller holds the room's exclusive slot, the
// bounded timeout elapses (ErrRoomBusy), or ctx is cancelled. The returned
// function releases the slot.
func (g *roomGuard) acquire(ctx context.Context, roomID string) (func(), error) {
	g.mu.Lock()
	s, ok := g.slots[roomID]
	if !ok {
		s = &guardSlot{sem: make(chan struct{}, 1)}
		g.slots[roomID] = s
	}
	s.refs++
	g.mu.Unlock()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
		return func() {
			<-s.sem
			g.unref(roomID, s)
		}, nil
	case <-timer.C:
		g.unref(roomID, s)
		return nil, ErrRoomBusy
	case <-ctx.Done():
		g.unref(roomID, s)
		return nil, ctx.Err()
	}
}

func (g *roomGuard) unref(roomID string, s *guardSlot) {
	g.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(g.slots, roomID)
	}
	g.mu.Unlock()
}
