package battle

import (
	"sync"
	"time"
)

// TurnTimer tracks at most one outstanding deadline per room (the STARTING
// grace window or the current question's expiry). Arming replaces any live
// timer for the room; firing is exactly-once.
type TurnTimer struct {
	mu     sync.Mutex
	seq    uint64
	timers map[string]*roomTimer
}

type roomTimer struct {
	gen   uint64
	timer *time.Timer
}

func NewTurnTimer() *TurnTimer {
	return &TurnTimer{timers: make(map[string]*roomTimer)}
}

// Arm schedules onFire after d, cancelling any timer already armed for the
// room. onFire runs on its own goroutine via time.AfterFunc; callers are
// expected to re-validate room state when it fires.
func (t *TurnTimer) Arm(roomID string, d time.Duration, onFire func()) {
	t.mu.Lock()
	if cur, ok := t.timers[roomID]; ok {
		cur.timer.Stop()
		delete(t.timers, roomID)
	}
	t.seq++
	gen := t.seq
	rt := &roomTimer{gen: gen}
	rt.timer = time.AfterFunc(d, func() {
		t.fire(roomID, gen, onFire)
	})
	t.timers[roomID] = rt
	t.mu.Unlock()
}

// Cancel stops the room's timer if one is armed. Safe to call when none is.
func (t *TurnTimer) Cancel(roomID string) {
	t.mu.Lock()
	if cur, ok := t.timers[roomID]; ok {
		cur.timer.Stop()
		delete(t.timers, roomID)
	}
	t.mu.Unlock()
}

// Armed reports whether the room currently has a live timer.
func (t *TurnTimer) Armed(roomID string) bool {
	t.mu.Lock()
	_, ok := t.timers[roomID]
	t.mu.Unlock()
	return ok
}

func (t *TurnTimer) fire(roomID string, gen uint64, onFire func()) {
	t.mu.Lock()
	cur, ok := t.timers[roomID]
	if !ok || cur.gen != gen {
		// Replaced or cancelled between scheduling and firing.
		t.mu.Unlock()
		return
	}
	delete(t.timers, roomID)
	t.mu.Unlock()
	onFire()
}
