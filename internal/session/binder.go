// Package session maps live transport connections to room participants.
// Bindings expire on a TTL so a dropped connection leaves a reconnect grace
// window instead of immediately ejecting the participant.
package session

import (
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session binding not found")

const defaultSweepInterval = 5 * time.Second

type Binding struct {
	SessionID     string
	RoomID        string
	ParticipantID string
	ExpiresAt     time.Time
}

// ExpiryFunc is invoked (off the binder's sweep goroutine) for each binding
// reclaimed by TTL, letting the engine turn it into a leave/forfeit.
type ExpiryFunc func(b Binding)

type Binder struct {
	ttl      time.Duration
	onExpire ExpiryFunc

	mu       sync.Mutex
	bindings map[string]*Binding
	done     chan struct{}
	stopOnce sync.Once
}

func NewBinder(ttl time.Duration, onExpire ExpiryFunc) *Binder {
	b := &Binder{
		ttl:      ttl,
		onExpire: onExpire,
		bindings: make(map[string]*Binding),
		done:     make(chan struct{}),
	}
	go b.sweep()
	return b
}

// Bind registers or replaces the binding for a session. Any stale binding
// for the same participant (a previous connection that never said goodbye)
// is discarded silently so its expiry cannot eject a reconnected player.
func (b *Binder) Bind(sessionID, roomID, participantID string) {
	b.mu.Lock()
	for id, bound := range b.bindings {
		if bound.ParticipantID == participantID && id != sessionID {
			delete(b.bindings, id)
		}
	}
	b.bindings[sessionID] = &Binding{
		SessionID:     sessionID,
		RoomID:        roomID,
		ParticipantID: participantID,
		ExpiresAt:     time.Now().Add(b.ttl),
	}
	b.mu.Unlock()
}

// Resolve returns the binding for a session and refreshes its TTL, since a
// resolving session is by definition active.
func (b *Binder) Resolve(sessionID string) (Binding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bound, ok := b.bindings[sessionID]
	if !ok || time.Now().After(bound.ExpiresAt) {
		return Binding{}, ErrNotFound
	}
	bound.ExpiresAt = time.Now().Add(b.ttl)
	return *bound, nil
}

// Refresh extends the TTL without returning the binding.
func (b *Binder) Refresh(sessionID string) {
	b.mu.Lock()
	if bound, ok := b.bindings[sessionID]; ok {
		bound.ExpiresAt = time.Now().Add(b.ttl)
	}
	b.mu.Unlock()
}

// Unbind discards the binding without invoking the expiry callback; an
// explicit leave already told the engine everything it needs.
func (b *Binder) Unbind(sessionID string) {
	b.mu.Lock()
	delete(b.bindings, sessionID)
	b.mu.Unlock()
}

func (b *Binder) Close() {
	b.stopOnce.Do(func() { close(b.done) })
}

func (b *Binder) sweep() {
	interval := defaultSweepInterval
	if b.ttl/4 < interval {
		interval = b.ttl / 4
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case now := <-ticker.C:
			var expired []Binding
			b.mu.Lock()
			for id, bound := range b.bindings {
				if now.After(bound.ExpiresAt) {
					expired = append(expired, *bound)
					delete(b.bindings, id)
				}
			}
			b.mu.Unlock()

			if b.onExpire != nil {
				for _, bound := range expired {
					go b.onExpire(bound)
				}
			}
		}
	}
}
