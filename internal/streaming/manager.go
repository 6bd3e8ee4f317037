// Package streaming implements the in-process, per-thread broadcast fan-out
// that backs the server-sent-events endpoint.
package streaming

import (
	"sync"

	"github.com/google/uuid"
)

// ChannelCapacity bounds each subscriber's buffered channel. A subscriber
// that falls this far behind loses its oldest unread messages rather than
// stalling the publisher.
const ChannelCapacity = 100

type subscriber struct {
	ch chan []byte
}

// Manager fans published payloads out to every live subscriber of a thread,
// keyed by thread id. It supersedes the teacher's WebSocket Hub/Broker pair
// with a lighter, lossy, per-thread broadcast table.
type Manager struct {
	mu    sync.RWMutex
	lines map[uuid.UUID]map[*subscriber]struct{}
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{lines: make(map[uuid.UUID]map[*subscriber]struct{})}
}

// Subscription is a live handle returned by Subscribe; callers must call
// Unsubscribe when done reading.
type Subscription struct {
	threadID uuid.UUID
	sub      *subscriber
	mgr      *Manager
}

// Receive returns the subscription's channel of published payloads.
func (s *Subscription) Receive() <-chan []byte {
	return s.sub.ch
}

// Unsubscribe removes the subscription from its thread's fan-out table.
func (s *Subscription) Unsubscribe() {
	s.mgr.mu.Lock()
	defer s.mgr.mu.Unlock()
	subs, ok := s.mgr.lines[s.threadID]
	if !ok {
		return
	}
	delete(subs, s.sub)
	close(s.sub.ch)
}

// Subscribe returns a new Subscription for threadID, creating its fan-out
// table on first use.
func (m *Manager) Subscribe(threadID uuid.UUID) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.lines[threadID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		m.lines[threadID] = subs
	}

	sub := &subscriber{ch: make(chan []byte, ChannelCapacity)}
	subs[sub] = struct{}{}

	return &Subscription{threadID: threadID, sub: sub, mgr: m}
}

// Publish fans payload out to every live subscriber of threadID, returning
// the count that received it. A subscriber whose buffer is full has its
// oldest queued message dropped to make room (lossy fan-out); Publish never
// blocks on a slow reader.
func (m *Manager) Publish(threadID uuid.UUID, payload []byte) int {
	m.mu.RLock()
	subs := m.lines[threadID]
	targets := make([]*subscriber, 0, len(subs))
	for s := range subs {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		select {
		case s.ch <- payload:
			delivered++
		default:
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- payload:
				delivered++
			default:
			}
		}
	}
	return delivered
}

// CleanupUnused drops fan-out tables that have no live subscribers. It
// should be invoked periodically by a background goroutine.
func (m *Manager) CleanupUnused() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for threadID, subs := range m.lines {
		if len(subs) == 0 {
			delete(m.lines, threadID)
		}
	}
}
