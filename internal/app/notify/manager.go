// Package notify fans game events out to subscribers.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osa030/blindbox/internal/app/game"
)

// Sink receives broadcast game events (e.g. a websocket connection).
type Sink interface {
	Send(game.Event) error
}

// subscription pairs a sink with its ID.
type subscription struct {
	id   string
	sink Sink
}

// Manager manages subscriptions and broadcasting of game events.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription

	sequenceNo   uint64
	sequenceNoMu sync.Mutex
}

// NewManager creates a new manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a sink and returns its subscription ID.
func (m *Manager) Subscribe(sink Sink) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{id: id, sink: sink}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// NextSequenceNo returns the next sequence number.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Broadcast sends an event to all subscribers. Each send runs in its own
// goroutine with a timeout so one slow subscriber cannot stall the rest.
func (m *Manager) Broadcast(e game.Event) {
	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.sink.Send(e)
			}()

			select {
			case <-done:
				// Send errors are ignored; a dead sink is dropped when its
				// connection handler unsubscribes.
			case <-ctx.Done():
			}
		}(sub)
	}
	wg.Wait()
}

// Pump forwards machine events to subscribers until the channel closes.
// Run it in its own goroutine.
func (m *Manager) Pump(events <-chan game.Event) {
	for e := range events {
		m.Broadcast(e)
	}
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
