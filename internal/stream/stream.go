// Package stream fans access decisions out to live subscribers. Monitoring
// dashboards watch the feed to see which operations are being checked and
// how the policy answered.
package stream

import (
	"context"
	"sync"
	"time"

	"ontoserve.org/internal/registry"
)

// DecisionEvent is one answered access check.
type DecisionEvent struct {
	User      registry.UserID      `json:"user"`
	Project   registry.ProjectID   `json:"project"`
	Operation registry.OperationID `json:"operation"`
	Allowed   bool                 `json:"allowed"`
	Timestamp time.Time            `json:"timestamp"`
}

// Stream fan-outs decision events to all active subscribers.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan DecisionEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan DecisionEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan DecisionEvent {
	ch := make(chan DecisionEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt DecisionEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
