package breath

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// emitTimeout is how long Emit waits on a full subscriber before dropping.
const emitTimeout = 100 * time.Millisecond

// Emitter fans engine events out to subscribers.
// Each subscriber has its own buffered channel; a subscriber that stops
// draining loses events instead of stalling the engine.
type Emitter struct {
	mu      sync.RWMutex
	subs    []chan Event
	closed  bool
	dropped atomic.Uint64
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers a subscriber with the given buffer size.
// The channel is closed by Close. Subscribing after Close returns a closed channel.
func (e *Emitter) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Emit sends an event to every subscriber.
// If a subscriber's channel is full, it tries with a timeout before dropping the event.
func (e *Emitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	for _, ch := range e.subs {
		select {
		case ch <- event:
			continue
		default:
		}

		select {
		case ch <- event:
		case <-time.After(emitTimeout):
			count := e.dropped.Add(1)
			if count%10 == 1 {
				log.Printf("[breath] WARNING: subscriber full, dropped event (total dropped: %d): type=%s", count, event.Type)
			}
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *Emitter) DroppedCount() uint64 {
	return e.dropped.Load()
}

// Close closes every subscriber channel. Further Emit calls are ignored.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}
