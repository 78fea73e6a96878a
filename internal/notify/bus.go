// An in-process pub/sub for notification responses.
//
// When the user acts on a delivered reminder (a tap, reported by the client
// through the HTTP surface), the response is published here and consumed by
// a single rollover worker. Funneling every trigger source through one
// subscription serializes rollover runs instead of letting callbacks fire
// re-entrantly from multiple sources.
package notify

import "sync"

// Response is a user interaction with a delivered reminder.
type Response struct {
	Identifier string  `json:"identifier"`
	Payload    Payload `json:"payload"`
}

// Bus is a minimal fanout of Response events. The zero value is not usable;
// construct with NewBus. Safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Response
	next int
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Response)}
}

// Subscribe registers a buffered subscription and returns the receive
// channel plus an unsubscribe function. Unsubscribing closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Response, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Response, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers r to every subscriber and reports whether at least one
// accepted it. Delivery is non-blocking: a subscriber whose buffer is full
// misses the event rather than stalling the publisher (a missed tap is
// recovered by the next daily pass).
func (b *Bus) Publish(r Response) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := false
	for _, ch := range b.subs {
		select {
		case ch <- r:
			delivered = true
		default:
		}
	}
	return delivered
}
