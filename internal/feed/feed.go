package feed

import "sync"

// DefaultBuffer is the per-subscriber channel capacity when none is given.
const DefaultBuffer = 256

// Feed is a bounded push-based event stream. Publish never blocks: when a
// subscriber's buffer is full the oldest buffered event is dropped to make
// room. A slow spectator therefore loses its oldest events rather than
// stalling the simulation.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// New creates a Feed with the given per-subscriber buffer size.
// Non-positive sizes fall back to DefaultBuffer.
func New(buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Feed{
		subs:   make(map[int]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new consumer and returns its channel along with an
// unsubscribe function. The channel is closed on unsubscribe or when the
// feed itself is closed.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if sub, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
// Full subscriber buffers drop their oldest event first.
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	for _, ch := range f.subs {
		for {
			select {
			case ch <- e:
			default:
				// Buffer full: drop the oldest and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Close closes every subscriber channel. Publishing after Close is a no-op.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscribers.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
