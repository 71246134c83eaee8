package event

import "sync"

// Notifier receives events. Implementations must not call back into the
// engine that produced the event.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(Event) {})

// Bus fans events out to subscribers in subscription order.
//
// Thread-safety: Subscribe and Notify may be called from different
// goroutines. Subscribers are invoked synchronously on the notifying
// goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	n  Notifier
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers n and returns a function that removes it.
func (b *Bus) Subscribe(n Notifier) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, n: n})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers e to every current subscriber.
func (b *Bus) Notify(e Event) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.n.Notify(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Recorder captures events in arrival order. Used by the harness and tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify appends e.
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the wire names of everything recorded.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name()
	}
	return out
}

// Count returns how many recorded events render to name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name() == name {
			n++
		}
	}
	return n
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
