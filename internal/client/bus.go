package client

import "sync"

// EventKind names a session mutation.
type EventKind string

const (
	EventSelectionChanged   EventKind = "selection_changed"
	EventSourceChanged      EventKind = "source_changed"
	EventUserChanged        EventKind = "user_changed"
	EventModalChanged       EventKind = "modal_changed"
	EventGenerationFinished EventKind = "generation_finished"
	EventGenerationFailed   EventKind = "generation_failed"
	EventReset              EventKind = "reset"
)

// Event is delivered to every subscriber after the session lock is released.
type Event struct {
	Kind EventKind
	Err  error
}

// Bus fans events out synchronously, in subscription order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
