// Package events carries the title-updated broadcast from the background
// title generator to anything rendering a chat list.
package events

import (
	"sync"

	"theia/theia/utils/types"
)

type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(types.TitleUpdate)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(types.TitleUpdate))}
}

// Subscribe registers a callback and returns its unsubscribe func.
func (b *Bus) Subscribe(fn func(types.TitleUpdate)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the update to every current subscriber. Callbacks run
// outside the bus lock so a subscriber may unsubscribe from within one.
func (b *Bus) Publish(update types.TitleUpdate) {
	b.mu.Lock()
	fns := make([]func(types.TitleUpdate), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(update)
	}
}
