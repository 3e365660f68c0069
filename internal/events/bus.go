package events

import "sync"

// Bus fans batch outcomes out to in-process observers (ops status, tests).
// Publishing never blocks; slow subscribers miss updates. The last published
// value is retained for late readers.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan any
	latest any
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe() <-chan any {
	ch := make(chan any, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(ev any) {
	b.mu.Lock()
	b.latest = ev
	subs := b.subs
	b.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Latest returns the most recently published value, or nil.
func (b *Bus) Latest() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}
