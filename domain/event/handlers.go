package event

import "sync"

// Handler Each kind of event has his own handler
// Based on the Chain of responsibility pattern
type Handler interface {
	Handle(event Event)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(event Event)

func (f HandlerFunc) Handle(event Event) { f(event) }

// Chain hands every event to each handler in order.
type Chain []Handler

func (c Chain) Handle(event Event) {
	for _, h := range c {
		h.Handle(event)
	}
}

type Counter struct {
	mu     sync.Mutex
	counts map[Type]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[Type]int)}
}

func (c *Counter) Increment(t Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[t]++
}

func (c *Counter) Get(t Type) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[t]
}
