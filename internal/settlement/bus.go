package settlement

import (
	"context"
	"sync"
)

// Handler consumes an OrderPaid event. Handlers own their error handling;
// the order is already committed PAID by the time they run, so a failing
// handler can log and retry out of band but can never roll the order back.
type Handler func(ctx context.Context, ev OrderPaid)

// Bus is the in-process settlement event bus. Publish fans an event out to
// every subscriber on its own goroutine, so the publishing request returns
// before downstream work finishes.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish must only be called after the transaction that recorded the PAID
// transition has committed.
func (b *Bus) Publish(ev OrderPaid) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers))
	copy(hs, b.handlers)
	b.mu.RUnlock()

	for _, h := range hs {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			// Detached from the request context: the webhook response
			// does not wait for subscribers.
			h(context.Background(), ev)
		}(h)
	}
}

// Drain blocks until all in-flight deliveries have finished.
func (b *Bus) Drain() { b.wg.Wait() }
