package settlement

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusFansOutToAllSubscribers(t *testing.T) {
	b := NewBus()
	var a, c atomic.Int32
	b.Subscribe(func(ctx context.Context, ev OrderPaid) { a.Add(1) })
	b.Subscribe(func(ctx context.Context, ev OrderPaid) { c.Add(1) })

	b.Publish(OrderPaid{OrderID: "o1"})
	b.Publish(OrderPaid{OrderID: "o2"})
	b.Drain()

	assert.Equal(t, int32(2), a.Load())
	assert.Equal(t, int32(2), c.Load())
}

func TestBusWithoutSubscribers(t *testing.T) {
	b := NewBus()
	b.Publish(OrderPaid{OrderID: "o1"})
	b.Drain() // must not block
}

func TestSubscriberSeesEventData(t *testing.T) {
	b := NewBus()
	got := make(chan OrderPaid, 1)
	b.Subscribe(func(ctx context.Context, ev OrderPaid) { got <- ev })

	b.Publish(OrderPaid{
		OrderID:    "o1",
		BuyerID:    "u1",
		TotalCents: 200,
		Currency:   "CZK",
		Items:      []Item{{ItemID: "item-a", Title: "Item A", Qty: 2, UnitCents: 100}},
	})
	b.Drain()

	ev := <-got
	assert.Equal(t, "o1", ev.OrderID)
	assert.Equal(t, 200, ev.TotalCents)
	assert.Len(t, ev.Items, 1)
}
