package entitlement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/subapavel/samofujera/internal/settlement"
)

// Granter turns settlement events into entitlement rows, one per purchased
// item. Rows are inserted unconditionally; a redelivered event can leave a
// duplicate grant, which the union access check makes harmless.
type Granter struct {
	Store Store
}

// Grant inserts one row per item in the event's snapshot.
func (g *Granter) Grant(ctx context.Context, ev settlement.OrderPaid) error {
	now := time.Now().UTC()
	for _, it := range ev.Items {
		e := Entitlement{
			ID:        uuid.NewString(),
			UserID:    ev.BuyerID,
			ItemID:    it.ItemID,
			Source:    SourcePurchase,
			SourceID:  ev.OrderID,
			GrantedAt: now,
		}
		if err := g.Store.Insert(ctx, e); err != nil {
			return fmt.Errorf("grant %s/%s: %w", ev.BuyerID, it.ItemID, err)
		}
	}
	return nil
}

// HandleOrderPaid is the settlement bus subscriber form of Grant.
func (g *Granter) HandleOrderPaid(ctx context.Context, ev settlement.OrderPaid) {
	if err := g.Grant(ctx, ev); err != nil {
		log.Printf("entitlement grant for order %s: %v", ev.OrderID, err)
	}
}
